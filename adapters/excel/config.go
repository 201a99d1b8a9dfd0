package excel

import (
	"dataprobe/adapters/datareadiness/coercer"
)

// LoaderConfig holds configuration for reading uploads
type LoaderConfig struct {
	Delimiter      rune                   `json:"delimiter"`
	MaxRows        int                    `json:"max_rows"` // 0 means unlimited
	CoercionConfig coercer.CoercionConfig `json:"coercion_config"`
}

// DefaultLoaderConfig returns comma-separated input with strict type inference
func DefaultLoaderConfig() LoaderConfig {
	return LoaderConfig{
		Delimiter:      ',',
		CoercionConfig: coercer.DefaultCoercionConfig(),
	}
}
