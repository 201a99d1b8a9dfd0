package excel

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"dataprobe/domain/table"
)

func mustDate(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := time.Parse(table.DateLayout, s)
	require.NoError(t, err)
	return d
}
