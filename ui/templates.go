package ui

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/wcharczuk/go-chart/v2/drawing"

	apperrors "dataprobe/internal/errors"
)

//go:embed templates/*.html static/*
var embeddedFiles embed.FS

var templateFuncs = template.FuncMap{
	"color": func(c drawing.Color) template.CSS {
		return template.CSS(fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B))
	},
	"kindLabel": func(kind string) string {
		switch kind {
		case "categorical":
			return "categorias"
		case "numeric_range":
			return "intervalo numérico"
		case "date_range":
			return "intervalo de datas"
		}
		return "sem filtro"
	},
	"add": func(a, b int) int { return a + b },
}

func parseTemplates() (*template.Template, error) {
	return template.New("").Funcs(templateFuncs).ParseFS(embeddedFiles, "templates/*.html")
}

// renderTemplate executes a template with the given data. It renders to a buffer first so
// a failing template never leaves a half-written page.
func (s *Server) renderTemplate(c *gin.Context, status int, name string, data any) {
	var buf bytes.Buffer
	if err := s.templates.ExecuteTemplate(&buf, name, data); err != nil {
		s.logger.Error("template %s: %v", name, err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "template rendering failed"})
		return
	}
	c.Data(status, "text/html; charset=utf-8", buf.Bytes())
}

// renderError answers with the status the error maps to: JSON under /api, the upload page
// with the message otherwise
func (s *Server) renderError(c *gin.Context, err error, message string) {
	status := apperrors.HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("%s %s: %v", c.Request.Method, c.Request.URL.Path, err)
	} else {
		s.logger.Debug("%s %s: %v", c.Request.Method, c.Request.URL.Path, err)
	}

	if strings.HasPrefix(c.Request.URL.Path, "/api/") {
		c.JSON(status, gin.H{"error": message, "code": apperrors.GetCode(err)})
		return
	}

	view := pageView{Error: message, MaxUploadMB: s.options.MaxUploadBytes >> 20}
	if sess := currentSession(c); sess != nil {
		view.Session = s.newSessionView(sess.State())
	}
	s.renderTemplate(c, status, "index.html", view)
}
