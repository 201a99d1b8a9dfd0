package ui

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"dataprobe/adapters/excel"
	"dataprobe/domain/core"
	filterengine "dataprobe/internal/analysis/filter"
	apperrors "dataprobe/internal/errors"
)

// uploadField is the multipart field carrying the dataset
const uploadField = "dataset"

// handleIndex shows the upload form, and the explorer when a dataset is loaded
func (s *Server) handleIndex(c *gin.Context) {
	view := pageView{MaxUploadMB: s.options.MaxUploadBytes >> 20}
	if sess := currentSession(c); sess != nil {
		view.Session = s.newSessionView(sess.State())
	}
	s.renderTemplate(c, http.StatusOK, "index.html", view)
}

// handleUpload loads a CSV or XLSX file into a fresh session with default selections
func (s *Server) handleUpload(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, s.options.MaxUploadBytes)

	fh, err := c.FormFile(uploadField)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			s.renderError(c, apperrors.TooLarge(err.Error()),
				fmt.Sprintf("Arquivo maior que o limite de %d MB.", s.options.MaxUploadBytes>>20))
			return
		}
		s.renderError(c, apperrors.InvalidInput(err.Error()), "Selecione um arquivo CSV ou Excel para enviar.")
		return
	}

	format, err := excel.DetectFormat(fh.Filename, fh.Header.Get("Content-Type"))
	if err != nil {
		s.renderError(c, err, loadErrorMessage(err))
		return
	}

	f, err := fh.Open()
	if err != nil {
		s.renderError(c, apperrors.Wrap(err, "open upload"), "Não foi possível ler o arquivo enviado.")
		return
	}
	defer f.Close()

	ds, err := s.explorer.Load(c.Request.Context(), fh.Filename, f, format)
	if err != nil {
		s.renderError(c, err, loadErrorMessage(err))
		return
	}

	selections := ds.Plan.Defaults()
	outcome, err := s.explorer.Recompute(ds.Table, ds.Plan, selections)
	if err != nil {
		s.renderError(c, apperrors.Wrap(err, "initial recompute"), "Falha ao processar o arquivo.")
		return
	}

	var previous core.SessionID
	if sess := currentSession(c); sess != nil {
		previous = sess.ID
	}
	sess := s.sessions.Replace(previous, ds, selections, outcome)
	s.setSessionCookie(c, sess.ID)
	c.Redirect(http.StatusSeeOther, "/")
}

// handleFilters applies the submitted filter form to the session's dataset
func (s *Server) handleFilters(c *gin.Context) {
	sess := currentSession(c)
	if err := c.Request.ParseForm(); err != nil {
		s.renderError(c, apperrors.InvalidInput(err.Error()), "Formulário de filtros inválido.")
		return
	}

	ds := sess.State().Dataset
	selections, err := filterengine.ParseSelections(c.Request.PostForm, ds.Plan)
	if err != nil {
		s.renderError(c, err, "Filtro inválido: "+err.Error())
		return
	}

	outcome, err := s.explorer.Recompute(ds.Table, ds.Plan, selections)
	if err != nil {
		s.renderError(c, err, "Filtro inválido: "+err.Error())
		return
	}
	sess.Update(selections, outcome)
	c.Redirect(http.StatusSeeOther, "/")
}

// handleReset forgets the loaded dataset
func (s *Server) handleReset(c *gin.Context) {
	if sess := currentSession(c); sess != nil {
		s.sessions.End(sess.ID)
	}
	s.clearSessionCookie(c)
	c.Redirect(http.StatusSeeOther, "/")
}

func loadErrorMessage(err error) string {
	var pe *excel.ParseError
	switch {
	case errors.Is(err, core.ErrEmptyFile):
		return "O arquivo está vazio ou não possui cabeçalho."
	case errors.Is(err, core.ErrUnsupportedFormat):
		return "Formato não suportado. Envie um arquivo .csv ou .xlsx."
	case errors.As(err, &pe) && pe.Row > 0:
		return fmt.Sprintf("Arquivo mal formatado na linha %d.", pe.Row)
	case errors.Is(err, core.ErrMalformed):
		return "Arquivo mal formatado."
	}
	return "Não foi possível carregar o arquivo."
}
