package ui

import (
	"io/fs"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"dataprobe/domain/core"
	"dataprobe/internal/session"
)

const sessionKey = "session"

// setupMiddleware configures Gin middleware and static assets
func (s *Server) setupMiddleware() {
	s.router.Use(gin.Recovery())
	s.router.Use(s.requestLogger())
	s.router.Use(s.loadSession())

	staticFS, err := fs.Sub(embeddedFiles, "static")
	if err != nil {
		s.logger.Error("static filesystem unavailable: %v", err)
		return
	}
	s.router.StaticFS("/static", http.FS(staticFS))
}

// requestLogger logs every request and records its latency
func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		status := c.Writer.Status()
		elapsed := time.Since(start)

		s.metrics.IncrementCounter("http_requests_total", "route", route, "status", strconv.Itoa(status))
		s.metrics.RecordHistogram("http_request_seconds", elapsed.Seconds(), "route", route)
		s.logger.Debug("%s %s -> %d (%.2fms)", c.Request.Method, c.Request.URL.Path, status, float64(elapsed.Microseconds())/1000)
	}
}

// loadSession attaches the caller's live session, if any, to the context
func (s *Server) loadSession() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw, err := c.Cookie(SessionCookie)
		if err == nil {
			if id, err := core.ParseSessionID(raw); err == nil {
				if sess, err := s.sessions.Get(id); err == nil {
					c.Set(sessionKey, sess)
				}
			}
		}
		c.Next()
	}
}

// requireSession rejects requests without a live session
func (s *Server) requireSession(c *gin.Context) {
	if currentSession(c) == nil {
		s.renderError(c, core.ErrSessionNotFound, "Nenhum arquivo carregado. Envie um arquivo CSV ou Excel.")
		c.Abort()
		return
	}
	c.Next()
}

func currentSession(c *gin.Context) *session.Session {
	v, ok := c.Get(sessionKey)
	if !ok {
		return nil
	}
	sess, _ := v.(*session.Session)
	return sess
}

func (s *Server) setSessionCookie(c *gin.Context, id core.SessionID) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(SessionCookie, id.String(), int(s.options.SessionTTL.Seconds()), "/", "", false, true)
}

func (s *Server) clearSessionCookie(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(SessionCookie, "", -1, "/", "", false, true)
}
