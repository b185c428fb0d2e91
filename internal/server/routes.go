package server

import (
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/danmuck/ipcwire/internal/auth"
	"github.com/danmuck/ipcwire/internal/ipc"
	"github.com/danmuck/ipcwire/internal/observability"
	"github.com/danmuck/ipcwire/internal/transport"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func (s *Server) registerRoutes() {
	s.router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":    "ok",
			"uptime":    time.Since(s.appeared).String(),
			"service":   s.cfg.Name,
			"endpoints": ipc.Endpoints,
		})
	})

	s.router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	s.router.POST("/ipc/:endpoint", s.handleCall)
}

func (s *Server) handleCall(c *gin.Context) {
	endpoint := c.Param("endpoint")
	if err := s.authorize(c.GetHeader("Authorization")); err != nil {
		observability.RecordDispatch("http", "unknown", observability.OutcomeUnauthorized)
		c.String(http.StatusUnauthorized, "%s", err.Error())
		return
	}
	limit := int64(s.cfg.Limits.MaxPayloadBytes)
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, limit+1))
	if err != nil {
		c.String(http.StatusBadRequest, "read body: %v", err)
		return
	}
	if int64(len(body)) > limit {
		c.String(http.StatusRequestEntityTooLarge, "body exceeds %d bytes", limit)
		return
	}

	out, err := s.dispatcher.Dispatch(c.Request.Context(), endpoint, body)
	if err != nil {
		status, outcome := classify(err)
		observability.RecordDispatch("http", metricEndpoint(endpoint, err), outcome)
		c.String(status, "%s", err.Error())
		return
	}
	observability.RecordDispatch("http", endpoint, observability.OutcomeOK)
	c.Data(http.StatusOK, transport.ContentType, out)
}

func (s *Server) authorize(header string) error {
	credential, err := auth.ParseBearer(header)
	if err != nil {
		return err
	}
	return s.cfg.Auth.Validate(credential)
}

// classify maps a dispatch error to an HTTP-like status and a metrics outcome.
func classify(err error) (int, string) {
	switch {
	case errors.Is(err, ipc.ErrUnknownEndpoint):
		return http.StatusNotFound, observability.OutcomeUnknown
	case errors.Is(err, ipc.ErrMalformedArgs):
		return http.StatusBadRequest, observability.OutcomeDecodeError
	default:
		return http.StatusInternalServerError, observability.OutcomeBackendError
	}
}

// metricEndpoint keeps unknown endpoint names out of metric labels.
func metricEndpoint(endpoint string, err error) string {
	if errors.Is(err, ipc.ErrUnknownEndpoint) {
		return "unknown"
	}
	return endpoint
}
