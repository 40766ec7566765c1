package server

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/danmuck/fixconv/internal/auth"
	"github.com/danmuck/fixconv/internal/converter"
	"github.com/danmuck/fixconv/internal/observability"
	"github.com/danmuck/fixconv/internal/protocol"
	"github.com/danmuck/fixconv/internal/protocol/schema"
	"github.com/danmuck/fixconv/internal/record"
	"github.com/danmuck/fixconv/internal/store"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
)

type VersionInfo struct {
	ID          string `json:"id"`
	BeginString string `json:"begin_string"`
	Reference   string `json:"reference"`
	Override    bool   `json:"override"`
}

type ValidateRequest struct {
	Message  string         `json:"message" binding:"required"`
	Version  string         `json:"version"`
	Criteria map[string]any `json:"criteria"`
}

type ValidateResponse struct {
	Valid bool   `json:"valid"`
	Error string `json:"error,omitempty"`
	Kind  string `json:"kind,omitempty"`
	Tag   string `json:"tag,omitempty"`
}

type ConvertResponse struct {
	ID     string        `json:"id,omitempty"`
	Record record.Record `json:"record"`
}

func (s *Server) RegisterRoutes() {
	s.router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"uptime":  time.Since(s.Appeared).String(),
			"service": serviceName,
			"version": serviceVersion,
		})
	})

	s.router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := s.router.Group("/v1")
	if s.apiToken != "" {
		v1.Use(auth.Require(auth.StaticToken{Token: s.apiToken}))
	}
	v1.GET("/versions", s.handleVersions)
	v1.POST("/convert", s.handleConvert)
	v1.POST("/convert/avro", s.handleConvertAvro)
	v1.POST("/validate", s.handleValidate)
	v1.GET("/records/:id", s.handleRecord)
}

func (s *Server) handleVersions(c *gin.Context) {
	versions := s.registry.Versions()
	out := make([]VersionInfo, 0, len(versions))
	for _, v := range versions {
		info := VersionInfo{ID: v.ID(), Override: v.HasOverride(), Reference: v.DefaultReference()}
		info.BeginString, _ = v.BeginString()
		if ref, err := v.SchemaReference(); err == nil {
			info.Reference = ref
		}
		out = append(out, info)
	}
	c.JSON(http.StatusOK, gin.H{"versions": out, "default": s.DefaultVersion})
}

func (s *Server) handleConvert(c *gin.Context) {
	version, raw, ok := s.conversionInput(c)
	if !ok {
		return
	}
	rec, err := s.conv.Convert(raw, version)
	if err != nil {
		s.fail(c, err)
		return
	}

	resp := ConvertResponse{Record: rec}
	if s.store != nil {
		payload, err := s.conv.Codec().Encode(rec)
		if err != nil {
			s.fail(c, err)
			return
		}
		id, err := s.store.Insert(c.Request.Context(), store.Entry{Version: version.ID(), Record: rec.Clone(), Payload: payload})
		if err != nil {
			s.fail(c, err)
			return
		}
		resp.ID = id.String()
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) handleConvertAvro(c *gin.Context) {
	version, raw, ok := s.conversionInput(c)
	if !ok {
		return
	}
	b, err := s.conv.ConvertToBytes(raw, version)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.Data(http.StatusOK, "application/octet-stream", b)
}

func (s *Server) handleValidate(c *gin.Context) {
	var req ValidateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "kind": "bad_request"})
		return
	}
	version, err := s.version(req.Version)
	if err != nil {
		s.fail(c, err)
		return
	}
	err = s.conv.Validate(req.Message, version, schema.CriteriaFromMap(req.Criteria))
	if err == nil {
		c.JSON(http.StatusOK, ValidateResponse{Valid: true})
		return
	}
	resp := ValidateResponse{Error: err.Error(), Kind: kindOf(err)}
	var verr schema.ValidationError
	if errors.As(err, &verr) {
		resp.Tag = verr.Tag
	}
	c.JSON(statusFor(err), resp)
}

func (s *Server) handleRecord(c *gin.Context) {
	if s.store == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "record store is not configured"})
		return
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid record id", "kind": "bad_request"})
		return
	}
	entry, err := s.store.Get(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, ConvertResponse{ID: entry.ID.String(), Record: entry.Record})
}

func (s *Server) conversionInput(c *gin.Context) (protocol.Version, string, bool) {
	version, err := s.version(c.Query("version"))
	if err != nil {
		s.fail(c, err)
		return protocol.Version{}, "", false
	}
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxBodyBytes+1))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "kind": "bad_request"})
		return protocol.Version{}, "", false
	}
	if len(body) > maxBodyBytes {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{
			"error": fmt.Sprintf("request body exceeds %d bytes", maxBodyBytes),
			"kind":  "body_too_large",
		})
		return protocol.Version{}, "", false
	}
	return version, string(body), true
}

func (s *Server) version(id string) (protocol.Version, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		id = s.DefaultVersion
	}
	return s.registry.Version(id)
}

func (s *Server) fail(c *gin.Context, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		log.Error().Err(err).Str("request_id", observability.RequestIDFrom(c)).Msg("fixconv request failed")
	}
	c.JSON(status, gin.H{"error": err.Error(), "kind": kindOf(err)})
}

func statusFor(err error) int {
	var verr schema.ValidationError
	switch {
	case errors.Is(err, protocol.ErrUnknownVersion):
		return http.StatusNotFound
	case errors.Is(err, protocol.ErrInvalidInput), errors.As(err, &verr):
		return http.StatusBadRequest
	case errors.Is(err, converter.ErrSerializationFailed):
		return http.StatusInternalServerError
	case errors.Is(err, converter.ErrConversionFailed):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func kindOf(err error) string {
	var verr schema.ValidationError
	switch {
	case errors.As(err, &verr):
		return verr.Code()
	case errors.Is(err, protocol.ErrUnknownVersion):
		return "unknown_version"
	case errors.Is(err, protocol.ErrInvalidInput):
		return "invalid_input"
	case errors.Is(err, converter.ErrSerializationFailed):
		return "serialization_failed"
	case errors.Is(err, converter.ErrConversionFailed):
		return "conversion_failed"
	default:
		return "internal"
	}
}
