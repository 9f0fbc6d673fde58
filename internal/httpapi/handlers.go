package httpapi

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"DisasterTriage/internal/domain"
	"DisasterTriage/internal/triage"
	"DisasterTriage/internal/usecase"
)

const maxBatch = 10000

type errorResponse struct {
	Error string `json:"error"`
}

// bindJSON decodes the body into v, reading at most maxBody bytes. It writes
// the error response itself and reports whether decoding succeeded.
func (s *Server) bindJSON(c *gin.Context, v any) bool {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, s.maxBody)
	if err := c.ShouldBindJSON(v); err != nil {
		status := http.StatusBadRequest
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			status = http.StatusRequestEntityTooLarge
		}
		c.JSON(status, errorResponse{Error: err.Error()})
		return false
	}
	return true
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":            "ok",
		"classifier_fitted": s.pipeline.Classifier().Fitted(),
		"storage":           s.repository != nil,
	})
}

// triageOne scores a single message without storing it. A missing
// created_at is stamped with the current time.
func (s *Server) triageOne(c *gin.Context) {
	var msg domain.RawMessage
	if !s.bindJSON(c, &msg) {
		return
	}
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = s.now().UTC()
	}

	rec, err := s.pipeline.Triage(c.Request.Context(), msg)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, domain.ErrInvalidMessage) {
			status = http.StatusBadRequest
		}
		c.JSON(status, errorResponse{Error: err.Error()})
		return
	}
	c.JSON(http.StatusOK, rec)
}

type ingestResponse struct {
	Report  usecase.IngestReport  `json:"report"`
	Records []domain.TriageRecord `json:"records"`
}

// ingestBatch merges a JSON array of messages into the store.
func (s *Server) ingestBatch(c *gin.Context) {
	if s.ingestor == nil {
		c.JSON(http.StatusServiceUnavailable, errorResponse{Error: "ingestion is not configured"})
		return
	}
	var msgs []domain.RawMessage
	if !s.bindJSON(c, &msgs) {
		return
	}
	if len(msgs) > maxBatch {
		c.JSON(http.StatusRequestEntityTooLarge, errorResponse{Error: fmt.Sprintf("batch larger than %d messages", maxBatch)})
		return
	}
	now := s.now().UTC()
	for i := range msgs {
		if msgs[i].CreatedAt.IsZero() {
			msgs[i].CreatedAt = now
		}
	}

	report, err := s.ingestor.Ingest(c.Request.Context(), msgs)
	if err != nil {
		c.JSON(http.StatusInternalServerError, errorResponse{Error: err.Error()})
		return
	}
	records := report.Records
	if records == nil {
		records = []domain.TriageRecord{}
	}
	c.JSON(http.StatusOK, ingestResponse{Report: report, Records: records})
}

func (s *Server) listRecords(c *gin.Context) {
	records, ok := s.filtered(c)
	if !ok {
		return
	}
	if raw := c.Query("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 0 {
			c.JSON(http.StatusBadRequest, errorResponse{Error: "limit must be a non-negative integer"})
			return
		}
		if limit < len(records) {
			records = records[len(records)-limit:]
		}
	}
	c.JSON(http.StatusOK, gin.H{"count": len(records), "records": records})
}

func (s *Server) summary(c *gin.Context) {
	records, ok := s.filtered(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, triage.Summarize(records))
}

func (s *Server) filtered(c *gin.Context) ([]domain.TriageRecord, bool) {
	if s.repository == nil {
		c.JSON(http.StatusServiceUnavailable, errorResponse{Error: "storage is not configured"})
		return nil, false
	}
	filter, err := parseFilter(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
		return nil, false
	}
	records, err := s.repository.List(c.Request.Context(), filter)
	if err != nil {
		c.JSON(http.StatusInternalServerError, errorResponse{Error: err.Error()})
		return nil, false
	}
	if records == nil {
		records = []domain.TriageRecord{}
	}
	return records, true
}

// parseFilter reads comma-separated category, level, provenance and source
// lists, RFC 3339 since/until bounds and min_confidence.
func parseFilter(c *gin.Context) (triage.Filter, error) {
	var (
		f   triage.Filter
		err error
	)
	if f.Categories, err = parseList(c.Query("category"), domain.ParseCategory); err != nil {
		return f, err
	}
	if f.Levels, err = parseList(c.Query("level"), domain.ParseUrgencyLevel); err != nil {
		return f, err
	}
	if f.Provenances, err = parseList(c.Query("provenance"), domain.ParseProvenance); err != nil {
		return f, err
	}
	if f.Sources, err = parseList(c.Query("source"), domain.ParseSource); err != nil {
		return f, err
	}
	if f.Since, err = parseTime(c.Query("since")); err != nil {
		return f, fmt.Errorf("since: %w", err)
	}
	if f.Until, err = parseTime(c.Query("until")); err != nil {
		return f, fmt.Errorf("until: %w", err)
	}
	if raw := c.Query("min_confidence"); raw != "" {
		if f.MinConfidence, err = strconv.ParseFloat(raw, 64); err != nil {
			return f, fmt.Errorf("min_confidence: %w", err)
		}
	}
	return f, nil
}

func parseList[T any](raw string, parse func(string) (T, error)) ([]T, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	parts := strings.Split(raw, ",")
	out := make([]T, 0, len(parts))
	for _, p := range parts {
		v, err := parse(p)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

func parseTime(raw string) (time.Time, error) {
	if raw == "" {
		return time.Time{}, nil
	}
	return time.Parse(time.RFC3339, raw)
}
