package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/tirasundara/rfm-service/internal/domain"
	"github.com/tirasundara/rfm-service/internal/logger"
)

// Analyzer is the part of the RFM service the handlers depend on
type Analyzer interface {
	Transactions(ctx context.Context) ([]domain.NormalizedTransaction, error)
	RFM(ctx context.Context, now time.Time) (domain.Analysis, error)
	DaySummary(ctx context.Context, day, now time.Time) (domain.Analysis, error)
}

// WarningsHeader carries the number of descriptions left out of the RFM dataset
const WarningsHeader = "X-RFM-Warnings"

type Handler struct {
	svc     Analyzer
	version string
}

func NewHandler(svc Analyzer, version string) *Handler {
	return &Handler{svc: svc, version: version}
}

// Health reports liveness
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"version": h.version,
		"time":    time.Now().Format(time.RFC3339),
	})
}

// GetTransactions returns the normalized ledger
func (h *Handler) GetTransactions(c *gin.Context) {
	txns, err := h.svc.Transactions(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}

	if txns == nil {
		txns = []domain.NormalizedTransaction{}
	}
	c.JSON(http.StatusOK, txns)
}

// GetRFM returns the flattened RFM dataset, relative to ?now= when given
func (h *Handler) GetRFM(c *gin.Context) {
	now, ok := queryDate(c, "now")
	if !ok {
		return
	}

	analysis, err := h.svc.RFM(c.Request.Context(), now)
	if err != nil {
		writeError(c, err)
		return
	}

	records := analysis.RFM
	if records == nil {
		records = []domain.FlattenedRecord{}
	}

	c.Header(WarningsHeader, strconv.Itoa(len(analysis.Warnings)))
	c.JSON(http.StatusOK, records)
}

// GetDaySummary joins the transactions of :date with the RFM dataset
func (h *Handler) GetDaySummary(c *gin.Context) {
	day, err := time.Parse(time.DateOnly, c.Param("date"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "date must be formatted as YYYY-MM-DD", "kind": "bad_request"})
		return
	}

	now, ok := queryDate(c, "now")
	if !ok {
		return
	}

	analysis, err := h.svc.DaySummary(c.Request.Context(), day, now)
	if err != nil {
		writeError(c, err)
		return
	}

	summaries := analysis.DaySummaries
	if summaries == nil {
		summaries = []domain.DescriptionSummary{}
	}

	c.Header(WarningsHeader, strconv.Itoa(len(analysis.Warnings)))
	c.JSON(http.StatusOK, summaries)
}

// queryDate parses an optional YYYY-MM-DD query parameter. A zero time means absent.
// On a malformed value the response is written and ok is false.
func queryDate(c *gin.Context, name string) (time.Time, bool) {
	raw := c.Query(name)
	if raw == "" {
		return time.Time{}, true
	}

	t, err := time.Parse(time.DateOnly, raw)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": name + " must be formatted as YYYY-MM-DD", "kind": "bad_request"})
		return time.Time{}, false
	}
	return t, true
}

// writeError maps the pipeline error kinds to HTTP statuses
func writeError(c *gin.Context, err error) {
	var (
		parseErr       *domain.ParseError
		consistencyErr *domain.ConsistencyError
		lookupErr      *domain.LookupError
	)

	status, kind := http.StatusInternalServerError, "internal"
	switch {
	case errors.As(err, &parseErr):
		status, kind = http.StatusUnprocessableEntity, "parse"
	case errors.As(err, &consistencyErr):
		status, kind = http.StatusUnprocessableEntity, "consistency"
	case errors.As(err, &lookupErr):
		status, kind = http.StatusInternalServerError, "lookup"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		status, kind = http.StatusServiceUnavailable, "canceled"
	}

	log := logger.FromContext(c.Request.Context())
	log.Error().Err(err).Str("kind", kind).Int("status", status).Msg("Request failed")

	c.JSON(status, gin.H{"error": err.Error(), "kind": kind})
}
