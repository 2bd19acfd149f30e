package http

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/macrolens/productmatch/internal/domain"
)

const (
	serviceName  = "product-match"
	version      = "1.0.0"
	maxBatchSize = 100
)

// Matcher is the matching behavior the handlers need
type Matcher interface {
	Match(ctx context.Context, req *domain.MatchRequest) (*domain.MatchResponse, error)
	MatchForStores(ctx context.Context, req *domain.StoreMatchRequest) (*domain.StoreMatchResponse, error)
	MatchBatch(ctx context.Context, reqs []domain.MatchRequest) []domain.BatchResult
	EmbeddingsAvailable() bool
	ExtractorAvailable() bool
}

// Handler holds dependencies for HTTP handlers
type Handler struct {
	matcher Matcher
}

// NewHandler creates a new HTTP handler
func NewHandler(matcher Matcher) *Handler {
	return &Handler{matcher: matcher}
}

// HealthCheck returns the health status of the API
func (h *Handler) HealthCheck(c *gin.Context) {
	embeddings, extractor := false, false
	if h.matcher != nil {
		embeddings = h.matcher.EmbeddingsAvailable()
		extractor = h.matcher.ExtractorAvailable()
	}

	c.JSON(http.StatusOK, gin.H{
		"status":              "healthy",
		"service":             serviceName,
		"version":             version,
		"embeddingsAvailable": embeddings,
		"extractorAvailable":  extractor,
	})
}

// MatchProducts selects the best candidate for one query
func (h *Handler) MatchProducts(c *gin.Context) {
	if !h.ready(c) {
		return
	}

	var req domain.MatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request body",
			"details": err.Error(),
		})
		return
	}

	resp, err := h.matcher.Match(c.Request.Context(), &req)
	if err != nil {
		h.writeError(c, "[MATCH]", err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// MatchProductsForStores selects one candidate per nearby store
func (h *Handler) MatchProductsForStores(c *gin.Context) {
	if !h.ready(c) {
		return
	}

	var req domain.StoreMatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request body",
			"details": err.Error(),
		})
		return
	}

	resp, err := h.matcher.MatchForStores(c.Request.Context(), &req)
	if err != nil {
		h.writeError(c, "[STORES]", err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// MatchMultipleProducts answers a list of match requests. Each entry is
// validated on its own so one bad entry does not fail the batch.
func (h *Handler) MatchMultipleProducts(c *gin.Context) {
	if !h.ready(c) {
		return
	}

	var reqs []domain.MatchRequest
	if err := json.NewDecoder(c.Request.Body).Decode(&reqs); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request body",
			"details": "expected a JSON array of match requests",
		})
		return
	}
	if len(reqs) > maxBatchSize {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Too many requests in batch",
			"limit": maxBatchSize,
		})
		return
	}

	c.JSON(http.StatusOK, domain.BatchResponse{Results: h.matcher.MatchBatch(c.Request.Context(), reqs)})
}

func (h *Handler) ready(c *gin.Context) bool {
	if h.matcher == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"error": "Matching service not configured",
		})
		return false
	}
	return true
}

// writeError maps service errors onto status codes
func (h *Handler) writeError(c *gin.Context, tag string, err error) {
	switch {
	case domain.IsValidationError(err):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		log.Printf("%s Request abandoned: %v", tag, err)
		c.JSON(http.StatusGatewayTimeout, gin.H{"error": "Request timed out"})
	default:
		log.Printf("%s Unexpected error: %v", tag, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}
