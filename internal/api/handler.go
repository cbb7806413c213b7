package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"dealhive/extractor"
	"dealhive/internal/types"
)

const maxLimit = 200

// Searcher is the engine surface the HTTP layer depends on
type Searcher interface {
	SearchAll(ctx context.Context, term string) (*types.AggregatedResult, error)
	SearchStore(ctx context.Context, key, term string, maxResults int) ([]types.Product, error)
	Stores() []extractor.StoreInfo
}

// APIResponse is the envelope of every non-health response
type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// SearchRequest is the body of POST /api/search
type SearchRequest struct {
	Query string `json:"query"`
	Limit int    `json:"limit"`
}

// StoreSearchResult is the payload of a single-store search
type StoreSearchResult struct {
	Store    string          `json:"store"`
	Query    string          `json:"query"`
	Products []types.Product `json:"results"`
	Count    int             `json:"count"`
}

// Handler holds dependencies for HTTP handlers
type Handler struct {
	searcher Searcher
	logger   types.Logger
	timeout  time.Duration
}

// NewHandler creates a new HTTP handler. timeout bounds a whole request; zero
// leaves it to the engine's per-store timeout.
func NewHandler(searcher Searcher, logger types.Logger, timeout time.Duration) *Handler {
	return &Handler{
		searcher: searcher,
		logger:   logger,
		timeout:  timeout,
	}
}

// HealthCheck returns the health status of the API
func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "dealhive",
		"time":    time.Now().UTC().Format(time.RFC3339),
	})
}

// ListStores returns the registered stores
func (h *Handler) ListStores(c *gin.Context) {
	c.JSON(http.StatusOK, APIResponse{Success: true, Data: h.searcher.Stores()})
}

// Search handles GET /api/search?query=&limit=
func (h *Handler) Search(c *gin.Context) {
	limit, err := parseLimit(c.Query("limit"))
	if err != nil {
		h.sendError(c, http.StatusBadRequest, err.Error())
		return
	}
	h.search(c, c.Query("query"), limit)
}

// SearchJSON handles POST /api/search
func (h *Handler) SearchJSON(c *gin.Context) {
	var req SearchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.sendError(c, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Limit < 0 || req.Limit > maxLimit {
		h.sendError(c, http.StatusBadRequest, errInvalidLimit.Error())
		return
	}
	h.search(c, req.Query, req.Limit)
}

func (h *Handler) search(c *gin.Context, query string, limit int) {
	query = strings.TrimSpace(query)
	if query == "" {
		h.sendError(c, http.StatusBadRequest, "Search query is required")
		return
	}

	h.logger.Infof("API search request for %q", query)

	ctx, cancel := h.requestContext(c)
	defer cancel()

	result, err := h.searcher.SearchAll(ctx, query)
	if err != nil {
		h.sendEngineError(c, err)
		return
	}

	if limit > 0 && len(result.Products) > limit {
		result.Products = result.Products[:limit]
		result.Count = limit
		result.Summary = extractor.Summarize(result.Products)
	}

	c.JSON(http.StatusOK, APIResponse{Success: true, Data: result})
}

// SearchStore handles GET /api/stores/:store/search?query=&limit=
func (h *Handler) SearchStore(c *gin.Context) {
	store := c.Param("store")
	query := strings.TrimSpace(c.Query("query"))
	if query == "" {
		h.sendError(c, http.StatusBadRequest, "Search query is required")
		return
	}

	limit, err := parseLimit(c.Query("limit"))
	if err != nil {
		h.sendError(c, http.StatusBadRequest, err.Error())
		return
	}

	h.logger.Infof("API single-store search on %s for %q", store, query)

	ctx, cancel := h.requestContext(c)
	defer cancel()

	products, err := h.searcher.SearchStore(ctx, store, query, limit)
	if err != nil {
		h.sendEngineError(c, err)
		return
	}

	c.JSON(http.StatusOK, APIResponse{Success: true, Data: StoreSearchResult{
		Store:    store,
		Query:    query,
		Products: products,
		Count:    len(products),
	}})
}

func (h *Handler) requestContext(c *gin.Context) (context.Context, context.CancelFunc) {
	if h.timeout > 0 {
		return context.WithTimeout(c.Request.Context(), h.timeout)
	}
	return context.WithCancel(c.Request.Context())
}

var errInvalidLimit = errors.New("limit must be an integer between 0 and 200")

func parseLimit(raw string) (int, error) {
	if raw == "" {
		return 0, nil
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit < 0 || limit > maxLimit {
		return 0, errInvalidLimit
	}
	return limit, nil
}

// sendEngineError maps engine errors to status codes
func (h *Handler) sendEngineError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, types.ErrEmptyQuery):
		h.sendError(c, http.StatusBadRequest, "Search query is required")
	case errors.Is(err, types.ErrUnknownStore):
		h.sendError(c, http.StatusNotFound, err.Error())
	default:
		h.logger.Errorf("Search failed: %v", err)
		h.sendError(c, http.StatusInternalServerError, "Search failed")
	}
}

// sendError sends an error response
func (h *Handler) sendError(c *gin.Context, statusCode int, message string) {
	c.JSON(statusCode, APIResponse{Success: false, Error: message})
}
