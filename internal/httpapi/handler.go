// Package httpapi exposes the pipeline over HTTP.
package httpapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"ragqa/internal/domain"
	"ragqa/internal/log"
	"ragqa/internal/service"
)

// QA is the part of the pipeline the handler needs.
type QA interface {
	Ask(ctx context.Context, query string) (*domain.Answer, error)
	State() service.State
}

type Handler struct {
	qa         QA
	askTimeout time.Duration
}

func NewHandler(qa QA, askTimeout time.Duration) *Handler {
	return &Handler{qa: qa, askTimeout: askTimeout}
}

// NewRouter registers the routes on a new gin engine.
func NewRouter(h *Handler) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), requestLogger())
	r.GET("/healthz", h.Health)
	r.POST("/ask", h.Ask)
	return r
}

type askRequest struct {
	Query string `json:"query"`
}

type sourceResponse struct {
	PassageID string  `json:"passage_id"`
	ChunkID   string  `json:"chunk_id"`
	Text      string  `json:"text"`
	Score     float64 `json:"score"`
}

type askResponse struct {
	Query    string           `json:"query"`
	Answer   string           `json:"answer"`
	Fallback bool             `json:"fallback"`
	Sources  []sourceResponse `json:"sources"`
}

// Health handles GET /healthz
func (h *Handler) Health(c *gin.Context) {
	state := h.qa.State()
	code := http.StatusOK
	if state != service.Ready {
		code = http.StatusServiceUnavailable
	}
	c.JSON(code, gin.H{"state": state.String()})
}

// Ask handles POST /ask
func (h *Handler) Ask(c *gin.Context) {
	var req askRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	ctx := c.Request.Context()
	if h.askTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.askTimeout)
		defer cancel()
	}

	ans, err := h.qa.Ask(ctx, req.Query)
	if err != nil {
		code := statusFor(err)
		if code >= http.StatusInternalServerError {
			log.Error(err, "ask failed", "status", code)
		}
		c.JSON(code, gin.H{"error": err.Error()})
		return
	}

	resp := askResponse{
		Query:    ans.Query,
		Answer:   ans.Text,
		Fallback: ans.NoAnswer(),
		Sources:  make([]sourceResponse, 0, len(ans.Sources)),
	}
	for _, s := range ans.Sources {
		resp.Sources = append(resp.Sources, sourceResponse{
			PassageID: s.Chunk.PassageID,
			ChunkID:   s.Chunk.ChunkID,
			Text:      s.Chunk.Text,
			Score:     s.Score,
		})
	}
	c.JSON(http.StatusOK, resp)
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrEmptyQuery):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrNotReady):
		return http.StatusServiceUnavailable
	case errors.Is(err, domain.ErrEmbedding), errors.Is(err, domain.ErrGeneration):
		return http.StatusBadGateway
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func requestLogger() gin.HandlerFunc {
	logger := log.WithName("http")
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.V(1).Info("request",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			"took", time.Since(start).String())
	}
}
