package httpapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ragqa/internal/domain"
	"ragqa/internal/service"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fakeQA struct {
	state service.State
	ans   *domain.Answer
	err   error
	query string
}

func (f *fakeQA) Ask(ctx context.Context, query string) (*domain.Answer, error) {
	f.query = query
	if f.err != nil {
		return nil, f.err
	}
	return f.ans, nil
}

func (f *fakeQA) State() service.State { return f.state }

func do(t *testing.T, qa QA, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	r := NewRouter(NewHandler(qa, time.Second))
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestHealth(t *testing.T) {
	w := do(t, &fakeQA{state: service.Uninitialized}, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.JSONEq(t, `{"state":"uninitialized"}`, w.Body.String())

	w = do(t, &fakeQA{state: service.Ready}, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"state":"ready"}`, w.Body.String())
}

func TestAsk_ReturnsAnswerAndSources(t *testing.T) {
	qa := &fakeQA{state: service.Ready, ans: &domain.Answer{
		Query: "What is the capital of France?",
		Text:  "Paris is the capital of France.",
		Sources: []domain.SearchResult{
			{Chunk: domain.Chunk{PassageID: "p0", ChunkID: "p0:0", Text: "Paris is the capital of France."}, Score: 0.9},
		},
	}}
	w := do(t, qa, http.MethodPost, "/ask", `{"query":"What is the capital of France?"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "What is the capital of France?", qa.query)

	var resp askResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "Paris is the capital of France.", resp.Answer)
	assert.False(t, resp.Fallback)
	require.Len(t, resp.Sources, 1)
	assert.Equal(t, "p0:0", resp.Sources[0].ChunkID)
	assert.InDelta(t, 0.9, resp.Sources[0].Score, 1e-9)
}

func TestAsk_FallbackIsNotAnError(t *testing.T) {
	qa := &fakeQA{state: service.Ready, ans: &domain.Answer{Text: "Not found in source.", Fallback: true}}
	w := do(t, qa, http.MethodPost, "/ask", `{"query":"swallow?"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"fallback":true`)
	assert.Contains(t, w.Body.String(), `"sources":[]`)
}

func TestAsk_ErrorStatus(t *testing.T) {
	cases := []struct {
		err  error
		code int
	}{
		{domain.ErrEmptyQuery, http.StatusBadRequest},
		{domain.ErrNotReady, http.StatusServiceUnavailable},
		{fmt.Errorf("%w: timeout", domain.ErrEmbedding), http.StatusBadGateway},
		{fmt.Errorf("%w: ollama: %w", domain.ErrGeneration, context.DeadlineExceeded), http.StatusBadGateway},
		{fmt.Errorf("%w: dims", domain.ErrModelMismatch), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(tc.err.Error(), func(t *testing.T) {
			w := do(t, &fakeQA{state: service.Ready, err: tc.err}, http.MethodPost, "/ask", `{"query":"q"}`)
			assert.Equal(t, tc.code, w.Code)
			assert.Contains(t, w.Body.String(), "error")
		})
	}
}

func TestAsk_BadBody(t *testing.T) {
	w := do(t, &fakeQA{state: service.Ready}, http.MethodPost, "/ask", `{"query":`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
