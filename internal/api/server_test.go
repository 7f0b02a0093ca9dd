package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"docqa/internal/config"
	"docqa/internal/index"
	"docqa/internal/models"
	"docqa/internal/providers"
	"docqa/internal/query"
)

func newTestServer(t *testing.T) (*Server, *index.Store) {
	t.Helper()
	cfg := config.Load()
	cfg.IndexRoot = t.TempDir()
	store := index.NewStore(cfg.IndexRoot)
	mock := providers.NewMockProvider(64)
	queries := query.NewService(store, mock, mock, query.Config{EmbedDim: 64, DefaultK: 4})
	return NewServerWith(cfg, queries, nil, nil), store
}

func seedProject(t *testing.T, store *index.Store, projectID string, chunks map[string]string) {
	t.Helper()
	mock := providers.NewMockProvider(64)
	var entries []index.Entry
	for docID, text := range chunks {
		vecs, _, err := mock.Embed(context.Background(), providers.EmbedRequest{Inputs: []string{text}, Dimension: 64})
		require.NoError(t, err)
		entries = append(entries, index.Entry{
			Vector:   vecs[0],
			Text:     text,
			Metadata: models.ChunkMetadata{ProjectID: projectID, DocumentID: docID, Title: "Doc " + docID, StoragePath: docID + ".txt"},
		})
	}
	idx, err := index.New(entries)
	require.NoError(t, err)
	require.NoError(t, store.Save(projectID, idx, "mock-embed-64"))
}

func doJSON(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestHealthEndpoint(t *testing.T) {
	srv, _ := newTestServer(t)
	rec := doJSON(t, srv.Routes(), http.MethodGet, "/health", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `"status":"ok"`)
}

func TestQueryEndpoint(t *testing.T) {
	srv, store := newTestServer(t)
	seedProject(t, store, "p1", map[string]string{
		"d1": "the vector index lives on disk under the project directory",
		"d2": "completely unrelated text about gardening tips",
	})

	rec := doJSON(t, srv.Routes(), http.MethodPost, "/query",
		`{"project_id":"p1","question":"where does the vector index live on disk"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var res models.QueryResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	require.Equal(t, models.StatusOK, res.Status)
	require.Len(t, res.Matches, 2)
	require.Equal(t, "d1", res.Matches[0].Metadata.DocumentID)
}

func TestQueryEndpointRespectsK(t *testing.T) {
	srv, store := newTestServer(t)
	seedProject(t, store, "p1", map[string]string{"d1": "alpha", "d2": "beta", "d3": "gamma"})

	rec := doJSON(t, srv.Routes(), http.MethodPost, "/query",
		`{"project_id":"p1","question":"alpha","k":1}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var res models.QueryResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	require.Len(t, res.Matches, 1)
}

func TestQueryEndpointNoIndex(t *testing.T) {
	srv, _ := newTestServer(t)
	rec := doJSON(t, srv.Routes(), http.MethodPost, "/query",
		`{"project_id":"empty","question":"anything"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var res models.QueryResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	require.Equal(t, models.StatusError, res.Status)
	require.Equal(t, "No index found for project", res.Message)
	require.Empty(t, res.Matches)
}

func TestQueryEndpointInvalidArguments(t *testing.T) {
	srv, _ := newTestServer(t)
	routes := srv.Routes()

	rec := doJSON(t, routes, http.MethodPost, "/query", `{"question":"q"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, routes, http.MethodPost, "/query", `{"project_id":"p1","question":"q","k":0}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, routes, http.MethodPost, "/query", `{broken`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Contains(t, rec.Body.String(), "Malformed JSON")
}

func TestQueryEndpointMethodNotAllowed(t *testing.T) {
	srv, _ := newTestServer(t)
	rec := doJSON(t, srv.Routes(), http.MethodGet, "/query", "")
	require.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestAskEndpoint(t *testing.T) {
	srv, store := newTestServer(t)
	seedProject(t, store, "p1", map[string]string{"d1": "the answer lives in this passage"})

	rec := doJSON(t, srv.Routes(), http.MethodPost, "/ask",
		`{"project_id":"p1","question":"where does the answer live"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var res struct {
		Status  string         `json:"status"`
		Answer  string         `json:"answer"`
		Matches []models.Match `json:"matches"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	require.Equal(t, models.StatusOK, res.Status)
	require.Contains(t, res.Answer, "[S1]")
	require.Len(t, res.Matches, 1)
}

func TestMetricsEndpointCountsRequests(t *testing.T) {
	srv, _ := newTestServer(t)
	routes := srv.Routes()

	_ = doJSON(t, routes, http.MethodGet, "/health", "")
	rec := doJSON(t, routes, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "docqa_http_requests_total")
}

func TestCORSPreflight(t *testing.T) {
	srv, _ := newTestServer(t)
	rec := doJSON(t, srv.Routes(), http.MethodOptions, "/query", "")
	require.Equal(t, http.StatusNoContent, rec.Code)
	require.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}
