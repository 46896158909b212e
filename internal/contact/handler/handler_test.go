package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/contacthub/contacthub/internal/contact/repository"
	"github.com/contacthub/contacthub/internal/contact/service"
)

func newTestRouter() *gin.Engine {
	g := gin.New()
	svc := service.NewService(repository.NewMemoryStore())
	RegisterContactRoutes(g, svc, nil)
	return g
}

func doJSON(g *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	w := httptest.NewRecorder()
	g.ServeHTTP(w, req)
	return w
}

func TestContactHandler_Lifecycle(t *testing.T) {
	g := newTestRouter()

	// create
	w := doJSON(g, http.MethodPost, "/contact/new", `{"name":"Ada","email":"ada@example.org"}`)
	require.Equal(t, http.StatusNoContent, w.Code)

	// search finds it and returns the key + hash
	w = doJSON(g, http.MethodPost, "/search", `[{"field":"name","term":"Ada"}]`)
	require.Equal(t, http.StatusOK, w.Code)
	var matches []struct {
		Key  uint64 `json:"key"`
		Hash string `json:"hash"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &matches))
	require.Len(t, matches, 1)
	key := "1"
	hash := matches[0].Hash
	require.NotEmpty(t, hash)

	// get carries the hash as an ETag
	w = doJSON(g, http.MethodGet, "/contact/"+key, "")
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, `"`+hash+`"`, w.Header().Get("ETag"))

	// conditional update with a stale hash conflicts
	req := httptest.NewRequest(http.MethodPatch, "/contact/"+key, strings.NewReader(`{"name":"Ada Lovelace"}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("If-Match", `"bogus"`)
	w = httptest.NewRecorder()
	g.ServeHTTP(w, req)
	require.Equal(t, http.StatusConflict, w.Code)

	// with the right hash it succeeds
	req = httptest.NewRequest(http.MethodPatch, "/contact/"+key, strings.NewReader(`{"name":"Ada Lovelace"}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("If-Match", `"`+hash+`"`)
	w = httptest.NewRecorder()
	g.ServeHTTP(w, req)
	require.Equal(t, http.StatusNoContent, w.Code)

	// delete with the old hash reports GONE
	req = httptest.NewRequest(http.MethodDelete, "/contact/"+key, nil)
	req.Header.Set("If-Match", `"`+hash+`"`)
	w = httptest.NewRecorder()
	g.ServeHTTP(w, req)
	require.Equal(t, http.StatusGone, w.Code)

	// unconditional delete succeeds
	w = doJSON(g, http.MethodDelete, "/contact/"+key, "")
	require.Equal(t, http.StatusNoContent, w.Code)

	// gone from current state
	w = doJSON(g, http.MethodGet, "/contact/"+key, "")
	require.Equal(t, http.StatusNotFound, w.Code)

	// but history still shows both change points
	w = doJSON(g, http.MethodGet, "/contact/"+key+"/history?embed=true", "")
	require.Equal(t, http.StatusOK, w.Code)
	var entries []map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &entries))
	require.Len(t, entries, 2)
}

func TestContactHandler_Validation(t *testing.T) {
	g := newTestRouter()

	// a contact with every field empty is rejected
	w := doJSON(g, http.MethodPost, "/contact/new", `{}`)
	require.Equal(t, http.StatusBadRequest, w.Code)

	// empty term list on current search is rejected; /contacts is the list route
	w = doJSON(g, http.MethodPost, "/search", `[]`)
	require.Equal(t, http.StatusBadRequest, w.Code)
	w = doJSON(g, http.MethodGet, "/contacts", "")
	require.Equal(t, http.StatusOK, w.Code)

	// malformed revision timestamp
	w = doJSON(g, http.MethodGet, "/contacts?revision_timestamp=yesterday", "")
	require.Equal(t, http.StatusBadRequest, w.Code)

	// non-integer key
	w = doJSON(g, http.MethodGet, "/contact/abc", "")
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestContactHandler_PastRevisionRead(t *testing.T) {
	g := newTestRouter()

	w := doJSON(g, http.MethodPost, "/contact/new", `{"name":"A"}`)
	require.Equal(t, http.StatusNoContent, w.Code)
	w = doJSON(g, http.MethodPatch, "/contact/1", `{"name":"B"}`)
	require.Equal(t, http.StatusNoContent, w.Code)

	w = doJSON(g, http.MethodGet, "/contact/1?revision_id=1", "")
	require.Equal(t, http.StatusOK, w.Code)
	var doc map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &doc))
	require.Equal(t, "A", doc["name"])

	w = doJSON(g, http.MethodGet, "/contact/1", "")
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &doc))
	require.Equal(t, "B", doc["name"])
}

func TestContactHandler_HistoryAtRevision(t *testing.T) {
	g := newTestRouter()

	w := doJSON(g, http.MethodPost, "/contact/new", `{"name":"A"}`)
	require.Equal(t, http.StatusNoContent, w.Code)
	w = doJSON(g, http.MethodPatch, "/contact/1", `{"name":"B"}`)
	require.Equal(t, http.StatusNoContent, w.Code)

	// as of revision 1 the second change point does not exist yet
	w = doJSON(g, http.MethodGet, "/contact/1/history?revision_id=1&embed=true", "")
	require.Equal(t, http.StatusOK, w.Code)
	var entries []map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &entries))
	require.Len(t, entries, 1)

	w = doJSON(g, http.MethodGet, "/contact/1/history", "")
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &entries))
	require.Len(t, entries, 2)

	w = doJSON(g, http.MethodGet, "/contact/1/history?revision_timestamp=yesterday", "")
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestContactHandler_AllTimeSearch(t *testing.T) {
	g := newTestRouter()

	w := doJSON(g, http.MethodPost, "/contact/new", `{"name":"A"}`)
	require.Equal(t, http.StatusNoContent, w.Code)
	w = doJSON(g, http.MethodPatch, "/contact/1", `{"name":"B"}`)
	require.Equal(t, http.StatusNoContent, w.Code)
	w = doJSON(g, http.MethodDelete, "/contact/1", "")
	require.Equal(t, http.StatusNoContent, w.Code)

	// empty terms are match-all here, unlike /search
	w = doJSON(g, http.MethodPost, "/search/history?deleted=true", `[]`)
	require.Equal(t, http.StatusOK, w.Code)
	var hits []map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &hits))
	require.Len(t, hits, 2)

	// the live partition is empty: the only key is deleted
	w = doJSON(g, http.MethodPost, "/search/history", `[]`)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &hits))
	require.Empty(t, hits)
}
