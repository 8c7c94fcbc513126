//go:build !integration

package client

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"activation-code-admin/internal/domain/model"
)

func testLogger() *zerolog.Logger { l := zerolog.Nop(); return &l }

// fakeBackend is an in-memory stand-in for the admin API, just enough
// surface for the client tests.
type fakeBackend struct {
	mu    sync.Mutex
	codes []string

	username string
	password string
	token    string

	listCalls     int
	batchCalls    int
	failList      bool
	failListAfter int // fail list calls beyond this many, 0 = never
	failBatch     bool
}

func newFakeBackend(codes ...string) *fakeBackend {
	return &fakeBackend{
		codes:    codes,
		username: "admin",
		password: "secret123",
		token:    "fake-token",
	}
}

func (f *fakeBackend) start(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(f.handle))
	t.Cleanup(srv.Close)
	return srv
}

func (f *fakeBackend) handle(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Path
	if path == "/api/admin/login" {
		f.handleLogin(w, r)
		return
	}
	if r.Header.Get("Authorization") != "Bearer "+f.token {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"message": "unauthorized"})
		return
	}
	switch {
	case path == "/api/admin/codes" && r.Method == http.MethodGet:
		f.handleList(w, r)
	case path == "/api/admin/stats":
		f.handleStats(w, r)
	case path == "/api/admin/codes/batch-delete":
		f.handleBatchDelete(w, r)
	case strings.HasPrefix(path, "/api/admin/codes/") && r.Method == http.MethodDelete:
		f.handleDeleteOne(w, r)
	default:
		writeJSON(w, http.StatusNotFound, map[string]string{"message": "not found"})
	}
}

func (f *fakeBackend) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req struct{ Username, Password string }
	_ = json.NewDecoder(r.Body).Decode(&req)
	if req.Username != f.username || req.Password != f.password {
		writeJSON(w, http.StatusUnauthorized, map[string]interface{}{
			"success": false, "message": "invalid username or password", "token": nil,
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true, "message": "login successful", "token": f.token,
	})
}

func (f *fakeBackend) handleList(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.listCalls++
	if f.failList || (f.failListAfter > 0 && f.listCalls > f.failListAfter) {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"message": "internal server error"})
		return
	}

	skip, _ := strconv.Atoi(r.URL.Query().Get("skipToken"))
	pageSize, _ := strconv.Atoi(r.URL.Query().Get("pageSize"))
	if pageSize <= 0 {
		pageSize = 100
	}
	end := skip + pageSize
	if end > len(f.codes) {
		end = len(f.codes)
	}
	now := time.Now()
	page := []map[string]interface{}{}
	for i := skip; i < end; i++ {
		page = append(page, map[string]interface{}{
			"id": strconv.Itoa(i), "code": f.codes[i], "status": "unused",
			"isUsed": false, "createdAt": now,
		})
	}
	resp := map[string]interface{}{
		"codes": page, "totalCount": len(f.codes), "pageSize": pageSize,
		"hasMore": end < len(f.codes),
	}
	if end < len(f.codes) {
		resp["nextSkipToken"] = end
	} else {
		resp["nextSkipToken"] = nil
	}
	writeJSON(w, http.StatusOK, resp)
}

func (f *fakeBackend) handleStats(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	writeJSON(w, http.StatusOK, model.CodeStats{TotalCodes: len(f.codes), UnusedCodes: len(f.codes)})
}

func (f *fakeBackend) handleBatchDelete(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.batchCalls++
	if f.failBatch {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"message": "internal server error"})
		return
	}

	var req struct {
		Pattern string `json:"pattern"`
		DryRun  bool   `json:"dryRun"`
	}
	_ = json.NewDecoder(r.Body).Decode(&req)
	re, err := regexp.Compile(req.Pattern)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "invalid pattern"})
		return
	}

	var matched, kept []string
	for _, c := range f.codes {
		if re.MatchString(c) {
			matched = append(matched, c)
		} else {
			kept = append(kept, c)
		}
	}
	deleted := 0
	if !req.DryRun {
		deleted = len(matched)
		f.codes = kept
	}
	if matched == nil {
		matched = []string{}
	}
	writeJSON(w, http.StatusOK, BatchDeleteResult{
		Success: true, MatchedCount: len(matched), DeletedCount: deleted,
		MatchedCodes: matched, WasDryRun: req.DryRun,
	})
}

func (f *fakeBackend) handleDeleteOne(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	code := strings.TrimPrefix(r.URL.Path, "/api/admin/codes/")
	for i, c := range f.codes {
		if c == code {
			f.codes = append(f.codes[:i], f.codes[i+1:]...)
			writeJSON(w, http.StatusOK, map[string]string{"message": "deleted activation code " + code})
			return
		}
	}
	writeJSON(w, http.StatusNotFound, map[string]string{"message": "activation code not found"})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// loggedInClient spins up the fake backend and returns a client already
// holding its token.
func loggedInClient(t *testing.T, f *fakeBackend) *Client {
	t.Helper()
	srv := f.start(t)
	store := NewMemoryTokenStore()
	if err := store.Save(f.token); err != nil {
		t.Fatalf("seed token: %v", err)
	}
	return New(srv.URL, store, testLogger())
}

func seedCodeNames(n int, prefix string) []string {
	codes := make([]string, 0, n)
	for i := 0; i < n; i++ {
		codes = append(codes, prefix+"-"+strconv.Itoa(i))
	}
	return codes
}
