package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/ferrite-media/ferrite/internal/config"
	"github.com/ferrite-media/ferrite/internal/database"
	"github.com/ferrite-media/ferrite/internal/scanner"
	"github.com/ferrite-media/ferrite/internal/scanner/progress"
)

func newTestHandler(t *testing.T) (*Handler, *gin.Engine) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := database.Open(database.Options{Dialect: database.DialectSQLite, DSN: ":memory:"})
	require.NoError(t, err)
	store := database.NewStore(db)

	progressReg := progress.NewRegistry()
	orchestrator := scanner.NewOrchestrator(store, nil, nil, nil, progressReg, 1)
	watcher, err := scanner.NewWatcher(orchestrator, store, 0, 0)
	require.NoError(t, err)
	t.Cleanup(func() { watcher.Close() })

	h := &Handler{
		Store:        store,
		Config:       config.Default(),
		Orchestrator: orchestrator,
		Watcher:      watcher,
		Progress:     progressReg,
	}
	r := gin.New()
	h.registerLibraryRoutes(r)
	return h, r
}

func TestCreateAndListLibraries(t *testing.T) {
	_, r := newTestHandler(t)

	body := strings.NewReader(`{"path":"/movies","kind":"movie"}`)
	req := httptest.NewRequest(http.MethodPost, "/libraries", body)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusCreated, w.Code)

	listReq := httptest.NewRequest(http.MethodGet, "/libraries", nil)
	listW := httptest.NewRecorder()
	r.ServeHTTP(listW, listReq)
	require.Equal(t, http.StatusOK, listW.Code)

	var libs []map[string]interface{}
	require.NoError(t, json.Unmarshal(listW.Body.Bytes(), &libs))
	require.Len(t, libs, 1)
	require.Equal(t, "/movies", libs[0]["path"])
}

func TestCreateLibraryRejectsUnknownKind(t *testing.T) {
	_, r := newTestHandler(t)

	body := strings.NewReader(`{"path":"/music","kind":"podcast"}`)
	req := httptest.NewRequest(http.MethodPost, "/libraries", body)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetLibraryNotFoundReturns404(t *testing.T) {
	_, r := newTestHandler(t)

	req := httptest.NewRequest(http.MethodGet, "/libraries/does-not-exist", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestScanStatusReportsEmptyPhaseBeforeAnyScan(t *testing.T) {
	h, r := newTestHandler(t)

	lib, err := h.Store.CreateLibrary("/tv", database.LibraryKindTV)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/libraries/"+lib.ID+"/scan/status", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var status map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &status))
	require.Equal(t, "", status["phase"])
}
