package server

import (
	"context"
	"encoding/json"
	"image"
	"image/png"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"campus-paths/internal/models"
	"campus-paths/internal/shell"
	"campus-paths/web"
)

func fakePathService(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/buildingNames", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"CSE":"Paul G. Allen Center for Computer Science & Engineering","MGH":"Mary Gates Hall"}`))
	})
	mux.HandleFunc("/findPath", func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("start") == "" || q.Get("end") == "" {
			http.Error(w, "missing start or end", http.StatusBadRequest)
			return
		}
		w.Write([]byte(`{"start":{"x":10,"y":20},"cost":56.6,"path":[
			{"start":{"x":10,"y":20},"end":{"x":30,"y":40},"cost":28.3},
			{"start":{"x":30,"y":40},"end":{"x":50,"y":60},"cost":28.3}]}`))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func writeMapImage(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "campus_map.png")
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, png.Encode(f, image.NewRGBA(image.Rect(0, 0, 200, 150))))
	return path
}

func setupTestServer(t *testing.T, dbPath string) *Server {
	t.Helper()
	svc := fakePathService(t)

	srv, err := New(Config{
		Addr:         "127.0.0.1:0",
		ServiceURL:   svc.URL,
		MapImage:     writeMapImage(t),
		DatabasePath: dbPath,
		HTTPTimeout:  5 * time.Second,
	})
	require.NoError(t, err)
	t.Cleanup(func() { srv.Shutdown(context.Background()) })

	select {
	case <-srv.handler.Shell.Ready():
	case <-time.After(2 * time.Second):
		t.Fatal("map image never loaded")
	}
	return srv
}

func do(t *testing.T, srv *Server, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	w := httptest.NewRecorder()
	srv.httpServer.Handler.ServeHTTP(w, req)
	return w
}

func TestServer_FindPathFlow(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "history.db")
	srv := setupTestServer(t, dbPath)

	w := do(t, srv, "GET", "/api/v1/buildings", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Mary Gates Hall")

	w = do(t, srv, "PUT", "/api/v1/selection", `{"origin":"CSE","destination":"MGH"}`)
	require.Equal(t, http.StatusOK, w.Code)

	w = do(t, srv, "POST", "/api/v1/find-path", "")
	require.Equal(t, http.StatusOK, w.Code)

	w = do(t, srv, "GET", "/api/v1/state", "")
	var view shell.ViewState
	require.NoError(t, json.NewDecoder(w.Body).Decode(&view))
	assert.Len(t, view.Route.Segments, 2)

	w = do(t, srv, "GET", "/api/v1/map.png?caption=CSE+to+MGH", "")
	require.Equal(t, http.StatusOK, w.Code)
	img, err := png.Decode(w.Body)
	require.NoError(t, err)
	assert.Equal(t, 200, img.Bounds().Dx())

	w = do(t, srv, "GET", "/api/v1/health", "")
	var health map[string]string
	require.NoError(t, json.NewDecoder(w.Body).Decode(&health))
	assert.Equal(t, "connected", health["database"])
	assert.Equal(t, dbPath, health["database_path"])

	w = do(t, srv, "GET", "/api/v1/history", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"outcome":"displayed"`)
}

func TestServer_ServiceRejectionNotifiesView(t *testing.T) {
	srv := setupTestServer(t, ":memory:")

	do(t, srv, "PUT", "/api/v1/selection", `{"origin":"CSE","destination":"MGH"}`)
	require.Equal(t, http.StatusOK, do(t, srv, "POST", "/api/v1/find-path", "").Code)

	do(t, srv, "PUT", "/api/v1/selection", `{"destination":""}`)
	w := do(t, srv, "POST", "/api/v1/find-path", "")
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	w = do(t, srv, "GET", "/api/v1/notifications", "")
	var body struct {
		Notifications []models.Notification `json:"notifications"`
	}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
	require.Len(t, body.Notifications, 1)
	assert.Equal(t, models.NotificationError, body.Notifications[0].Kind)

	w = do(t, srv, "GET", "/api/v1/state", "")
	var view shell.ViewState
	require.NoError(t, json.NewDecoder(w.Body).Decode(&view))
	assert.Len(t, view.Route.Segments, 2, "previous route stays displayed")
}

func TestServer_Pages(t *testing.T) {
	srv := setupTestServer(t, ":memory:")

	w := do(t, srv, "GET", "/", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `<option value="MGH"`)
	assert.Contains(t, w.Body.String(), "window.initialState")

	w = do(t, srv, "GET", "/history", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "No paths queried yet.")

	w = do(t, srv, "GET", "/static/js/app.js", "")
	assert.Equal(t, http.StatusOK, w.Code)

	w = do(t, srv, "GET", "/missing", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestServer_MethodNotAllowed(t *testing.T) {
	srv := setupTestServer(t, ":memory:")

	tests := []struct {
		method string
		path   string
	}{
		{"GET", "/api/v1/find-path"},
		{"POST", "/api/v1/selection"},
		{"PUT", "/api/v1/history"},
		{"POST", "/api/v1/map.png"},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			w := do(t, srv, tt.method, tt.path, "")
			assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
		})
	}
}

func TestCORSMiddleware(t *testing.T) {
	handler := corsMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	req := httptest.NewRequest("OPTIONS", "/api/v1/state", nil)
	req.Header.Set("Origin", "wails://wails")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "wails://wails", w.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest("GET", "/api/v1/state", nil)
	req.Header.Set("Origin", "http://evil.example")
	w = httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	assert.Equal(t, http.StatusTeapot, w.Code)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}

func TestLoadTemplates(t *testing.T) {
	templates, err := loadTemplates(web.Templates)
	require.NoError(t, err)
	assert.Contains(t, templates.Pages, "index.html")
	assert.Contains(t, templates.Pages, "history.html")
	assert.NotNil(t, templates.Base.Lookup("nav.html"))
	assert.NotNil(t, templates.Base.Lookup("building_select.html"))
}
