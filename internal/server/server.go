package server

import (
	"context"
	"encoding/json"
	"fmt"
	"html/template"
	"io/fs"
	"log"
	"net"
	"net/http"
	"strings"
	"time"

	"campus-paths/internal/config"
	"campus-paths/internal/database"
	"campus-paths/internal/handlers"
	"campus-paths/internal/mapview"
	"campus-paths/internal/models"
	"campus-paths/internal/notify"
	"campus-paths/internal/pathservice"
	"campus-paths/internal/shell"
	"campus-paths/internal/sqlite"
	"campus-paths/web"
)

const memoryHistorySize = 200

// Server wraps the HTTP server and all dependencies
type Server struct {
	httpServer *http.Server
	handler    *handlers.Handler
	db         database.DataStore
	listener   net.Listener
	addr       string
}

// Config holds server configuration
type Config struct {
	Addr         string // e.g., "127.0.0.1:8080" or "127.0.0.1:0" for random port
	ServiceURL   string
	MapImage     string
	DatabasePath string
	HTTPTimeout  time.Duration

	// Notifier, when set, replaces the queue the web view drains. The desktop
	// app uses it to show native dialogs instead of browser alerts.
	Notifier notify.Notifier
}

// New creates and initializes a new server (does not start it)
func New(cfg Config) (*Server, error) {
	log.Printf("Initializing query history...")
	db, history := openHistory(cfg.DatabasePath)

	log.Printf("Loading templates...")
	templates, err := loadTemplates(web.Templates)
	if err != nil {
		if db != nil {
			db.Close()
		}
		return nil, fmt.Errorf("failed to load templates: %w", err)
	}

	client := pathservice.NewClient(cfg.ServiceURL, cfg.HTTPTimeout)
	loader := mapview.NewLoader(cfg.MapImage, &http.Client{Timeout: cfg.HTTPTimeout})

	var queue *notify.Queue
	notifier := cfg.Notifier
	if notifier == nil {
		queue = notify.NewQueue()
		notifier = queue
	}

	log.Printf("Loading building names from %s...", cfg.ServiceURL)
	sh := shell.New(context.Background(), shell.Deps{
		Client:   client,
		Surface:  mapview.NewRasterSurface(),
		Loader:   loader,
		Notifier: notifier,
		History:  history,
	})

	handler := &handlers.Handler{
		Shell:         sh,
		Notifications: queue,
		Templates:     templates,
	}
	if db != nil {
		handler.DB = db
	}

	mux := setupRoutes(handler, web.Static)

	httpServer := &http.Server{
		Addr:         cfg.Addr,
		Handler:      loggingMiddleware(corsMiddleware(mux)),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: cfg.HTTPTimeout + 30*time.Second,
		IdleTimeout:  120 * time.Second,
	}

	s := &Server{
		httpServer: httpServer,
		handler:    handler,
		addr:       cfg.Addr,
	}
	if db != nil {
		s.db = db
	}
	return s, nil
}

// openHistory opens the SQLite history store. History is auxiliary, so when
// the database cannot be opened the app keeps running with in-memory history.
func openHistory(path string) (*sqlite.Store, database.HistoryRepository) {
	if path == "" || path == config.HistoryInMemory {
		log.Printf("Query history kept in memory")
		return nil, database.NewMemoryHistory(memoryHistorySize)
	}

	store, err := sqlite.New(path)
	if err != nil {
		log.Printf("[ERROR] Failed to open history database, keeping history in memory: path=%s err=%v", path, err)
		return nil, database.NewMemoryHistory(memoryHistorySize)
	}
	return store, store.History()
}

// Start starts the server and returns the actual address (useful for random port)
func (s *Server) Start() (string, error) {
	listener, err := net.Listen("tcp", s.addr)
	if err != nil {
		return "", fmt.Errorf("failed to listen: %w", err)
	}

	s.listener = listener
	actualAddr := listener.Addr().String()
	log.Printf("Starting server on %s", actualAddr)

	go func() {
		if err := s.httpServer.Serve(listener); err != nil && err != http.ErrServerClosed {
			log.Printf("Server error: %v", err)
		}
	}()

	return actualAddr, nil
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return err
	}
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Template helper functions
func templateFuncs() template.FuncMap {
	return template.FuncMap{
		"formatTime": func(t time.Time) string {
			return t.Format("2006-01-02 15:04:05")
		},
		"formatCost": func(cost float64) string {
			return fmt.Sprintf("%.1f", cost)
		},
		"formatDuration": func(d time.Duration) string {
			if d < time.Second {
				return fmt.Sprintf("%dms", d.Milliseconds())
			}
			return fmt.Sprintf("%.1fs", d.Seconds())
		},
		"selectData": func(id, label string, buildings []models.DirectoryEntry, selected models.LocationCode) map[string]interface{} {
			return map[string]interface{}{
				"ID":        id,
				"Label":     label,
				"Buildings": buildings,
				"Selected":  selected,
			}
		},
		"toJSON": func(v interface{}) template.JS {
			b, err := json.Marshal(v)
			if err != nil {
				return "{}"
			}
			return template.JS(b)
		},
	}
}

// loadTemplates loads all templates from the embedded filesystem
func loadTemplates(templatesFS fs.FS) (*handlers.TemplateSet, error) {
	funcs := templateFuncs()
	base := template.New("").Funcs(funcs)

	layoutContent, err := fs.ReadFile(templatesFS, "templates/layout.html")
	if err != nil {
		return nil, fmt.Errorf("failed to read layout: %w", err)
	}
	_, err = base.New("layout.html").Parse(string(layoutContent))
	if err != nil {
		return nil, fmt.Errorf("failed to parse layout: %w", err)
	}

	partialFiles, err := fs.Glob(templatesFS, "templates/partials/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to glob partials: %w", err)
	}

	for _, file := range partialFiles {
		content, err := fs.ReadFile(templatesFS, file)
		if err != nil {
			return nil, fmt.Errorf("failed to read partial %s: %w", file, err)
		}
		name := file[len("templates/partials/"):]
		_, err = base.New(name).Parse(string(content))
		if err != nil {
			return nil, fmt.Errorf("failed to parse partial %s: %w", file, err)
		}
	}

	// Page templates stay as strings and are parsed per render
	pages := make(map[string]string)
	pageFiles := []string{"index.html", "history.html"}
	for _, name := range pageFiles {
		content, err := fs.ReadFile(templatesFS, "templates/"+name)
		if err != nil {
			return nil, fmt.Errorf("failed to read page %s: %w", name, err)
		}
		pages[name] = string(content)
	}

	return &handlers.TemplateSet{
		Base:  base,
		Pages: pages,
		Funcs: funcs,
	}, nil
}

// setupRoutes configures all HTTP routes
func setupRoutes(handler *handlers.Handler, staticFS fs.FS) *http.ServeMux {
	mux := http.NewServeMux()

	staticSubFS, err := fs.Sub(staticFS, "static")
	if err != nil {
		log.Fatalf("failed to create static sub-filesystem: %v", err)
	}
	mux.Handle("/static/", http.StripPrefix("/static/", http.FileServer(http.FS(staticSubFS))))

	mux.HandleFunc("/api/v1/health", handler.HandleHealthCheck)

	mux.HandleFunc("/api/v1/buildings", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		handler.HandleListBuildings(w, r)
	})

	mux.HandleFunc("/api/v1/state", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		handler.HandleGetState(w, r)
	})

	mux.HandleFunc("/api/v1/selection", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodPut:
			handler.HandleUpdateSelection(w, r)
		case http.MethodDelete:
			handler.HandleClearSelection(w, r)
		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	})

	mux.HandleFunc("/api/v1/find-path", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		handler.HandleFindPath(w, r)
	})

	mux.HandleFunc("/api/v1/clear", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		handler.HandleClear(w, r)
	})

	mux.HandleFunc("/api/v1/map.png", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		handler.HandleMapImage(w, r)
	})

	mux.HandleFunc("/api/v1/notifications", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		handler.HandleDrainNotifications(w, r)
	})

	mux.HandleFunc("/api/v1/history", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			handler.HandleListHistory(w, r)
		case http.MethodDelete:
			handler.HandleClearHistory(w, r)
		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	})

	mux.HandleFunc("/api/v1/history/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api/v1/history/" {
			http.Error(w, "Not found", http.StatusNotFound)
			return
		}
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		handler.HandleGetHistoryEntry(w, r)
	})

	// Page routes
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		handler.HandleIndexPage(w, r)
	})

	mux.HandleFunc("/history", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		handler.HandleHistoryPage(w, r)
	})

	return mux
}

func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		lrw := &loggingResponseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(lrw, r)

		duration := time.Since(start)
		log.Printf("[HTTP] %s %s %d %v", r.Method, r.URL.Path, lrw.statusCode, duration)
	})
}

type loggingResponseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (lrw *loggingResponseWriter) WriteHeader(code int) {
	lrw.statusCode = code
	lrw.ResponseWriter.WriteHeader(code)
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")

		// Only allow localhost origins (Wails webview and local development)
		if origin == "" ||
			strings.HasPrefix(origin, "http://localhost:") ||
			strings.HasPrefix(origin, "http://127.0.0.1:") ||
			strings.HasPrefix(origin, "wails://") {
			if origin != "" {
				w.Header().Set("Access-Control-Allow-Origin", origin)
				w.Header().Set("Access-Control-Allow-Credentials", "true")
			}
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		}

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}
