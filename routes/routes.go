package routes

import (
	"net/http"
	"os"
	"path/filepath"

	"shopbilling/auth"
	"shopbilling/handlers"
	"shopbilling/metrics"
	"shopbilling/ratelimit"
)

// Limiters are shared across requests; tests pass fresh ones.
type Limiters struct {
	General  *ratelimit.Limiter
	Creation *ratelimit.Limiter
	Login    *ratelimit.Limiter
}

func DefaultLimiters() Limiters {
	return Limiters{
		General:  ratelimit.General(),
		Creation: ratelimit.Creation(),
		Login:    ratelimit.Login(),
	}
}

type Deps struct {
	Bills    *handlers.BillHandler
	Auth     *handlers.AuthHandler
	Receipts *handlers.ReceiptHandler
	Health   *handlers.HealthHandler
	Verifier *auth.Verifier
	Limiters Limiters

	CORSOrigin string
	StaticDir  string // optional frontend build
}

// CORS middleware
func withCORS(origin string, next http.Handler) http.Handler {
	if origin == "" {
		origin = "*"
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", origin)
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, "+auth.HeaderName)
		w.Header().Set("Access-Control-Expose-Headers", "RateLimit-Limit, RateLimit-Remaining, RateLimit-Reset, "+handlers.RequestIDHeader)
		if origin != "*" {
			w.Header().Add("Vary", "Origin")
		}

		// Handle preflight request
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// New builds the server's root handler.
func New(d Deps) http.Handler {
	protect := handlers.RequireAuth(d.Verifier)
	guarded := func(h http.HandlerFunc) http.Handler {
		return protect(h)
	}

	api := http.NewServeMux()

	// Auth routes
	api.Handle("POST /api/auth/login", d.Limiters.Login.Middleware(http.HandlerFunc(d.Auth.Login)))
	api.HandleFunc("GET /api/auth/verify", d.Auth.Verify)

	// Bill routes; the creation limit only counts authenticated requests
	api.Handle("POST /api/bills", protect(d.Limiters.Creation.Middleware(http.HandlerFunc(d.Bills.CreateBill))))
	api.Handle("GET /api/bills", guarded(d.Bills.ListBills))
	api.Handle("GET /api/bills/status/{status}", guarded(d.Bills.ListBillsByStatus))
	api.Handle("GET /api/bills/{id}", guarded(d.Bills.GetBill))
	api.Handle("POST /api/bills/{id}/retry-sms", guarded(d.Bills.RetrySMS))
	api.Handle("GET /api/receipts/{id}", guarded(d.Receipts.Receipt))

	api.HandleFunc("GET /api/health", d.Health.Health)
	api.HandleFunc("/api/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"success":false,"message":"Route not found"}`))
	})

	root := http.NewServeMux()
	root.Handle("/api/", d.Limiters.General.Middleware(api))
	root.Handle("GET /metrics", metrics.Handler())
	if d.StaticDir != "" {
		root.Handle("/", spaHandler(d.StaticDir))
	}

	return handlers.LoggingMiddleware(withCORS(d.CORSOrigin, handlers.RecoverWrapper(root)))
}

// spaHandler serves files from dir and falls back to index.html so client
// side routes resolve.
func spaHandler(dir string) http.Handler {
	files := http.FileServer(http.Dir(dir))
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet && r.Method != http.MethodHead {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		path := filepath.Join(dir, filepath.FromSlash(filepath.Clean("/"+r.URL.Path)))
		if info, err := os.Stat(path); err != nil || (info.IsDir() && r.URL.Path != "/") {
			http.ServeFile(w, r, filepath.Join(dir, "index.html"))
			return
		}
		files.ServeHTTP(w, r)
	})
}
