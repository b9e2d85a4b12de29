package httpapi

import "net/http"

// NewRouter mounts the API routes and the page routes behind the session
// guard and the logging and recovery middleware.
func NewRouter(h *Handler, pages http.Handler) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /api/upload", h.Upload)
	mux.HandleFunc("POST /api/process", h.Process)

	mux.HandleFunc("POST /api/auth/register", h.Register)
	mux.HandleFunc("POST /api/auth/login", h.Login)
	mux.HandleFunc("POST /api/auth/logout", h.Logout)
	mux.HandleFunc("GET /api/auth/session", h.Session)

	if pages != nil {
		guarded := ProtectPages(ServiceResolver(h.auth), pages)
		for _, pattern := range []string{"GET /{$}", "GET /login", "GET /dashboard", "GET /dashboard/"} {
			mux.Handle(pattern, guarded)
		}
	}

	return RequestLogging(Recover(mux))
}
