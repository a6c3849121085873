package httpapi

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"TechNotesWebserver/internal/eventlog"
	"TechNotesWebserver/internal/ratelimit"
	"TechNotesWebserver/internal/service"
)

type RouterOpts struct {
	Logger *slog.Logger
	IsProd bool

	DBPing func(context.Context) error

	Users *service.UsersService

	Limiter          ratelimit.Limiter
	AuditLog         *eventlog.Logger
	LoginMaxAttempts int
	LoginWindow      time.Duration
}

func NewRouter(opts RouterOpts) http.Handler {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	if opts.LoginMaxAttempts == 0 {
		opts.LoginMaxAttempts = 5
	}
	if opts.LoginWindow == 0 {
		opts.LoginWindow = 60 * time.Second
	}

	api := &api{
		logger:           logger,
		isProd:           opts.IsProd,
		dbPing:           opts.DBPing,
		usersSvc:         opts.Users,
		limiter:          opts.Limiter,
		auditLog:         opts.AuditLog,
		loginMaxAttempts: opts.LoginMaxAttempts,
		loginWindow:      opts.LoginWindow,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", api.handleHealthz)

	// Authentication itself lives elsewhere; only the throttle in front of
	// the login route belongs to this service.
	mux.HandleFunc("POST /auth/login", api.throttleLogin(handleNotImplemented))

	if api.usersSvc == nil {
		mux.HandleFunc("GET /users", handleNotImplemented)
		mux.HandleFunc("POST /users", handleNotImplemented)
		mux.HandleFunc("PATCH /users", handleNotImplemented)
		mux.HandleFunc("PATCH /users/{id}", handleNotImplemented)
		mux.HandleFunc("DELETE /users", handleNotImplemented)
		mux.HandleFunc("DELETE /users/{id}", handleNotImplemented)
	} else {
		mux.HandleFunc("GET /users", api.handleUsersList)
		mux.HandleFunc("POST /users", api.handleUsersCreate)
		// The body id is authoritative; the path-id forms exist because both
		// generations of clients are in the field.
		mux.HandleFunc("PATCH /users", api.handleUsersUpdate)
		mux.HandleFunc("PATCH /users/{id}", api.handleUsersUpdate)
		mux.HandleFunc("DELETE /users", api.handleUsersDelete)
		mux.HandleFunc("DELETE /users/{id}", api.handleUsersDelete)
	}

	var h http.Handler = mux
	h = RequestLogger(logger)(h)
	h = RequestID()(h)
	h = Recoverer(logger, opts.IsProd)(h)
	return h
}

func handleNotImplemented(w http.ResponseWriter, _ *http.Request) {
	writeMessage(w, http.StatusNotImplemented, "not implemented")
}

type api struct {
	logger *slog.Logger
	isProd bool

	dbPing func(context.Context) error

	usersSvc *service.UsersService

	limiter          ratelimit.Limiter
	auditLog         *eventlog.Logger
	loginMaxAttempts int
	loginWindow      time.Duration
}

func (a *api) handleHealthz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")

	if a.dbPing != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 1*time.Second)
		defer cancel()
		if err := a.dbPing(ctx); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte("db down"))
			return
		}
	}

	_, _ = w.Write([]byte("ok"))
}
