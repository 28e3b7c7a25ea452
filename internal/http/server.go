package http

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"sort"
	"sync"
	"time"

	"famfin/internal/auth"
	"famfin/internal/core"
	applog "famfin/internal/log"
	"famfin/internal/middleware/ratelimit"
	"famfin/internal/middleware/security"
	"famfin/internal/middleware/trace"
	"famfin/internal/services"
)

// maxBodyBytes caps action request bodies.
const maxBodyBytes = 1 << 20

// actionFunc runs one named action for an authenticated caller.
type actionFunc func(ctx context.Context, caller core.Caller, p *RequestBodyParser) *ActionResponse

// Services bundles the mutation services the actions dispatch to.
type Services struct {
	Accounts     *services.AccountService
	Transactions *services.TransactionService
	Recurring    *services.RecurringService
}

// Pinger reports whether the backing store is reachable.
// *storage.SQLiteRepository satisfies it.
type Pinger interface {
	Ping(ctx context.Context) error
}

type Server struct {
	http.Server
	services     Services
	auth         *auth.Authenticator
	store        Pinger
	limiter      *ratelimit.Limiter
	detector     *security.Detector
	tracer       *trace.Middleware
	actions      map[string]actionFunc
	shutdownOnce sync.Once
}

// NewServer wires the action routes and middleware, returning a
// ready-to-run http.Server.
func NewServer(addr string, svc Services, authn *auth.Authenticator, store Pinger) *Server {
	detector := security.NewDetector()
	s := &Server{
		services: svc,
		auth:     authn,
		store:    store,
		limiter:  ratelimit.NewLimiter(ratelimit.DefaultConfig()),
		detector: detector,
		tracer:   trace.NewMiddleware(detector.ExtractClientIP),
	}
	s.actions = s.registerActions()

	limited := s.limiter.Middleware(detector.ExtractClientIP, func(w http.ResponseWriter, r *http.Request) {
		Fail(errors.New("rate limited"), "Rate limit exceeded. Please try again later.").
			Status(http.StatusTooManyRequests).
			Write(w)
	})

	mux := http.NewServeMux()
	mux.Handle("POST /actions/{name}", limited(http.HandlerFunc(s.handleAction)))
	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)

	var handler http.Handler = mux
	handler = detector.Middleware(handler)
	handler = security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware(handler)
	handler = applog.Middleware(applog.Default(applog.ComponentHTTP), func(r *http.Request) string {
		return trace.GetRequestID(r.Context())
	})(handler)
	handler = s.tracer.Middleware(handler)

	s.Server = http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return s
}

func (s *Server) registerActions() map[string]actionFunc {
	return map[string]actionFunc{
		// accounts
		"createAccount":             s.handleCreateAccount,
		"getAccounts":               s.handleGetAccounts,
		"getAccount":                s.handleGetAccount,
		"getAccountBalanceHistory":  s.handleGetAccountBalanceHistory,
		"updateAccount":             s.handleUpdateAccount,
		"deleteAccount":             s.handleDeleteAccount,
		"restoreAccount":            s.handleRestoreAccount,
		"updateDailyBalance":        s.handleUpdateDailyBalance,
		"recalculateAccountBalance": s.handleRecalculateAccountBalance,

		// transactions
		"createTransaction": s.handleCreateTransaction,
		"getTransactions":   s.handleGetTransactions,
		"getTransaction":    s.handleGetTransaction,
		"updateTransaction": s.handleUpdateTransaction,
		"deleteTransaction": s.handleDeleteTransaction,
		"getCategories":     s.handleGetCategories,
		"createCategory":    s.handleCreateCategory,
		"getTags":           s.handleGetTags,

		// recurring transactions
		"createRecurringTransaction":    s.handleCreateRecurring,
		"getRecurringTransactions":      s.handleGetRecurringList,
		"getRecurringTransaction":       s.handleGetRecurring,
		"updateRecurringTransaction":    s.handleUpdateRecurring,
		"deleteRecurringTransaction":    s.handleDeleteRecurring,
		"restoreRecurringTransaction":   s.handleRestoreRecurring,
		"purgeRecurringTransaction":     s.handlePurgeRecurring,
		"bulkRestoreRecurring":          s.handleBulkRestoreRecurring,
		"bulkPurgeRecurring":            s.handleBulkPurgeRecurring,
		"generateRecurringTransactions": s.handleGenerateRecurring,
	}
}

// ActionNames lists the registered action names in sorted order.
func (s *Server) ActionNames() []string {
	names := make([]string, 0, len(s.actions))
	for name := range s.actions {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (s *Server) handleAction(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	ctx := r.Context()
	logger := applog.FromContext(ctx)
	name := r.PathValue("name")
	action, ok := s.actions[name]
	if !ok {
		Fail(core.NotFound("Unknown action."), msgUnexpected).Write(w)
		return
	}

	caller, err := s.auth.FromRequest(r)
	if err != nil {
		logger.DebugContext(ctx, "Rejected unauthenticated action",
			applog.FieldAction, name,
			applog.FieldError, err)
		Fail(core.Unauthenticated(), msgUnexpected).Write(w)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	p := NewRequestBodyParser(r)
	if err := p.Parse(); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			Fail(core.Invalid("Request body too large."), msgUnexpected).
				Status(http.StatusRequestEntityTooLarge).
				Write(w)
			return
		}
		Fail(core.Invalid("Invalid request body."), msgUnexpected).Write(w)
		return
	}

	resp := action(ctx, caller, p)
	applog.NewStructuredLogger(logger).
		LogAction(ctx, name, caller.UserID, resp.statusCode, time.Since(start).Milliseconds())
	resp.Write(w)
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	OK().With("status", "ok").Write(w)
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()
	if err := s.store.Ping(ctx); err != nil {
		slog.ErrorContext(ctx, "Readiness check failed", "error", err)
		Fail(err, "Database unavailable.").Status(http.StatusServiceUnavailable).Write(w)
		return
	}
	OK().With("status", "ready").Write(w)
}

// fail reports an action error with the generic fallback message.
func fail(err error) *ActionResponse {
	return Fail(err, msgUnexpected)
}

// Shutdown stops the rate limiter and gracefully shuts the server down.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.limiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

// Stats aggregates the middleware counters of a running server.
type Stats struct {
	Requests   trace.Metrics
	RateLimit  ratelimit.Metrics
	Suspicious int64
}

// Stats returns a snapshot of the middleware counters.
func (s *Server) Stats() Stats {
	return Stats{
		Requests:   s.tracer.GetMetrics(),
		RateLimit:  s.limiter.GetMetrics(),
		Suspicious: s.detector.GetMetrics().SuspiciousRequests,
	}
}
