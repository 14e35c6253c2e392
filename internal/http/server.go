package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	applog "spendlog/internal/log"
	"spendlog/internal/middleware/ratelimit"
	"spendlog/internal/middleware/security"
	"spendlog/internal/middleware/trace"
	"spendlog/internal/services"
	"spendlog/internal/share"
	"spendlog/internal/sheets"
)

// Pinger reports whether the record store can serve requests.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Deps are the collaborators the API serves. Sheets and Health may be nil.
type Deps struct {
	Expenses  *services.ExpenseService
	Pets      *services.PetService
	Locations *services.LocationService
	Codec     *share.Codec
	Sheets    sheets.Exporter
	Health    Pinger
	Logger    *applog.Logger

	// PublicOrigin prefixes share links.
	PublicOrigin string
	// RateLimit is the number of mutating requests one client may send
	// per minute.
	RateLimit int
	// TrustedProxies lists CIDRs whose forwarding headers are believed.
	TrustedProxies []string
}

// Server embeds http.Server and holds the handler dependencies.
type Server struct {
	http.Server

	expenses  *services.ExpenseService
	pets      *services.PetService
	locations *services.LocationService
	codec     *share.Codec
	sheets    sheets.Exporter
	health    Pinger
	logger    *applog.Logger
	origin    string

	limiter  *ratelimit.Limiter
	detector *security.Detector
	tracer   *trace.Middleware

	now          func() time.Time
	started      time.Time
	shutdownOnce sync.Once
}

// NewServer configures routes and middleware, returning a ready-to-run server.
func NewServer(addr string, deps Deps) *Server {
	logger := deps.Logger
	if logger == nil {
		logger = applog.New(applog.DefaultConfig())
	}

	s := &Server{
		Server: http.Server{
			Addr:              addr,
			ReadTimeout:       10 * time.Second,
			ReadHeaderTimeout: 5 * time.Second,
			WriteTimeout:      30 * time.Second,
			IdleTimeout:       60 * time.Second,
			MaxHeaderBytes:    1 << 16,
		},
		expenses:  deps.Expenses,
		pets:      deps.Pets,
		locations: deps.Locations,
		codec:     deps.Codec,
		sheets:    deps.Sheets,
		health:    deps.Health,
		logger:    logger.WithComponent(applog.ComponentHTTP),
		origin:    deps.PublicOrigin,
		limiter: ratelimit.NewLimiter(ratelimit.Config{
			RequestsPerMinute: deps.RateLimit,
		}),
		detector: security.NewDetector(),
		now:      time.Now,
		started:  time.Now(),
	}
	for _, cidr := range deps.TrustedProxies {
		if err := s.detector.AddTrustedProxy(cidr); err != nil {
			s.logger.Warn("Ignoring trusted proxy", "cidr", cidr, "error", err)
		}
	}
	s.tracer = trace.NewMiddleware(s.logger, s.detector.ExtractClientIP)

	mux := http.NewServeMux()
	s.routes(mux)

	var h http.Handler = mux
	h = s.limiter.Middleware(s.detector.ExtractClientIP, handleRateLimited,
		http.MethodPost, http.MethodPut, http.MethodDelete)(h)
	h = security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware(h)
	h = s.detector.Middleware(h)
	h = s.tracer.Middleware(h)
	s.Handler = h
	return s
}

func (s *Server) routes(mux *http.ServeMux) {
	group := func(component string) func(pattern string, h http.HandlerFunc) {
		mw := applog.ComponentMiddleware(component)
		return func(pattern string, h http.HandlerFunc) {
			mux.Handle(pattern, security.CacheControl("no-store")(mw(h)))
		}
	}

	expenses := group(applog.ComponentExpense)
	expenses("GET /api/expenses", s.handleListExpenses)
	expenses("POST /api/expenses", s.handleCreateExpense)
	expenses("GET /api/expenses/{id}", s.handleGetExpense)
	expenses("PUT /api/expenses/{id}", s.handleUpdateExpense)
	expenses("DELETE /api/expenses/{id}", s.handleDeleteExpense)
	expenses("GET /api/summary", s.handleSummary)
	expenses("GET /api/insights/categories", s.handleCategoryInsights)
	expenses("GET /api/insights/sentiment", s.handleSentimentInsights)
	expenses("GET /api/insights/monthly", s.handleMonthlyInsights)

	exports := group(applog.ComponentExport)
	exports("GET /api/export", s.handleExport)
	exports("POST /api/export/sheets", s.handleExportSheets)

	shares := group(applog.ComponentShare)
	shares("POST /api/share", s.handleShare)
	shares("POST /api/shared/decode", s.handleDecodeShared)
	shares("POST /api/shared/import", s.handleImportShared)

	pets := group(applog.ComponentPet)
	pets("GET /api/pet", s.handleGetPet)
	pets("POST /api/pet/play", s.handlePlayFetch)
	pets("PUT /api/pet/name", s.handleRenamePet)

	places := group(applog.ComponentGeocode)
	places("GET /api/home-location", s.handleGetHome)
	places("PUT /api/home-location", s.handleSetHome)
	places("GET /api/geocode", s.handleGeocode)

	group(applog.ComponentHTTP)("GET /api/", func(w http.ResponseWriter, r *http.Request) {
		NotFoundError("no such endpoint").Write(w)
	})

	charts := security.CacheControl("no-cache")
	mux.Handle("GET /charts/monthly.png", charts(http.HandlerFunc(s.handleMonthlyChart)))
	mux.Handle("GET /charts/categories.png", charts(http.HandlerFunc(s.handleCategoryChart)))

	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	mux.HandleFunc("GET /metrics", s.handleMetrics)
}

func handleRateLimited(w http.ResponseWriter, r *http.Request) {
	ErrorResponse(http.StatusTooManyRequests, "rate limit exceeded, try again later").Write(w)
}

// fail writes the response for err, logging anything that is not the
// client's fault.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, op string, err error) {
	resp := errorResponse(err)
	if resp.statusCode >= http.StatusInternalServerError {
		applog.FromContext(r.Context()).
			Failed(r.Context(), "Request failed", err, op, applog.Attrs{}.Request(r))
	}
	resp.Write(w)
}

// Shutdown stops background goroutines and gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.limiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}
