package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"yogastudio/internal/config"
	"yogastudio/internal/domain"

	"github.com/rs/cors"
	"github.com/rs/zerolog"
)

// Services groups the business operations exposed over HTTP.
type Services struct {
	Bookings      domain.BookingService
	Subscriptions domain.SubscriptionService
	Classes       domain.ClassService
}

// Pinger reports whether the backing store is reachable.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// HTTPServer serves the mini app pages and the JSON API behind them.
type HTTPServer struct {
	cfg    *config.APIConfig
	svc    Services
	db     Pinger
	server *http.Server
	logger *zerolog.Logger
	now    func() time.Time
}

func NewHTTPServer(cfg *config.APIConfig, svc Services, db Pinger, logger *zerolog.Logger) *HTTPServer {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	srv := &HTTPServer{
		cfg:    cfg,
		svc:    svc,
		db:     db,
		logger: logger,
		now:    time.Now,
	}

	srv.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTP.Port),
		Handler:           srv.routes(),
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      15 * time.Second,
	}
	return srv
}

func (s *HTTPServer) routes() http.Handler {
	mux := http.NewServeMux()
	admin := newAdminAuth(s.cfg.Auth)

	mux.HandleFunc("GET /api/classes", s.handleListClasses)
	mux.HandleFunc("GET /api/class/{id}", s.handleGetClass)
	mux.HandleFunc("GET /api/class/{id}/subscription_types", s.handleSubscriptionTypes)
	mux.HandleFunc("POST /api/book", s.handleBook)
	mux.HandleFunc("POST /api/cancel_booking", s.handleCancelBooking)
	mux.HandleFunc("GET /api/user/subscriptions", s.handleUserSubscriptions)
	mux.HandleFunc("GET /api/user/active_subscriptions", s.handleActiveSubscriptions)
	mux.HandleFunc("POST /api/subscriptions/purchase", s.handlePurchase)
	mux.HandleFunc("GET /api/user/bookings", s.handleUserBookings)
	mux.Handle("POST /api/admin/create_class", admin.Wrap(http.HandlerFunc(s.handleCreateClass)))

	mux.HandleFunc("GET /healthz", s.handleHealthz)
	mux.HandleFunc("GET /readyz", s.handleReadyz)

	mux.HandleFunc("GET /{$}", s.servePage("main"))
	mux.HandleFunc("GET /schedule", s.servePage("schedule"))
	mux.HandleFunc("GET /subscriptions", s.servePage("subscriptions"))
	mux.HandleFunc("GET /bookings", s.servePage("bookings"))
	mux.Handle("GET /static/", http.StripPrefix("/static/", http.FileServer(http.Dir(s.cfg.PagesDir))))

	limiter := newIPRateLimiter(s.cfg.RateLimit)

	var handler http.Handler = mux
	handler = limiter.Wrap(handler)
	handler = recoveryMiddleware(s.logger)(handler)
	handler = loggingMiddleware(s.logger)(handler)
	handler = requestIDMiddleware(handler)

	return cors.New(cors.Options{
		AllowedOrigins: s.cfg.CORS.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"*"},
	}).Handler(handler)
}

// Handler exposes the routed handler, for mounting and tests.
func (s *HTTPServer) Handler() http.Handler {
	return s.server.Handler
}

func (s *HTTPServer) Start() error {
	if s.server == nil {
		return errors.New("http server is not initialized")
	}
	s.logger.Info().Str("addr", s.server.Addr).Msg("HTTP API listening")
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *HTTPServer) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}
