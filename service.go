package hookfreight

import (
	"context"
	"log/slog"
	"time"

	"github.com/hookfreight/hookfreight/app"
	"github.com/hookfreight/hookfreight/delivery"
	"github.com/hookfreight/hookfreight/endpoint"
	"github.com/hookfreight/hookfreight/observability"
	"github.com/hookfreight/hookfreight/scheduler"
	"github.com/hookfreight/hookfreight/store"
)

// Service is the root orchestrator: it wires the primary store, the
// durable scheduler queue, and the delivery worker pool into one runnable
// process, plus the supplemental App/Endpoint management services.
type Service struct {
	config Config
	store  store.Store
	queue  scheduler.Queue
	engine *delivery.Engine

	apps      *app.Service
	endpoints *endpoint.Service

	metrics *observability.Metrics
	tracer  *observability.Tracer
	logger  *slog.Logger
}

// Option configures a Service instance.
type Option func(*Service) error

// New creates a Service with the given options. A store and a queue are
// required; everything else has a documented default.
func New(opts ...Option) (*Service, error) {
	s := &Service{
		config: DefaultConfig(),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}
	if s.store == nil {
		return nil, ErrNoStore
	}
	if s.queue == nil {
		return nil, ErrNoQueue
	}
	s.wireServices()
	return s, nil
}

func (s *Service) wireServices() {
	s.apps = app.NewService(s.store, s.logger)
	s.endpoints = endpoint.NewService(s.store, s.logger)

	s.engine = delivery.NewEngine(s.queue, s.store, s.store, s.store, delivery.EngineConfig{
		Concurrency:  s.config.QueueConcurrency,
		MaxRetries:   s.config.QueueMaxRetries,
		PollInterval: 250 * time.Millisecond,
		BaseURL:      s.config.BaseURL,
		Metrics:      s.metrics,
		Tracer:       s.tracer,
	}, s.logger)
}

// Start begins the delivery engine's poll loop.
func (s *Service) Start(ctx context.Context) {
	s.engine.Start(ctx)
}

// Stop drains in-flight deliveries and closes the scheduler queue.
func (s *Service) Stop(ctx context.Context) {
	s.engine.Stop(ctx)
	if err := s.queue.Close(); err != nil {
		s.logger.ErrorContext(ctx, "queue close failed", "error", err)
	}
}

// Store returns the underlying primary store.
func (s *Service) Store() store.Store { return s.store }

// Queue returns the underlying scheduler queue.
func (s *Service) Queue() scheduler.Queue { return s.queue }

// Apps returns the app management service.
func (s *Service) Apps() *app.Service { return s.apps }

// Endpoints returns the endpoint management service.
func (s *Service) Endpoints() *endpoint.Service { return s.endpoints }

// Config returns the service's resolved configuration.
func (s *Service) Config() Config { return s.config }

// Metrics returns the service's metrics recorder, or nil if none was
// configured via WithMetrics.
func (s *Service) Metrics() *observability.Metrics { return s.metrics }

// Logger returns the service's structured logger.
func (s *Service) Logger() *slog.Logger { return s.logger }

// WithStore sets the persistence backend.
func WithStore(st store.Store) Option {
	return func(s *Service) error {
		s.store = st
		return nil
	}
}

// WithQueue sets the durable scheduler queue.
func WithQueue(q scheduler.Queue) Option {
	return func(s *Service) error {
		s.queue = q
		return nil
	}
}

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) error {
		s.logger = logger
		return nil
	}
}

// WithConfig overrides the default Config wholesale, typically with the
// result of LoadConfig.
func WithConfig(cfg Config) Option {
	return func(s *Service) error {
		s.config = cfg
		return nil
	}
}

// WithConcurrency sets the number of delivery worker goroutines.
func WithConcurrency(n int) Option {
	return func(s *Service) error {
		s.config.QueueConcurrency = n
		return nil
	}
}

// WithMaxRetries sets the maximum number of automatic delivery attempts per chain.
func WithMaxRetries(n int) Option {
	return func(s *Service) error {
		s.config.QueueMaxRetries = n
		return nil
	}
}

// WithBaseURL sets the public base URL used by the self-forward guard.
func WithBaseURL(u string) Option {
	return func(s *Service) error {
		s.config.BaseURL = u
		return nil
	}
}

// WithMetrics attaches a metrics recorder.
func WithMetrics(m *observability.Metrics) Option {
	return func(s *Service) error {
		s.metrics = m
		return nil
	}
}

// WithTracer attaches a tracer.
func WithTracer(t *observability.Tracer) Option {
	return func(s *Service) error {
		s.tracer = t
		return nil
	}
}
