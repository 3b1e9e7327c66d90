package delivery

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/hookfreight/hookfreight/endpoint"
	"github.com/hookfreight/hookfreight/event"
	"github.com/hookfreight/hookfreight/id"
	"github.com/hookfreight/hookfreight/internal/entity"
	"github.com/hookfreight/hookfreight/observability"
	"github.com/hookfreight/hookfreight/scheduler"
)

// EngineConfig holds the worker pool's tunables.
type EngineConfig struct {
	Concurrency  int
	MaxRetries   int
	PollInterval time.Duration
	BaseURL      string
	Metrics      *observability.Metrics
	Tracer       *observability.Tracer
}

// Engine is the delivery worker pool: it drains scheduler.Queue, performs
// the outbound HTTP call, writes a Delivery record for every attempt, and
// decides whether the job gets retried.
type Engine struct {
	queue      scheduler.Queue
	events     event.Store
	endpoints  endpoint.Registry
	deliveries Store
	sender     *Sender
	cfg        EngineConfig
	logger     *slog.Logger

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewEngine creates a delivery engine. Each attempt's timeout comes from the
// target endpoint's http_timeout_ms, applied by Sender.Send as a per-request
// context deadline — the shared Sender itself carries no per-call state.
func NewEngine(queue scheduler.Queue, events event.Store, endpoints endpoint.Registry, deliveries Store, cfg EngineConfig, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 5
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 5
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 250 * time.Millisecond
	}
	return &Engine{
		queue:      queue,
		events:     events,
		endpoints:  endpoints,
		deliveries: deliveries,
		sender:     NewSender(0),
		cfg:        cfg,
		logger:     logger,
	}
}

// Start begins the poll loop and worker dispatch.
func (e *Engine) Start(ctx context.Context) {
	ctx, e.cancel = context.WithCancel(ctx)

	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		e.pollLoop(ctx)
	}()
}

// Stop cancels the poll loop and waits for in-flight deliveries to finish,
// satisfying the graceful-shutdown ordering: active jobs finish, anything
// still queued is left for the next process to pick up.
func (e *Engine) Stop(_ context.Context) {
	if e.cancel != nil {
		e.cancel()
	}
	e.wg.Wait()
}

func (e *Engine) pollLoop(ctx context.Context) {
	ticker := time.NewTicker(e.cfg.PollInterval)
	defer ticker.Stop()

	sem := make(chan struct{}, e.cfg.Concurrency)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			e.recordQueueDepth(ctx)
			for {
				job, ok, err := e.queue.Dequeue(ctx)
				if err != nil {
					e.logger.ErrorContext(ctx, "dequeue failed", "error", err)
					break
				}
				if !ok {
					break
				}

				select {
				case <-ctx.Done():
					return
				case sem <- struct{}{}:
				}

				e.wg.Add(1)
				go func(j *scheduler.Job) {
					defer e.wg.Done()
					defer func() { <-sem }()
					// Detached from the poll loop's cancellation so that Stop
					// lets an in-flight attempt finish instead of aborting it.
					e.process(context.WithoutCancel(ctx), j)
				}(job)
			}
		}
	}
}

// recordQueueDepth samples the scheduler's current depth into the queue
// gauges. Called once per poll tick rather than per job so it stays cheap
// under load.
func (e *Engine) recordQueueDepth(ctx context.Context) {
	if e.cfg.Metrics == nil {
		return
	}
	stats, err := e.queue.Stats(ctx)
	if err != nil {
		e.logger.ErrorContext(ctx, "queue stats failed", "error", err)
		return
	}
	e.cfg.Metrics.QueueWaiting.Set(float64(stats.Waiting))
	e.cfg.Metrics.QueueActive.Set(float64(stats.Active))
}

// process implements SPEC_FULL §4.4's per-job algorithm.
func (e *Engine) process(ctx context.Context, job *scheduler.Job) {
	var span trace.Span
	if e.cfg.Tracer != nil {
		ctx, span = e.cfg.Tracer.StartDeliverySpan(ctx, job.EventID.String(), job.EndpointID.String())
	}

	evt, ep, err := e.loadEventAndEndpoint(ctx, job.EventID, job.EndpointID)
	if err != nil {
		e.recordTerminal(ctx, job, "", "failed to load event or endpoint: "+err.Error(), span)
		return
	}

	if !ep.ForwardingEnabled || ep.ForwardURL == "" {
		e.recordTerminal(ctx, job, ep.ForwardURL, "forwarding not enabled or URL not configured", span)
		return
	}

	if IsSelfForward(ep.ForwardURL, e.cfg.BaseURL) {
		e.recordTerminal(ctx, job, ep.ForwardURL, "forward URL points to a HookFreight webhook URL", span)
		return
	}

	result := e.sender.Send(ctx, ep.ForwardURL, ep, evt)
	outcome := Classify(result)

	d := e.buildDelivery(job, ep.ForwardURL, outcome, result)
	if err := e.deliveries.AppendDelivery(ctx, d); err != nil {
		e.logger.ErrorContext(ctx, "append delivery failed", "delivery_id", d.ID, "error", err)
	}

	latencySeconds := float64(result.DurationMs) / 1000.0
	if e.cfg.Metrics != nil {
		e.cfg.Metrics.RecordDelivery(string(outcome.Status), latencySeconds)
	}
	if span != nil {
		e.cfg.Tracer.EndDeliverySpan(span, result.StatusCode, result.DurationMs, d.ErrorMessage)
	}

	// job.Attempt is 0-indexed (the first attempt dequeues at Attempt=0), so
	// this must compare the attempt *after* this one against MaxRetries —
	// otherwise a chain records MaxRetries+1 deliveries instead of exactly
	// MaxRetries.
	if outcome.Retryable && job.Attempt+1 < e.cfg.MaxRetries {
		delay := scheduler.BackoffDelay(job.Attempt + 1)
		if err := e.queue.Retry(ctx, job, d.ID, delay); err != nil {
			e.logger.ErrorContext(ctx, "retry enqueue failed", "delivery_id", d.ID, "error", err)
		}
		e.logger.DebugContext(ctx, "retry scheduled",
			"delivery_id", d.ID, "attempt", job.Attempt+1, "delay", delay)
		return
	}

	if err := e.queue.Complete(ctx, job.ID, outcome.Status != StatusDelivered); err != nil {
		e.logger.ErrorContext(ctx, "complete job failed", "job_id", job.ID, "error", err)
	}
}

// loadEventAndEndpoint fetches both referents in parallel, per SPEC_FULL §4.4 step 1.
func (e *Engine) loadEventAndEndpoint(ctx context.Context, eventID, endpointID id.ID) (*event.Event, *endpoint.Endpoint, error) {
	var evt *event.Event
	var ep *endpoint.Endpoint

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		v, err := e.events.Get(gctx, eventID)
		evt = v
		return err
	})
	g.Go(func() error {
		v, err := e.endpoints.ByID(gctx, endpointID)
		ep = v
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return evt, ep, nil
}

// recordTerminal writes a non-retryable failed delivery and completes the job.
func (e *Engine) recordTerminal(ctx context.Context, job *scheduler.Job, destinationURL, message string, span trace.Span) {
	d := &Delivery{
		Entity:           entity.New(),
		ID:               id.NewDeliveryID(),
		EventID:          job.EventID,
		EndpointID:       job.EndpointID,
		ParentDeliveryID: job.ParentDeliveryID,
		Status:           StatusFailed,
		DestinationURL:   destinationURL,
		ErrorMessage:     message,
	}
	if err := e.deliveries.AppendDelivery(ctx, d); err != nil {
		e.logger.ErrorContext(ctx, "append terminal delivery failed", "delivery_id", d.ID, "error", err)
	}
	if e.cfg.Metrics != nil {
		e.cfg.Metrics.RecordDelivery(string(StatusFailed), 0)
	}
	if span != nil {
		e.cfg.Tracer.EndDeliverySpan(span, 0, 0, message)
	}
	if err := e.queue.Complete(ctx, job.ID, true); err != nil {
		e.logger.ErrorContext(ctx, "complete terminal job failed", "job_id", job.ID, "error", err)
	}
}

func (e *Engine) buildDelivery(job *scheduler.Job, destinationURL string, outcome Outcome, result Result) *Delivery {
	d := &Delivery{
		Entity:           entity.New(),
		ID:               id.NewDeliveryID(),
		EventID:          job.EventID,
		EndpointID:       job.EndpointID,
		ParentDeliveryID: job.ParentDeliveryID,
		Status:           outcome.Status,
		DestinationURL:   destinationURL,
		DurationMs:       result.DurationMs,
	}
	if result.StatusCode != 0 {
		code := result.StatusCode
		d.ResponseStatus = &code
		d.ResponseHeaders = result.Headers
		d.ResponseBody = result.Body
	}
	if result.Err != nil {
		d.ErrorMessage = result.Err.Error()
	} else if outcome.Status == StatusFailed && result.StatusCode >= 400 {
		d.ErrorMessage = "destination responded with an error status"
	}
	return d
}
