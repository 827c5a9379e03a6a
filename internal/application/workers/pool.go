package workers

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/aescanero/llmgate/internal/application/gateway"
	"github.com/aescanero/llmgate/pkg/adapters/llm"
	"github.com/aescanero/llmgate/pkg/domain/chat"
	"github.com/aescanero/llmgate/pkg/domain/session"
	"github.com/aescanero/llmgate/pkg/ports"
)

// Pool manages a pool of worker goroutines executing chat jobs
type Pool struct {
	size       int
	eventBus   ports.EventBus
	jobs       ports.JobStore
	llmClient  ports.LLMClient
	metrics    ports.MetricsCollector
	logger     *zap.Logger
	health     *HealthMonitor
	retry      llm.RetryConfig
	jobTimeout time.Duration

	queue   chan string
	workers []*worker
	wg      sync.WaitGroup
	ctx     context.Context
	cancel  context.CancelFunc
}

// worker represents a single worker goroutine
type worker struct {
	id      string
	pool    *Pool
	status  WorkerStatus
	mu      sync.RWMutex
	lastJob time.Time
}

// WorkerStatus represents worker status
type WorkerStatus string

const (
	WorkerStatusIdle    WorkerStatus = "idle"
	WorkerStatusBusy    WorkerStatus = "busy"
	WorkerStatusStopped WorkerStatus = "stopped"
)

// NewPool creates a new worker pool
func NewPool(
	size int,
	eventBus ports.EventBus,
	jobs ports.JobStore,
	llmClient ports.LLMClient,
	metrics ports.MetricsCollector,
	logger *zap.Logger,
	retry llm.RetryConfig,
	jobTimeout time.Duration,
	healthCheckInterval time.Duration,
) *Pool {
	ctx, cancel := context.WithCancel(context.Background())

	pool := &Pool{
		size:       size,
		eventBus:   eventBus,
		jobs:       jobs,
		llmClient:  llmClient,
		metrics:    metrics,
		logger:     logger,
		retry:      retry,
		jobTimeout: jobTimeout,
		queue:      make(chan string, size*4),
		workers:    make([]*worker, size),
		ctx:        ctx,
		cancel:     cancel,
	}

	pool.health = NewHealthMonitor(pool, healthCheckInterval, logger)

	return pool
}

// Start starts the worker pool and subscribes to job events
func (p *Pool) Start() error {
	p.logger.Info("starting worker pool", zap.Int("size", p.size))

	if err := p.eventBus.Subscribe(p.ctx, gateway.TopicJobEvents, p.handleEvent); err != nil {
		return fmt.Errorf("failed to subscribe to job events: %w", err)
	}

	for i := 0; i < p.size; i++ {
		w := &worker{
			id:      fmt.Sprintf("worker-%d", i),
			pool:    p,
			status:  WorkerStatusIdle,
			lastJob: time.Now(),
		}
		p.workers[i] = w

		p.wg.Add(1)
		go w.run(p.ctx)
	}

	p.health.Start()

	p.logger.Info("worker pool started", zap.Int("workers", p.size))
	return nil
}

// handleEvent queues submitted jobs for execution
func (p *Pool) handleEvent(ctx context.Context, event ports.Event) error {
	if event.Type != ports.EventTypeJobSubmitted {
		return nil
	}
	if event.JobID == "" {
		p.logger.Error("job event without job_id", zap.String("event_id", event.ID))
		return nil
	}

	select {
	case p.queue <- event.JobID:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Shutdown gracefully shuts down the worker pool
func (p *Pool) Shutdown(ctx context.Context) error {
	p.logger.Info("shutting down worker pool")

	p.health.Stop()
	p.cancel()

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		p.logger.Info("worker pool shut down complete")
		return nil
	case <-ctx.Done():
		return fmt.Errorf("shutdown timeout")
	}
}

// Health returns the pool's health monitor
func (p *Pool) Health() *HealthMonitor {
	return p.health
}

// GetStatus returns the status of all workers
func (p *Pool) GetStatus() map[string]WorkerStatus {
	status := make(map[string]WorkerStatus)
	for _, w := range p.workers {
		w.mu.RLock()
		status[w.id] = w.status
		w.mu.RUnlock()
	}
	return status
}

// run is the main worker loop
func (w *worker) run(ctx context.Context) {
	defer w.pool.wg.Done()

	w.pool.logger.Info("worker started", zap.String("worker_id", w.id))

	for {
		select {
		case <-ctx.Done():
			w.mu.Lock()
			w.status = WorkerStatusStopped
			w.mu.Unlock()
			w.pool.logger.Info("worker stopped", zap.String("worker_id", w.id))
			return

		case jobID := <-w.pool.queue:
			w.executeJob(ctx, jobID)
		}
	}
}

// executeJob runs a single chat job against the provider
func (w *worker) executeJob(ctx context.Context, jobID string) {
	w.mu.Lock()
	w.status = WorkerStatusBusy
	w.lastJob = time.Now()
	w.mu.Unlock()

	defer func() {
		w.mu.Lock()
		w.status = WorkerStatusIdle
		w.mu.Unlock()
	}()

	job, err := w.pool.jobs.LoadJob(ctx, jobID)
	if err != nil {
		w.pool.logger.Error("failed to load job",
			zap.String("worker_id", w.id),
			zap.String("job_id", jobID),
			zap.Error(err))
		return
	}

	if job.Terminal() {
		w.pool.logger.Warn("job already in terminal state",
			zap.String("worker_id", w.id),
			zap.String("job_id", jobID),
			zap.String("status", string(job.Status)))
		return
	}

	w.pool.logger.Info("executing job",
		zap.String("worker_id", w.id),
		zap.String("job_id", jobID),
		zap.String("model", job.Config.Model))

	now := time.Now()
	job.Status = session.JobStatusRunning
	job.StartedAt = &now

	if err := w.pool.jobs.SaveJob(ctx, job); err != nil {
		w.pool.logger.Error("failed to save job",
			zap.String("worker_id", w.id),
			zap.String("job_id", jobID),
			zap.Error(err))
		return
	}

	execCtx, cancel := context.WithTimeout(ctx, w.pool.jobTimeout)
	defer cancel()

	response, err := llm.Retry(execCtx, w.pool.retry, func(ctx context.Context) (*chat.Response, error) {
		return w.pool.llmClient.Send(ctx, job.Messages, job.Config)
	})

	duration := time.Since(now)
	completedAt := time.Now()
	job.CompletedAt = &completedAt

	if err != nil {
		job.Status = session.JobStatusFailed
		job.Error = chat.AsError(err)
		w.publishEvent(ctx, jobID, ports.EventTypeChatFailed, map[string]interface{}{
			"error": job.Error.Message,
			"code":  string(job.Error.Code),
		})
	} else {
		job.Status = session.JobStatusCompleted
		job.Response = response
		w.publishEvent(ctx, jobID, ports.EventTypeChatCompleted, map[string]interface{}{
			"finish_reason": string(response.Metadata.FinishReason),
		})
	}

	w.pool.metrics.RecordJob(string(job.Status), duration)

	if err := w.pool.jobs.SaveJob(ctx, job); err != nil {
		w.pool.logger.Error("failed to save job result",
			zap.String("worker_id", w.id),
			zap.String("job_id", jobID),
			zap.Error(err))
	}

	w.pool.logger.Info("job execution completed",
		zap.String("worker_id", w.id),
		zap.String("job_id", jobID),
		zap.String("status", string(job.Status)),
		zap.Duration("duration", duration))
}

// publishEvent publishes a job lifecycle event to the event bus
func (w *worker) publishEvent(ctx context.Context, jobID string, eventType ports.EventType, data map[string]interface{}) {
	event := ports.Event{
		ID:        uuid.New().String(),
		Type:      eventType,
		JobID:     jobID,
		Timestamp: time.Now(),
		Data:      data,
	}

	if err := w.pool.eventBus.Publish(ctx, gateway.TopicJobEvents, event); err != nil {
		w.pool.logger.Error("failed to publish event",
			zap.String("worker_id", w.id),
			zap.String("event_type", string(eventType)),
			zap.Error(err))
	}
}
