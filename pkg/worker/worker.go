// Package worker implements the claim-dispatch-complete loop that drains
// the job queue (spec.md §4.4). Each of a Pool's goroutines repeatedly
// claims the next eligible job, dispatches it by Type, and reports the
// outcome back to the queue — holding a transaction only for the short
// claim/complete/fail operations, never across pipeline or verifier
// execution (Design Note, spec.md §9). Grounded on nightowl's
// roster.RunScheduleTopUpLoop ticker shape, generalized from a single
// periodic task to a concurrent pool of claim loops.
package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/corvidreef/reconwatch/pkg/inventory"
	"github.com/corvidreef/reconwatch/pkg/pipeline"
	"github.com/corvidreef/reconwatch/pkg/queue"
	"github.com/corvidreef/reconwatch/pkg/reconerr"
	"github.com/corvidreef/reconwatch/pkg/target"
	"github.com/corvidreef/reconwatch/pkg/verifier"
)

// Pool claims and executes jobs across PoolSize concurrent goroutines.
type Pool struct {
	Queue     *queue.Store
	Target    *target.Store
	Inventory *inventory.Store
	Pipeline  *pipeline.Engine
	Verifier  *verifier.Verifier
	Logger    *slog.Logger

	WorkerID     string
	PoolSize     int
	GlobalCap    int
	PerTargetCap int
	PollInterval time.Duration
}

// Run blocks until ctx is cancelled, running PoolSize claim loops.
func (p *Pool) Run(ctx context.Context) {
	size := p.PoolSize
	if size <= 0 {
		size = 1
	}

	done := make(chan struct{})
	for i := 0; i < size; i++ {
		go func(slot int) {
			p.loop(ctx, fmt.Sprintf("%s-%d", p.WorkerID, slot))
			done <- struct{}{}
		}(i)
	}
	for i := 0; i < size; i++ {
		<-done
	}
}

func (p *Pool) loop(ctx context.Context, workerID string) {
	ticker := time.NewTicker(p.PollInterval)
	defer ticker.Stop()

	for {
		job, err := p.Queue.ClaimNext(ctx, workerID, p.GlobalCap, p.PerTargetCap)
		if err != nil {
			p.Logger.Error("claiming job", "worker_id", workerID, "error", err)
		} else if job != nil {
			p.execute(ctx, job)
			continue // immediately try to claim another, no poll delay
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (p *Pool) execute(ctx context.Context, job *queue.Job) {
	start := time.Now()
	logger := p.Logger.With("job_id", job.ID, "job_type", job.Type, "run_id", job.RunID)

	var err error
	switch job.Type {
	case queue.TypeRunPipeline:
		err = p.runPipeline(ctx, job)
	case queue.TypeVerifyAsset:
		err = p.verifyAsset(ctx, job)
	case queue.TypeVerifyService:
		err = p.verifyService(ctx, job)
	default:
		err = fmt.Errorf("unknown job type %q", job.Type)
	}

	duration := time.Since(start)
	logger.Info("job finished", "duration", duration, "error", err)

	switch {
	case err == nil:
		if completeErr := p.Queue.Complete(ctx, job.ID); completeErr != nil {
			logger.Error("marking job complete", "error", completeErr)
		}
	case errors.Is(err, reconerr.ErrCancelled):
		if cancelErr := p.Queue.Cancel(ctx, job.ID); cancelErr != nil {
			logger.Error("cancelling job", "error", cancelErr)
		}
	default:
		if failErr := p.Queue.Fail(ctx, job.ID, err.Error(), queue.Backoff(job.RetryCount)); failErr != nil {
			logger.Error("marking job failed", "error", failErr)
		}
	}
}

func (p *Pool) runPipeline(ctx context.Context, job *queue.Job) error {
	t, err := p.Target.Get(ctx, job.TargetID)
	if err != nil {
		return fmt.Errorf("loading target %s: %w", job.TargetID, err)
	}
	return p.Pipeline.Execute(ctx, t, job.RunID)
}

func (p *Pool) verifyAsset(ctx context.Context, job *queue.Job) error {
	var payload struct {
		AssetID uuid.UUID `json:"asset_id"`
	}
	if err := json.Unmarshal(job.Payload, &payload); err != nil {
		return fmt.Errorf("decoding verify_asset payload: %w", err)
	}

	asset, err := p.Inventory.GetAsset(ctx, payload.AssetID)
	if err != nil {
		return fmt.Errorf("loading asset %s: %w", payload.AssetID, err)
	}

	_, err = p.Verifier.VerifyAsset(ctx, asset, job.RunID)
	return err
}

func (p *Pool) verifyService(ctx context.Context, job *queue.Job) error {
	var payload struct {
		ServiceID uuid.UUID `json:"service_id"`
	}
	if err := json.Unmarshal(job.Payload, &payload); err != nil {
		return fmt.Errorf("decoding verify_service payload: %w", err)
	}

	svc, err := p.Inventory.GetService(ctx, payload.ServiceID)
	if err != nil {
		return fmt.Errorf("loading service %s: %w", payload.ServiceID, err)
	}
	hostAsset, err := p.Inventory.GetAsset(ctx, svc.AssetID)
	if err != nil {
		return fmt.Errorf("loading host asset %s for service %s: %w", svc.AssetID, payload.ServiceID, err)
	}

	_, err = p.Verifier.VerifyService(ctx, svc, hostAsset, job.RunID)
	return err
}
