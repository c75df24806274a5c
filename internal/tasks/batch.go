package tasks

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/desertthunder/migtrack/internal/shared"
	"golang.org/x/time/rate"
)

// ApplyOpts contains configuration for plan replay.
type ApplyOpts struct {
	NumWorkers int     // Components applied concurrently (default: 4)
	RateLimit  float64 // Steps per second across all workers (default: 10)
}

// Apply replays plan through the engine's client.
//
// Components are distributed over a worker pool. Each worker runs one component's steps in plan order,
// waiting on a shared rate limiter before each step. The first failing step of a component stops that
// component; its remaining steps are skipped. Other components carry on.
//
// Returns an error only when the plan is invalid or ctx ends; step failures are reported in the result.
func (e *BatchEngine) Apply(ctx context.Context, plan *Plan, prog chan<- ProgressUpdate, opts ApplyOpts) (*ApplyResult, error) {
	if e.client == nil {
		return nil, fmt.Errorf("%w: tracker client not initialized", shared.ErrServiceUnavailable)
	}
	if plan == nil {
		return nil, fmt.Errorf("%w: no plan", shared.ErrInvalidInput)
	}

	e.sendProgress(prog, validatePlanUpdate(len(plan.Steps)))
	if err := plan.Validate(); err != nil {
		return nil, err
	}

	if opts.NumWorkers <= 0 {
		opts.NumWorkers = 4
	}
	if opts.NumWorkers > 16 {
		opts.NumWorkers = 16
	}
	if opts.RateLimit <= 0 {
		opts.RateLimit = 10.0
	}

	groups := plan.groups()
	total := len(plan.Steps)
	limiter := rate.NewLimiter(rate.Limit(opts.RateLimit), 1)

	jobs := make(chan componentJob, len(groups))
	results := make(chan ComponentResult, len(groups))

	var (
		wg      sync.WaitGroup
		counter stepCounter
	)
	for i := 0; i < opts.NumWorkers; i++ {
		wg.Add(1)
		go e.applyWorker(ctx, &wg, jobs, results, limiter, prog, &counter, total)
	}

	for _, job := range groups {
		jobs <- job
	}
	close(jobs)

	go func() {
		wg.Wait()
		close(results)
	}()

	result := &ApplyResult{TotalSteps: total}
	for res := range results {
		result.Components = append(result.Components, res)
		result.Skipped += res.Skipped
		for _, s := range res.Steps {
			if s.Error != nil {
				result.Failed++
			} else {
				result.Applied++
			}
		}
	}
	slices.SortFunc(result.Components, func(a, b ComponentResult) int {
		return strings.Compare(a.Component, b.Component)
	})

	if err := ctx.Err(); err != nil {
		return result, fmt.Errorf("plan interrupted: %w", err)
	}

	e.sendProgress(prog, planCompletedUpdate(result))
	e.logger.Info("plan applied", "steps", total, "applied", result.Applied, "failed", result.Failed, "skipped", result.Skipped)
	return result, nil
}

// applyWorker is a worker goroutine that runs component jobs from the jobs channel.
func (e *BatchEngine) applyWorker(
	ctx context.Context,
	wg *sync.WaitGroup,
	jobs <-chan componentJob,
	results chan<- ComponentResult,
	limiter *rate.Limiter,
	prog chan<- ProgressUpdate,
	counter *stepCounter,
	total int,
) {
	defer wg.Done()

	for job := range jobs {
		results <- e.applyComponent(ctx, job, limiter, prog, counter, total)
	}
}

// applyComponent runs one component's steps in order, stopping at the first failure or when ctx ends.
func (e *BatchEngine) applyComponent(
	ctx context.Context,
	job componentJob,
	limiter *rate.Limiter,
	prog chan<- ProgressUpdate,
	counter *stepCounter,
	total int,
) ComponentResult {
	res := ComponentResult{Component: job.component}
	logger := e.logger.With("component", job.component)

	for i, s := range job.steps {
		if err := limiter.Wait(ctx); err != nil {
			res.Skipped += len(job.steps) - i
			return res
		}

		milestones, rec, err := e.applyStep(ctx, s)
		res.Steps = append(res.Steps, StepResult{Step: s, Milestones: milestones, Error: err})
		n := counter.next()

		if err != nil {
			logger.Warn("step failed", "step", s.String(), "error", err)
			e.sendProgress(prog, stepFailedUpdate(n, total, s, err))
			res.Skipped += len(job.steps) - i - 1
			return res
		}

		if rec != nil {
			res.Final = rec
		}
		logger.Debug("step applied", "step", s.String(), "milestones", milestones)
		e.sendProgress(prog, stepAppliedUpdate(n, total, s, milestones))
	}
	return res
}

// stepCounter numbers steps across workers for progress reporting.
type stepCounter struct {
	mu sync.Mutex
	n  int
}

func (c *stepCounter) next() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.n++
	return c.n
}
