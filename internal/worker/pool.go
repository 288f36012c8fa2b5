// Package worker runs independent loads with bounded concurrency.
package worker

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// Job is one named unit of work. Its error is reported with the name.
type Job struct {
	Name string
	Run  func(context.Context) error
}

// Run executes jobs on at most workers goroutines and returns every failure
// joined. Jobs not yet started when ctx ends are skipped and the context
// error is included.
func Run(ctx context.Context, workers int, jobs []Job) error {
	if workers < 1 {
		workers = 1
	}
	if len(jobs) == 0 {
		return nil
	}
	workers = min(workers, len(jobs))

	jobCh := make(chan Job)
	errCh := make(chan error, len(jobs))

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for job := range jobCh {
				if err := job.Run(ctx); err != nil {
					errCh <- fmt.Errorf("%s: %w", job.Name, err)
				}
			}
		}()
	}

enqueueLoop:
	for _, job := range jobs {
		select {
		case <-ctx.Done():
			break enqueueLoop
		case jobCh <- job:
		}
	}
	close(jobCh)

	wg.Wait()
	close(errCh)

	var errs []error
	for err := range errCh {
		errs = append(errs, err)
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		errs = append(errs, ctxErr)
	}

	return errors.Join(errs...)
}
