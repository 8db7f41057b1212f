package application

import (
	"context"
	"errors"
)

// Service is one ingest pipeline.
type Service interface {
	Run(ctx context.Context) error
}

// Runner executes every configured pipeline in order. Pipelines are
// independent; a failure in one does not stop the others, and RunAll
// reports the first failure after all have run.
type Runner struct {
	services []Service
}

// NewRunner constructs a Runner.
func NewRunner(services ...Service) (*Runner, error) {
	if len(services) == 0 {
		return nil, errors.New("pipeline: no services")
	}
	for _, service := range services {
		if service == nil {
			return nil, errors.New("pipeline: nil service")
		}
	}
	return &Runner{services: services}, nil
}

// RunAll runs every pipeline and joins their failures.
func (r *Runner) RunAll(ctx context.Context) error {
	var errs []error
	for _, service := range r.services {
		if err := service.Run(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
