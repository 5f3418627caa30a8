package cron

import (
	"context"
	"fmt"
	"slices"
)

// Job is a unit of maintenance work run by the cron worker.
type Job interface {
	Name() string
	Run(ctx context.Context) error
}

// Registry holds uniquely named jobs in registration order.
type Registry struct {
	order  []Job
	byName map[string]Job
}

// NewRegistry registers jobs in order, skipping nils.
func NewRegistry(jobs ...Job) (*Registry, error) {
	r := &Registry{byName: make(map[string]Job, len(jobs))}
	for _, job := range jobs {
		if err := r.Register(job); err != nil {
			return nil, err
		}
	}
	return r, nil
}

func (r *Registry) Register(job Job) error {
	if job == nil {
		return nil
	}
	if r.byName == nil {
		r.byName = map[string]Job{}
	}
	name := job.Name()
	if _, taken := r.byName[name]; taken {
		return fmt.Errorf("cron job %q registered twice", name)
	}
	r.byName[name] = job
	r.order = append(r.order, job)
	return nil
}

func (r *Registry) Jobs() []Job {
	return slices.Clone(r.order)
}

func (r *Registry) Lookup(name string) (Job, bool) {
	job, ok := r.byName[name]
	return job, ok
}
