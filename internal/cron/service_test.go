package cron

import (
	"context"
	"errors"
	"testing"

	"github.com/hopefultail/hopeful-tail-backend/pkg/logger"
)

type fakeLock struct {
	acquired bool
	held     bool
}

func (f *fakeLock) TryLock(context.Context) (Lease, error) {
	if f.acquired || f.held {
		return nil, nil
	}
	f.acquired = true
	return f, nil
}

func (f *fakeLock) Release(context.Context) error { f.acquired = false; return nil }

type testJob struct {
	name string
	err  error
	runs int
}

func (t *testJob) Name() string { return t.name }

func (t *testJob) Run(context.Context) error {
	t.runs++
	return t.err
}

func newTestService(t *testing.T, lock Lock, jobs ...Job) *Service {
	t.Helper()
	registry, err := NewRegistry(jobs...)
	if err != nil {
		t.Fatalf("register jobs: %v", err)
	}
	service, err := NewService(ServiceParams{
		Logger:   logger.New(logger.Options{ServiceName: "cron-test"}),
		Registry: registry,
		Lock:     lock,
	})
	if err != nil {
		t.Fatalf("construct service: %v", err)
	}
	return service
}

func TestTickRunsAllJobsEvenOnFailure(t *testing.T) {
	success := &testJob{name: "success"}
	failure := &testJob{name: "fail", err: errors.New("boom")}
	lock := &fakeLock{}
	service := newTestService(t, lock, success, failure)

	service.tick(context.Background())
	if success.runs != 1 || failure.runs != 1 {
		t.Fatalf("expected each job once, got success=%d fail=%d", success.runs, failure.runs)
	}
	if lock.acquired {
		t.Fatal("expected lock to be released")
	}
}

func TestRunNowAggregatesAndSelects(t *testing.T) {
	a := &testJob{name: "a"}
	b := &testJob{name: "b", err: errors.New("boom")}
	service := newTestService(t, &fakeLock{}, a, b)
	ctx := context.Background()

	if err := service.RunNow(ctx, "a"); err != nil {
		t.Fatalf("run a: %v", err)
	}
	if a.runs != 1 || b.runs != 0 {
		t.Fatalf("expected only a to run, got a=%d b=%d", a.runs, b.runs)
	}

	if err := service.RunNow(ctx); err == nil {
		t.Fatal("expected failing job to surface")
	}
	if a.runs != 2 || b.runs != 1 {
		t.Fatalf("expected both to run, got a=%d b=%d", a.runs, b.runs)
	}

	if err := service.RunNow(ctx, "missing"); err == nil {
		t.Fatal("expected unknown job error")
	}
}

func TestRunNowSkipsWhenLockHeld(t *testing.T) {
	job := &testJob{name: "a"}
	service := newTestService(t, &fakeLock{held: true}, job)

	if err := service.RunNow(context.Background()); !errors.Is(err, ErrLockHeld) {
		t.Fatalf("expected ErrLockHeld, got %v", err)
	}
	if job.runs != 0 {
		t.Fatalf("job ran without the lock")
	}
}
