package cron

import (
	"context"
	"fmt"

	"github.com/hopefultail/hopeful-tail-backend/internal/adoptions"
	"github.com/hopefultail/hopeful-tail-backend/pkg/logger"
	"github.com/hopefultail/hopeful-tail-backend/pkg/metrics"
)

const countDayJobName = "adoption-count-day"

type countDaySweeper interface {
	SweepCountDay(ctx context.Context) (adoptions.SweepResult, error)
}

// CountDayJob ages resolved adoption requests once per cycle.
type CountDayJob struct {
	sweeper countDaySweeper
	metrics *metrics.CronJobMetrics
	logg    *logger.Logger
}

func NewCountDayJob(sweeper countDaySweeper, m *metrics.CronJobMetrics, logg *logger.Logger) (*CountDayJob, error) {
	if sweeper == nil {
		return nil, fmt.Errorf("count-day sweeper required")
	}
	if logg == nil {
		logg = logger.Nop()
	}
	return &CountDayJob{sweeper: sweeper, metrics: m, logg: logg}, nil
}

func (j *CountDayJob) Name() string { return countDayJobName }

func (j *CountDayJob) Run(ctx context.Context) error {
	res, err := j.sweeper.SweepCountDay(ctx)
	j.metrics.AddAffected(countDayJobName, "incremented", res.Incremented)
	j.metrics.AddAffected(countDayJobName, "deleted", res.Deleted)
	j.logg.Info(j.logg.WithFields(ctx, map[string]any{
		"scanned":     res.Scanned,
		"incremented": res.Incremented,
		"deleted":     res.Deleted,
	}), "cron.count_day.summary")
	return err
}
