package jobs

import (
	"context"
	"time"

	"github.com/Gravitalia/forum/database"
	"github.com/Gravitalia/forum/model"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Jobs refreshes cached aggregates and prunes old moderation data
type Jobs struct {
	DB        database.Forum
	Cache     database.Cacher
	Logger    *zap.Logger
	Retention time.Duration
}

// Start schedules every job and returns the running cron
func (j *Jobs) Start() (*cron.Cron, error) {
	c := cron.New()

	if _, err := c.AddFunc("@hourly", func() { j.WarmCache(context.Background()) }); err != nil {
		return nil, err
	}
	if _, err := c.AddFunc("@daily", func() { j.PruneReports(context.Background()) }); err != nil {
		return nil, err
	}

	c.Start()
	return c, nil
}

// WarmCache recomputes public stats and top contributors
func (j *Jobs) WarmCache(ctx context.Context) {
	j.Logger.Info("warming forum cache")

	stats, err := j.DB.Stats(ctx)
	if err != nil {
		j.Logger.Error("stats did not work as expected", zap.Error(err))
	} else {
		stats.TotalTags = 0
		j.Cache.SetJSON(database.KeyPublicStats, stats)
	}

	contributors, err := j.DB.TopContributors(ctx, model.ContributorsLimit)
	if err != nil {
		j.Logger.Error("top contributors did not work as expected", zap.Error(err))
	} else {
		j.Cache.SetJSON(database.KeyTopContributors, contributors)
	}
}

// PruneReports deletes dismissed reports older than the retention
func (j *Jobs) PruneReports(ctx context.Context) {
	if j.Retention <= 0 {
		return
	}

	pruned, err := j.DB.PruneReports(ctx, time.Now().Add(-j.Retention))
	if err != nil {
		j.Logger.Error("report pruning did not work as expected", zap.Error(err))
		return
	}

	j.Logger.Info("pruned dismissed reports", zap.Int64("count", pruned))
}
