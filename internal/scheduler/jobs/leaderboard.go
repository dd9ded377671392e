package jobs

import (
	"context"
	"fmt"

	"github.com/wonny/tradingquiz/pkg/logger"
)

// LeaderboardWarmer is satisfied by *leaderboard.Service.
type LeaderboardWarmer interface {
	Warm(ctx context.Context) (int, error)
}

// LeaderboardWarmupJob refreshes the cached leaderboard pages
// ⭐ SSOT: periodic leaderboard refresh is scheduled here only
type LeaderboardWarmupJob struct {
	board    LeaderboardWarmer
	schedule string
	logger   *logger.Logger
}

// NewLeaderboardWarmupJob creates the job. An empty schedule means every minute.
func NewLeaderboardWarmupJob(board LeaderboardWarmer, schedule string, log *logger.Logger) *LeaderboardWarmupJob {
	if schedule == "" {
		schedule = "0 * * * * *"
	}
	return &LeaderboardWarmupJob{board: board, schedule: schedule, logger: log}
}

// Name returns the job name
func (j *LeaderboardWarmupJob) Name() string {
	return "leaderboard_warmup"
}

// Schedule returns the cron schedule
func (j *LeaderboardWarmupJob) Schedule() string {
	return j.schedule
}

// Run rebuilds the default leaderboard page
func (j *LeaderboardWarmupJob) Run(ctx context.Context) error {
	n, err := j.board.Warm(ctx)
	if err != nil {
		return fmt.Errorf("warm leaderboard: %w", err)
	}
	j.logger.WithField("entries", n).Debug("Leaderboard warmed")
	return nil
}
