package jobs

import (
	"context"
	"fmt"

	"github.com/wonny/tradingquiz/pkg/logger"
)

// SampleCounter is satisfied by contracts.SampleRepository.
type SampleCounter interface {
	Count(ctx context.Context) (int, error)
}

// SampleImporter is satisfied by *market.Importer.
type SampleImporter interface {
	Import(ctx context.Context, count int) (int, error)
}

// SampleImportJob tops up the chart pool from recent price history
type SampleImportJob struct {
	samples  SampleCounter
	importer SampleImporter
	target   int
	batch    int
	schedule string
	logger   *logger.Logger
}

// NewSampleImportJob creates the job. It imports up to batch samples per run
// while the pool holds fewer than target.
func NewSampleImportJob(samples SampleCounter, importer SampleImporter, target, batch int, schedule string, log *logger.Logger) *SampleImportJob {
	if schedule == "" {
		schedule = "0 0 1 * * *" // 01:00 daily
	}
	return &SampleImportJob{
		samples:  samples,
		importer: importer,
		target:   target,
		batch:    batch,
		schedule: schedule,
		logger:   log,
	}
}

// Name returns the job name
func (j *SampleImportJob) Name() string {
	return "sample_import"
}

// Schedule returns the cron schedule
func (j *SampleImportJob) Schedule() string {
	return j.schedule
}

// Run imports samples when the pool is below target
func (j *SampleImportJob) Run(ctx context.Context) error {
	have, err := j.samples.Count(ctx)
	if err != nil {
		return fmt.Errorf("count samples: %w", err)
	}
	if have >= j.target {
		j.logger.WithField("samples", have).Debug("Sample pool full, skipping import")
		return nil
	}

	want := min(j.target-have, j.batch)
	n, err := j.importer.Import(ctx, want)
	if err != nil {
		return fmt.Errorf("import samples: %w", err)
	}

	j.logger.WithFields(map[string]interface{}{
		"imported": n,
		"total":    have + n,
	}).Info("Samples imported")
	return nil
}
