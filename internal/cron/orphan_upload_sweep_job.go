package cron

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/multierr"

	"github.com/angelmondragon/movies-backend/internal/uploads"
	"github.com/angelmondragon/movies-backend/pkg/logger"
	"github.com/angelmondragon/movies-backend/pkg/metrics"
)

// OrphanUploadSweepJobName labels the sweeper in logs and metrics.
const OrphanUploadSweepJobName = "orphan_upload_sweep"

const defaultSweepGracePeriod = time.Hour

type OrphanUploadSweepJobParams struct {
	Logger  *logger.Logger
	Files   uploadFiles
	Images  imageReferences
	Metrics *metrics.CronJobMetrics
	// GracePeriod protects files young enough to belong to a request still in flight.
	GracePeriod time.Duration
}

type uploadFiles interface {
	List(ctx context.Context) ([]uploads.FileInfo, error)
	Remove(ctx context.Context, publicPath string) error
}

type imageReferences interface {
	ListImagePaths(ctx context.Context) ([]string, error)
}

func NewOrphanUploadSweepJob(params OrphanUploadSweepJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Files == nil {
		return nil, fmt.Errorf("upload store required")
	}
	if params.Images == nil {
		return nil, fmt.Errorf("movie repository required")
	}
	grace := params.GracePeriod
	if grace <= 0 {
		grace = defaultSweepGracePeriod
	}
	return &orphanUploadSweepJob{
		logg:    params.Logger,
		files:   params.Files,
		images:  params.Images,
		metrics: params.Metrics,
		grace:   grace,
		now:     time.Now,
	}, nil
}

type orphanUploadSweepJob struct {
	logg    *logger.Logger
	files   uploadFiles
	images  imageReferences
	metrics *metrics.CronJobMetrics
	grace   time.Duration
	now     func() time.Time
}

func (j *orphanUploadSweepJob) Name() string { return OrphanUploadSweepJobName }

// Run removes stored files older than the grace period that no movie references.
// One failed removal does not stop the sweep; all failures are returned together.
func (j *orphanUploadSweepJob) Run(ctx context.Context) error {
	referenced, err := j.images.ListImagePaths(ctx)
	if err != nil {
		return fmt.Errorf("list referenced images: %w", err)
	}
	inUse := make(map[string]struct{}, len(referenced))
	for _, p := range referenced {
		inUse[p] = struct{}{}
	}

	files, err := j.files.List(ctx)
	if err != nil {
		return fmt.Errorf("list stored uploads: %w", err)
	}

	cutoff := j.now().Add(-j.grace)
	var (
		removed  int
		skipped  int
		sweepErr error
	)
	for _, file := range files {
		if _, ok := inUse[file.Path]; ok {
			continue
		}
		if file.ModTime.After(cutoff) {
			skipped++
			continue
		}
		if err := j.files.Remove(ctx, file.Path); err != nil {
			sweepErr = multierr.Append(sweepErr, fmt.Errorf("remove %s: %w", file.Path, err))
			continue
		}
		removed++
	}
	j.metrics.AddRemoved(j.Name(), removed)

	logCtx := j.logg.WithFields(ctx, map[string]any{
		"cutoff":     cutoff,
		"files":      len(files),
		"referenced": len(inUse),
		"removed":    removed,
		"too_recent": skipped,
		"failed":     len(multierr.Errors(sweepErr)),
	})
	j.logg.Info(logCtx, "orphan upload sweep complete")
	return sweepErr
}
