package telemetry

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/robfig/cron/v3"
)

// RetentionHorizon is how long the active file may sit without writes
// before it is rotated into an archive.
const RetentionHorizon = 7 * 24 * time.Hour

// Rotator periodically archives a stale active log file.
type Rotator struct {
	logger  *Logger
	horizon time.Duration
	cron    *cron.Cron
}

// NewRotator creates a rotator for the given logger.
func NewRotator(logger *Logger, horizon time.Duration) *Rotator {
	if horizon <= 0 {
		horizon = RetentionHorizon
	}
	return &Rotator{
		logger:  logger,
		horizon: horizon,
		cron:    cron.New(cron.WithLocation(time.UTC)),
	}
}

// Start schedules an hourly rotation check. The check runs off the
// request path.
func (r *Rotator) Start() error {
	_, err := r.cron.AddFunc("0 * * * *", func() {
		if err := r.RotateIfStale(); err != nil {
			log.Printf("WARN: telemetry rotation failed: %v", err)
		}
	})
	if err != nil {
		return err
	}
	r.cron.Start()
	return nil
}

// Stop halts the schedule and waits for a running job to finish.
func (r *Rotator) Stop() {
	ctx := r.cron.Stop()
	<-ctx.Done()
}

// RotateIfStale archives the active file when its newest entry is older
// than the horizon. The archive name carries the rotation timestamp.
func (r *Rotator) RotateIfStale() error {
	l := r.logger

	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return nil
	}
	if l.lastWrite.IsZero() || time.Since(l.lastWrite) < r.horizon {
		return nil
	}
	info, err := l.file.Stat()
	if err != nil || info.Size() == 0 {
		return err
	}

	archive := fmt.Sprintf("%s.%s", l.path, time.Now().UTC().Format("20060102T150405"))
	if err := l.file.Close(); err != nil {
		return fmt.Errorf("failed to close active log: %w", err)
	}
	if err := os.Rename(l.path, archive); err != nil {
		// Reopen so recording keeps working even when the rename failed.
		if openErr := l.open(); openErr != nil {
			return openErr
		}
		return fmt.Errorf("failed to archive log: %w", err)
	}
	l.lastWrite = time.Time{}
	return l.open()
}
