package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/angelmondragon/shopfront-backend/pkg/logger"
)

// queryLogger sends gorm's output through the service logger. Slow queries
// are warnings; failed queries are debug lines because the caller reports
// the error itself.
type queryLogger struct {
	logg  *logger.Logger
	slow  time.Duration
	level gormlogger.LogLevel
}

func newQueryLogger(logg *logger.Logger, slow time.Duration) *queryLogger {
	level := gormlogger.Warn
	if logg == nil {
		level = gormlogger.Silent
	}
	return &queryLogger{logg: logg, slow: slow, level: level}
}

func (q *queryLogger) LogMode(level gormlogger.LogLevel) gormlogger.Interface {
	clone := *q
	clone.level = level
	return &clone
}

func (q *queryLogger) enabled(level gormlogger.LogLevel) bool {
	return q.logg != nil && q.level >= level
}

func (q *queryLogger) Info(ctx context.Context, msg string, args ...any) {
	if q.enabled(gormlogger.Info) {
		q.logg.Debug(ctx, fmt.Sprintf(msg, args...))
	}
}

func (q *queryLogger) Warn(ctx context.Context, msg string, args ...any) {
	if q.enabled(gormlogger.Warn) {
		q.logg.Warn(ctx, fmt.Sprintf(msg, args...))
	}
}

func (q *queryLogger) Error(ctx context.Context, msg string, args ...any) {
	if q.enabled(gormlogger.Error) {
		q.logg.Error(ctx, "gorm", errors.New(fmt.Sprintf(msg, args...)))
	}
}

func (q *queryLogger) Trace(ctx context.Context, begin time.Time, fc func() (string, int64), err error) {
	if !q.enabled(gormlogger.Error) {
		return
	}
	elapsed := time.Since(begin)
	failed := err != nil && !errors.Is(err, gorm.ErrRecordNotFound)
	slow := q.slow > 0 && elapsed > q.slow

	var msg string
	switch {
	case failed:
		msg = "db.query_failed"
	case slow && q.enabled(gormlogger.Warn):
		msg = "db.slow_query"
	case q.enabled(gormlogger.Info):
		msg = "db.query"
	default:
		return
	}

	query, rows := fc()
	ctx = q.logg.WithFields(ctx, map[string]any{
		"sql":        query,
		"rows":       rows,
		"elapsed_ms": elapsed.Milliseconds(),
	})
	if msg == "db.slow_query" {
		q.logg.Warn(ctx, msg)
		return
	}
	if failed {
		ctx = q.logg.WithField(ctx, "db_error", err.Error())
	}
	q.logg.Debug(ctx, msg)
}
