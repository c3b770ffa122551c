package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/kbukum/interviewscribe/logger"
)

var logLevels = map[string]gormlogger.LogLevel{
	"silent": gormlogger.Silent,
	"error":  gormlogger.Error,
	"warn":   gormlogger.Warn,
	"info":   gormlogger.Info,
}

// queryLogger routes gorm's output through the service logger. Statements
// are logged at debug, slow ones as warnings, failures as errors.
type queryLogger struct {
	log   *logger.Logger
	level gormlogger.LogLevel
	slow  time.Duration
}

func newQueryLogger(log *logger.Logger, slow time.Duration, level string) gormlogger.Interface {
	lvl, ok := logLevels[level]
	if !ok {
		lvl = gormlogger.Warn
	}
	return &queryLogger{log: log.WithComponent("gorm"), level: lvl, slow: slow}
}

func (q *queryLogger) LogMode(level gormlogger.LogLevel) gormlogger.Interface {
	c := *q
	c.level = level
	return &c
}

func (q *queryLogger) Info(_ context.Context, msg string, args ...any) {
	if q.level >= gormlogger.Info {
		q.log.Info(fmt.Sprintf(msg, args...))
	}
}

func (q *queryLogger) Warn(_ context.Context, msg string, args ...any) {
	if q.level >= gormlogger.Warn {
		q.log.Warn(fmt.Sprintf(msg, args...))
	}
}

func (q *queryLogger) Error(_ context.Context, msg string, args ...any) {
	if q.level >= gormlogger.Error {
		q.log.Error(fmt.Sprintf(msg, args...))
	}
}

func (q *queryLogger) Trace(_ context.Context, begin time.Time, fc func() (string, int64), err error) {
	if q.level <= gormlogger.Silent {
		return
	}
	took := time.Since(begin)
	failed := err != nil && !errors.Is(err, gorm.ErrRecordNotFound)
	if !failed && took <= q.slow && q.level < gormlogger.Info {
		return
	}

	sql, rows := fc()
	fields := logger.Fields("sql", sql, "rows", rows, "took", took.String())
	switch {
	case failed:
		fields[logger.FieldError] = err.Error()
		q.log.Error("Query failed", fields)
	case q.slow > 0 && took > q.slow:
		q.log.Warn("Slow query", fields)
	default:
		q.log.Debug("Query", fields)
	}
}
