package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// Queries slower than this are logged at warn level.
const slowQueryThreshold = 200 * time.Millisecond

// gormLogger routes GORM's internal messages (SQL statements, slow query
// warnings, errors) through the application logger instead of letting
// them hit stdout directly.
type gormLogger struct {
	log   *zap.Logger
	level gormlogger.LogLevel
}

// newGormLogger returns a gormlogger.Interface backed by the given
// *zap.Logger. Pass gormlogger.Info to trace every SQL statement during
// development; the default Warn level logs only slow queries and errors.
func newGormLogger(log *zap.Logger, level gormlogger.LogLevel) gormlogger.Interface {
	if level == 0 {
		level = gormlogger.Warn
	}
	return &gormLogger{
		log:   log.WithOptions(zap.AddCallerSkip(3)),
		level: level,
	}
}

// LogMode implements gormlogger.Interface. GORM calls it to override the
// level for a single operation, e.g. db.Debug().
func (l *gormLogger) LogMode(level gormlogger.LogLevel) gormlogger.Interface {
	return &gormLogger{log: l.log, level: level}
}

func (l *gormLogger) Info(_ context.Context, msg string, args ...interface{}) {
	if l.level >= gormlogger.Info {
		l.log.Info(fmt.Sprintf(msg, args...))
	}
}

func (l *gormLogger) Warn(_ context.Context, msg string, args ...interface{}) {
	if l.level >= gormlogger.Warn {
		l.log.Warn(fmt.Sprintf(msg, args...))
	}
}

func (l *gormLogger) Error(_ context.Context, msg string, args ...interface{}) {
	if l.level >= gormlogger.Error {
		l.log.Error(fmt.Sprintf(msg, args...))
	}
}

// Trace logs individual SQL statements with execution time and affected
// rows. gorm.ErrRecordNotFound is silenced: a missing todo is a normal
// application condition, not a database error.
func (l *gormLogger) Trace(_ context.Context, begin time.Time, fc func() (sql string, rowsAffected int64), err error) {
	if l.level <= gormlogger.Silent {
		return
	}

	elapsed := time.Since(begin)
	sql, rows := fc()

	fields := []zap.Field{
		zap.String("sql", sql),
		zap.Duration("elapsed", elapsed),
		zap.Int64("rows", rows),
	}

	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		l.log.Error("gorm query error", append(fields, zap.Error(err))...)
		return
	}
	if elapsed > slowQueryThreshold {
		l.log.Warn("gorm slow query", fields...)
		return
	}
	if l.level >= gormlogger.Info {
		l.log.Debug("gorm query", fields...)
	}
}
