// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package logging_test

import (
	"context"
	"testing"
	"time"

	"localdynamo/internal/logging"

	"github.com/cockroachdb/errors"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func observe(t *testing.T) *observer.ObservedLogs {
	t.Helper()
	core, logs := observer.New(zapcore.DebugLevel)
	t.Cleanup(zap.ReplaceGlobals(zap.New(core)))
	return logs
}

func TestGormLoggerTrace(t *testing.T) {
	logs := observe(t)
	l := logging.NewGormLogger(logger.Warn)
	ctx := context.Background()
	sql := func() (string, int64) { return "SELECT 1", 1 }

	l.Trace(ctx, time.Now(), sql, gorm.ErrRecordNotFound)
	l.Trace(ctx, time.Now(), sql, &pgconn.PgError{Code: "23505", ConstraintName: "resources_pkey"})
	l.Trace(ctx, time.Now(), sql, errors.New("connection refused"))
	l.Trace(ctx, time.Now().Add(-time.Second), sql, nil)

	entries := logs.All()
	require.Len(t, entries, 4)
	assert.Equal(t, zapcore.DebugLevel, entries[0].Level)
	assert.Equal(t, zapcore.InfoLevel, entries[1].Level)
	assert.Equal(t, "resources_pkey", entries[1].ContextMap()["constraint"])
	assert.Equal(t, zapcore.WarnLevel, entries[2].Level)
	assert.Equal(t, "slow query", entries[3].Message)
	assert.Equal(t, "gorm", entries[3].LoggerName)
}

func TestGormLoggerSilent(t *testing.T) {
	logs := observe(t)
	l := logging.NewGormLogger(logger.Warn).LogMode(logger.Silent)

	l.Trace(context.Background(), time.Now(), func() (string, int64) { return "SELECT 1", 0 }, errors.New("boom"))
	l.Warn(context.Background(), "ignored %d", 1)
	assert.Zero(t, logs.Len())
}
