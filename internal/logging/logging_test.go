package logging

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func TestFromContextFallsBackToGlobal(t *testing.T) {
	assert.Same(t, zap.L(), FromContext(context.Background()))

	lg := zap.NewNop()
	ctx := ContextWithLogger(context.Background(), lg)
	assert.Same(t, lg, FromContext(ctx))
	assert.Equal(t, context.Background(), ContextWithLogger(context.Background(), nil))
}

func TestGormLoggerTrace(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	gl := NewGormLogger(zap.New(core), false)

	fc := func() (string, int64) { return "SELECT 1", 1 }

	gl.Trace(context.Background(), time.Now(), fc, gorm.ErrRecordNotFound)
	assert.Equal(t, 0, logs.Len(), "record not found is not logged")

	gl.Trace(context.Background(), time.Now(), fc, assert.AnError)
	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "query_failed", logs.All()[0].Message)

	gl.Trace(context.Background(), time.Now().Add(-time.Second), fc, nil)
	require.Equal(t, 2, logs.Len())
	assert.Equal(t, "slow_query", logs.All()[1].Message)

	silent := gl.LogMode(gormlogger.Silent)
	silent.Trace(context.Background(), time.Now(), fc, assert.AnError)
	assert.Equal(t, 2, logs.Len())
}

func TestGormLoggerUsesRequestLogger(t *testing.T) {
	baseCore, baseLogs := observer.New(zapcore.DebugLevel)
	reqCore, reqLogs := observer.New(zapcore.DebugLevel)
	gl := NewGormLogger(zap.New(baseCore), true)

	ctx := ContextWithLogger(context.Background(), zap.New(reqCore).With(zap.String("request_id", "r1")))
	gl.Trace(ctx, time.Now(), func() (string, int64) { return "SELECT 1", 0 }, nil)

	assert.Equal(t, 0, baseLogs.Len())
	require.Equal(t, 1, reqLogs.Len())
	assert.Equal(t, "r1", reqLogs.All()[0].ContextMap()["request_id"])
}
