package db

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/EmpoweredVote/district-results/internal/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpen_RequiresDSN(t *testing.T) {
	_, err := Open("", logger.Discard())
	require.Error(t, err)
}

func TestGormLogger_SlowQueryWithoutVerbose(t *testing.T) {
	var buf bytes.Buffer
	lg := newGormLogger(logger.NewWithWriter(&buf, false))

	lg.Trace(context.Background(), time.Now().Add(-time.Second), func() (string, int64) {
		return "SELECT 1", 1
	}, nil)
	assert.Contains(t, buf.String(), "SLOW SQL")

	// Fast statements stay quiet.
	buf.Reset()
	lg.Trace(context.Background(), time.Now(), func() (string, int64) {
		return "SELECT 2", 1
	}, nil)
	assert.Empty(t, buf.String())
}

func TestGormLogger_VerboseLogsStatements(t *testing.T) {
	var buf bytes.Buffer
	lg := newGormLogger(logger.NewWithWriter(&buf, true))

	lg.Trace(context.Background(), time.Now(), func() (string, int64) {
		return "SELECT 1", 1
	}, nil)
	assert.Contains(t, buf.String(), "SELECT 1")
}
