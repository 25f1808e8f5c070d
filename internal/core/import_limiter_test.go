package core

import (
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// gatedReader blocks its first Read until the gate closes, keeping an import
// inside the limiter for as long as a test needs.
type gatedReader struct {
	gate <-chan struct{}
	r    io.Reader
}

func (g *gatedReader) Read(p []byte) (int, error) {
	<-g.gate
	return g.r.Read(p)
}

func TestImportLimiter_Defaults(t *testing.T) {
	l := NewImportLimiter(0, 0)

	assert.Equal(t, DefaultMaxConcurrentImports, l.MaxConcurrent())
	assert.Equal(t, DefaultImportWait, l.maxWait)
}

func TestImportLimiter_Status(t *testing.T) {
	l := NewImportLimiter(3, time.Second)
	require.True(t, l.TryAcquire())

	assert.Equal(t, ImportLimiterStatus{Active: 1, Available: 2, MaxConcurrent: 3}, l.Status())

	l.Release()
	assert.Equal(t, ImportLimiterStatus{Active: 0, Available: 3, MaxConcurrent: 3}, l.Status())
}

func TestImportLimiter_AcquireTimesOut(t *testing.T) {
	l := NewImportLimiter(1, 20*time.Millisecond)
	require.True(t, l.TryAcquire())
	defer l.Release()

	assert.ErrorIs(t, l.Acquire(context.Background()), ErrTooManyImports)
	assert.False(t, l.TryAcquire())
	assert.Equal(t, 1, l.ActiveCount(), "a failed acquire holds nothing")
}

func TestWorkbench_ImportRejectedWhenSaturated(t *testing.T) {
	f := newWorkbenchFixture(t)
	ctx := context.Background()
	sess := f.wb.OpenSession(ctx, "alice")

	for range f.wb.limiter.MaxConcurrent() {
		require.True(t, f.wb.limiter.TryAcquire())
	}

	_, err := f.wb.Import(ctx, sess.ID, ImportRequest{
		FileName:       "batch.csv",
		Body:           strings.NewReader(batchCSV),
		Classification: whiteInsert,
	})
	assert.ErrorIs(t, err, ErrTooManyImports)

	info, err := f.wb.Session(sess.ID)
	require.NoError(t, err)
	assert.Zero(t, info.Imports, "a rejected import leaves no preview")

	f.wb.limiter.Release()
	f.importBatch(t, sess.ID)
	assert.Equal(t, f.wb.limiter.MaxConcurrent()-1, f.wb.limiter.ActiveCount(), "the import returned its slot")
}

func TestWorkbench_ImportCancelledWhileWaiting(t *testing.T) {
	f := newWorkbenchFixture(t)
	sess := f.wb.OpenSession(context.Background(), "alice")

	for range f.wb.limiter.MaxConcurrent() {
		require.True(t, f.wb.limiter.TryAcquire())
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := f.wb.Import(ctx, sess.ID, ImportRequest{
		FileName:       "batch.csv",
		Body:           strings.NewReader(batchCSV),
		Classification: whiteInsert,
	})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestWorkbench_ImportReleasesSlotOnError(t *testing.T) {
	f := newWorkbenchFixture(t)
	ctx := context.Background()
	sess := f.wb.OpenSession(ctx, "alice")

	_, err := f.wb.Import(ctx, sess.ID, ImportRequest{
		FileName:       "batch.csv",
		Body:           strings.NewReader("Name;Customer Number\n;111\n"),
		Classification: whiteInsert,
	})
	require.ErrorIs(t, err, ErrNothingToImport)

	assert.Zero(t, f.wb.limiter.ActiveCount())
}

func TestWorkbench_WaitForDrainDuringImport(t *testing.T) {
	f := newWorkbenchFixture(t)
	ctx := context.Background()
	sess := f.wb.OpenSession(ctx, "alice")

	gate := make(chan struct{})
	done := make(chan error, 1)
	go func() {
		_, err := f.wb.Import(ctx, sess.ID, ImportRequest{
			FileName:       "batch.csv",
			Body:           &gatedReader{gate: gate, r: strings.NewReader(batchCSV)},
			Classification: whiteInsert,
		})
		done <- err
	}()

	require.Eventually(t, func() bool { return f.wb.limiter.ActiveCount() == 1 }, time.Second, 5*time.Millisecond)

	short, cancel := context.WithTimeout(ctx, 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, f.wb.limiter.WaitForDrain(short), context.DeadlineExceeded, "drain waits for the in-flight import")

	close(gate)

	drainCtx, cancelDrain := context.WithTimeout(ctx, time.Second)
	defer cancelDrain()
	require.NoError(t, f.wb.limiter.WaitForDrain(drainCtx))
	require.NoError(t, <-done)

	info, err := f.wb.Session(sess.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, info.Imports)
}
