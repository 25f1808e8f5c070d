package approval

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/JonMunkholm/checkbench/internal/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type decisions struct {
	mu  sync.Mutex
	got []Status
}

func (d *decisions) ApplicationDecided(s Status) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.got = append(d.got, s)
}

func submission(txNo string, names ...string) core.Submission {
	sub := core.Submission{TxNo: txNo, SubmittedBy: "maker"}
	for i, n := range names {
		sub.Entries = append(sub.Entries, core.CheckEntry{
			TxNo:            txNo,
			Name:            n,
			CustomerNo:      string(rune('1' + i)),
			CreatedDate:     "2024-03-15",
			Source:          core.SourceBlackList,
			TransactionType: core.TransactionInsert,
		})
	}
	return sub
}

func newTestQueue(obs Observer) *Queue {
	q := NewQueue(obs)
	q.now = func() time.Time { return time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC) }
	return q
}

func TestQueue_SubmitCreatesPendingApplications(t *testing.T) {
	q := newTestQueue(nil)
	ctx := context.Background()

	require.NoError(t, q.Submit(ctx, submission("TX-1", "Ivanov", "Petrov")))
	require.NoError(t, q.Submit(ctx, submission("TX-2", "Smith")))

	apps, counts := q.List(Filter{})
	assert.Equal(t, Counts{All: 3, Pending: 3}, counts)
	require.Len(t, apps, 3)
	assert.Equal(t, "Smith", apps[0].Name, "newest first")
	assert.Equal(t, "maker", apps[0].User, "falls back to the submitter")
	for _, a := range apps {
		assert.Equal(t, StatusPending, a.Status)
		assert.NotEmpty(t, a.ID)
	}
}

func TestQueue_SubmitEmpty(t *testing.T) {
	q := newTestQueue(nil)
	err := q.Submit(context.Background(), core.Submission{TxNo: "TX-1"})
	assert.ErrorIs(t, err, core.ErrNothingToSubmit)
}

func TestQueue_Decisions(t *testing.T) {
	obs := &decisions{}
	q := newTestQueue(obs)
	ctx := context.Background()
	require.NoError(t, q.Submit(ctx, submission("TX-1", "Ivanov", "Petrov", "Sidorov")))

	apps, _ := q.List(Filter{})
	approved, err := q.Approve(ctx, apps[0].ID, "checker")
	require.NoError(t, err)
	assert.Equal(t, StatusApproved, approved.Status)
	assert.Equal(t, "checker", approved.DecidedBy)
	require.NotNil(t, approved.DecidedAt)

	_, err = q.Reject(ctx, apps[1].ID, "checker")
	require.NoError(t, err)

	_, err = q.Reject(ctx, apps[0].ID, "checker")
	assert.ErrorIs(t, err, ErrNotPending)

	_, err = q.Approve(ctx, "missing", "checker")
	assert.ErrorIs(t, err, ErrApplicationNotFound)

	_, counts := q.List(Filter{})
	assert.Equal(t, Counts{All: 3, Pending: 1, Approved: 1, Rejected: 1}, counts)
	assert.Equal(t, []Status{StatusApproved, StatusRejected}, obs.got)

	pending, _ := q.List(Filter{Status: StatusPending})
	require.Len(t, pending, 1)
	assert.Equal(t, apps[2].ID, pending[0].ID)
}

func TestQueue_ListSearch(t *testing.T) {
	q := newTestQueue(nil)
	ctx := context.Background()
	require.NoError(t, q.Submit(ctx, submission("TX-1", "Ivanov", "Petrov")))
	require.NoError(t, q.Submit(ctx, submission("TX-2", "Ivanova")))

	got, counts := q.List(Filter{Search: "IVANOV"})
	assert.Len(t, got, 2)
	assert.Equal(t, 3, counts.All, "counts ignore the filter")

	got, _ = q.List(Filter{Search: "tx-1"})
	assert.Len(t, got, 2)
}

func TestQueue_GetReturnsCopy(t *testing.T) {
	q := newTestQueue(nil)
	require.NoError(t, q.Submit(context.Background(), submission("TX-1", "Ivanov")))
	apps, _ := q.List(Filter{})

	got, err := q.Get(apps[0].ID)
	require.NoError(t, err)
	got.Status = StatusApproved

	again, _ := q.Get(apps[0].ID)
	assert.Equal(t, StatusPending, again.Status)
}

func TestParseStatus(t *testing.T) {
	tests := []struct {
		in      string
		want    Status
		wantErr bool
	}{
		{"", "", false},
		{"Pending", StatusPending, false},
		{" approved ", StatusApproved, false},
		{"rejected", StatusRejected, false},
		{"archived", "", true},
	}
	for _, tt := range tests {
		got, err := ParseStatus(tt.in)
		if tt.wantErr {
			assert.ErrorIs(t, err, ErrInvalidStatus, tt.in)
			continue
		}
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got)
	}
}
