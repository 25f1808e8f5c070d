// Package approval holds submitted check entries as applications awaiting a
// decision by an operator with the Approval role.
package approval

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/JonMunkholm/checkbench/internal/core"
	"github.com/google/uuid"
)

var (
	ErrApplicationNotFound = errors.New("application not found")
	ErrNotPending          = errors.New("application is not pending")
	ErrInvalidStatus       = errors.New("invalid application status")
)

// Status is the lifecycle state of an application.
type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
)

// ParseStatus accepts the lowercase status names; the empty string means
// any status.
func ParseStatus(s string) (Status, error) {
	switch st := Status(strings.ToLower(strings.TrimSpace(s))); st {
	case "", StatusPending, StatusApproved, StatusRejected:
		return st, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidStatus, s)
}

// Application is one submitted check entry.
type Application struct {
	ID              string               `json:"id"`
	TxNo            string               `json:"transactionNo"`
	CustomerNo      string               `json:"customerNo"`
	Name            string               `json:"name"`
	TransactionType core.TransactionType `json:"type"`
	Source          core.SourceType      `json:"source"`
	ListGroup       string               `json:"listGroup,omitempty"`
	CreatedDate     string               `json:"createdDate"`
	User            string               `json:"user"`
	Status          Status               `json:"status"`
	SubmittedAt     time.Time            `json:"submittedAt"`
	DecidedBy       string               `json:"decidedBy,omitempty"`
	DecidedAt       *time.Time           `json:"decidedAt,omitempty"`
}

// Counts is the per-status breakdown shown next to the status filter.
type Counts struct {
	All      int `json:"all"`
	Pending  int `json:"pending"`
	Approved int `json:"approved"`
	Rejected int `json:"rejected"`
}

// Filter narrows List. Search matches name, customer number or transaction
// number case-insensitively.
type Filter struct {
	Status Status
	Search string
}

// Observer is notified of every decision.
type Observer interface {
	ApplicationDecided(status Status)
}

// Queue is an in-memory application store. It implements
// core.SubmissionSink.
type Queue struct {
	mu   sync.RWMutex
	apps []*Application
	byID map[string]*Application
	obs  Observer
	now  func() time.Time
}

var _ core.SubmissionSink = (*Queue)(nil)

// NewQueue creates an empty queue. obs may be nil.
func NewQueue(obs Observer) *Queue {
	return &Queue{
		byID: make(map[string]*Application),
		obs:  obs,
		now:  time.Now,
	}
}

// Submit turns every entry of sub into a pending application.
func (q *Queue) Submit(ctx context.Context, sub core.Submission) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if len(sub.Entries) == 0 {
		return core.ErrNothingToSubmit
	}

	now := q.now()
	q.mu.Lock()
	for _, e := range sub.Entries {
		user := e.CreatedUser
		if user == "" {
			user = sub.SubmittedBy
		}
		app := &Application{
			ID:              uuid.NewString(),
			TxNo:            e.TxNo,
			CustomerNo:      e.CustomerNo,
			Name:            e.Name,
			TransactionType: e.TransactionType,
			Source:          e.Source,
			ListGroup:       e.ListGroup,
			CreatedDate:     e.CreatedDate,
			User:            user,
			Status:          StatusPending,
			SubmittedAt:     now,
		}
		q.apps = append(q.apps, app)
		q.byID[app.ID] = app
	}
	q.mu.Unlock()

	slog.Info("transaction queued for approval",
		"tx_no", sub.TxNo,
		"applications", len(sub.Entries),
		"submitted_by", sub.SubmittedBy,
	)
	return nil
}

// List returns matching applications, newest first, with counts over the
// whole queue.
func (q *Queue) List(f Filter) ([]Application, Counts) {
	search := strings.ToLower(strings.TrimSpace(f.Search))

	q.mu.RLock()
	defer q.mu.RUnlock()

	var (
		out    []Application
		counts Counts
	)
	for _, app := range slices.Backward(q.apps) {
		counts.All++
		switch app.Status {
		case StatusPending:
			counts.Pending++
		case StatusApproved:
			counts.Approved++
		case StatusRejected:
			counts.Rejected++
		}

		if f.Status != "" && app.Status != f.Status {
			continue
		}
		if search != "" && !app.matches(search) {
			continue
		}
		out = append(out, *app)
	}
	return out, counts
}

func (a *Application) matches(lower string) bool {
	return strings.Contains(strings.ToLower(a.Name), lower) ||
		strings.Contains(strings.ToLower(a.CustomerNo), lower) ||
		strings.Contains(strings.ToLower(a.TxNo), lower)
}

// Get returns a copy of one application.
func (q *Queue) Get(id string) (Application, error) {
	q.mu.RLock()
	defer q.mu.RUnlock()
	app, ok := q.byID[id]
	if !ok {
		return Application{}, ErrApplicationNotFound
	}
	return *app, nil
}

// Approve moves a pending application to approved.
func (q *Queue) Approve(ctx context.Context, id, user string) (Application, error) {
	return q.decide(ctx, id, user, StatusApproved)
}

// Reject moves a pending application to rejected.
func (q *Queue) Reject(ctx context.Context, id, user string) (Application, error) {
	return q.decide(ctx, id, user, StatusRejected)
}

func (q *Queue) decide(ctx context.Context, id, user string, to Status) (Application, error) {
	if err := ctx.Err(); err != nil {
		return Application{}, err
	}

	q.mu.Lock()
	app, ok := q.byID[id]
	if !ok {
		q.mu.Unlock()
		return Application{}, ErrApplicationNotFound
	}
	if app.Status != StatusPending {
		status := app.Status
		q.mu.Unlock()
		return Application{}, fmt.Errorf("%w: %s is %s", ErrNotPending, id, status)
	}
	now := q.now()
	app.Status = to
	app.DecidedBy = user
	app.DecidedAt = &now
	out := *app
	q.mu.Unlock()

	if q.obs != nil {
		q.obs.ApplicationDecided(to)
	}
	slog.Info("application decided",
		"application_id", id,
		"tx_no", out.TxNo,
		"status", string(to),
		"decided_by", user,
	)
	return out, nil
}
