package core

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// DefaultSessionTTL is how long an untouched session survives.
const DefaultSessionTTL = 8 * time.Hour

// WorkbenchConfig tunes a Workbench. Zero values select defaults.
type WorkbenchConfig struct {
	SessionTTL     time.Duration
	MaxImportBytes int64
	LegacyFallback bool
	Now            func() time.Time
}

// Observer receives workbench events for metrics. Implementations must be
// safe for concurrent use.
type Observer interface {
	RowsParsed(rows, dropped int)
	RowsMatched(summary MatchSummary)
	EntriesMerged(res MergeResult)
	EntriesSubmitted(n int)
	SessionsActive(n int)
}

type nopObserver struct{}

func (nopObserver) RowsParsed(int, int) {}
func (nopObserver) RowsMatched(MatchSummary) {}
func (nopObserver) EntriesMerged(MergeResult) {}
func (nopObserver) EntriesSubmitted(int) {}
func (nopObserver) SessionsActive(int) {}

// Workbench owns the operator sessions: one ledger, its import previews and
// its activity log per session. Every session has its own lock, so different
// operators never contend.
type Workbench struct {
	matcher *Matcher
	sink    SubmissionSink
	limiter *ImportLimiter
	obs     Observer
	cfg     WorkbenchConfig

	mu       sync.RWMutex
	sessions map[string]*session
}

type session struct {
	id        string
	user      string
	createdAt time.Time
	lastSeen  atomic.Int64 // unix nanos

	mu      sync.Mutex
	txNo    string
	ledger  *Ledger
	imports map[string]*ImportPreview
	audit   []AuditEntry
}

func (s *session) touch(now time.Time) { s.lastSeen.Store(now.UnixNano()) }

func (s *session) idleSince() time.Time { return time.Unix(0, s.lastSeen.Load()) }

// NewWorkbench wires a workbench over a reference population and a
// submission sink. A nil limiter or observer selects a default.
func NewWorkbench(store ReferenceStore, sink SubmissionSink, limiter *ImportLimiter, obs Observer, cfg WorkbenchConfig) *Workbench {
	if limiter == nil {
		limiter = NewImportLimiter(0, 0)
	}
	if obs == nil {
		obs = nopObserver{}
	}
	if cfg.SessionTTL < 0 {
		cfg.SessionTTL = 0
	} else if cfg.SessionTTL == 0 {
		cfg.SessionTTL = DefaultSessionTTL
	}
	if cfg.MaxImportBytes <= 0 {
		cfg.MaxImportBytes = DefaultMaxImportBytes
	}
	return &Workbench{
		matcher:  NewMatcher(store),
		sink:     sink,
		limiter:  limiter,
		obs:      obs,
		cfg:      cfg,
		sessions: make(map[string]*session),
	}
}

// Limiter exposes the import limiter for health reporting and shutdown.
func (w *Workbench) Limiter() *ImportLimiter { return w.limiter }

func (w *Workbench) now() time.Time {
	if w.cfg.Now != nil {
		return w.cfg.Now()
	}
	return time.Now()
}

// NewTxNo returns a transaction number of the form TX-<unix millis>-<3 digits>.
func NewTxNo(now time.Time) string {
	return fmt.Sprintf("TX-%d-%03d", now.UnixMilli(), rand.IntN(1000))
}

// SessionInfo summarizes a session.
type SessionInfo struct {
	ID        string    `json:"id"`
	User      string    `json:"user"`
	TxNo      string    `json:"txNo"`
	Version   uint64    `json:"version"`
	Entries   int       `json:"entries"`
	Selected  int       `json:"selected"`
	Imports   int       `json:"imports"`
	CreatedAt time.Time `json:"createdAt"`
}

func (s *session) info() SessionInfo {
	return SessionInfo{
		ID:        s.id,
		User:      s.user,
		TxNo:      s.txNo,
		Version:   s.ledger.Version(),
		Entries:   s.ledger.Len(),
		Selected:  s.ledger.SelectedCount(),
		Imports:   len(s.imports),
		CreatedAt: s.createdAt,
	}
}

// OpenSession starts a session for user with a fresh transaction number.
func (w *Workbench) OpenSession(ctx context.Context, user string) SessionInfo {
	now := w.now()
	s := &session{
		id:        uuid.NewString(),
		user:      user,
		createdAt: now,
		txNo:      NewTxNo(now),
		ledger:    NewLedger(),
		imports:   make(map[string]*ImportPreview),
	}
	s.touch(now)
	s.record(newAuditEntry(ctx, now, s, ActionSessionOpen))

	w.mu.Lock()
	w.sessions[s.id] = s
	active := len(w.sessions)
	w.mu.Unlock()

	w.obs.SessionsActive(active)
	slog.Info("session opened", "session_id", s.id, "user", user, "tx_no", s.txNo)
	return s.info()
}

// CloseSession discards a session and everything it holds.
func (w *Workbench) CloseSession(id string) error {
	w.mu.Lock()
	_, ok := w.sessions[id]
	delete(w.sessions, id)
	active := len(w.sessions)
	w.mu.Unlock()

	if !ok {
		return ErrSessionNotFound
	}
	w.obs.SessionsActive(active)
	return nil
}

// SessionCount returns the number of live sessions.
func (w *Workbench) SessionCount() int {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return len(w.sessions)
}

// Session returns the summary of session id.
func (w *Workbench) Session(id string) (SessionInfo, error) {
	var info SessionInfo
	err := w.withSession(id, nil, func(s *session) error {
		info = s.info()
		return nil
	})
	return info, err
}

// withSession runs fn under the session lock. A non-nil ifVersion must equal
// the ledger version or ErrVersionConflict is returned without calling fn.
func (w *Workbench) withSession(id string, ifVersion *uint64, fn func(*session) error) error {
	w.mu.RLock()
	s, ok := w.sessions[id]
	w.mu.RUnlock()
	if !ok {
		return ErrSessionNotFound
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.touch(w.now())
	if ifVersion != nil && *ifVersion != s.ledger.Version() {
		return fmt.Errorf("%w: expected %d, current %d", ErrVersionConflict, *ifVersion, s.ledger.Version())
	}
	return fn(s)
}
