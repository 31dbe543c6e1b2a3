// Package auditlog keeps the append-only history of audit outcomes.
//
// Append and every read take the same lock, so a reader never observes a
// partially appended entry. Entries are stored as private copies and handed
// out as copies; nothing in the log is modified or removed once appended.
package auditlog

import (
	"sync"

	"go.uber.org/zap"

	"github.com/dshills/contentaudit/internal/schema"
)

// Journal mirrors appended outcomes to durable storage.
type Journal interface {
	Write(r *schema.AuditResult) error
}

// Option configures a Log.
type Option func(*Log)

// WithJournal mirrors every appended result to j after the in-memory append.
func WithJournal(j Journal) Option {
	return func(l *Log) { l.journal = j }
}

// WithLogger sets the logger used for journal failures.
func WithLogger(log *zap.SugaredLogger) Option {
	return func(l *Log) {
		if log != nil {
			l.log = log
		}
	}
}

// WithJournalErrorHook registers fn to be called on every journal failure.
func WithJournalErrorHook(fn func(error)) Option {
	return func(l *Log) { l.onJournalErr = fn }
}

// Log is the append-only audit history. Safe for concurrent use.
type Log struct {
	mu       sync.RWMutex
	entries  []*schema.AuditResult
	approved int
	scoreSum int
	byTier   map[schema.RiskTier]int

	jmu          sync.Mutex // serializes journal writes in append order
	journal      Journal
	log          *zap.SugaredLogger
	onJournalErr func(error)
}

// New returns an empty Log.
func New(opts ...Option) *Log {
	l := &Log{
		byTier: make(map[schema.RiskTier]int, len(schema.Tiers)),
		log:    zap.NewNop().Sugar(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Append records r. The log keeps its own copy, so later changes to r do not
// reach the history. Journal writes follow the in-memory order. A journal
// failure is logged and never returned: the in-memory history is the source
// of truth for the process lifetime.
func (l *Log) Append(r *schema.AuditResult) {
	entry := r.Clone()

	l.mu.Lock()
	l.add(entry)
	if l.journal == nil {
		l.mu.Unlock()
		return
	}
	// Take jmu before releasing mu so journal order matches append order.
	l.jmu.Lock()
	l.mu.Unlock()
	defer l.jmu.Unlock()

	if err := l.journal.Write(entry); err != nil {
		l.log.Errorw("audit journal write failed", "id", entry.ID, "error", err)
		if l.onJournalErr != nil {
			l.onJournalErr(err)
		}
	}
}

// Restore loads previously journaled results, oldest first, ahead of any
// entry already in the log. Restored results are not written back to the
// journal.
func (l *Log) Restore(results []*schema.AuditResult) {
	if len(results) == 0 {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	current := l.entries
	l.entries = make([]*schema.AuditResult, 0, len(results)+len(current))
	l.approved, l.scoreSum = 0, 0
	l.byTier = make(map[schema.RiskTier]int, len(schema.Tiers))
	for _, r := range results {
		l.add(r.Clone())
	}
	for _, r := range current {
		l.add(r)
	}
}

// add must be called with mu held.
func (l *Log) add(entry *schema.AuditResult) {
	l.entries = append(l.entries, entry)
	if entry.Approved {
		l.approved++
	}
	l.scoreSum += entry.Score
	l.byTier[entry.RiskTier]++
}

// Len returns the number of recorded audits.
func (l *Log) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.entries)
}

// Recent returns up to n results, most recent first. n <= 0 returns nothing.
func (l *Log) Recent(n int) []*schema.AuditResult {
	return l.recent(n, func(*schema.AuditResult) bool { return true })
}

// RecentByPlatform is Recent restricted to one platform.
func (l *Log) RecentByPlatform(n int, p schema.Platform) []*schema.AuditResult {
	return l.recent(n, func(r *schema.AuditResult) bool { return r.Platform == p })
}

func (l *Log) recent(n int, keep func(*schema.AuditResult) bool) []*schema.AuditResult {
	if n <= 0 {
		return []*schema.AuditResult{}
	}
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make([]*schema.AuditResult, 0, min(n, len(l.entries)))
	for i := len(l.entries) - 1; i >= 0 && len(out) < n; i-- {
		if keep(l.entries[i]) {
			out = append(out, l.entries[i].Clone())
		}
	}
	return out
}

// ApprovalRate returns approved/total in [0,1], or 0 for an empty log.
func (l *Log) ApprovalRate() float64 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.approvalRateLocked()
}

// AverageScore returns the mean score, or 0 for an empty log.
func (l *Log) AverageScore() float64 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.averageScoreLocked()
}

func (l *Log) approvalRateLocked() float64 {
	if len(l.entries) == 0 {
		return 0
	}
	return float64(l.approved) / float64(len(l.entries))
}

func (l *Log) averageScoreLocked() float64 {
	if len(l.entries) == 0 {
		return 0
	}
	return float64(l.scoreSum) / float64(len(l.entries))
}

// Stats returns a consistent snapshot of the aggregate counters.
// RulesMonitored is left for the caller, which knows the active catalog.
func (l *Log) Stats() schema.Stats {
	l.mu.RLock()
	defer l.mu.RUnlock()

	byTier := make(map[schema.RiskTier]int, len(schema.Tiers))
	for _, t := range schema.Tiers {
		byTier[t] = l.byTier[t]
	}
	return schema.Stats{
		TotalAudits:  len(l.entries),
		Approved:     l.approved,
		Rejected:     len(l.entries) - l.approved,
		ApprovalRate: l.approvalRateLocked(),
		AverageScore: l.averageScoreLocked(),
		ByTier:       byTier,
	}
}
