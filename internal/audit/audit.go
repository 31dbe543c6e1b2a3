// Package audit is the entry point for compliance audits. An Auditor
// normalizes the text, runs the matcher, scores the findings, stamps the
// result, appends it to the audit log and hands it back.
package audit

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"sync/atomic"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/dshills/contentaudit/internal/auditlog"
	"github.com/dshills/contentaudit/internal/match"
	"github.com/dshills/contentaudit/internal/observability"
	"github.com/dshills/contentaudit/internal/redact"
	"github.com/dshills/contentaudit/internal/review"
	"github.com/dshills/contentaudit/internal/rules"
	"github.com/dshills/contentaudit/internal/schema"
)

// ErrInvalidInput is returned for input the auditor refuses to evaluate.
// Invalid input never reaches the audit log.
var ErrInvalidInput = errors.New("invalid input")

const previewRunes = 80

// Observer receives per-audit measurements.
type Observer interface {
	ObserveAudit(r *schema.AuditResult, elapsed time.Duration)
	SetLogSize(n int)
}

// engine pairs a catalog with the matcher built over it. It is swapped as a
// unit so an audit never sees a catalog and an index from different loads.
type engine struct {
	catalog *rules.Catalog
	matcher *match.Matcher
}

// Option configures an Auditor.
type Option func(*Auditor)

// WithLogger sets the logger. Text previews at debug level are redacted.
func WithLogger(log *zap.SugaredLogger) Option {
	return func(a *Auditor) {
		if log != nil {
			a.log = log
		}
	}
}

// WithObserver records metrics for every audit.
func WithObserver(o Observer) Option {
	return func(a *Auditor) { a.observer = o }
}

// WithClock overrides the timestamp source.
func WithClock(now func() time.Time) Option {
	return func(a *Auditor) { a.now = now }
}

// Auditor runs audits against the active catalog. Safe for concurrent use;
// Reload may run while audits are in flight.
type Auditor struct {
	engine   atomic.Pointer[engine]
	history  *auditlog.Log
	log      *zap.SugaredLogger
	observer Observer
	now      func() time.Time
}

// New returns an Auditor over catalog c that records into history.
func New(c *rules.Catalog, history *auditlog.Log, opts ...Option) *Auditor {
	a := &Auditor{
		history: history,
		log:     zap.NewNop().Sugar(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}
	a.engine.Store(&engine{catalog: c, matcher: match.New(c)})
	return a
}

// Catalog returns the active catalog.
func (a *Auditor) Catalog() *rules.Catalog {
	return a.engine.Load().catalog
}

// History returns the audit log the auditor appends to.
func (a *Auditor) History() *auditlog.Log {
	return a.history
}

// Reload makes c the active catalog. Audits already running finish on the
// catalog they started with.
func (a *Auditor) Reload(c *rules.Catalog) {
	prev := a.engine.Swap(&engine{catalog: c, matcher: match.New(c)})
	a.log.Infow("rule catalog reloaded", "from", prev.catalog.Version(), "to", c.Version(), "rules", c.Len())
}

// Stats returns the audit log aggregates with RulesMonitored set from the
// active catalog.
func (a *Auditor) Stats() schema.Stats {
	s := a.history.Stats()
	s.RulesMonitored = a.Catalog().Len()
	return s
}

// Audit evaluates text for publication on platform. Empty text is valid and
// yields the absence findings only. Bytes that are not valid UTF-8 are matched
// as U+FFFD; the content hash still covers the text as given. An unknown
// platform returns ErrInvalidInput.
func (a *Auditor) Audit(ctx context.Context, text string, platform schema.Platform) (*schema.AuditResult, error) {
	return a.audit(ctx, text, platform, "")
}

func (a *Auditor) audit(ctx context.Context, text string, platform schema.Platform, correlationID string) (*schema.AuditResult, error) {
	if _, err := schema.ParsePlatform(string(platform)); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	_, span := observability.Tracer().Start(ctx, "audit")
	defer span.End()
	start := time.Now()

	raw := strings.ToValidUTF8(text, "\uFFFD")
	eng := a.engine.Load()
	violations := eng.matcher.MatchNormalized(raw, rules.Normalize(raw))
	outcome := review.Evaluate(violations)

	r := &schema.AuditResult{
		ID:                  uuid.NewString(),
		CorrelationID:       correlationID,
		Platform:            platform,
		Score:               outcome.Score,
		RiskTier:            outcome.Tier,
		Approved:            outcome.Approved,
		Violations:          violations,
		Timestamp:           a.now().UTC(),
		TotalRulesEvaluated: eng.catalog.Len(),
		CatalogVersion:      eng.catalog.Version(),
		ContentHash:         contentHash(text),
	}
	a.history.Append(r)

	span.SetAttributes(
		attribute.String("audit.id", r.ID),
		attribute.String("audit.platform", string(platform)),
		attribute.Int("audit.score", r.Score),
		attribute.String("audit.tier", string(r.RiskTier)),
		attribute.Int("audit.violations", len(violations)),
		attribute.Bool("audit.approved", r.Approved),
	)

	if a.observer != nil {
		a.observer.ObserveAudit(r, time.Since(start))
		a.observer.SetLogSize(a.history.Len())
	}
	if a.log.Desugar().Core().Enabled(zapcore.DebugLevel) {
		a.log.Debugw("audit complete",
			"id", r.ID,
			"platform", platform,
			"score", r.Score,
			"tier", r.RiskTier,
			"violations", len(violations),
			"preview", redact.Preview(raw, previewRunes),
		)
	}
	return r, nil
}

func contentHash(text string) string {
	sum := sha256.Sum256([]byte(text))
	return "sha256:" + hex.EncodeToString(sum[:])
}
