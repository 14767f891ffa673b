package aggregates

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"gorm.io/gorm"

	"github.com/Stari-kolomoni/kolomoni-backend/internal/data/repos"
	domainagg "github.com/Stari-kolomoni/kolomoni-backend/internal/domain/aggregates"
	"github.com/Stari-kolomoni/kolomoni-backend/internal/domain/auth"
	"github.com/Stari-kolomoni/kolomoni-backend/internal/pkg/ctxutil"
	"github.com/Stari-kolomoni/kolomoni-backend/internal/pkg/dbctx"
	"github.com/Stari-kolomoni/kolomoni-backend/internal/pkg/logger"
)

const tracerName = "github.com/Stari-kolomoni/kolomoni-backend/internal/data/aggregates"

// FeedNotifier is told the sequence of every committed feed entry. Delivery is
// best-effort; consumers also poll.
type FeedNotifier interface {
	Notify(ctx context.Context, seq int64)
}

type noopNotifier struct{}

func (noopNotifier) Notify(context.Context, int64) {}

// FeedNotifiers fans one notification out to several notifiers.
type FeedNotifiers []FeedNotifier

func (ns FeedNotifiers) Notify(ctx context.Context, seq int64) {
	for _, n := range ns {
		if n != nil {
			n.Notify(ctx, seq)
		}
	}
}

type BaseDeps struct {
	DB       *gorm.DB
	Log      *logger.Logger
	Runner   TxRunner
	Hooks    Hooks
	Repos    repos.Set
	Notifier FeedNotifier
	Now      func() time.Time
}

func (d BaseDeps) withDefaults() BaseDeps {
	if d.Log == nil {
		d.Log = logger.Nop()
	}
	if d.Runner == nil {
		d.Runner = NewGormTxRunner(d.DB)
	}
	if d.Hooks == nil {
		d.Hooks = noopHooks{}
	}
	if d.Repos.Words == nil && d.DB != nil {
		d.Repos = repos.NewSet(d.DB, d.Log)
	}
	if d.Notifier == nil {
		d.Notifier = noopNotifier{}
	}
	if d.Now == nil {
		d.Now = func() time.Time { return time.Now().UTC().Truncate(time.Microsecond) }
	}
	return d
}

func executeWrite(ctx context.Context, deps BaseDeps, op string, fn func(dbc dbctx.Context) error) error {
	start := time.Now()
	deps = deps.withDefaults()
	op = strings.TrimSpace(op)
	if op == "" {
		op = "aggregate.write"
	}
	ctx, span := otel.Tracer(tracerName).Start(ctx, "aggregate."+op)
	defer span.End()
	if td, ok := ctxutil.TraceDataFrom(ctx); ok {
		span.SetAttributes(attribute.String("request.id", td.RequestID))
	}

	err := deps.Runner.InTx(ctx, fn)
	mapped := MapError(op, err)

	status := "success"
	if mapped != nil {
		status = aggregateErrorStatus(mapped)
		if domainagg.IsCode(mapped, domainagg.CodeConflict) {
			deps.Hooks.IncConflict(op)
		}
		if domainagg.IsCode(mapped, domainagg.CodeRetryable) {
			deps.Hooks.IncRetry(op)
		}
		span.RecordError(mapped)
		span.SetStatus(codes.Error, status)
	}
	span.SetAttributes(attribute.String("aggregate.status", status))
	deps.Hooks.ObserveOperation(op, status, time.Since(start))
	return mapped
}

func aggregateErrorStatus(err error) string {
	if err == nil {
		return "success"
	}
	code := strings.TrimSpace(string(domainagg.CodeOf(err)))
	if code == "" {
		code = strings.TrimSpace(string(domainagg.CodeOf(MapError("aggregate.status", err))))
	}
	if code == "" {
		return "failure"
	}
	return code
}

// write authorizes op before any transaction opens, runs fn in one transaction and
// notifies the feed after commit. target names the user a self-scoped op acts on.
func write(ctx context.Context, deps BaseDeps, op domainagg.Operation, caller auth.Caller, target *uuid.UUID, fn func(dbc dbctx.Context) (domainagg.Receipt, error)) (domainagg.Receipt, error) {
	deps = deps.withDefaults()
	if err := domainagg.Authorize(op, caller, target); err != nil {
		deps.Hooks.ObserveOperation(string(op), string(domainagg.CodeDenied), 0)
		return domainagg.Receipt{}, err
	}

	var receipt domainagg.Receipt
	err := executeWrite(ctx, deps, string(op), func(dbc dbctx.Context) error {
		r, err := fn(dbc)
		if err != nil {
			return err
		}
		receipt = r
		return nil
	})
	if err != nil {
		return domainagg.Receipt{}, err
	}
	if receipt.Seq > 0 {
		deps.Hooks.Committed(string(op), receipt.Seq)
		deps.Notifier.Notify(ctx, receipt.Seq)
	}
	return receipt, nil
}
