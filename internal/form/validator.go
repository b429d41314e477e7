package form

import (
	"context"
	"sync"
	"time"
	"unicode/utf8"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

// CheckResult is the outcome of one uniqueness check.
type CheckResult struct {
	ID    string
	Valid bool // false only when the identifier is already taken
}

type uniquenessGateway interface {
	CheckUnique(ctx context.Context, id string) (bool, error)
}

// UniquenessValidator debounces keystrokes on the identifier field and
// asks the backend whether the value is taken. Only the most recently
// issued check may land: every attempt captures a generation token and
// its result is discarded if a newer keystroke has moved the token on,
// whether or not the transport call was actually aborted.
type UniquenessValidator struct {
	mu         sync.Mutex
	gw         uniquenessGateway
	debounce   time.Duration
	logger     *zap.SugaredLogger
	generation uint64
	timer      *time.Timer
	pending    bool

	checksTotal      metric.Int64Counter
	checksSuperseded metric.Int64Counter

	apply func(CheckResult)
}

// NewUniquenessValidator wires the validator to its gateway. apply is
// invoked off the caller's goroutine with every result that survives
// the generation check; it is never invoked for a superseded check.
func NewUniquenessValidator(
	gw uniquenessGateway,
	debounce time.Duration,
	logger *zap.SugaredLogger,
	meter metric.Meter,
	apply func(CheckResult),
) (*UniquenessValidator, error) {
	v := &UniquenessValidator{
		gw:       gw,
		debounce: debounce,
		logger:   logger,
		apply:    apply,
	}

	var err error
	v.checksTotal, err = meter.Int64Counter(
		"uniqueness.checks.total",
		metric.WithDescription("Uniqueness checks that reached the backend"),
	)
	if err != nil {
		return nil, err
	}

	v.checksSuperseded, err = meter.Int64Counter(
		"uniqueness.checks.superseded",
		metric.WithDescription("In-flight uniqueness checks discarded by a newer keystroke"),
	)
	if err != nil {
		return nil, err
	}

	return v, nil
}

// Check starts validation of id, cancelling any pending debounce delay
// and invalidating any in-flight check. It returns true when the value
// resolved immediately as valid: values shorter than MinIDLength are
// not worth checking and must not flash a pending state.
func (v *UniquenessValidator) Check(ctx context.Context, id string) bool {
	v.mu.Lock()
	v.generation++
	gen := v.generation
	if v.timer != nil {
		v.timer.Stop()
		v.timer = nil
	}
	if utf8.RuneCountInString(id) < MinIDLength {
		v.pending = false
		v.mu.Unlock()
		return true
	}
	v.pending = true
	v.timer = time.AfterFunc(v.debounce, func() {
		v.run(ctx, gen, id)
	})
	v.mu.Unlock()
	return false
}

// Pending reports whether a check is somewhere between keystroke and
// resolution.
func (v *UniquenessValidator) Pending() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.pending
}

// Stop cancels any pending debounce delay. In-flight checks still
// resolve but their results are discarded by the generation token.
func (v *UniquenessValidator) Stop() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.generation++
	if v.timer != nil {
		v.timer.Stop()
		v.timer = nil
	}
	v.pending = false
}

func (v *UniquenessValidator) run(ctx context.Context, gen uint64, id string) {
	v.mu.Lock()
	if gen != v.generation {
		v.mu.Unlock()
		return
	}
	v.mu.Unlock()

	v.checksTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("product.id", id)))
	exists, err := v.gw.CheckUnique(ctx, id)

	v.mu.Lock()
	if gen != v.generation {
		// A newer keystroke superseded this check while it was on the
		// wire; its result must never be applied.
		v.checksSuperseded.Add(ctx, 1)
		v.mu.Unlock()
		return
	}
	v.pending = false
	v.mu.Unlock()

	if err != nil {
		// Fail open: a transient backend error must not block the form.
		// The server re-enforces uniqueness on submit.
		v.logger.Warnw("uniqueness check failed, treating value as available",
			"id", id, "err", err)
		v.apply(CheckResult{ID: id, Valid: true})
		return
	}
	v.apply(CheckResult{ID: id, Valid: !exists})
}
