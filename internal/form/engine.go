// Package form owns the create/edit form: per-field state, the
// synchronous rule table, the derived revision date, the debounced
// uniqueness check, and the submit/reset lifecycle.
package form

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/bancalia/finconsole/packages/product_console/internal/config"
	"github.com/bancalia/finconsole/packages/product_console/internal/dates"
	"github.com/bancalia/finconsole/packages/product_console/internal/models"
)

// Service is the slice of the gateway the form needs.
type Service interface {
	List(ctx context.Context) ([]models.Product, error)
	CheckUnique(ctx context.Context, id string) (bool, error)
	Create(ctx context.Context, draft models.Product) (*models.MutationResponse, error)
	Update(ctx context.Context, id string, draft models.Product) (*models.MutationResponse, error)
}

type fieldState struct {
	value   string
	touched bool
	dirty   bool
	pending bool
	errors  map[ErrorCode]bool
}

type Engine struct {
	mu        sync.Mutex
	gw        Service
	validator *UniquenessValidator
	fields    map[Field]*fieldState

	editMode bool
	editID   string

	submitting bool
	loading    bool
	formError  string
	success    string

	successDelay time.Duration
	navTimer     *time.Timer
	onNavigate   func()

	now func() models.Date

	Logger       *zap.SugaredLogger
	Tracer       trace.Tracer
	submitsTotal metric.Int64Counter
}

func NewEngine(
	gw Service,
	cfg config.Config,
	tracer trace.Tracer,
	logger *zap.SugaredLogger,
	meter metric.Meter,
) (*Engine, error) {
	e := &Engine{
		gw:           gw,
		fields:       map[Field]*fieldState{},
		successDelay: cfg.UI.SuccessDelay,
		now:          dates.Today,
		Logger:       logger,
		Tracer:       tracer,
	}
	for _, f := range Fields {
		e.fields[f] = &fieldState{errors: map[ErrorCode]bool{}}
	}

	var err error
	e.validator, err = NewUniquenessValidator(gw, cfg.UI.Debounce, logger, meter, e.applyCheck)
	if err != nil {
		return nil, err
	}

	e.submitsTotal, err = meter.Int64Counter(
		"form.submits.total",
		metric.WithDescription("Form submissions dispatched to the backend"),
	)
	if err != nil {
		return nil, err
	}

	e.mu.Lock()
	for _, f := range Fields {
		e.validateLocked(f)
	}
	e.mu.Unlock()
	return e, nil
}

// OnNavigate installs the signal raised after the post-submit display
// delay; the presentation layer navigates back to the list on it.
func (e *Engine) OnNavigate(fn func()) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.onNavigate = fn
}

// SetValue records a user edit, reruns the field's synchronous rules,
// follows the dependency table, and restarts the uniqueness check when
// the identifier changed. In edit mode the identifier is immutable and
// edits to it are dropped.
func (e *Engine) SetValue(ctx context.Context, field Field, value string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.editMode && field == FieldID {
		return
	}
	fs, ok := e.fields[field]
	if !ok {
		return
	}
	fs.value = value
	fs.dirty = true
	if field == FieldID {
		delete(fs.errors, ErrIDExists)
	}
	e.validateLocked(field)

	for _, d := range derivations {
		if d.source != field || value == "" {
			continue
		}
		if derived, ok := d.derive(value); ok {
			target := e.fields[d.target]
			// System write: the user never typed this.
			target.value = derived
			e.validateLocked(d.target)
		}
	}

	if field == FieldID {
		immediate := e.validator.Check(ctx, value)
		fs.pending = !immediate
	}
}

// Touch marks a field as visited so its errors become visible.
func (e *Engine) Touch(field Field) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if fs, ok := e.fields[field]; ok {
		fs.touched = true
	}
}

// Value returns the current raw value of a field, including the
// derived, non-editable revision date.
func (e *Engine) Value(field Field) string {
	e.mu.Lock()
	defer e.mu.Unlock()
	if fs, ok := e.fields[field]; ok {
		return fs.value
	}
	return ""
}

// HasError reports whether a field should currently show an error:
// it is invalid and the user has interacted with it.
func (e *Engine) HasError(field Field) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	fs, ok := e.fields[field]
	return ok && len(fs.errors) > 0 && (fs.dirty || fs.touched)
}

// ExplainError resolves a field's errors to one message. With several
// simultaneous errors the first applicable message in precedence order
// wins; an unrecognized code falls back to a generic message.
func (e *Engine) ExplainError(field Field) string {
	e.mu.Lock()
	defer e.mu.Unlock()
	fs, ok := e.fields[field]
	if !ok || len(fs.errors) == 0 {
		return ""
	}
	for _, code := range explainOrder {
		if !fs.errors[code] {
			continue
		}
		switch code {
		case ErrRequired:
			return MsgFieldRequired
		case ErrMinLength:
			return msgMinLength(rules[field].min)
		case ErrMaxLength:
			return msgMaxLength(rules[field].max)
		case ErrDateInPast:
			return MsgDateInPast
		case ErrIDExists:
			return MsgIDExists
		}
	}
	return MsgFieldInvalid
}

// Valid reports whether every field passes its rules right now.
func (e *Engine) Valid() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return !e.invalidLocked()
}

// Pending reports whether any async validation is still unresolved.
// Submission is blocked while it is.
func (e *Engine) Pending() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.pendingLocked()
}

func (e *Engine) Submitting() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.submitting
}

func (e *Engine) Loading() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.loading
}

// FormError is the form-level message from the last failed submit or
// edit load; empty when there is none.
func (e *Engine) FormError() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.formError
}

func (e *Engine) Success() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.success
}

func (e *Engine) EditMode() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.editMode
}

// Submit runs the submit protocol: an invalid or still-pending form is
// only marked touched, so errors become visible and nothing reaches the
// network. Otherwise the raw values are snapshotted into a draft and
// dispatched; on success the confirmation is shown and navigation back
// to the list is scheduled after the display delay; on failure the
// draft survives so the user can correct and resubmit.
func (e *Engine) Submit(ctx context.Context) {
	ctx, span := e.Tracer.Start(ctx, "form.submit")
	defer span.End()

	e.mu.Lock()
	if e.invalidLocked() || e.pendingLocked() {
		for _, fs := range e.fields {
			fs.touched = true
		}
		e.mu.Unlock()
		span.SetAttributes(attribute.Bool("dispatched", false))
		return
	}
	draft := e.snapshotLocked()
	e.submitting = true
	e.formError = ""
	e.success = ""
	edit, editID := e.editMode, e.editID
	e.mu.Unlock()

	e.submitsTotal.Add(ctx, 1, metric.WithAttributes(attribute.Bool("edit", edit)))

	var err error
	if edit {
		_, err = e.gw.Update(ctx, editID, draft)
	} else {
		_, err = e.gw.Create(ctx, draft)
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	e.submitting = false
	if err != nil {
		e.formError = err.Error()
		e.Logger.Warnw("submit failed", "id", draft.ID, "edit", edit, "msg", e.formError)
		return
	}
	if edit {
		e.success = MsgUpdated
	} else {
		e.success = MsgCreated
	}
	e.Logger.Infow("submit succeeded", "id", draft.ID, "edit", edit)
	if e.onNavigate != nil {
		e.navTimer = time.AfterFunc(e.successDelay, e.onNavigate)
	}
}

// Reset clears values, interaction flags and form-level messages. In
// edit mode the identifier keeps its original value: it is immutable
// once the record exists.
func (e *Engine) Reset() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.validator.Stop()
	for f, fs := range e.fields {
		if e.editMode && f == FieldID {
			fs.touched = false
			fs.dirty = false
			continue
		}
		fs.value = ""
		fs.touched = false
		fs.dirty = false
		fs.pending = false
		fs.errors = map[ErrorCode]bool{}
		e.validateLocked(f)
	}
	e.formError = ""
	e.success = ""
}

// LoadForEdit fetches the full catalog and populates the form from the
// matching record; there is no dedicated single-record fetch. On any
// lookup or network failure the form stays empty rather than partially
// populated.
func (e *Engine) LoadForEdit(ctx context.Context, id string) {
	ctx, span := e.Tracer.Start(ctx, "form.load_for_edit", trace.WithAttributes(
		attribute.String("product.id", id),
	))
	defer span.End()

	e.mu.Lock()
	e.loading = true
	e.formError = ""
	e.mu.Unlock()

	records, err := e.gw.List(ctx)

	e.mu.Lock()
	defer e.mu.Unlock()
	e.loading = false
	if err != nil {
		e.formError = MsgLoadFailed
		e.Logger.Warnw("edit load failed", "id", id, "err", err)
		return
	}
	for _, record := range records {
		if record.ID != id {
			continue
		}
		e.editMode = true
		e.editID = id
		e.setLocked(FieldID, record.ID)
		e.setLocked(FieldName, record.Name)
		e.setLocked(FieldDescription, record.Description)
		e.setLocked(FieldLogo, record.Logo)
		e.setLocked(FieldDateRelease, record.DateRelease.String())
		e.setLocked(FieldDateRevision, record.DateRevision.String())
		return
	}
	e.formError = MsgLoadFailed
	e.Logger.Warnw("edit load found no record", "id", id)
}

// Close cancels scheduled work; a navigated-away form must not
// resurrect stale state.
func (e *Engine) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.validator.Stop()
	if e.navTimer != nil {
		e.navTimer.Stop()
		e.navTimer = nil
	}
}

func (e *Engine) applyCheck(res CheckResult) {
	e.mu.Lock()
	defer e.mu.Unlock()
	fs := e.fields[FieldID]
	fs.pending = false
	if res.Valid {
		delete(fs.errors, ErrIDExists)
	} else {
		fs.errors[ErrIDExists] = true
	}
}

// setLocked is the system write path: no dirty/touched marks, no
// uniqueness check.
func (e *Engine) setLocked(field Field, value string) {
	fs := e.fields[field]
	fs.value = value
	e.validateLocked(field)
}

func (e *Engine) validateLocked(field Field) {
	fs := e.fields[field]
	keepExists := field == FieldID && fs.errors[ErrIDExists]
	fs.errors = map[ErrorCode]bool{}
	for _, code := range Validate(field, fs.value, e.now()) {
		fs.errors[code] = true
	}
	if keepExists {
		fs.errors[ErrIDExists] = true
	}
}

func (e *Engine) invalidLocked() bool {
	for _, fs := range e.fields {
		if len(fs.errors) > 0 {
			return true
		}
	}
	return false
}

func (e *Engine) pendingLocked() bool {
	for _, fs := range e.fields {
		if fs.pending {
			return true
		}
	}
	return false
}

func (e *Engine) snapshotLocked() models.Product {
	release, _ := models.ParseDate(e.fields[FieldDateRelease].value)
	revision, _ := models.ParseDate(e.fields[FieldDateRevision].value)
	return models.Product{
		ID:           e.fields[FieldID].value,
		Name:         e.fields[FieldName].value,
		Description:  e.fields[FieldDescription].value,
		Logo:         e.fields[FieldLogo].value,
		DateRelease:  release,
		DateRevision: revision,
	}
}
