package form

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
	tracenoop "go.opentelemetry.io/otel/trace/noop"
	"go.uber.org/zap"

	"github.com/bancalia/finconsole/packages/product_console/internal/config"
	"github.com/bancalia/finconsole/packages/product_console/internal/models"
)

func newTestEngine(t *testing.T, gw *fakeGateway) *Engine {
	t.Helper()
	cfg := config.Config{
		UI: config.UI{
			Debounce:     5 * time.Millisecond,
			SuccessDelay: 10 * time.Millisecond,
			PageSize:     5,
		},
	}
	e, err := NewEngine(
		gw,
		cfg,
		tracenoop.NewTracerProvider().Tracer("test"),
		zap.NewNop().Sugar(),
		metricnoop.NewMeterProvider().Meter("test"),
	)
	require.NoError(t, err)
	// Pin the clock so date assertions cannot rot.
	e.now = func() models.Date { return models.Date{Year: 2025, Month: time.June, Day: 15} }
	return e
}

func fillValid(ctx context.Context, e *Engine) {
	e.SetValue(ctx, FieldID, "NEW1")
	e.SetValue(ctx, FieldName, "Producto nuevo")
	e.SetValue(ctx, FieldDescription, "Descripcion del producto nuevo")
	e.SetValue(ctx, FieldLogo, "logo.png")
	e.SetValue(ctx, FieldDateRelease, "2030-02-01")
}

func waitSettled(t *testing.T, e *Engine) {
	t.Helper()
	require.Eventually(t, func() bool { return !e.Pending() }, time.Second, 2*time.Millisecond)
}

func TestRevisionDerivedOnReleaseChange(t *testing.T) {
	e := newTestEngine(t, &fakeGateway{})

	e.SetValue(context.Background(), FieldDateRelease, "2030-01-15")
	assert.Equal(t, "2031-01-15", e.Value(FieldDateRevision))

	// The derived write is a system write, not a user edit.
	assert.False(t, e.fields[FieldDateRevision].dirty)
}

func TestPastReleaseDateIsInvalid(t *testing.T) {
	e := newTestEngine(t, &fakeGateway{})
	ctx := context.Background()

	e.SetValue(ctx, FieldDateRelease, "2025-06-14")
	e.Touch(FieldDateRelease)

	assert.True(t, e.HasError(FieldDateRelease))
	assert.Equal(t, "La fecha debe ser igual o mayor a la fecha actual", e.ExplainError(FieldDateRelease))

	e.SetValue(ctx, FieldDateRelease, "2025-06-15")
	assert.False(t, e.HasError(FieldDateRelease), "today is not past")
}

func TestExplainErrorMessages(t *testing.T) {
	e := newTestEngine(t, &fakeGateway{})
	ctx := context.Background()

	e.SetValue(ctx, FieldID, "ab")
	assert.Equal(t, "Mínimo 3 caracteres", e.ExplainError(FieldID))

	e.SetValue(ctx, FieldID, "ABCDEFGHIJK")
	waitSettled(t, e)
	assert.Equal(t, "Máximo 10 caracteres", e.ExplainError(FieldID))

	e.SetValue(ctx, FieldName, "abc")
	assert.Equal(t, "Mínimo 5 caracteres", e.ExplainError(FieldName))

	e.SetValue(ctx, FieldName, "")
	assert.Equal(t, "Este campo es requerido", e.ExplainError(FieldName))
}

func TestExplainErrorPrecedenceAndFallback(t *testing.T) {
	e := newTestEngine(t, &fakeGateway{})

	// minlength outranks idExists when both are present.
	e.mu.Lock()
	fs := e.fields[FieldID]
	fs.value = "ab"
	fs.errors = map[ErrorCode]bool{ErrMinLength: true, ErrIDExists: true}
	e.mu.Unlock()
	assert.Equal(t, "Mínimo 3 caracteres", e.ExplainError(FieldID))

	e.mu.Lock()
	fs.errors = map[ErrorCode]bool{ErrIDExists: true}
	e.mu.Unlock()
	assert.Equal(t, "Este ID ya existe", e.ExplainError(FieldID))

	e.mu.Lock()
	fs.errors = map[ErrorCode]bool{"unrecognized": true}
	e.mu.Unlock()
	assert.Equal(t, "Campo inválido", e.ExplainError(FieldID))
}

func TestExistingIdentifierBlocksSubmission(t *testing.T) {
	gw := &fakeGateway{checkExists: true}
	e := newTestEngine(t, gw)
	ctx := context.Background()

	fillValid(ctx, e)
	waitSettled(t, e)

	assert.Equal(t, "Este ID ya existe", e.ExplainError(FieldID))
	e.Submit(ctx)
	assert.Zero(t, gw.createCount())
}

func TestSubmitInvalidMarksAllTouched(t *testing.T) {
	gw := &fakeGateway{}
	e := newTestEngine(t, gw)

	e.Submit(context.Background())

	assert.Zero(t, gw.createCount(), "invalid form must not reach the network")
	for _, f := range Fields {
		assert.True(t, e.HasError(f), "field %s should now show its error", f)
	}
}

func TestSubmitWhilePendingAborts(t *testing.T) {
	release := make(chan struct{})
	gw := &fakeGateway{blockCheck: release}
	e := newTestEngine(t, gw)
	ctx := context.Background()

	fillValid(ctx, e)
	require.Eventually(t, func() bool { return gw.checkCallCount() == 1 }, time.Second, time.Millisecond)

	e.Submit(ctx)
	assert.Zero(t, gw.createCount(), "submission is blocked while validation is pending")
	close(release)
}

func TestSubmitCreatesAndSchedulesNavigation(t *testing.T) {
	gw := &fakeGateway{}
	e := newTestEngine(t, gw)
	ctx := context.Background()

	navigated := make(chan struct{})
	e.OnNavigate(func() { close(navigated) })

	fillValid(ctx, e)
	waitSettled(t, e)
	e.Submit(ctx)

	require.Equal(t, 1, gw.createCount())
	draft := gw.created[0]
	assert.Equal(t, "NEW1", draft.ID)
	assert.Equal(t, "Producto nuevo", draft.Name)
	assert.Equal(t, "2030-02-01", draft.DateRelease.String())
	assert.Equal(t, "2031-02-01", draft.DateRevision.String(), "derived revision is part of the draft")
	assert.Equal(t, "Producto creado exitosamente", e.Success())
	assert.False(t, e.Submitting())

	select {
	case <-navigated:
	case <-time.After(time.Second):
		t.Fatal("navigation back to the list was never signalled")
	}
}

func TestSubmitFailureKeepsDraft(t *testing.T) {
	gw := &fakeGateway{createErr: errBackendDown}
	e := newTestEngine(t, gw)
	ctx := context.Background()

	fillValid(ctx, e)
	waitSettled(t, e)
	e.Submit(ctx)

	assert.Equal(t, "No se pudo conectar con el servidor.", e.FormError())
	assert.Empty(t, e.Success())
	assert.Equal(t, "NEW1", e.Value(FieldID), "the draft survives for correction and resubmit")
	assert.Equal(t, "Producto nuevo", e.Value(FieldName))
}

func editRecord() models.Product {
	release, _ := models.ParseDate("2030-03-01")
	revision, _ := models.ParseDate("2031-03-01")
	return models.Product{
		ID:           "EDIT1",
		Name:         "Producto editado",
		Description:  "Descripcion editada larga",
		Logo:         "logo.png",
		DateRelease:  release,
		DateRevision: revision,
	}
}

func TestLoadForEditPopulatesForm(t *testing.T) {
	gw := &fakeGateway{listRecords: []models.Product{editRecord()}}
	e := newTestEngine(t, gw)
	ctx := context.Background()

	e.LoadForEdit(ctx, "EDIT1")

	assert.True(t, e.EditMode())
	assert.Equal(t, "EDIT1", e.Value(FieldID))
	assert.Equal(t, "Producto editado", e.Value(FieldName))
	assert.Equal(t, "2030-03-01", e.Value(FieldDateRelease))
	assert.Empty(t, e.FormError())
}

func TestLoadForEditFailureLeavesFormEmpty(t *testing.T) {
	gw := &fakeGateway{listErr: errBackendDown}
	e := newTestEngine(t, gw)

	e.LoadForEdit(context.Background(), "EDIT1")

	assert.Equal(t, "Error al cargar datos del producto", e.FormError())
	assert.False(t, e.EditMode())
	assert.Empty(t, e.Value(FieldName))
}

func TestLoadForEditUnknownRecord(t *testing.T) {
	gw := &fakeGateway{listRecords: []models.Product{editRecord()}}
	e := newTestEngine(t, gw)

	e.LoadForEdit(context.Background(), "MISSING")

	assert.Equal(t, "Error al cargar datos del producto", e.FormError())
	assert.False(t, e.EditMode())
}

func TestSubmitInEditModeUpdates(t *testing.T) {
	gw := &fakeGateway{listRecords: []models.Product{editRecord()}}
	e := newTestEngine(t, gw)
	ctx := context.Background()

	e.LoadForEdit(ctx, "EDIT1")
	e.SetValue(ctx, FieldName, "Producto renombrado")
	waitSettled(t, e)
	e.Submit(ctx)

	assert.Equal(t, "EDIT1", gw.updatedID)
	require.NotNil(t, gw.updatedDraft)
	assert.Equal(t, "Producto renombrado", gw.updatedDraft.Name)
	assert.Equal(t, "Producto actualizado exitosamente", e.Success())
	assert.Zero(t, gw.createCount())
}

func TestIdentifierImmutableInEditMode(t *testing.T) {
	gw := &fakeGateway{listRecords: []models.Product{editRecord()}}
	e := newTestEngine(t, gw)
	ctx := context.Background()

	e.LoadForEdit(ctx, "EDIT1")
	e.SetValue(ctx, FieldID, "OTHER9")

	assert.Equal(t, "EDIT1", e.Value(FieldID))
	assert.Zero(t, gw.checkCallCount(), "an immutable identifier is never re-checked")
}

func TestResetKeepsIdentifierInEditMode(t *testing.T) {
	gw := &fakeGateway{listRecords: []models.Product{editRecord()}}
	e := newTestEngine(t, gw)
	ctx := context.Background()

	e.LoadForEdit(ctx, "EDIT1")
	e.SetValue(ctx, FieldName, "Cambio descartado")
	e.Reset()

	assert.Equal(t, "EDIT1", e.Value(FieldID))
	assert.Empty(t, e.Value(FieldName))
	assert.Empty(t, e.FormError())
	assert.Empty(t, e.Success())
}

func TestResetClearsEverythingInCreateMode(t *testing.T) {
	e := newTestEngine(t, &fakeGateway{})
	ctx := context.Background()

	fillValid(ctx, e)
	waitSettled(t, e)
	e.Reset()

	for _, f := range Fields {
		assert.Empty(t, e.Value(f), "field %s should be cleared", f)
		assert.False(t, e.HasError(f), "cleared fields are untouched, errors stay hidden")
	}
	assert.False(t, e.Valid(), "an empty form is still invalid, just silently so")
}
