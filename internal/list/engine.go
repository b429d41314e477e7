// Package list owns the catalog screen: the record snapshot, the
// filtered and paginated derived views, logo URL resolution, and the
// delete-confirmation workflow.
package list

import (
	"context"
	"strings"
	"sync"

	"github.com/IBM/fp-go/v2/array"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/bancalia/finconsole/packages/product_console/internal/config"
	"github.com/bancalia/finconsole/packages/product_console/internal/models"
)

// Service is the slice of the gateway the list needs.
type Service interface {
	List(ctx context.Context) ([]models.Product, error)
	Delete(ctx context.Context, id string) error
}

// DeletePhase tracks the delete-confirmation state machine:
// Idle → Confirming → Deleting → Idle.
type DeletePhase int

const (
	DeleteIdle DeletePhase = iota
	DeleteConfirming
	DeleteDeleting
)

type Engine struct {
	mu sync.Mutex
	gw Service

	records     []models.Product
	searchTerm  string
	pageSize    int
	currentPage int
	loading     bool
	errMsg      string

	deletePhase  DeletePhase
	deleteTarget *models.Product
	onAlert      func(string)

	assetDir    string
	placeholder string

	Logger       *zap.SugaredLogger
	Tracer       trace.Tracer
	reloadsTotal metric.Int64Counter
	deletesTotal metric.Int64Counter
}

func NewEngine(
	gw Service,
	cfg config.Config,
	tracer trace.Tracer,
	logger *zap.SugaredLogger,
	meter metric.Meter,
) (*Engine, error) {
	e := &Engine{
		gw:          gw,
		pageSize:    cfg.UI.PageSize,
		currentPage: 1,
		assetDir:    strings.TrimSuffix(cfg.UI.AssetDir, "/"),
		placeholder: cfg.UI.PlaceholderLogo,
		Logger:      logger,
		Tracer:      tracer,
	}

	var err error
	e.reloadsTotal, err = meter.Int64Counter(
		"list.reloads.total",
		metric.WithDescription("Full catalog reloads"),
	)
	if err != nil {
		return nil, err
	}

	e.deletesTotal, err = meter.Int64Counter(
		"list.deletes.total",
		metric.WithDescription("Confirmed deletions dispatched to the backend"),
	)
	if err != nil {
		return nil, err
	}

	return e, nil
}

// OnAlert installs the blocking notification used for delete failures;
// the list view has no persistent error region for them.
func (e *Engine) OnAlert(fn func(string)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.onAlert = fn
}

// Load refreshes the snapshot wholesale. Deliberately not debounced or
// cached: this snapshot is the single source of truth for the view, so
// every explicit reload re-fetches the full collection.
func (e *Engine) Load(ctx context.Context) {
	ctx, span := e.Tracer.Start(ctx, "list.load")
	defer span.End()

	e.mu.Lock()
	e.loading = true
	e.errMsg = ""
	e.mu.Unlock()

	e.reloadsTotal.Add(ctx, 1)
	records, err := e.gw.List(ctx)

	e.mu.Lock()
	defer e.mu.Unlock()
	e.loading = false
	if err != nil {
		e.errMsg = err.Error()
		e.Logger.Warnw("catalog load failed", "msg", e.errMsg)
		return
	}
	e.records = records
	span.SetAttributes(attribute.Int("records", len(records)))
}

// Records returns the raw snapshot.
func (e *Engine) Records() []models.Product {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]models.Product(nil), e.records...)
}

// Filtered derives the records whose name, description or id contains
// the search term, case-insensitively. Recomputed on demand from the
// snapshot; nothing is patched incrementally.
func (e *Engine) Filtered() []models.Product {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.filteredLocked()
}

// Paginated derives the current page window over the filtered view.
func (e *Engine) Paginated() []models.Product {
	e.mu.Lock()
	defer e.mu.Unlock()
	filtered := e.filteredLocked()
	start := (e.currentPage - 1) * e.pageSize
	if start >= len(filtered) {
		return nil
	}
	end := start + e.pageSize
	if end > len(filtered) {
		end = len(filtered)
	}
	return filtered[start:end]
}

// TotalPages is ceil(len(filtered) / pageSize).
func (e *Engine) TotalPages() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return (len(e.filteredLocked()) + e.pageSize - 1) / e.pageSize
}

// ResultCount is the size of the filtered view.
func (e *Engine) ResultCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.filteredLocked())
}

// Search installs a new term and resets to page 1, so a narrower
// filter cannot land on an out-of-range page.
func (e *Engine) Search(term string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.searchTerm = term
	e.currentPage = 1
}

// SetPageSize changes the window size and resets to page 1.
func (e *Engine) SetPageSize(size int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if size < 1 {
		return
	}
	e.pageSize = size
	e.currentPage = 1
}

// SetPage moves the window without touching term or size.
func (e *Engine) SetPage(page int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if page < 1 {
		return
	}
	e.currentPage = page
}

func (e *Engine) SearchTerm() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.searchTerm
}

func (e *Engine) PageSize() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.pageSize
}

func (e *Engine) CurrentPage() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.currentPage
}

func (e *Engine) Loading() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.loading
}

// Err is the translated message from the last failed load; empty when
// the last load succeeded.
func (e *Engine) Err() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.errMsg
}

// ResolveLogoURL maps a stored logo value to something the rendering
// layer can fetch: empty values get the placeholder, absolute URLs and
// already-resolved asset paths pass through, bare filenames get the
// asset directory prefix.
func (e *Engine) ResolveLogoURL(logo string) string {
	if logo == "" {
		return e.placeholder
	}
	if strings.HasPrefix(logo, "http") ||
		strings.HasPrefix(logo, e.assetDir+"/") ||
		strings.HasPrefix(logo, "/"+e.assetDir+"/") {
		return logo
	}
	return e.assetDir + "/" + logo
}

// OnImageError swaps a record's broken logo for the placeholder so the
// rendering layer stops retrying the dead reference. Idempotent.
func (e *Engine) OnImageError(id string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	for i := range e.records {
		if e.records[i].ID == id && e.records[i].Logo != e.placeholder {
			e.records[i].Logo = e.placeholder
		}
	}
}

// OpenDelete records the target and opens the confirmation:
// Idle → Confirming.
func (e *Engine) OpenDelete(record models.Product) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.deletePhase == DeleteDeleting {
		return
	}
	target := record
	e.deleteTarget = &target
	e.deletePhase = DeleteConfirming
}

// CancelDelete closes the confirmation without deleting:
// Confirming → Idle.
func (e *Engine) CancelDelete() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.deletePhase != DeleteConfirming {
		return
	}
	e.deleteTarget = nil
	e.deletePhase = DeleteIdle
}

// ConfirmDelete dispatches the deletion and, on completion, closes the
// workflow and reloads the full list regardless of outcome. Confirming
// while a deletion is already in flight is a no-op: the gateway sees at
// most one delete per confirmed target.
func (e *Engine) ConfirmDelete(ctx context.Context) {
	ctx, span := e.Tracer.Start(ctx, "list.confirm_delete")
	defer span.End()

	e.mu.Lock()
	if e.deletePhase != DeleteConfirming || e.deleteTarget == nil {
		e.mu.Unlock()
		return
	}
	target := *e.deleteTarget
	e.deletePhase = DeleteDeleting
	e.mu.Unlock()

	e.deletesTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("product.id", target.ID)))
	err := e.gw.Delete(ctx, target.ID)

	e.mu.Lock()
	e.deletePhase = DeleteIdle
	e.deleteTarget = nil
	alert := e.onAlert
	e.mu.Unlock()

	if err != nil {
		e.Logger.Warnw("delete failed", "id", target.ID, "msg", err.Error())
		if alert != nil {
			alert(err.Error())
		}
	} else {
		e.Logger.Infow("record deleted", "id", target.ID)
	}
	e.Load(ctx)
}

// DeleteState exposes the workflow phase and target for the rendering
// layer's modal.
func (e *Engine) DeleteState() (DeletePhase, *models.Product) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.deleteTarget == nil {
		return e.deletePhase, nil
	}
	target := *e.deleteTarget
	return e.deletePhase, &target
}

func (e *Engine) filteredLocked() []models.Product {
	term := strings.ToLower(strings.TrimSpace(e.searchTerm))
	if term == "" {
		return append([]models.Product(nil), e.records...)
	}
	return array.Filter(func(p models.Product) bool {
		return strings.Contains(strings.ToLower(p.Name), term) ||
			strings.Contains(strings.ToLower(p.Description), term) ||
			strings.Contains(strings.ToLower(p.ID), term)
	})(e.records)
}
