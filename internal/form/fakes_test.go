package form

import (
	"context"
	"errors"
	"sync"

	"github.com/bancalia/finconsole/packages/product_console/internal/models"
)

// fakeGateway implements Service with recorded calls. blockCheck, when
// set, holds CheckUnique calls until released so tests can keep a check
// in flight on purpose.
type fakeGateway struct {
	mu sync.Mutex

	checkCalls  []string
	checkExists bool
	checkErr    error
	blockCheck  chan struct{}

	listRecords []models.Product
	listErr     error

	created   []models.Product
	createErr error

	updatedID    string
	updatedDraft *models.Product
	updateErr    error
}

func (f *fakeGateway) CheckUnique(ctx context.Context, id string) (bool, error) {
	f.mu.Lock()
	f.checkCalls = append(f.checkCalls, id)
	block := f.blockCheck
	exists, err := f.checkExists, f.checkErr
	f.mu.Unlock()
	if block != nil {
		<-block
	}
	return exists, err
}

func (f *fakeGateway) List(ctx context.Context) ([]models.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listErr != nil {
		return nil, f.listErr
	}
	return append([]models.Product(nil), f.listRecords...), nil
}

func (f *fakeGateway) Create(ctx context.Context, draft models.Product) (*models.MutationResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return nil, f.createErr
	}
	f.created = append(f.created, draft)
	return &models.MutationResponse{Message: "ok", Data: draft}, nil
}

func (f *fakeGateway) Update(ctx context.Context, id string, draft models.Product) (*models.MutationResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.updateErr != nil {
		return nil, f.updateErr
	}
	f.updatedID = id
	d := draft
	f.updatedDraft = &d
	return &models.MutationResponse{Message: "ok", Data: draft}, nil
}

func (f *fakeGateway) checkCallCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.checkCalls)
}

func (f *fakeGateway) lastCheckCall() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.checkCalls) == 0 {
		return ""
	}
	return f.checkCalls[len(f.checkCalls)-1]
}

func (f *fakeGateway) createCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.created)
}

var errBackendDown = errors.New("No se pudo conectar con el servidor.")
