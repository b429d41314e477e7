package internal

import (
	"context"

	"github.com/bancalia/finconsole/packages/product_console/internal/models"
)

// ProductGateway is the narrow boundary to the backend API. Both
// engines consume it; every error it returns already carries the
// translated user-facing message.
type ProductGateway interface {
	List(ctx context.Context) ([]models.Product, error)
	CheckUnique(ctx context.Context, id string) (bool, error)
	Create(ctx context.Context, draft models.Product) (*models.MutationResponse, error)
	Update(ctx context.Context, id string, draft models.Product) (*models.MutationResponse, error)
	Delete(ctx context.Context, id string) error
}
