package patient

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

var ErrNotFound = errors.New("patient not found")

type Repository interface {
	Create(ctx context.Context, p *Patient) error
	GetByID(ctx context.Context, id uuid.UUID) (*Patient, error)
	Update(ctx context.Context, p *Patient) error
	// Search matches the query against first and last name, case
	// insensitively. An empty query lists everyone.
	Search(ctx context.Context, query string, limit, offset int) ([]*Patient, int, error)
}
