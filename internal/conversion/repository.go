package conversion

import (
	"context"

	"github.com/google/uuid"

	"github.com/voicedesk/speechadmin/internal/models"
)

// Repository is the durable store for conversion records. Implementations
// must enforce filename uniqueness and surface violations as
// ErrDuplicateFilename.
type Repository interface {
	Insert(ctx context.Context, c *models.Conversion) error
	Get(ctx context.Context, id uuid.UUID) (*models.Conversion, error)
	List(ctx context.Context, limit, offset int) ([]models.Conversion, error)
	Update(ctx context.Context, c *models.Conversion) error
	Delete(ctx context.Context, id uuid.UUID) error
}
