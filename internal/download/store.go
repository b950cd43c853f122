package download

import (
	"context"

	"otosu/internal/models"
)

// Store はジョブレコードの永続化層
// 実装はinternal/storageのJobRepository
type Store interface {
	Create(ctx context.Context, job *models.Job) error
	GetByID(ctx context.Context, id string) (*models.Job, error)
	Update(ctx context.Context, id string, u models.JobUpdate) (*models.Job, error)
	Delete(ctx context.Context, id string) (bool, error)
	ListRecent(ctx context.Context, limit int) ([]models.Job, error)
}
