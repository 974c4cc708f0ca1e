package port

import (
	"context"

	"github.com/google/uuid"
	"github.com/linkhub/linkhub-thumbnail-service/internal/domain/entity"
)

type JobRepository interface {
	Create(ctx context.Context, job *entity.ThumbnailJob) error
	Update(ctx context.Context, job *entity.ThumbnailJob) error
	FindByID(ctx context.Context, id uuid.UUID) (*entity.ThumbnailJob, error)
}
