package handler

import (
	"context"

	"github.com/mlindgren/capsuled/internal/model"
)

// CapsuleRepo defines the interface for capsule repository operations.
// This interface allows for easier testing with mock implementations.
type CapsuleRepo interface {
	Create(ctx context.Context, c *model.Capsule) error
	Get(ctx context.Context, userID, capsuleID string) (*model.Capsule, error)
	ListByUser(ctx context.Context, userID string, limit, offset int) ([]model.Capsule, error)
	GetLatestByNormalizedURL(ctx context.Context, userID, normalizedURL string) (*model.Capsule, error)
	SetArtifact(ctx context.Context, userID, capsuleID string, artifact model.Artifact, payload any) error
}
