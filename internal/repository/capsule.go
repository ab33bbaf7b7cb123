package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/mlindgren/capsuled/internal/model"
)

// ErrNotFound is returned when the addressed capsule record does not exist
var ErrNotFound = errors.New("capsule not found")

// Key prefixes for the single-table partition/sort key scheme
const (
	userKeyPrefix    = "USER#"
	capsuleKeyPrefix = "CAPSULE#"
)

// CapsuleRepository handles database operations for learning capsules.
// Capsules live in one table addressed by (pk, sk); artifact writes are
// path-scoped jsonb updates, never full-document overwrites.
type CapsuleRepository struct {
	pool *pgxpool.Pool
}

// NewCapsuleRepository creates a new CapsuleRepository
func NewCapsuleRepository(pool *pgxpool.Pool) *CapsuleRepository {
	return &CapsuleRepository{pool: pool}
}

func userKey(userID string) string       { return userKeyPrefix + userID }
func capsuleKey(capsuleID string) string { return capsuleKeyPrefix + capsuleID }

// Create inserts a new capsule at the start of a processing job
func (r *CapsuleRepository) Create(ctx context.Context, c *model.Capsule) error {
	statusJSON, err := json.Marshal(c.ProcessingStatus)
	if err != nil {
		return fmt.Errorf("failed to marshal processing status: %w", err)
	}
	optionsJSON, err := json.Marshal(c.Options)
	if err != nil {
		return fmt.Errorf("failed to marshal options: %w", err)
	}

	query := `
		INSERT INTO capsules (pk, sk, user_id, capsule_id, video_id, video_url, normalized_url, title,
		                      status, processing_status, learning_content, options, started_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, '{}'::jsonb, $11, $12)
	`

	_, err = r.pool.Exec(ctx, query,
		userKey(c.UserID), capsuleKey(c.CapsuleID),
		c.UserID, c.CapsuleID, c.VideoID, c.VideoURL, c.NormalizedURL, c.Title,
		c.Status, statusJSON, optionsJSON, c.StartedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create capsule: %w", err)
	}

	return nil
}

// Get retrieves a capsule by its composite key
func (r *CapsuleRepository) Get(ctx context.Context, userID, capsuleID string) (*model.Capsule, error) {
	query := `
		SELECT user_id, capsule_id, video_id, video_url, normalized_url, title,
		       status, processing_status, learning_content, processing_stats, last_error, options,
		       started_at, completed_at, updated_at
		FROM capsules
		WHERE pk = $1 AND sk = $2
	`

	row := r.pool.QueryRow(ctx, query, userKey(userID), capsuleKey(capsuleID))
	capsule, err := scanCapsule(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get capsule: %w", err)
	}

	return capsule, nil
}

// ListByUser retrieves a user's capsules, newest first
func (r *CapsuleRepository) ListByUser(ctx context.Context, userID string, limit, offset int) ([]model.Capsule, error) {
	if limit <= 0 {
		limit = 50
	}

	query := `
		SELECT user_id, capsule_id, video_id, video_url, normalized_url, title,
		       status, processing_status, learning_content, processing_stats, last_error, options,
		       started_at, completed_at, updated_at
		FROM capsules
		WHERE pk = $1
		ORDER BY started_at DESC
		LIMIT $2 OFFSET $3
	`

	rows, err := r.pool.Query(ctx, query, userKey(userID), limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list capsules: %w", err)
	}
	defer rows.Close()

	var capsules []model.Capsule
	for rows.Next() {
		capsule, err := scanCapsule(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan capsule: %w", err)
		}
		capsules = append(capsules, *capsule)
	}

	return capsules, nil
}

// GetLatestByNormalizedURL returns a user's most recent capsule for a URL,
// or nil when none exists. Used for duplicate detection at submission time.
func (r *CapsuleRepository) GetLatestByNormalizedURL(ctx context.Context, userID, normalizedURL string) (*model.Capsule, error) {
	query := `
		SELECT user_id, capsule_id, video_id, video_url, normalized_url, title,
		       status, processing_status, learning_content, processing_stats, last_error, options,
		       started_at, completed_at, updated_at
		FROM capsules
		WHERE pk = $1 AND normalized_url = $2
		ORDER BY started_at DESC
		LIMIT 1
	`

	row := r.pool.QueryRow(ctx, query, userKey(userID), normalizedURL)
	capsule, err := scanCapsule(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get capsule by url: %w", err)
	}

	return capsule, nil
}

// GetPendingProcessing retrieves capsules whose pipeline has not started yet
func (r *CapsuleRepository) GetPendingProcessing(ctx context.Context, limit int) ([]model.Capsule, error) {
	query := `
		SELECT user_id, capsule_id, video_id, video_url, normalized_url, title,
		       status, processing_status, learning_content, processing_stats, last_error, options,
		       started_at, completed_at, updated_at
		FROM capsules
		WHERE status = 'processing' AND processing_status->>'validation' = 'pending'
		ORDER BY started_at ASC
		LIMIT $1
	`

	rows, err := r.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get pending capsules: %w", err)
	}
	defer rows.Close()

	var capsules []model.Capsule
	for rows.Next() {
		capsule, err := scanCapsule(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan capsule: %w", err)
		}
		capsules = append(capsules, *capsule)
	}

	return capsules, nil
}

// SetArtifact writes one artifact payload under its own learning-content key.
// Other keys are untouched; the update never replaces the whole document.
func (r *CapsuleRepository) SetArtifact(ctx context.Context, userID, capsuleID string, artifact model.Artifact, payload any) error {
	payloadJSON, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal %s artifact: %w", artifact, err)
	}

	query := `
		UPDATE capsules
		SET learning_content = jsonb_set(COALESCE(learning_content, '{}'::jsonb), $3, $4::jsonb, true),
		    updated_at = NOW()
		WHERE pk = $1 AND sk = $2
	`

	tag, err := r.pool.Exec(ctx, query,
		userKey(userID), capsuleKey(capsuleID),
		[]string{string(artifact)}, payloadJSON,
	)
	if err != nil {
		return fmt.Errorf("failed to set %s artifact: %w", artifact, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}

// SetTitle records the video title once metadata has been fetched
func (r *CapsuleRepository) SetTitle(ctx context.Context, userID, capsuleID, title string) error {
	query := `
		UPDATE capsules
		SET title = $3, updated_at = NOW()
		WHERE pk = $1 AND sk = $2
	`

	tag, err := r.pool.Exec(ctx, query, userKey(userID), capsuleKey(capsuleID), title)
	if err != nil {
		return fmt.Errorf("failed to set capsule title: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}

// SetStepStatus updates one step's status inside processing_status
func (r *CapsuleRepository) SetStepStatus(ctx context.Context, userID, capsuleID, step string, status model.StepStatus) error {
	statusJSON, err := json.Marshal(status)
	if err != nil {
		return fmt.Errorf("failed to marshal step status: %w", err)
	}

	query := `
		UPDATE capsules
		SET processing_status = jsonb_set(COALESCE(processing_status, '{}'::jsonb), $3, $4::jsonb, true),
		    updated_at = NOW()
		WHERE pk = $1 AND sk = $2
	`

	tag, err := r.pool.Exec(ctx, query,
		userKey(userID), capsuleKey(capsuleID),
		[]string{step}, statusJSON,
	)
	if err != nil {
		return fmt.Errorf("failed to set step status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}

// SetProcessingStats writes the finalization statistics
func (r *CapsuleRepository) SetProcessingStats(ctx context.Context, userID, capsuleID string, stats *model.ProcessingStats) error {
	statsJSON, err := json.Marshal(stats)
	if err != nil {
		return fmt.Errorf("failed to marshal processing stats: %w", err)
	}

	query := `
		UPDATE capsules
		SET processing_stats = $3::jsonb, updated_at = NOW()
		WHERE pk = $1 AND sk = $2
	`

	tag, err := r.pool.Exec(ctx, query, userKey(userID), capsuleKey(capsuleID), statsJSON)
	if err != nil {
		return fmt.Errorf("failed to set processing stats: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}

// SetStatus transitions the capsule's overall status. Terminal states never
// revert: the update only applies while the capsule is still processing.
func (r *CapsuleRepository) SetStatus(ctx context.Context, userID, capsuleID string, status model.CapsuleStatus, completedAt *time.Time) error {
	query := `
		UPDATE capsules
		SET status = $3, completed_at = $4, updated_at = NOW()
		WHERE pk = $1 AND sk = $2 AND status = 'processing'
	`

	_, err := r.pool.Exec(ctx, query, userKey(userID), capsuleKey(capsuleID), status, completedAt)
	if err != nil {
		return fmt.Errorf("failed to set capsule status: %w", err)
	}

	return nil
}

// MarkError records a step failure and moves the capsule to the error state
func (r *CapsuleRepository) MarkError(ctx context.Context, userID, capsuleID string, stepErr *model.StepError) error {
	errJSON, err := json.Marshal(stepErr)
	if err != nil {
		return fmt.Errorf("failed to marshal step error: %w", err)
	}

	query := `
		UPDATE capsules
		SET status = 'error', last_error = $3::jsonb, completed_at = NOW(), updated_at = NOW()
		WHERE pk = $1 AND sk = $2 AND status = 'processing'
	`

	_, err = r.pool.Exec(ctx, query, userKey(userID), capsuleKey(capsuleID), errJSON)
	if err != nil {
		return fmt.Errorf("failed to mark capsule error: %w", err)
	}

	return nil
}

// rowScanner covers both pgx.Row and pgx.Rows
type rowScanner interface {
	Scan(dest ...any) error
}

func scanCapsule(row rowScanner) (*model.Capsule, error) {
	var (
		c           model.Capsule
		statusJSON  []byte
		contentJSON []byte
		statsJSON   []byte
		errJSON     []byte
		optionsJSON []byte
	)

	err := row.Scan(
		&c.UserID, &c.CapsuleID, &c.VideoID, &c.VideoURL, &c.NormalizedURL, &c.Title,
		&c.Status, &statusJSON, &contentJSON, &statsJSON, &errJSON, &optionsJSON,
		&c.StartedAt, &c.CompletedAt, &c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if len(statusJSON) > 0 {
		if err := json.Unmarshal(statusJSON, &c.ProcessingStatus); err != nil {
			return nil, fmt.Errorf("failed to unmarshal processing status: %w", err)
		}
	}
	if len(contentJSON) > 0 {
		if err := json.Unmarshal(contentJSON, &c.LearningContent); err != nil {
			return nil, fmt.Errorf("failed to unmarshal learning content: %w", err)
		}
	}
	if len(statsJSON) > 0 {
		if err := json.Unmarshal(statsJSON, &c.ProcessingStats); err != nil {
			return nil, fmt.Errorf("failed to unmarshal processing stats: %w", err)
		}
	}
	if len(errJSON) > 0 {
		if err := json.Unmarshal(errJSON, &c.Error); err != nil {
			return nil, fmt.Errorf("failed to unmarshal error record: %w", err)
		}
	}
	if len(optionsJSON) > 0 {
		if err := json.Unmarshal(optionsJSON, &c.Options); err != nil {
			return nil, fmt.Errorf("failed to unmarshal options: %w", err)
		}
	}

	return &c, nil
}
