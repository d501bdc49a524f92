package queue

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"
)

// NewAsset inserts a new asset awaiting transcription.
func (s *Store) NewAsset(ctx context.Context, sourcePath, referencePath string) (*Asset, error) {
	if strings.TrimSpace(sourcePath) == "" {
		return nil, errors.New("source path is required")
	}
	now := time.Now().UTC()
	timestamp := now.Format(time.RFC3339Nano)

	res, err := s.execWithRetry(
		ctx,
		`INSERT INTO assets (
            source_path, title, status, reference_path, preview_status,
            created_at, updated_at, progress_percent, iteration_number
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		sourcePath,
		inferTitleFromPath(sourcePath),
		StatusCreated,
		nullableString(referencePath),
		PreviewNone,
		timestamp,
		timestamp,
		0.0,
		0,
	)
	if err != nil {
		return nil, fmt.Errorf("insert asset: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}

	return s.GetByID(ctx, id)
}

// NewIteration inserts a child asset whose source audio is the parent's
// reconstruction artifact. The parent linkage is immutable once created and
// the iteration number increases by one per lineage step.
func (s *Store) NewIteration(ctx context.Context, parent *Asset, sourcePath string) (*Asset, error) {
	if parent == nil {
		return nil, errors.New("parent asset is nil")
	}
	if strings.TrimSpace(sourcePath) == "" {
		return nil, errors.New("source path is required")
	}
	now := time.Now().UTC()
	timestamp := now.Format(time.RFC3339Nano)

	res, err := s.execWithRetry(
		ctx,
		`INSERT INTO assets (
            source_path, title, status, reference_path, preview_status,
            created_at, updated_at, progress_percent, parent_id, iteration_number
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		sourcePath,
		parent.Title,
		StatusCreated,
		nullableString(parent.ReferencePath),
		PreviewNone,
		timestamp,
		timestamp,
		0.0,
		parent.ID,
		parent.IterationNumber+1,
	)
	if err != nil {
		return nil, fmt.Errorf("insert iteration: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}

	return s.GetByID(ctx, id)
}

// GetByID fetches an asset by identifier.
func (s *Store) GetByID(ctx context.Context, id int64) (*Asset, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+assetColumns+` FROM assets WHERE id = ?`, id)
	asset, err := scanAsset(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get asset: %w", err)
	}
	return asset, nil
}

// Update persists changes to an existing asset. Status changes must go
// through Transition; Update writes the status field as given.
func (s *Store) Update(ctx context.Context, asset *Asset) error {
	if asset == nil {
		return errors.New("asset is nil")
	}
	asset.UpdatedAt = time.Now().UTC()
	err := s.execWithoutResultRetry(
		ctx,
		`UPDATE assets
         SET source_path = ?, title = ?, status = ?, reference_path = ?,
             transcript_json = ?, duplicate_groups_json = ?, alignment_json = ?,
             deletion_plan_json = ?, preview_status = ?, preview_json = ?,
             reconstruction_json = ?, final_file = ?, error_message = ?,
             updated_at = ?, progress_stage = ?, progress_percent = ?,
             progress_message = ?, last_heartbeat = ?
         WHERE id = ?`,
		nullableString(asset.SourcePath),
		nullableString(asset.Title),
		asset.Status,
		nullableString(asset.ReferencePath),
		nullableString(asset.TranscriptJSON),
		nullableString(asset.DuplicateGroupsJSON),
		nullableString(asset.AlignmentJSON),
		nullableString(asset.DeletionPlanJSON),
		string(asset.PreviewStatus),
		nullableString(asset.PreviewJSON),
		nullableString(asset.ReconstructionJSON),
		nullableString(asset.FinalFile),
		nullableString(asset.ErrorMessage),
		asset.UpdatedAt.Format(time.RFC3339Nano),
		nullableString(asset.ProgressStage),
		asset.ProgressPercent,
		nullableString(asset.ProgressMessage),
		nullableTime(asset.LastHeartbeat),
		asset.ID,
	)
	if err != nil {
		return fmt.Errorf("update asset: %w", err)
	}
	return nil
}

// Transition validates the status change against the lifecycle rules, then
// persists the asset with the new status.
func (s *Store) Transition(ctx context.Context, asset *Asset, to Status) error {
	if asset == nil {
		return errors.New("asset is nil")
	}
	if err := ValidateTransition(asset.Status, to); err != nil {
		return err
	}
	asset.Status = to
	return s.Update(ctx, asset)
}

// AssetsByStatus returns assets matching a status ordered by creation time.
func (s *Store) AssetsByStatus(ctx context.Context, status Status) ([]*Asset, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+assetColumns+` FROM assets WHERE status = ? ORDER BY created_at`, status)
	if err != nil {
		return nil, fmt.Errorf("query by status: %w", err)
	}
	defer rows.Close()

	var assets []*Asset
	for rows.Next() {
		asset, err := scanAsset(rows)
		if err != nil {
			return nil, err
		}
		assets = append(assets, asset)
	}
	return assets, rows.Err()
}

// List returns assets filtered by status set (or all assets when no status is provided).
func (s *Store) List(ctx context.Context, statuses ...Status) ([]*Asset, error) {
	var (
		rows *sql.Rows
		err  error
	)

	baseQuery := `SELECT ` + assetColumns + ` FROM assets`
	orderClause := ` ORDER BY created_at`

	if len(statuses) == 0 {
		rows, err = s.db.QueryContext(ctx, baseQuery+orderClause)
	} else {
		placeholders := makePlaceholders(len(statuses))
		args := make([]any, len(statuses))
		for i, status := range statuses {
			args[i] = status
		}
		query := baseQuery + ` WHERE status IN (` + placeholders + `)` + orderClause
		rows, err = s.db.QueryContext(ctx, query, args...)
	}
	if err != nil {
		return nil, fmt.Errorf("list assets: %w", err)
	}
	defer rows.Close()

	var assets []*Asset
	for rows.Next() {
		asset, err := scanAsset(rows)
		if err != nil {
			return nil, err
		}
		assets = append(assets, asset)
	}
	return assets, rows.Err()
}

// NextForStatuses returns the oldest asset matching any of the provided statuses.
func (s *Store) NextForStatuses(ctx context.Context, statuses ...Status) (*Asset, error) {
	if len(statuses) == 0 {
		return nil, nil
	}
	placeholders := makePlaceholders(len(statuses))
	args := make([]any, len(statuses))
	for i, status := range statuses {
		args[i] = status
	}

	query := `SELECT ` + assetColumns + ` FROM assets WHERE status IN (` + placeholders + `) ORDER BY created_at LIMIT 1`
	row := s.db.QueryRowContext(ctx, query, args...)
	asset, err := scanAsset(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return asset, nil
}

// Children returns the direct child iterations of an asset ordered by creation time.
func (s *Store) Children(ctx context.Context, parentID int64) ([]*Asset, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+assetColumns+` FROM assets WHERE parent_id = ? ORDER BY created_at`, parentID)
	if err != nil {
		return nil, fmt.Errorf("query children: %w", err)
	}
	defer rows.Close()

	var assets []*Asset
	for rows.Next() {
		asset, err := scanAsset(rows)
		if err != nil {
			return nil, err
		}
		assets = append(assets, asset)
	}
	return assets, rows.Err()
}

// Remove deletes an asset by identifier.
func (s *Store) Remove(ctx context.Context, id int64) (bool, error) {
	res, err := s.execWithRetry(ctx, `DELETE FROM assets WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("delete asset: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return affected > 0, nil
}

// ClearCompleted removes only completed assets.
func (s *Store) ClearCompleted(ctx context.Context) (int64, error) {
	res, err := s.execWithRetry(ctx, `DELETE FROM assets WHERE status = ?`, StatusCompleted)
	if err != nil {
		return 0, fmt.Errorf("clear completed: %w", err)
	}
	return res.RowsAffected()
}

// ClearFailed removes only failed assets.
func (s *Store) ClearFailed(ctx context.Context) (int64, error) {
	res, err := s.execWithRetry(ctx, `DELETE FROM assets WHERE status = ?`, StatusFailed)
	if err != nil {
		return 0, fmt.Errorf("clear failed: %w", err)
	}
	return res.RowsAffected()
}

// Clear removes all assets.
func (s *Store) Clear(ctx context.Context) (int64, error) {
	res, err := s.execWithRetry(ctx, `DELETE FROM assets`)
	if err != nil {
		return 0, fmt.Errorf("clear assets: %w", err)
	}
	return res.RowsAffected()
}

func inferTitleFromPath(path string) string {
	base := strings.TrimSpace(filepath.Base(path))
	if base == "" {
		return "Untitled Asset"
	}
	ext := filepath.Ext(base)
	base = strings.TrimSuffix(base, ext)
	cleaned := strings.TrimSpace(base)
	if cleaned == "" {
		return "Untitled Asset"
	}
	return cleaned
}
