package queue

import (
	"database/sql"
	"errors"
	"time"
)

const assetColumns = "id, source_path, title, status, reference_path, transcript_json, duplicate_groups_json, alignment_json, deletion_plan_json, preview_status, preview_json, reconstruction_json, final_file, error_message, created_at, updated_at, progress_stage, progress_percent, progress_message, last_heartbeat, parent_id, iteration_number"

func scanAsset(scanner interface{ Scan(dest ...any) error }) (*Asset, error) {
	var (
		id               int64
		sourcePath       sql.NullString
		title            sql.NullString
		statusStr        string
		referencePath    sql.NullString
		transcriptJSON   sql.NullString
		groupsJSON       sql.NullString
		alignmentJSON    sql.NullString
		planJSON         sql.NullString
		previewStatusStr sql.NullString
		previewJSON      sql.NullString
		reconJSON        sql.NullString
		finalFile        sql.NullString
		errorMessage     sql.NullString
		createdRaw       sql.NullString
		updatedRaw       sql.NullString
		progressStage    sql.NullString
		progressPercent  sql.NullFloat64
		progressMessage  sql.NullString
		lastHeartbeatRaw sql.NullString
		parentID         sql.NullInt64
		iterationNumber  sql.NullInt64
	)

	if err := scanner.Scan(
		&id,
		&sourcePath,
		&title,
		&statusStr,
		&referencePath,
		&transcriptJSON,
		&groupsJSON,
		&alignmentJSON,
		&planJSON,
		&previewStatusStr,
		&previewJSON,
		&reconJSON,
		&finalFile,
		&errorMessage,
		&createdRaw,
		&updatedRaw,
		&progressStage,
		&progressPercent,
		&progressMessage,
		&lastHeartbeatRaw,
		&parentID,
		&iterationNumber,
	); err != nil {
		return nil, err
	}

	asset := &Asset{
		ID:                  id,
		SourcePath:          sourcePath.String,
		Title:               title.String,
		Status:              Status(statusStr),
		ReferencePath:       referencePath.String,
		TranscriptJSON:      transcriptJSON.String,
		DuplicateGroupsJSON: groupsJSON.String,
		AlignmentJSON:       alignmentJSON.String,
		DeletionPlanJSON:    planJSON.String,
		PreviewStatus:       PreviewNone,
		PreviewJSON:         previewJSON.String,
		ReconstructionJSON:  reconJSON.String,
		FinalFile:           finalFile.String,
		ErrorMessage:        errorMessage.String,
		ProgressStage:       progressStage.String,
		ProgressPercent:     progressPercent.Float64,
		ProgressMessage:     progressMessage.String,
		IterationNumber:     int(iterationNumber.Int64),
	}
	if previewStatusStr.Valid && previewStatusStr.String != "" {
		asset.PreviewStatus = PreviewStatus(previewStatusStr.String)
	}
	if parentID.Valid {
		pid := parentID.Int64
		asset.ParentID = &pid
	}

	if created, err := parseTimeString(createdRaw.String); err == nil {
		asset.CreatedAt = created
	}
	if updated, err := parseTimeString(updatedRaw.String); err == nil {
		asset.UpdatedAt = updated
	}
	if lastHeartbeatRaw.Valid {
		if heartbeat, err := parseTimeString(lastHeartbeatRaw.String); err == nil {
			asset.LastHeartbeat = &heartbeat
		}
	}
	return asset, nil
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func nullableTime(value *time.Time) any {
	if value == nil {
		return nil
	}
	v := value.UTC().Format(time.RFC3339Nano)
	return v
}

func parseTimeString(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, errors.New("empty")
	}
	if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02 15:04:05", value)
}

func makePlaceholders(count int) string {
	if count <= 0 {
		return ""
	}
	placeholders := make([]byte, 0, count*2)
	for i := 0; i < count; i++ {
		if i > 0 {
			placeholders = append(placeholders, ',')
		}
		placeholders = append(placeholders, '?')
	}
	return string(placeholders)
}
