package reports

import (
	"context"
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

type JobRun struct {
	ID          string         `json:"id"`
	JobType     string         `json:"jobType"`
	Status      string         `json:"status"`
	Details     map[string]any `json:"details"`
	StartedAt   time.Time      `json:"startedAt"`
	CompletedAt *time.Time     `json:"completedAt"`
}

type JobRunFilter struct {
	JobType     string
	Status      string
	StartedFrom *time.Time
	StartedTo   *time.Time
}

type JobRunStore struct {
	DB *pgxpool.Pool
}

func NewJobRunStore(db *pgxpool.Pool) *JobRunStore {
	return &JobRunStore{DB: db}
}

func (s *JobRunStore) List(ctx context.Context, tenantID string, filter JobRunFilter, limit, offset int) ([]JobRun, error) {
	query, args := buildJobRunsBaseQuery(tenantID, filter)
	query += " ORDER BY started_at DESC LIMIT $" + strconv.Itoa(len(args)+1) + " OFFSET $" + strconv.Itoa(len(args)+2)
	args = append(args, limit, offset)

	rows, err := s.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []JobRun
	for rows.Next() {
		var run JobRun
		var detailsRaw []byte
		if err := rows.Scan(&run.ID, &run.JobType, &run.Status, &detailsRaw, &run.StartedAt, &run.CompletedAt); err != nil {
			return nil, err
		}
		run.Details = decodeDetails(detailsRaw)
		runs = append(runs, run)
	}
	return runs, nil
}

func (s *JobRunStore) Count(ctx context.Context, tenantID string, filter JobRunFilter) (int, error) {
	query, args := buildJobRunsBaseQuery(tenantID, filter)
	var total int
	if err := s.DB.QueryRow(ctx, "SELECT COUNT(1) FROM ("+query+") job_runs", args...).Scan(&total); err != nil {
		return 0, err
	}
	return total, nil
}

func buildJobRunsBaseQuery(tenantID string, filter JobRunFilter) (string, []any) {
	query := `
    SELECT id, job_type, status, COALESCE(details_json, '{}'::jsonb), started_at, completed_at
    FROM job_runs
    WHERE tenant_id = $1
  `
	args := []any{tenantID}

	if value := strings.TrimSpace(filter.JobType); value != "" {
		query += " AND job_type = $" + strconv.Itoa(len(args)+1)
		args = append(args, value)
	}
	if value := strings.TrimSpace(filter.Status); value != "" {
		query += " AND status = $" + strconv.Itoa(len(args)+1)
		args = append(args, value)
	}
	if filter.StartedFrom != nil && !filter.StartedFrom.IsZero() {
		query += " AND started_at >= $" + strconv.Itoa(len(args)+1)
		args = append(args, *filter.StartedFrom)
	}
	if filter.StartedTo != nil && !filter.StartedTo.IsZero() {
		query += " AND started_at <= $" + strconv.Itoa(len(args)+1)
		args = append(args, *filter.StartedTo)
	}

	return query, args
}

func decodeDetails(raw []byte) map[string]any {
	if len(raw) == 0 {
		return map[string]any{}
	}
	details := map[string]any{}
	if err := json.Unmarshal(raw, &details); err != nil {
		return map[string]any{"raw": string(raw)}
	}
	return details
}
