package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/DaniDitu/LoveLink-sub000/internal/domain/model"
)

type ReportRepo struct {
	pool *pgxpool.Pool
}

func NewReportRepo(pool *pgxpool.Pool) *ReportRepo {
	return &ReportRepo{pool: pool}
}

func (r *ReportRepo) Insert(ctx context.Context, report model.Report) error {
	if r.pool == nil {
		return fmt.Errorf("postgres pool is nil")
	}
	if report.ID == "" || report.ReporterID == "" || report.TargetID == "" {
		return fmt.Errorf("invalid report payload")
	}

	if _, err := r.pool.Exec(ctx, `
INSERT INTO reports (
	id,
	tenant_id,
	reporter_id,
	target_id,
	reason,
	status,
	created_at
) VALUES ($1, $2, $3, $4, $5, $6, $7)
`, report.ID, report.TenantID, report.ReporterID, report.TargetID, report.Reason, report.Status, report.CreatedAt.UTC()); err != nil {
		return fmt.Errorf("insert report: %w", err)
	}

	return nil
}

func (r *ReportRepo) CountPending(ctx context.Context, tenantID string) (int, error) {
	if tenantID == "" {
		return 0, fmt.Errorf("tenant id is required")
	}
	if r.pool == nil {
		return 0, fmt.Errorf("postgres pool is nil")
	}

	var count int
	if err := r.pool.QueryRow(ctx, `
SELECT COUNT(*)
FROM reports
WHERE tenant_id = $1 AND status = 'pending'
`, tenantID).Scan(&count); err != nil {
		return 0, fmt.Errorf("count pending reports: %w", err)
	}

	return count, nil
}
