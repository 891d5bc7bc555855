package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/DaniDitu/LoveLink-sub000/internal/domain/model"
)

var ErrTenantNotFound = errors.New("tenant not found")

type TenantRepo struct {
	pool *pgxpool.Pool
}

func NewTenantRepo(pool *pgxpool.Pool) *TenantRepo {
	return &TenantRepo{pool: pool}
}

func (r *TenantRepo) Get(ctx context.Context, tenantID string) (model.Tenant, error) {
	if tenantID == "" {
		return model.Tenant{}, fmt.Errorf("tenant id is required")
	}
	if r.pool == nil {
		return model.Tenant{}, fmt.Errorf("postgres pool is nil")
	}

	var (
		tenant    model.Tenant
		policyRaw []byte
	)
	err := r.pool.QueryRow(ctx, `
SELECT id, name, chat_policy, created_at
FROM tenants
WHERE id = $1
LIMIT 1
`, tenantID).Scan(&tenant.ID, &tenant.Name, &policyRaw, &tenant.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Tenant{}, ErrTenantNotFound
		}
		return model.Tenant{}, fmt.Errorf("get tenant: %w", err)
	}

	if len(policyRaw) > 0 {
		if err := json.Unmarshal(policyRaw, &tenant.ChatPolicy); err != nil {
			return model.Tenant{}, fmt.Errorf("unmarshal chat policy: %w", err)
		}
	}

	return tenant, nil
}
