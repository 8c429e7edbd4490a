package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/rentlify/internal/model"
)

// PostgresLeaseRepo はPostgreSQLを使用した賃貸借契約リポジトリ。
type PostgresLeaseRepo struct {
	db *sql.DB
}

// NewPostgresLeaseRepo はPostgresLeaseRepoを生成する。
func NewPostgresLeaseRepo(db *sql.DB) *PostgresLeaseRepo {
	return &PostgresLeaseRepo{db: db}
}

// Create は契約を作成する。
func (r *PostgresLeaseRepo) Create(ctx context.Context, lease *model.Lease) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO leases (id, property_id, tenant_id, rent, start_date, end_date, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		lease.ID, lease.PropertyID, lease.TenantID, lease.Rent,
		lease.StartDate, lease.EndDate, lease.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create lease: %w", err)
	}
	return nil
}

// FindByID は指定IDの契約を取得する。存在しない場合はnilを返す。
func (r *PostgresLeaseRepo) FindByID(ctx context.Context, id string) (*model.Lease, error) {
	lease := &model.Lease{}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, property_id, tenant_id, rent, start_date, end_date, created_at
		 FROM leases
		 WHERE id = $1`,
		id,
	).Scan(&lease.ID, &lease.PropertyID, &lease.TenantID, &lease.Rent,
		&lease.StartDate, &lease.EndDate, &lease.CreatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find lease: %w", err)
	}

	return lease, nil
}

// List は全契約を新しい順に取得する。
func (r *PostgresLeaseRepo) List(ctx context.Context) ([]*model.Lease, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, property_id, tenant_id, rent, start_date, end_date, created_at
		 FROM leases
		 ORDER BY created_at DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list leases: %w", err)
	}
	defer rows.Close()

	return scanLeases(rows)
}

// ListByTenant は指定入居者の契約一覧を取得する。
func (r *PostgresLeaseRepo) ListByTenant(ctx context.Context, tenantID string) ([]*model.Lease, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, property_id, tenant_id, rent, start_date, end_date, created_at
		 FROM leases
		 WHERE tenant_id = $1
		 ORDER BY created_at DESC`,
		tenantID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list leases by tenant: %w", err)
	}
	defer rows.Close()

	return scanLeases(rows)
}

func scanLeases(rows *sql.Rows) ([]*model.Lease, error) {
	leases := []*model.Lease{}
	for rows.Next() {
		lease := &model.Lease{}
		if err := rows.Scan(&lease.ID, &lease.PropertyID, &lease.TenantID,
			&lease.Rent, &lease.StartDate, &lease.EndDate, &lease.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan lease: %w", err)
		}
		leases = append(leases, lease)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate leases: %w", err)
	}
	return leases, nil
}

// compile-time interface check
var _ LeaseRepository = (*PostgresLeaseRepo)(nil)
