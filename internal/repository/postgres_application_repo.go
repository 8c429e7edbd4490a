package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/rentlify/internal/model"
)

// PostgresApplicationRepo はPostgreSQLを使用した入居申込リポジトリ。
type PostgresApplicationRepo struct {
	db *sql.DB
}

// NewPostgresApplicationRepo はPostgresApplicationRepoを生成する。
func NewPostgresApplicationRepo(db *sql.DB) *PostgresApplicationRepo {
	return &PostgresApplicationRepo{db: db}
}

// Create は入居申込を作成する。
func (r *PostgresApplicationRepo) Create(ctx context.Context, application *model.Application) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO applications (id, property_id, tenant_id, status, message, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		application.ID, application.PropertyID, application.TenantID,
		application.Status, application.Message, application.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create application: %w", err)
	}
	return nil
}

// FindByID は指定IDの申込を取得する。存在しない場合はnilを返す。
func (r *PostgresApplicationRepo) FindByID(ctx context.Context, id string) (*model.Application, error) {
	application := &model.Application{}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, property_id, tenant_id, status, message, created_at
		 FROM applications
		 WHERE id = $1`,
		id,
	).Scan(&application.ID, &application.PropertyID, &application.TenantID,
		&application.Status, &application.Message, &application.CreatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find application: %w", err)
	}

	return application, nil
}

// List はフィルタ条件に合致する申込一覧を新しい順に取得する。
// 空のフィルタフィールドは条件に含めない。
func (r *PostgresApplicationRepo) List(ctx context.Context, filter ApplicationFilter) ([]*model.Application, error) {
	query := `SELECT id, property_id, tenant_id, status, message, created_at
	          FROM applications WHERE 1=1`
	args := []any{}

	if filter.TenantID != "" {
		args = append(args, filter.TenantID)
		query += fmt.Sprintf(" AND tenant_id = $%d", len(args))
	}
	if filter.PropertyID != "" {
		args = append(args, filter.PropertyID)
		query += fmt.Sprintf(" AND property_id = $%d", len(args))
	}
	query += " ORDER BY created_at DESC"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list applications: %w", err)
	}
	defer rows.Close()

	applications := []*model.Application{}
	for rows.Next() {
		application := &model.Application{}
		if err := rows.Scan(&application.ID, &application.PropertyID,
			&application.TenantID, &application.Status, &application.Message,
			&application.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan application: %w", err)
		}
		applications = append(applications, application)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate applications: %w", err)
	}

	return applications, nil
}

// UpdateStatus は申込のステータスを更新する。
func (r *PostgresApplicationRepo) UpdateStatus(ctx context.Context, id string, status model.ApplicationStatus) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE applications SET status = $2 WHERE id = $1`,
		id, status,
	)
	if err != nil {
		return fmt.Errorf("failed to update application status: %w", err)
	}
	return nil
}

// compile-time interface check
var _ ApplicationRepository = (*PostgresApplicationRepo)(nil)
