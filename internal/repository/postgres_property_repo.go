package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/rentlify/internal/model"
)

// PostgresPropertyRepo はPostgreSQLを使用した物件リポジトリ。
type PostgresPropertyRepo struct {
	db *sql.DB
}

// NewPostgresPropertyRepo はPostgresPropertyRepoを生成する。
func NewPostgresPropertyRepo(db *sql.DB) *PostgresPropertyRepo {
	return &PostgresPropertyRepo{db: db}
}

// Create は物件を作成する。
func (r *PostgresPropertyRepo) Create(ctx context.Context, property *model.Property) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO properties (id, manager_id, name, address, rent, beds, baths, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		property.ID, property.ManagerID, property.Name, property.Address,
		property.Rent, property.Beds, property.Baths, property.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create property: %w", err)
	}
	return nil
}

// FindByID は指定IDの物件を取得する。存在しない場合はnilを返す。
func (r *PostgresPropertyRepo) FindByID(ctx context.Context, id string) (*model.Property, error) {
	property := &model.Property{}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, manager_id, name, address, rent, beds, baths, created_at
		 FROM properties
		 WHERE id = $1`,
		id,
	).Scan(&property.ID, &property.ManagerID, &property.Name, &property.Address,
		&property.Rent, &property.Beds, &property.Baths, &property.CreatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find property: %w", err)
	}

	return property, nil
}

// List は全物件を作成日時の降順で取得する。
func (r *PostgresPropertyRepo) List(ctx context.Context) ([]*model.Property, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, manager_id, name, address, rent, beds, baths, created_at
		 FROM properties
		 ORDER BY created_at DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list properties: %w", err)
	}
	defer rows.Close()

	return scanProperties(rows)
}

// ListByManager は指定管理者の物件一覧を取得する。
func (r *PostgresPropertyRepo) ListByManager(ctx context.Context, managerID string) ([]*model.Property, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, manager_id, name, address, rent, beds, baths, created_at
		 FROM properties
		 WHERE manager_id = $1
		 ORDER BY created_at DESC`,
		managerID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list properties by manager: %w", err)
	}
	defer rows.Close()

	return scanProperties(rows)
}

func scanProperties(rows *sql.Rows) ([]*model.Property, error) {
	properties := []*model.Property{}
	for rows.Next() {
		property := &model.Property{}
		if err := rows.Scan(&property.ID, &property.ManagerID, &property.Name,
			&property.Address, &property.Rent, &property.Beds, &property.Baths,
			&property.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan property: %w", err)
		}
		properties = append(properties, property)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate properties: %w", err)
	}
	return properties, nil
}

// compile-time interface check
var _ PropertyRepository = (*PostgresPropertyRepo)(nil)
