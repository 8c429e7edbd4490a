// Package repository はデータ永続化層のインターフェースとPostgreSQL実装を提供する。
package repository

import (
	"context"

	"github.com/hitoshi/rentlify/internal/model"
)

// UserRepository はユーザーの永続化を行う。
type UserRepository interface {
	// Create はユーザーを作成する。
	Create(ctx context.Context, user *model.User) error
	// FindByID は指定IDのユーザーを取得する。存在しない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.User, error)
	// FindByEmail は指定メールアドレスのユーザーを取得する。存在しない場合はnilを返す。
	FindByEmail(ctx context.Context, email string) (*model.User, error)
	// Update はユーザーの名前・メールアドレスを更新する。
	Update(ctx context.Context, user *model.User) error
}

// PropertyRepository は物件の永続化を行う。
type PropertyRepository interface {
	// Create は物件を作成する。
	Create(ctx context.Context, property *model.Property) error
	// FindByID は指定IDの物件を取得する。存在しない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Property, error)
	// List は全物件を作成日時の降順で取得する。
	List(ctx context.Context) ([]*model.Property, error)
	// ListByManager は指定管理者の物件一覧を取得する。
	ListByManager(ctx context.Context, managerID string) ([]*model.Property, error)
}

// ApplicationFilter は入居申込の検索条件。空フィールドは条件に含めない。
type ApplicationFilter struct {
	TenantID   string
	PropertyID string
}

// ApplicationRepository は入居申込の永続化を行う。
type ApplicationRepository interface {
	// Create は入居申込を作成する。
	Create(ctx context.Context, application *model.Application) error
	// FindByID は指定IDの申込を取得する。存在しない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Application, error)
	// List はフィルタ条件に合致する申込一覧を取得する。
	List(ctx context.Context, filter ApplicationFilter) ([]*model.Application, error)
	// UpdateStatus は申込のステータスを更新する。
	UpdateStatus(ctx context.Context, id string, status model.ApplicationStatus) error
}

// LeaseRepository は賃貸借契約の永続化を行う。
type LeaseRepository interface {
	// Create は契約を作成する。
	Create(ctx context.Context, lease *model.Lease) error
	// FindByID は指定IDの契約を取得する。存在しない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Lease, error)
	// List は全契約を取得する。
	List(ctx context.Context) ([]*model.Lease, error)
	// ListByTenant は指定入居者の契約一覧を取得する。
	ListByTenant(ctx context.Context, tenantID string) ([]*model.Lease, error)
}

// MessageRepository はメッセージの永続化を行う。
type MessageRepository interface {
	// Create はメッセージを作成する。
	Create(ctx context.Context, message *model.Message) error
	// ListByUser は指定ユーザーが送信または受信したメッセージを新しい順に取得する。
	ListByUser(ctx context.Context, userID string) ([]*model.Message, error)
	// ListConversation は2ユーザー間のメッセージを古い順に取得する。
	ListConversation(ctx context.Context, userA, userB string) ([]*model.Message, error)
}
