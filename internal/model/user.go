package model

import "time"

// Role はユーザーのロールを表す閉じた列挙型。
// tenant（入居者）とmanager（管理者）の2種類のみが存在する。
type Role string

const (
	// RoleTenant は入居者ロール。
	RoleTenant Role = "tenant"
	// RoleManager は物件管理者ロール。
	RoleManager Role = "manager"
)

// Valid はロールが定義済みの値であるかを返す。
func (r Role) Valid() bool {
	return r == RoleTenant || r == RoleManager
}

// Identity は認証によって検証された(subject, role)の組を表す。
// 1リクエストまたは1ソケット接続の間だけ有効で、永続化されない。
type Identity struct {
	Subject  string    // ユーザーID
	Role     Role      // 検証済みロール
	IssuedAt time.Time // トークン発行時刻
	ExpireAt time.Time // トークン有効期限
}

// User はプラットフォームの利用者を表す。
// roleカラムによりtenant/managerを区別する。
type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Name         string    `json:"name"`
	Role         Role      `json:"role"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}
