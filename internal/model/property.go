package model

import "time"

// Property は賃貸物件を表す。
type Property struct {
	ID        string    `json:"id"`
	ManagerID string    `json:"managerId"`
	Name      string    `json:"name"`
	Address   string    `json:"address"`
	Rent      int64     `json:"rent"`  // 月額賃料（最小通貨単位）
	Beds      int       `json:"beds"`
	Baths     int       `json:"baths"`
	CreatedAt time.Time `json:"createdAt"`
}

// ApplicationStatus は入居申込のステータスを表す。
type ApplicationStatus string

const (
	// ApplicationPending は審査待ちの申込。
	ApplicationPending ApplicationStatus = "pending"
	// ApplicationApproved は承認された申込。
	ApplicationApproved ApplicationStatus = "approved"
	// ApplicationDenied は却下された申込。
	ApplicationDenied ApplicationStatus = "denied"
)

// ValidApplicationStatus はステータスが定義済みの値であるかを返す。
func ValidApplicationStatus(s ApplicationStatus) bool {
	return s == ApplicationPending || s == ApplicationApproved || s == ApplicationDenied
}

// Application は物件への入居申込を表す。
type Application struct {
	ID         string            `json:"id"`
	PropertyID string            `json:"propertyId"`
	TenantID   string            `json:"tenantId"`
	Status     ApplicationStatus `json:"status"`
	Message    string            `json:"message"`
	CreatedAt  time.Time         `json:"createdAt"`
}

// Lease は賃貸借契約を表す。
type Lease struct {
	ID         string    `json:"id"`
	PropertyID string    `json:"propertyId"`
	TenantID   string    `json:"tenantId"`
	Rent       int64     `json:"rent"`
	StartDate  time.Time `json:"startDate"`
	EndDate    time.Time `json:"endDate"`
	CreatedAt  time.Time `json:"createdAt"`
}

// Message はユーザー間のメッセージを表す。
// 保存後、リアルタイムブリッジ経由で受信者へ配信される（ベストエフォート）。
type Message struct {
	ID          string    `json:"id"`
	SenderID    string    `json:"senderId"`
	RecipientID string    `json:"recipientId"`
	Body        string    `json:"body"`
	CreatedAt   time.Time `json:"createdAt"`
}
