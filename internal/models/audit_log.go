package models

// Audit actions recorded after a successful mutation.
const (
	AuditRegister       = "REGISTER"
	AuditLogin          = "LOGIN"
	AuditCreateExpense  = "CREATE_EXPENSE"
	AuditUpdateExpense  = "UPDATE_EXPENSE"
	AuditDeleteExpense  = "DELETE_EXPENSE"
	AuditCreateCategory = "CREATE_CATEGORY"
	AuditUpdateCategory = "UPDATE_CATEGORY"
	AuditDeleteCategory = "DELETE_CATEGORY"
)

// Audited resource types.
const (
	ResourceUser     = "user"
	ResourceExpense  = "expense"
	ResourceCategory = "category"
)

// AuditLog records every successful mutation a user performs.
type AuditLog struct {
	Base
	UserID       string `gorm:"type:uuid;not null;index" json:"user_id"`
	Action       string `gorm:"not null" json:"action"`
	ResourceType string `gorm:"not null" json:"resource_type"`
	ResourceID   string `gorm:"type:uuid" json:"resource_id"`
	IPAddress    string `json:"ip_address"`
	Changes      string `json:"changes,omitempty"`
}
