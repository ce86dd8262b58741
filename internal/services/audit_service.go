package services

import (
	"context"
	"encoding/json"

	"gorm.io/gorm"

	"spendwise/internal/logger"
	"spendwise/internal/models"
)

// auditService appends to the audit trail. It never fails the request
// that triggered it.
type auditService struct {
	db *gorm.DB
}

// NewAuditService creates a new AuditServicer.
func NewAuditService(db *gorm.DB) AuditServicer {
	return &auditService{db: db}
}

// Log records one mutation by userID. changes is stored as JSON; store
// errors are logged and dropped.
func (s *auditService) Log(ctx context.Context, userID, action, resourceType, resourceID, ipAddress string, changes map[string]any) {
	log := logger.Named("audit").With("user_id", userID, "action", action, "resource_id", resourceID)

	entry := &models.AuditLog{
		UserID:       userID,
		Action:       action,
		ResourceType: resourceType,
		ResourceID:   resourceID,
		IPAddress:    ipAddress,
		Changes:      encodeChanges(changes),
	}
	if entry.Changes == "" && changes != nil {
		log.Warn("audit changes could not be encoded")
	}

	if err := s.db.WithContext(ctx).Create(entry).Error; err != nil {
		log.Errorw("failed to write audit entry", "resource_type", resourceType, "error", err)
	}
}

func encodeChanges(changes map[string]any) string {
	if len(changes) == 0 {
		return ""
	}
	data, err := json.Marshal(changes)
	if err != nil {
		return ""
	}
	return string(data)
}
