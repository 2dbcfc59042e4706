package notifications

import "github.com/sentinel-labs/financial-sentinel/internal/models"

// NotificationInterface defines the contract for notification services
type NotificationInterface interface {
	SendAlert(alert *models.Alert) error
}
