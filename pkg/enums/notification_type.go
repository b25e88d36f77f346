package enums

import "fmt"

// NotificationType maps to the notification_type enum in Postgres.
type NotificationType string

const (
	NotificationTypePaymentReceived   NotificationType = "payment_received"
	NotificationTypePaymentSuccessful NotificationType = "payment_successful"
	NotificationTypePayoutPending     NotificationType = "payout_pending"
	NotificationTypePayoutSent        NotificationType = "payout_sent"
	NotificationTypeOrderPaid         NotificationType = "order_paid"
	NotificationTypeSystem            NotificationType = "system"
)

var validNotificationTypes = []NotificationType{
	NotificationTypePaymentReceived,
	NotificationTypePaymentSuccessful,
	NotificationTypePayoutPending,
	NotificationTypePayoutSent,
	NotificationTypeOrderPaid,
	NotificationTypeSystem,
}

// IsValid checks whether the given type matches the canonical enum.
func (n NotificationType) IsValid() bool {
	for _, candidate := range validNotificationTypes {
		if candidate == n {
			return true
		}
	}
	return false
}

// ParseNotificationType converts raw strings into NotificationType.
func ParseNotificationType(value string) (NotificationType, error) {
	for _, candidate := range validNotificationTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid notification type %q", value)
}
