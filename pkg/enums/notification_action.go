package enums

import "fmt"

// NotificationAction names the template the notification service renders.
type NotificationAction string

const (
	NotificationInvoiceSentToOwner         NotificationAction = "invoice_sent_to_owner"
	NotificationInvoicePaymentSucceeded    NotificationAction = "invoice_payment_succeeded"
	NotificationInvoicePaymentFailed       NotificationAction = "invoice_payment_failed"
	NotificationPaymentMethodAdded         NotificationAction = "payment_method_added"
	NotificationPaymentMethodFailed        NotificationAction = "payment_method_failed"
	NotificationMembershipPaymentSucceeded NotificationAction = "membership_payment_succeeded"
	NotificationMembershipPaymentFailed    NotificationAction = "membership_payment_failed"
)

var validNotificationActions = []NotificationAction{
	NotificationInvoiceSentToOwner,
	NotificationInvoicePaymentSucceeded,
	NotificationInvoicePaymentFailed,
	NotificationPaymentMethodAdded,
	NotificationPaymentMethodFailed,
	NotificationMembershipPaymentSucceeded,
	NotificationMembershipPaymentFailed,
}

// String implements fmt.Stringer.
func (n NotificationAction) String() string {
	return string(n)
}

// IsValid reports whether the value is a known NotificationAction.
func (n NotificationAction) IsValid() bool {
	for _, candidate := range validNotificationActions {
		if candidate == n {
			return true
		}
	}
	return false
}

// ParseNotificationAction converts raw input into a NotificationAction.
func ParseNotificationAction(value string) (NotificationAction, error) {
	for _, candidate := range validNotificationActions {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid notification action %q", value)
}
