package models

// Notification kinds published to the notifications exchange.
const (
	NotifyPaymentOverdue   = "payment_overdue"
	NotifyPaymentConfirmed = "payment_confirmed"
	NotifyLoanOverdue      = "loan_overdue"
	NotifyTicketReleased   = "ticket_released"
)

// Notification is the message consumed by the notification-sender and
// delivered by e-mail.
type Notification struct {
	Kind     string `json:"kind"`
	UserUID  string `json:"user_uid"`
	Email    string `json:"email"`
	FullName string `json:"full_name"`
	Subject  string `json:"subject"`
	Body     string `json:"body"`
}
