package mailer

import "embed"

const (
	FromName                 = "Kerbside Auto Body"
	maxRetries               = 3
	UserActivationTemplate   = "user_activation.tmpl"
	BookingConfirmedTemplate = "booking_confirmed.tmpl"
	BookingCompletedTemplate = "booking_completed.tmpl"
)

//go:embed "templates"
var FS embed.FS

type Client interface {
	Send(templateFile, username, email string, data any) (int, error)
}
