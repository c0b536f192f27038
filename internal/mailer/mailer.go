package mailer

import (
	"fmt"

	"pixelboard/internal/config"

	mail "github.com/go-mail/mail"
)

// Mailer sends notification emails over SMTP. New returns nil when no SMTP
// host is configured, which callers treat as notifications disabled.
type Mailer struct {
	dialer *mail.Dialer
	from   string
}

func New(cfg *config.Config) *Mailer {
	if cfg.SMTPHost == "" {
		return nil
	}
	return &Mailer{
		dialer: mail.NewDialer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPassword),
		from:   cfg.SMTPFrom,
	}
}

// SendFriendRequest notifies a user that someone wants to be their friend.
func (m *Mailer) SendFriendRequest(toEmail, fromUsername string) error {
	msg := mail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", toEmail)
	msg.SetHeader("Subject", fmt.Sprintf("%s sent you a friend request on PixelBoard", fromUsername))
	msg.SetBody("text/plain", fmt.Sprintf("%s wants to be your friend. Sign in to accept or reject the request.", fromUsername))
	msg.AddAlternative("text/html", fmt.Sprintf("<p><strong>%s</strong> wants to be your friend. Sign in to accept or reject the request.</p>", fromUsername))

	return m.dialer.DialAndSend(msg)
}
