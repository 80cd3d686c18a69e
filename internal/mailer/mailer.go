// Package mailer sends account notices over SMTP. It is optional
// infrastructure: with no SMTP host configured, sends become no-ops
// and the caller never notices.
package mailer

import (
	"context"
	"fmt"

	"github.com/wneessen/go-mail"

	"github.com/rotzhost/rotzcoder/internal/config"
)

type Mailer struct {
	cfg config.SMTPConfig
}

func New(cfg config.SMTPConfig) *Mailer {
	return &Mailer{cfg: cfg}
}

// Enabled reports whether an SMTP host is configured.
func (m *Mailer) Enabled() bool { return m.cfg.Host != "" }

// PasswordChanged tells a user their password was changed, so a hijack
// is noticed even when the attacker rotated the credential.
func (m *Mailer) PasswordChanged(ctx context.Context, email string) error {
	const body = `Your ROTZ Coder password was just changed.

If this was you, no action is needed. If it was not, reset your
password immediately and contact support.`
	return m.send(ctx, email, "Your password was changed", body)
}

// AccountDisabled tells a user an admin disabled their account.
func (m *Mailer) AccountDisabled(ctx context.Context, email string) error {
	const body = `Your ROTZ Coder account has been disabled by an administrator.

Contact support if you believe this is a mistake.`
	return m.send(ctx, email, "Your account was disabled", body)
}

func (m *Mailer) send(ctx context.Context, to, subject, body string) error {
	if !m.Enabled() {
		return nil
	}

	msg := mail.NewMsg()
	if err := msg.From(m.cfg.From); err != nil {
		return fmt.Errorf("mail from: %w", err)
	}
	if err := msg.To(to); err != nil {
		return fmt.Errorf("mail to: %w", err)
	}
	msg.Subject(subject)
	msg.SetBodyString(mail.TypeTextPlain, body)

	opts := []mail.Option{
		mail.WithPort(m.cfg.Port),
		mail.WithTLSPolicy(mail.TLSOpportunistic),
	}
	if m.cfg.Username != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(m.cfg.Username),
			mail.WithPassword(m.cfg.Password),
		)
	}

	client, err := mail.NewClient(m.cfg.Host, opts...)
	if err != nil {
		return fmt.Errorf("smtp client: %w", err)
	}
	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("send mail: %w", err)
	}
	return nil
}
