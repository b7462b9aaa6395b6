// Package mailer is the outbound email seam. Delivery itself is external;
// LogMailer records what would be sent.
package mailer

import (
	"context"
	"strings"
	"time"

	"estatehub.app/internal/auth"
	"estatehub.app/internal/estate"
	"estatehub.app/internal/obs"
)

// Mailer sends the transactional messages the API produces.
type Mailer interface {
	SendWelcome(ctx context.Context, u *auth.User) error
	SendPasswordReset(ctx context.Context, u *auth.User, rawToken string, expiresAt time.Time) error
	SendReceipt(ctx context.Context, to estate.Person, r estate.Receipt) error
}

var (
	_ Mailer               = (*LogMailer)(nil)
	_ auth.ResetNotifier   = (*LogMailer)(nil)
	_ estate.ReceiptSender = (*LogMailer)(nil)
)

// LogMailer writes one structured log line per message. Secrets are masked.
type LogMailer struct {
	from string
}

func NewLogMailer(from string) *LogMailer {
	if from == "" {
		from = "no-reply@estatehub.app"
	}
	return &LogMailer{from: from}
}

func (m *LogMailer) SendWelcome(_ context.Context, u *auth.User) error {
	m.log("welcome", u.Email, map[string]any{"full_name": u.FullName, "role": string(u.Role)})
	return nil
}

func (m *LogMailer) SendPasswordReset(_ context.Context, u *auth.User, rawToken string, expiresAt time.Time) error {
	m.log("password_reset", u.Email, map[string]any{
		"token":      Mask(rawToken),
		"expires_at": expiresAt.UTC().Format(time.RFC3339),
	})
	return nil
}

func (m *LogMailer) SendReceipt(_ context.Context, to estate.Person, r estate.Receipt) error {
	m.log("payment_receipt", to.Email, map[string]any{
		"receipt_number": r.ReceiptNumber,
		"amount":         r.Amount,
		"property":       r.PropertyName,
	})
	return nil
}

func (m *LogMailer) log(template, to string, fields map[string]any) {
	fields["template"] = template
	fields["from"] = m.from
	fields["to"] = to
	obs.Info("mail_queued", fields)
}

// Mask keeps the first and last four characters of secret.
func Mask(secret string) string {
	if len(secret) <= 8 {
		return strings.Repeat("*", len(secret))
	}
	return secret[:4] + strings.Repeat("*", len(secret)-8) + secret[len(secret)-4:]
}
