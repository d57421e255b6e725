package mailer

import (
	"github.com/apporbit/apporbit-server/pkg/logger"
)

// DevMailer logs mail instead of sending it.
type DevMailer struct{}

func NewDevMailer() *DevMailer {
	return &DevMailer{}
}

func (d *DevMailer) Send(toEmail, toName, subject, text, html string) (string, error) {
	logger.Info("[DEV MAIL]",
		"to", toEmail,
		"name", toName,
		"subject", subject,
		"text", text,
	)
	return "dev-mail", nil
}

func (d *DevMailer) SendVerdict(toEmail, productName string, accepted bool) error {
	verdict := "accepted"
	if !accepted {
		verdict = "rejected"
	}
	logger.Info("[DEV MAIL] Moderation verdict",
		"to", toEmail,
		"product", productName,
		"verdict", verdict,
	)
	return nil
}
