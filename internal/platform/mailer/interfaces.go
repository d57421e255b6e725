package mailer

type Service interface {
	Send(toEmail, toName, subject, text, html string) (string, error)
	SendVerdict(toEmail, productName string, accepted bool) error
}
