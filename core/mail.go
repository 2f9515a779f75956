package core

import "net/mail"

// EmailMessage is a plain email. Both text and HTML bodies are optional
// but at least one must be set for the message to be sent.
type EmailMessage struct {
	To          []mail.Address
	Cc          []mail.Address
	Bcc         []mail.Address
	Subject     string
	TextContent string
	HTMLContent string
}

func (m EmailMessage) HasRecipients() bool {
	return len(m.To) > 0 || len(m.Cc) > 0 || len(m.Bcc) > 0
}

func (m EmailMessage) HasContent() bool {
	return m.TextContent != "" || m.HTMLContent != ""
}

// EmailService sends messages asynchronously; implementations log failures
// instead of returning them.
type EmailService interface {
	SendMessages(messages ...*EmailMessage)
}
