package core

import "net/mail"

// EmailMessage is a plain-text email to one or more recipients.
type EmailMessage struct {
	To          []mail.Address
	Subject     string
	TextContent string
}

func (m EmailMessage) HasRecipients() bool { return len(m.To) > 0 }

func (m EmailMessage) HasContent() bool { return m.TextContent != "" }

// EmailService sends messages asynchronously; failures are logged, never returned.
type EmailService interface {
	SendMessages(messages ...*EmailMessage)
}
