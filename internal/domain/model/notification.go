package model

// EmailMessage is one plain-text email.
type EmailMessage struct {
	To      string
	Subject string
	Body    string
}
