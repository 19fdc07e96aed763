package api

import "log"

// Mailer delivers verification mail. Actual delivery is an external
// collaborator concern; the server only depends on this interface.
type Mailer interface {
	Send(to, subject, body string) error
}

// LogMailer writes outbound mail to the server log. It stands in for a
// real delivery backend in development and tests.
type LogMailer struct {
	log *log.Logger
}

func NewLogMailer(logger *log.Logger) *LogMailer {
	return &LogMailer{log: logger}
}

func (m *LogMailer) Send(to, subject, body string) error {
	m.log.Printf("mail to %s: %s: %s", to, subject, body)
	return nil
}
