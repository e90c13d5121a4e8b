// Package email envía los correos transaccionales del sistema
// (confirmación de cuenta y reset de password).
package email

// Sender abstrae el transporte de correo.
type Sender interface {
	// Send envía un email con contenido HTML y texto plano.
	Send(to, subject, htmlBody, textBody string) error
}

// NoopSender descarta todos los emails. Para desarrollo y tests.
type NoopSender struct{}

func (NoopSender) Send(to, subject, htmlBody, textBody string) error { return nil }
