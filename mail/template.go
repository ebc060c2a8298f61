package mail

import (
	"bytes"
	_ "embed"
	"html/template"
	"time"
)

const resetSubject = "Password Reset Request"

//go:embed templates/reset_password.html.tmpl
var resetPasswordHTML string

var resetTemplate = template.Must(template.New("reset_password").Parse(resetPasswordHTML))

type resetData struct {
	Link string
	Year int
}

// ComposePasswordReset builds the subject, plain-text body, and HTML body
// for a password reset email. The text body carries the wording clients
// have come to depend on; the HTML body is a rendered alternative of the
// same content.
func ComposePasswordReset(link string) (subject, textBody, htmlBody string) {
	textBody = "Click the link below to reset your password:\n\n" + link + "\n\nThis link expires in 15 minutes."

	var buf bytes.Buffer
	if err := resetTemplate.Execute(&buf, resetData{Link: link, Year: time.Now().Year()}); err == nil {
		htmlBody = buf.String()
	}

	return resetSubject, textBody, htmlBody
}
