package templates

import (
	"bytes"
	"fmt"
	"html/template"
)

var verifyEmail = template.Must(template.New("verify_email").Parse(`
<p>Hi,</p>
<p>Please confirm your email address by following this link:</p>
<p><a href="{{.Link}}">Confirm email</a></p>
<p>The link expires in {{.ExpiresIn}}. If you did not sign up, ignore this message.</p>
`))

var passwordReset = template.Must(template.New("password_reset").Parse(`
<p>Hi,</p>
<p>A password reset was requested for your account. Follow this link to choose a new password:</p>
<p><a href="{{.Link}}">Reset password</a></p>
<p>The link expires in {{.ExpiresIn}}. If you did not request a reset, ignore this message.</p>
`))

// Render produces subject and HTML body for a named template.
func Render(name string, data map[string]any) (subject, html string, err error) {
	var tpl *template.Template
	switch name {
	case "verify_email":
		tpl, subject = verifyEmail, "Verify your email address"
	case "password_reset":
		tpl, subject = passwordReset, "Reset your password"
	default:
		return "", "", fmt.Errorf("unknown email template %q", name)
	}
	var buf bytes.Buffer
	if err := tpl.Execute(&buf, data); err != nil {
		return "", "", err
	}
	return subject, buf.String(), nil
}
