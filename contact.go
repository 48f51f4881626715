package website

import (
	"strings"
)

const (
	// DefaultRecipient receives every contact request.
	DefaultRecipient = "info@focusondelaine.com"

	// DefaultSubject is the subject line of every contact request.
	DefaultSubject = "Request: PCA / Energy Audit Consultation"
)

// Contact form field names, as sent by the browser.
const (
	FieldName    = "name"
	FieldEmail   = "email"
	FieldMessage = "message"
)

// ContactForm is what a visitor types before contacting the firm.
// No field is validated; any string, including "", is accepted.
type ContactForm struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Message string `json:"message"`
}

// With returns a copy of f with one field replaced.
// ok is false when field is not one of FieldName, FieldEmail or FieldMessage.
func (f ContactForm) With(field, value string) (form ContactForm, ok bool) {
	switch field {
	case FieldName:
		f.Name = value
	case FieldEmail:
		f.Email = value
	case FieldMessage:
		f.Message = value
	default:
		return f, false
	}
	return f, true
}

// Body renders the plain-text email body.
func (f ContactForm) Body() string {
	return "Name: " + f.Name + "\nEmail: " + f.Email + "\n\nMessage:\n" + f.Message
}

// MailBuilder turns a ContactForm into a mailto link for a fixed recipient
// and subject.
type MailBuilder struct {
	Recipient string
	Subject   string
}

// DefaultMailBuilder returns the builder for the firm's inbox.
func DefaultMailBuilder() MailBuilder {
	return MailBuilder{Recipient: DefaultRecipient, Subject: DefaultSubject}
}

// Build returns mailto:<recipient>?subject=<subject>&body=<body> with subject
// and body URI-component encoded. It never fails and caches nothing.
func (b MailBuilder) Build(form ContactForm) string {
	var sb strings.Builder
	sb.WriteString("mailto:")
	sb.WriteString(b.Recipient)
	sb.WriteString("?subject=")
	sb.WriteString(EncodeURIComponent(b.Subject))
	sb.WriteString("&body=")
	sb.WriteString(EncodeURIComponent(form.Body()))
	return sb.String()
}

// BuildMailLink builds the contact link with the default recipient and subject.
func BuildMailLink(form ContactForm) string {
	return DefaultMailBuilder().Build(form)
}

const upperhex = "0123456789ABCDEF"

// EncodeURIComponent percent-encodes s the way browsers encode a URI
// component: every UTF-8 byte is escaped except A-Z a-z 0-9 and - _ . ! ~ * ' ( ).
func EncodeURIComponent(s string) string {
	n := 0
	for i := 0; i < len(s); i++ {
		if !unreservedComponent(s[i]) {
			n++
		}
	}
	if n == 0 {
		return s
	}

	buf := make([]byte, 0, len(s)+2*n)
	for i := 0; i < len(s); i++ {
		c := s[i]
		if unreservedComponent(c) {
			buf = append(buf, c)
			continue
		}
		buf = append(buf, '%', upperhex[c>>4], upperhex[c&15])
	}
	return string(buf)
}

func unreservedComponent(c byte) bool {
	switch {
	case 'a' <= c && c <= 'z', 'A' <= c && c <= 'Z', '0' <= c && c <= '9':
		return true
	}
	switch c {
	case '-', '_', '.', '!', '~', '*', '\'', '(', ')':
		return true
	}
	return false
}
