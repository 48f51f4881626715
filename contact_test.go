package website

import (
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const mailPrefix = "mailto:info@focusondelaine.com?subject="

// decodeMailLink splits a mailto link into its recipient, subject and body.
func decodeMailLink(t *testing.T, link string) (recipient, subject, body string) {
	t.Helper()

	require.True(t, strings.HasPrefix(link, "mailto:"), "link %q", link)
	rest := strings.TrimPrefix(link, "mailto:")

	recipient, query, found := strings.Cut(rest, "?")
	require.True(t, found, "link has no query: %q", link)

	subjectPart, bodyPart, found := strings.Cut(query, "&body=")
	require.True(t, found, "link has no body: %q", link)
	require.True(t, strings.HasPrefix(subjectPart, "subject="))

	subject, err := url.PathUnescape(strings.TrimPrefix(subjectPart, "subject="))
	require.NoError(t, err)
	body, err = url.PathUnescape(bodyPart)
	require.NoError(t, err)
	return recipient, subject, body
}

func TestBuildMailLinkScenarios(t *testing.T) {
	tests := []struct {
		name string
		form ContactForm
		want string
	}{
		{
			name: "filled form",
			form: ContactForm{Name: "Jane Doe", Email: "jane@x.com", Message: "Need a PCA"},
			want: "Name: Jane Doe\nEmail: jane@x.com\n\nMessage:\nNeed a PCA",
		},
		{
			name: "empty form",
			form: ContactForm{},
			want: "Name: \nEmail: \n\nMessage:\n",
		},
		{
			name: "reserved characters",
			form: ContactForm{Name: "A&B ? C", Email: "a+b@x.com#frag", Message: "100% sure\nline two"},
			want: "Name: A&B ? C\nEmail: a+b@x.com#frag\n\nMessage:\n100% sure\nline two",
		},
		{
			name: "non-ASCII",
			form: ContactForm{Name: "Zoë Ångström", Email: "z@例え.jp", Message: "Capital plan – 1–5 years ✓"},
			want: "Name: Zoë Ångström\nEmail: z@例え.jp\n\nMessage:\nCapital plan – 1–5 years ✓",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			link := BuildMailLink(tt.form)
			assert.True(t, strings.HasPrefix(link, mailPrefix), "link %q", link)

			recipient, subject, body := decodeMailLink(t, link)
			assert.Equal(t, DefaultRecipient, recipient)
			assert.Equal(t, DefaultSubject, subject)
			assert.Equal(t, tt.want, body)
		})
	}
}

func TestBuildMailLinkEncodesSubject(t *testing.T) {
	link := BuildMailLink(ContactForm{})
	assert.True(t, strings.HasPrefix(link,
		"mailto:info@focusondelaine.com?subject=Request%3A%20PCA%20%2F%20Energy%20Audit%20Consultation&body="))
}

func TestBuildMailLinkKeepsQueryUnambiguous(t *testing.T) {
	link := BuildMailLink(ContactForm{Name: "a&body=b", Message: "x?y#z"})

	_, query, _ := strings.Cut(link, "?")
	assert.Equal(t, 1, strings.Count(query, "&"), "only the subject/body separator may be literal")
	assert.NotContains(t, query, "?")
	assert.NotContains(t, query, "#")
	assert.NotContains(t, query, "\n")
}

func TestBuildMailLinkIdempotent(t *testing.T) {
	form := ContactForm{Name: "Jane", Email: "jane@x.com", Message: "Hello\nthere"}
	assert.Equal(t, BuildMailLink(form), BuildMailLink(form))
}

func TestMailBuilderCustomRecipient(t *testing.T) {
	b := MailBuilder{Recipient: "ops@example.com", Subject: "Hi there"}
	link := b.Build(ContactForm{Name: "N"})

	recipient, subject, body := decodeMailLink(t, link)
	assert.Equal(t, "ops@example.com", recipient)
	assert.Equal(t, "Hi there", subject)
	assert.Equal(t, "Name: N\nEmail: \n\nMessage:\n", body)
}

func TestEncodeURIComponent(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"", ""},
		{"abcXYZ019", "abcXYZ019"},
		{"-_.!~*'()", "-_.!~*'()"},
		{" ", "%20"},
		{"\n", "%0A"},
		{"+", "%2B"},
		{"a&b=c?d#e%f/g:h@i", "a%26b%3Dc%3Fd%23e%25f%2Fg%3Ah%40i"},
		{"é", "%C3%A9"},
		{"✓", "%E2%9C%93"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, EncodeURIComponent(tt.in))
		})
	}
}

func TestContactFormWith(t *testing.T) {
	var form ContactForm

	form, ok := form.With(FieldName, "Jane")
	require.True(t, ok)
	form, ok = form.With(FieldEmail, "jane@x.com")
	require.True(t, ok)
	form, ok = form.With(FieldMessage, "Hi")
	require.True(t, ok)
	assert.Equal(t, ContactForm{Name: "Jane", Email: "jane@x.com", Message: "Hi"}, form)

	unchanged, ok := form.With("phone", "555")
	assert.False(t, ok)
	assert.Equal(t, form, unchanged)
}

func FuzzBuildMailLink(f *testing.F) {
	f.Add("", "", "")
	f.Add("Jane Doe", "jane@example.com", "Need a PCA")
	f.Add("O'Brien (Jr.)", "a+b@example.com", "50% off; a&b=c #1\r\n\ttab")
	f.Add("Zoë 🚀", "ünï@example.com", "line1\nline2?")
	f.Add("\xff\xfe", "%zz", "+ + +")

	f.Fuzz(func(t *testing.T, name, email, message string) {
		link := BuildMailLink(ContactForm{Name: name, Email: email, Message: message})

		query, ok := strings.CutPrefix(link, "mailto:"+DefaultRecipient+"?")
		require.True(t, ok, "link %q", link)

		values, err := url.ParseQuery(query)
		require.NoError(t, err)
		require.Len(t, values, 2)
		assert.Equal(t, []string{DefaultSubject}, values["subject"])
		assert.Equal(t, []string{"Name: " + name + "\nEmail: " + email + "\n\nMessage:\n" + message}, values["body"])
	})
}
