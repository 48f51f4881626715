package website

import (
	"context"
	"strconv"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/livetemplate/livetemplate"
)

// Session actions understood by HandleAction.
const (
	ActionNavigate      = "navigate"
	ActionUpdateContact = "updateContact"
	ActionResetContact  = "resetContact"
)

// Session is the runtime state of one visitor's view of the site:
// the displayed page and the contact form.
type Session struct {
	mu sync.RWMutex

	id     string
	nav    Navigator
	form   ContactForm
	mailer MailBuilder
}

// Snapshot is a consistent copy of a Session's state, used for rendering.
type Snapshot struct {
	ID       string
	Page     Page
	Form     ContactForm
	MailLink string
}

// NewSession creates a session showing Home with an empty contact form.
func NewSession(mailer MailBuilder) *Session {
	return &Session{
		id:     uuid.NewString(),
		mailer: mailer,
	}
}

// ID returns the session identifier used in logs.
func (s *Session) ID() string {
	return s.id
}

// CurrentPage returns the page being displayed.
func (s *Session) CurrentPage() Page {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.nav.Current()
}

// Navigate displays target.
func (s *Session) Navigate(target Page) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nav.Navigate(target)
}

// Form returns the current contact form.
func (s *Session) Form() ContactForm {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.form
}

// SetField replaces one contact form field. It reports false for an
// unknown field name and leaves the form unchanged.
func (s *Session) SetField(field, value string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	form, ok := s.form.With(field, value)
	if ok {
		s.form = form
	}
	return ok
}

// ResetForm clears the contact form.
func (s *Session) ResetForm() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.form = ContactForm{}
}

// MailLink builds the mailto link from the form as it is right now.
func (s *Session) MailLink() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.mailer.Build(s.form)
}

// Snapshot returns the page, form and mail link read under one lock.
func (s *Session) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Snapshot{
		ID:       s.id,
		Page:     s.nav.Current(),
		Form:     s.form,
		MailLink: s.mailer.Build(s.form),
	}
}

// HandleAction applies an action sent by the browser.
// Action names match case-insensitively.
func (s *Session) HandleAction(ctx context.Context, action string, data map[string]interface{}) error {
	if data == nil {
		data = make(map[string]interface{})
	}
	actx := livetemplate.NewContext(ctx, action, data)

	switch strings.ToLower(action) {
	case strings.ToLower(ActionNavigate):
		return s.handleNavigate(action, actx)
	case strings.ToLower(ActionUpdateContact):
		return s.handleUpdateContact(action, actx)
	case strings.ToLower(ActionResetContact):
		s.ResetForm()
		return nil
	default:
		return NewActionError(action, "unknown action").
			WithHint("use navigate, updateContact or resetContact")
	}
}

func (s *Session) handleNavigate(action string, ctx *livetemplate.Context) error {
	target, err := ParsePage(ctx.GetString("page"))
	if err != nil {
		return NewActionError(action, "invalid page").WithCause(err)
	}
	s.Navigate(target)
	return nil
}

func (s *Session) handleUpdateContact(action string, ctx *livetemplate.Context) error {
	field := ctx.GetString("field")
	if !s.SetField(field, ctx.GetString("value")) {
		return NewActionError(action, "unknown field "+strconv.Quote(field)).
			WithHint("field must be name, email or message")
	}
	return nil
}
