// Package render turns session state into HTML. Each page has its own
// livetemplate template; the document template wraps whichever page is
// selected.
package render

import (
	"bytes"
	"embed"
	"fmt"
	"html"
	"html/template"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/livetemplate/livetemplate"

	website "github.com/focusondelaine/website"
	"github.com/focusondelaine/website/internal/content"
)

//go:embed templates
var templateFS embed.FS

const (
	documentFile = "document.html"
	partialsFile = "partials.html"
)

// View is everything a page template reads.
type View struct {
	Page        website.Page
	Site        *content.Site
	Form        website.ContactForm
	MailLink    string
	BookingURL  string
	Transitions bool
	Year        int
	Title       string
	WSPath      string
}

// templateData is what the templates execute against. livetemplate hands
// templates the exported fields of the value it is given, so everything a
// template reads has to be a field here.
type templateData struct {
	Page         website.Page
	Site         *content.Site
	Form         website.ContactForm
	MailLinkAttr template.HTMLAttr
	BookingURL   string
	Transitions  bool
	Year         int
	Title        string
	WSPath       string
	Nav          []website.Page
	Content      template.HTML
}

func (v View) data() templateData {
	return templateData{
		Page:         v.Page,
		Site:         v.Site,
		Form:         v.Form,
		MailLinkAttr: mailLinkAttr(v.MailLink),
		BookingURL:   v.BookingURL,
		Transitions:  v.Transitions,
		Year:         v.Year,
		Title:        v.Title,
		WSPath:       v.WSPath,
		Nav:          website.Pages(),
	}
}

// mailLinkAttr emits the href as built. In a URL attribute html/template
// would percent-encode the ' ( ) that the mail link leaves alone.
func mailLinkAttr(link string) template.HTMLAttr {
	if !strings.HasPrefix(link, "mailto:") {
		return ""
	}
	return template.HTMLAttr(`href="` + html.EscapeString(link) + `"`)
}

// Renderer executes the embedded templates.
type Renderer struct {
	pages    map[website.Page]*livetemplate.Template
	document *livetemplate.Template
}

// New parses the embedded templates. livetemplate reads templates from
// disk, so they are unpacked into a temporary directory for parsing.
func New() (*Renderer, error) {
	dir, err := os.MkdirTemp("", "delaine-templates-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create template dir: %w", err)
	}
	defer os.RemoveAll(dir)

	if err := unpackTemplates(dir); err != nil {
		return nil, err
	}

	r := &Renderer{pages: make(map[website.Page]*livetemplate.Template, len(website.Pages()))}

	r.document, err = livetemplate.New("document", templateOptions(filepath.Join(dir, documentFile))...)
	if err != nil {
		return nil, fmt.Errorf("failed to parse document template: %w", err)
	}

	for _, p := range website.Pages() {
		pageFile := filepath.Join(dir, "pages", p.String()+".html")
		if _, err := os.Stat(pageFile); err != nil {
			return nil, fmt.Errorf("no template for page %s", p)
		}

		// The entry file is what makes page-<name> the executed template
		// rather than one of the partials defined beside it.
		entry := filepath.Join(dir, "entry-"+p.String()+".html")
		if err := os.WriteFile(entry, []byte(fmt.Sprintf("{{template %q .}}", templateName(p))), 0o644); err != nil {
			return nil, fmt.Errorf("failed to write entry for page %s: %w", p, err)
		}

		tmpl, err := livetemplate.New(p.String(), templateOptions(entry, filepath.Join(dir, partialsFile), pageFile)...)
		if err != nil {
			return nil, fmt.Errorf("failed to parse %s template: %w", p, err)
		}
		r.pages[p] = tmpl
	}
	return r, nil
}

// MustNew is New for package-level initialization and tests.
func MustNew() *Renderer {
	r, err := New()
	if err != nil {
		panic(err)
	}
	return r
}

// The browser session runs over the server's own websocket, so
// livetemplate's upgrader and loading indicator stay off.
func templateOptions(files ...string) []livetemplate.Option {
	return []livetemplate.Option{
		livetemplate.WithParseFiles(files...),
		livetemplate.WithWebSocketDisabled(),
		livetemplate.WithLoadingDisabled(),
	}
}

func unpackTemplates(dir string) error {
	return fs.WalkDir(templateFS, "templates", func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel("templates", path)
		if err != nil {
			return err
		}
		target := filepath.Join(dir, rel)
		if d.IsDir() {
			return os.MkdirAll(target, 0o755)
		}
		data, err := templateFS.ReadFile(path)
		if err != nil {
			return err
		}
		return os.WriteFile(target, data, 0o644)
	})
}

func templateName(p website.Page) string {
	return "page-" + p.String()
}

// Page writes only the selected page's section.
func (r *Renderer) Page(w io.Writer, v View) error {
	if !v.Page.Valid() {
		return &website.UnknownPageError{Value: v.Page.String()}
	}
	if v.Site == nil {
		return fmt.Errorf("render %s: no site content", v.Page)
	}
	if err := r.pages[v.Page].Execute(w, v.data()); err != nil {
		return fmt.Errorf("render %s: %w", v.Page, err)
	}
	return nil
}

// PageHTML renders the selected page to a string.
func (r *Renderer) PageHTML(v View) (string, error) {
	var buf bytes.Buffer
	if err := r.Page(&buf, v); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// Document writes the full HTML document: layout plus the selected page.
func (r *Renderer) Document(w io.Writer, v View) error {
	page, err := r.PageHTML(v)
	if err != nil {
		return err
	}

	data := v.data()
	data.Content = template.HTML(page)

	// Render into a buffer so a template error never leaves a half-written response.
	var buf bytes.Buffer
	if err := r.document.Execute(&buf, data); err != nil {
		return fmt.Errorf("render document: %w", err)
	}
	_, err = buf.WriteTo(w)
	return err
}
