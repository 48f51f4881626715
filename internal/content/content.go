// Package content holds the copy shown on each page of the site.
// The built-in copy is embedded; a directory containing a site.yaml can
// replace it.
package content

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"gopkg.in/yaml.v3"

	website "github.com/focusondelaine/website"
)

// FileName is the copy file looked up in a content directory.
const FileName = "site.yaml"

//go:embed site.yaml
var builtinFS embed.FS

var markdown = goldmark.New(
	goldmark.WithExtensions(extension.Typographer),
)

// Markdown is a copy field written in markdown and rendered to HTML when
// the content is loaded.
type Markdown struct {
	Source string
	HTML   template.HTML
}

// UnmarshalYAML renders the scalar through goldmark.
func (m *Markdown) UnmarshalYAML(node *yaml.Node) error {
	var src string
	if err := node.Decode(&src); err != nil {
		return err
	}
	html, err := RenderMarkdown(src)
	if err != nil {
		return fmt.Errorf("line %d: %w", node.Line, err)
	}
	m.Source = src
	m.HTML = html
	return nil
}

// RenderMarkdown converts markdown to HTML. Raw HTML in the source is
// dropped by goldmark's default renderer.
func RenderMarkdown(src string) (template.HTML, error) {
	var buf bytes.Buffer
	if err := markdown.Convert([]byte(src), &buf); err != nil {
		return "", fmt.Errorf("render markdown: %w", err)
	}
	return template.HTML(strings.TrimSpace(buf.String())), nil
}

// Site is every piece of copy on the site.
type Site struct {
	Business  Business  `yaml:"business"`
	Home      Home      `yaml:"home"`
	About     About     `yaml:"about"`
	Portfolio Portfolio `yaml:"portfolio"`
	Pricing   Pricing   `yaml:"pricing"`
	Book      Book      `yaml:"book"`
}

// Business identifies the firm in the header, top bar and footer.
type Business struct {
	Name        string `yaml:"name"`
	LegalName   string `yaml:"legal_name"`
	Division    string `yaml:"division"`
	Tagline     string `yaml:"tagline"`
	Phone       string `yaml:"phone"`
	Email       string `yaml:"email"`
	ServiceArea string `yaml:"service_area"`
	TopBar      string `yaml:"top_bar"`
}

// Section is the centered eyebrow/title/subtitle block that opens a page.
type Section struct {
	Eyebrow  string `yaml:"eyebrow"`
	Title    string `yaml:"title"`
	Subtitle string `yaml:"subtitle"`
}

// Stat is a value/label tile on the home page.
type Stat struct {
	Value string `yaml:"value"`
	Label string `yaml:"label"`
}

// Shortcut is a card linking to another page.
type Shortcut struct {
	Page  website.Page `yaml:"page"`
	Title string       `yaml:"title"`
	Note  string       `yaml:"note"`
}

// Home is the landing page with the contact form.
type Home struct {
	Badges          []string   `yaml:"badges"`
	Headline        string     `yaml:"headline"`
	Lede            Markdown   `yaml:"lede"`
	Stats           []Stat     `yaml:"stats"`
	HighlightsTitle string     `yaml:"highlights_title"`
	HighlightsBadge string     `yaml:"highlights_badge"`
	Highlights      []string   `yaml:"highlights"`
	Shortcuts       []Shortcut `yaml:"shortcuts"`
	Next            Markdown   `yaml:"next"`
	Contact         Section    `yaml:"contact"`
	ContactNote     string     `yaml:"contact_note"`
	CompanyTitle    string     `yaml:"company_title"`
	Tip             Markdown   `yaml:"tip"`
}

// About describes the firm.
type About struct {
	Section  Section  `yaml:"section"`
	WhoWeAre Markdown `yaml:"who_we_are"`
	Badges   []string `yaml:"badges"`
	Values   []string `yaml:"values"`
}

// Project is one sample engagement in the portfolio.
type Project struct {
	Title        string   `yaml:"title"`
	Tags         []string `yaml:"tags"`
	Description  string   `yaml:"description"`
	Deliverables []string `yaml:"deliverables"`
}

// Callout is a titled note box.
type Callout struct {
	Title string   `yaml:"title"`
	Body  Markdown `yaml:"body"`
}

// Portfolio lists sample projects.
type Portfolio struct {
	Section  Section   `yaml:"section"`
	Projects []Project `yaml:"projects"`
	Callout  Callout   `yaml:"callout"`
}

// Tier is one pricing package.
type Tier struct {
	Name    string   `yaml:"name"`
	Price   string   `yaml:"price"`
	Tagline string   `yaml:"tagline"`
	Items   []string `yaml:"items"`
	Popular bool     `yaml:"popular"`
}

// Pricing lists the packages.
type Pricing struct {
	Section   Section `yaml:"section"`
	PriceNote string  `yaml:"price_note"`
	Tiers     []Tier  `yaml:"tiers"`
}

// Book is the scheduling page.
type Book struct {
	Section        Section  `yaml:"section"`
	BookingTitle   string   `yaml:"booking_title"`
	BookingLabel   string   `yaml:"booking_label"`
	BookingNote    string   `yaml:"booking_note"`
	DirectTitle    string   `yaml:"direct_title"`
	ChecklistTitle string   `yaml:"checklist_title"`
	Checklist      []string `yaml:"checklist"`
}

// Default returns the built-in copy.
func Default() (*Site, error) {
	return Load(builtinFS)
}

// Load reads site.yaml from fsys.
func Load(fsys fs.FS) (*Site, error) {
	data, err := fs.ReadFile(fsys, FileName)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", FileName, err)
	}

	var site Site
	if err := yaml.Unmarshal(data, &site); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", FileName, err)
	}

	if err := site.Validate(); err != nil {
		return nil, err
	}
	return &site, nil
}

// LoadDir loads the copy from dir, falling back to the built-in copy when
// dir is empty or has no site.yaml.
func LoadDir(dir string) (*Site, error) {
	if dir == "" {
		return Default()
	}
	if _, err := os.Stat(filepath.Join(dir, FileName)); errors.Is(err, fs.ErrNotExist) {
		return Default()
	}
	return Load(os.DirFS(dir))
}

// Validate rejects copy the pages cannot be rendered from.
func (s *Site) Validate() error {
	var errs []error

	if strings.TrimSpace(s.Business.Name) == "" {
		errs = append(errs, fmt.Errorf("business.name is required"))
	}

	if len(s.Pricing.Tiers) == 0 {
		errs = append(errs, fmt.Errorf("pricing.tiers must list at least one tier"))
	}
	popular := 0
	for i, tier := range s.Pricing.Tiers {
		if tier.Name == "" {
			errs = append(errs, fmt.Errorf("pricing.tiers[%d]: name is required", i))
		}
		if tier.Popular {
			popular++
		}
	}
	if popular > 1 {
		errs = append(errs, fmt.Errorf("pricing.tiers: %d tiers marked popular, at most one allowed", popular))
	}

	for i, p := range s.Portfolio.Projects {
		if strings.TrimSpace(p.Title) == "" {
			errs = append(errs, fmt.Errorf("portfolio.projects[%d]: title is required", i))
		}
	}

	return errors.Join(errs...)
}
