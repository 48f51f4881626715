package server

import (
	"context"
	"encoding/json"
	"fmt"
	"io/fs"
	"net/http"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	website "github.com/focusondelaine/website"
	"github.com/focusondelaine/website/internal/assets"
	"github.com/focusondelaine/website/internal/cache"
	"github.com/focusondelaine/website/internal/config"
	"github.com/focusondelaine/website/internal/content"
	"github.com/focusondelaine/website/internal/render"
)

// WSPath is where the browser opens its live session.
const WSPath = "/ws"

// pageCacheTTL bounds how long a rendered page is reused. The footer year
// is the only input that changes without a reload.
const pageCacheTTL = 10 * time.Minute

// Server serves the site and owns every live session.
type Server struct {
	rootDir    string
	configPath string
	logger     *zap.Logger

	mu       sync.RWMutex
	config   *config.Config
	site     *content.Site
	renderer *render.Renderer
	pages    *cache.MemoryCache // session-independent page fragments
	gen      uint64             // bumped on every reload; part of the cache key

	connections map[*liveConn]bool // Track connected WebSocket clients
	connMu      sync.RWMutex       // Separate mutex for connections
	watcher     *Watcher           // guarded by mu

	now func() time.Time
}

// New creates a server for rootDir. The copy is loaded from the content
// directory named in cfg, relative to rootDir, or from the built-in copy.
func New(rootDir string, cfg *config.Config, logger *zap.Logger) (*Server, error) {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	renderer, err := render.New()
	if err != nil {
		return nil, err
	}

	s := &Server{
		rootDir:     rootDir,
		configPath:  filepath.Join(rootDir, config.FileName),
		logger:      logger,
		config:      cfg,
		renderer:    renderer,
		pages:       cache.NewMemoryCache(),
		connections: make(map[*liveConn]bool),
		now:         time.Now,
	}

	site, err := content.LoadDir(s.contentDir(cfg))
	if err != nil {
		return nil, fmt.Errorf("failed to load content: %w", err)
	}
	s.site = site

	return s, nil
}

// SetConfigPath changes the file Reload and the watcher read the
// configuration from.
func (s *Server) SetConfigPath(path string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.configPath = path
}

// Config returns the configuration in effect.
func (s *Server) Config() *config.Config {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.config
}

func (s *Server) contentDir(cfg *config.Config) string {
	dir := cfg.Content.Dir
	if dir == "" {
		return ""
	}
	if !filepath.IsAbs(dir) {
		dir = filepath.Join(s.rootDir, dir)
	}
	return dir
}

// Reload re-reads the configuration file and the copy. Listener and rate
// limit settings keep their startup values. On error the running
// configuration is left in place.
func (s *Server) Reload() error {
	s.mu.RLock()
	path := s.configPath
	current := s.config
	s.mu.RUnlock()

	cfg, err := config.Load(path)
	if err != nil {
		return err
	}
	cfg.Server = current.Server
	cfg.RateLimit = current.RateLimit
	cfg.Log = current.Log
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	site, err := content.LoadDir(s.contentDir(cfg))
	if err != nil {
		return fmt.Errorf("failed to load content: %w", err)
	}

	s.mu.Lock()
	s.config = cfg
	s.site = site
	s.gen++
	s.mu.Unlock()

	s.pages.InvalidateAll()
	return nil
}

// mailBuilder returns the link builder new sessions use.
func (s *Server) mailBuilder() website.MailBuilder {
	cfg := s.Config()
	mb := website.DefaultMailBuilder()
	if r := cfg.Contact.GetRecipient(); r != "" {
		mb.Recipient = r
	}
	if cfg.Contact.Subject != "" {
		mb.Subject = cfg.Contact.Subject
	}
	return mb
}

// view builds the render input for a session snapshot.
func (s *Server) view(snap website.Snapshot) render.View {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return render.View{
		Page:        snap.Page,
		Site:        s.site,
		Form:        snap.Form,
		MailLink:    snap.MailLink,
		BookingURL:  s.config.Booking.GetURL(),
		Transitions: s.config.Features.Transitions,
		Year:        s.now().Year(),
		Title:       s.config.Title,
		WSPath:      WSPath,
	}
}

// pageHTML renders the page fragment for a session. Only the home page
// carries session state, so every other page is rendered once per reload.
func (s *Server) pageHTML(snap website.Snapshot) (string, error) {
	if snap.Page == website.Home {
		return s.renderer.PageHTML(s.view(snap))
	}

	s.mu.RLock()
	key := fmt.Sprintf("%d/%s", s.gen, snap.Page)
	s.mu.RUnlock()

	if html, ok := s.pages.Get(key); ok {
		return html, nil
	}
	html, err := s.renderer.PageHTML(s.view(snap))
	if err != nil {
		return "", err
	}
	s.pages.Set(key, html, pageCacheTTL)
	return html, nil
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	// Serve WebSocket endpoint
	if r.URL.Path == WSPath {
		s.serveWebSocket(w, r)
		return
	}

	// Serve assets
	if strings.HasPrefix(r.URL.Path, "/assets/") {
		s.serveAsset(w, r)
		return
	}

	if r.URL.Path == "/healthz" {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("ok"))
		return
	}

	if r.URL.Path == "/" {
		s.serveDocument(w, r)
		return
	}

	// Pages are not addressable by path; everything else lands on home.
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// serveDocument renders the full site with the home page. Every visit
// starts a fresh session, so it always starts at home.
func (s *Server) serveDocument(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		w.Header().Set("Allow", "GET, HEAD")
		writeJSONError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	session := website.NewSession(s.mailBuilder())
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-cache")
	if err := s.renderer.Document(w, s.view(session.Snapshot())); err != nil {
		s.logger.Error("render document failed", zap.Error(err))
		http.Error(w, "render failed", http.StatusInternalServerError)
	}
}

// serveAsset serves embedded client assets.
func (s *Server) serveAsset(w http.ResponseWriter, r *http.Request) {
	name := strings.TrimPrefix(r.URL.Path, "/assets/")

	contentType := assets.ContentType(name)
	if contentType == "" {
		http.NotFound(w, r)
		return
	}

	data, err := fs.ReadFile(assets.ClientFS(), name)
	if err != nil {
		http.Error(w, "Asset not found", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", contentType)
	_, _ = w.Write(data)
}

// Handler wraps the server in its middleware chain. The returned channel
// is closed once the rate limiter's cleanup goroutine has exited after ctx
// is cancelled.
func (s *Server) Handler(ctx context.Context) (http.Handler, <-chan struct{}) {
	rl := s.Config().RateLimit
	limit, done := RateLimitMiddleware(ctx, s.logger.Named("ratelimit"), rl.GetRPS(), rl.GetBurst(), rl.GetMaxIPs())

	var h http.Handler = s
	h = WithCompression(h)
	h = limit(h)
	h = SecurityHeadersMiddleware()(h)
	return h, done
}

// registerConnection adds a live session to the tracked connections.
func (s *Server) registerConnection(c *liveConn) {
	s.connMu.Lock()
	defer s.connMu.Unlock()
	s.connections[c] = true
	s.logger.Debug("connection registered",
		zap.String("session", c.session.ID()),
		zap.Int("active", len(s.connections)))
}

// unregisterConnection removes a live session from tracked connections.
func (s *Server) unregisterConnection(c *liveConn) {
	s.connMu.Lock()
	defer s.connMu.Unlock()
	delete(s.connections, c)
	s.logger.Debug("connection unregistered",
		zap.String("session", c.session.ID()),
		zap.Int("active", len(s.connections)))
}

// ConnectionCount returns the number of live sessions.
func (s *Server) ConnectionCount() int {
	s.connMu.RLock()
	defer s.connMu.RUnlock()
	return len(s.connections)
}

// BroadcastReload tells every connected browser to reload.
func (s *Server) BroadcastReload(filePath string) {
	s.connMu.RLock()
	defer s.connMu.RUnlock()

	if len(s.connections) == 0 {
		return
	}

	msg := MessageEnvelope{Action: ActionReload}
	s.logger.Info("broadcasting reload",
		zap.String("file", filePath),
		zap.Int("connections", len(s.connections)))

	for c := range s.connections {
		if err := c.send(msg); err != nil {
			s.logger.Warn("failed to send reload", zap.String("session", c.session.ID()), zap.Error(err))
		}
	}
}

// EnableWatch reloads config and content when either changes on disk and
// tells connected browsers to reload.
func (s *Server) EnableWatch() error {
	s.mu.RLock()
	dirs := []string{filepath.Dir(s.configPath)}
	if dir := s.contentDir(s.config); dir != "" {
		dirs = append(dirs, dir)
	}
	s.mu.RUnlock()

	log := s.logger.Named("watch")
	watcher, err := NewWatcher(dirs, func(filePath string) error {
		if err := s.Reload(); err != nil {
			return fmt.Errorf("failed to reload: %w", err)
		}
		s.BroadcastReload(filePath)
		return nil
	}, log)
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}

	watcher.Start()
	s.mu.Lock()
	prev := s.watcher
	s.watcher = watcher
	s.mu.Unlock()
	if prev != nil {
		_ = prev.Stop()
	}

	log.Info("file watcher started", zap.Strings("dirs", dirs))
	return nil
}

// StopWatch stops the file watcher if it's running.
func (s *Server) StopWatch() error {
	// Detach under the lock so concurrent callers stop the watcher once.
	// Stopping happens unlocked: a reload in flight needs s.mu.
	s.mu.Lock()
	w := s.watcher
	s.watcher = nil
	s.mu.Unlock()

	if w == nil {
		return nil
	}
	return w.Stop()
}

// Close stops the watcher and closes every live session. http.Server's
// Shutdown does not track hijacked connections, so callers run both.
func (s *Server) Close() error {
	err := s.StopWatch()
	s.pages.Stop()

	s.connMu.RLock()
	conns := make([]*liveConn, 0, len(s.connections))
	for c := range s.connections {
		conns = append(conns, c)
	}
	s.connMu.RUnlock()

	for _, c := range conns {
		c.close(websocketGoingAway)
	}
	return err
}

// encodeEnvelope marshals an envelope whose data is any JSON value.
func encodeEnvelope(action string, data interface{}) (MessageEnvelope, error) {
	env := MessageEnvelope{Action: action}
	if data == nil {
		return env, nil
	}
	raw, err := json.Marshal(data)
	if err != nil {
		return env, fmt.Errorf("failed to marshal %s: %w", action, err)
	}
	env.Data = raw
	return env, nil
}
