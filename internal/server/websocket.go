package server

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	website "github.com/focusondelaine/website"
)

// Envelope actions sent to the browser.
const (
	ActionRender = "render"
	ActionMailto = "mailto"
	ActionError  = "error"
	ActionReload = "reload"
)

const (
	maxMessageSize     = 64 << 10
	writeWait          = 10 * time.Second
	websocketGoingAway = websocket.CloseGoingAway
)

// The zero CheckOrigin only accepts same-host origins.
var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
}

// MessageEnvelope is one websocket message in either direction.
type MessageEnvelope struct {
	Action string          `json:"action"`
	Data   json.RawMessage `json:"data,omitempty"`
}

// RenderData carries a rendered page to the browser.
type RenderData struct {
	Page   website.Page `json:"page"`
	HTML   string       `json:"html"`
	Mailto string       `json:"mailto"`
}

// MailtoData carries a recomputed mail link.
type MailtoData struct {
	Href string `json:"href"`
}

// ErrorData reports an action the session rejected.
type ErrorData struct {
	Message string `json:"message"`
}

// liveConn is one browser connection and the session it owns.
type liveConn struct {
	conn    *websocket.Conn
	session *website.Session
	writeMu sync.Mutex
}

func (c *liveConn) send(env MessageEnvelope) error {
	data, err := json.Marshal(env)
	if err != nil {
		return err
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return c.conn.WriteMessage(websocket.TextMessage, data)
}

func (c *liveConn) close(code int) {
	c.writeMu.Lock()
	_ = c.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(code, ""), time.Now().Add(time.Second))
	c.writeMu.Unlock()
	_ = c.conn.Close()
}

// serveWebSocket runs one live session until the browser disconnects.
func (s *Server) serveWebSocket(w http.ResponseWriter, r *http.Request) {
	log := s.logger.Named("ws")

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn("failed to upgrade connection", zap.Error(err))
		return
	}
	conn.SetReadLimit(maxMessageSize)

	c := &liveConn{
		conn:    conn,
		session: website.NewSession(s.mailBuilder()),
	}
	log = log.With(zap.String("session", c.session.ID()))

	s.registerConnection(c)
	defer func() {
		s.unregisterConnection(c)
		conn.Close()
	}()

	log.Debug("client connected", zap.String("remote", conn.RemoteAddr().String()))

	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseNoStatusReceived) {
				log.Warn("unexpected close", zap.Error(err))
			}
			break
		}

		s.handleMessage(r.Context(), c, message, log)
	}

	log.Debug("client disconnected")
}

// handleMessage applies one browser action to the session and answers it.
// Actions on one connection are applied in arrival order.
func (s *Server) handleMessage(ctx context.Context, c *liveConn, message []byte, log *zap.Logger) {
	var envelope MessageEnvelope
	if err := json.Unmarshal(message, &envelope); err != nil {
		log.Debug("failed to parse message", zap.Error(err))
		s.sendError(c, "malformed message", log)
		return
	}

	var data map[string]interface{}
	if len(envelope.Data) > 0 && string(envelope.Data) != "null" {
		if err := json.Unmarshal(envelope.Data, &data); err != nil {
			log.Debug("failed to parse action data", zap.String("action", envelope.Action), zap.Error(err))
			s.sendError(c, "action data must be a JSON object", log)
			return
		}
	}

	if err := c.session.HandleAction(ctx, envelope.Action, data); err != nil {
		log.Debug("action rejected", zap.String("action", envelope.Action), zap.Error(err))
		s.sendError(c, err.Error(), log)
		return
	}

	switch strings.ToLower(envelope.Action) {
	case strings.ToLower(website.ActionUpdateContact):
		s.sendMailto(c, log)
	default:
		s.sendRender(c, log)
	}
}

// sendRender sends the session's current page.
func (s *Server) sendRender(c *liveConn, log *zap.Logger) {
	snap := c.session.Snapshot()

	html, err := s.pageHTML(snap)
	if err != nil {
		log.Error("failed to render page", zap.Stringer("page", snap.Page), zap.Error(err))
		s.sendError(c, "failed to render page", log)
		return
	}

	s.sendData(c, ActionRender, RenderData{Page: snap.Page, HTML: html, Mailto: snap.MailLink}, log)
	log.Debug("rendered", zap.Stringer("page", snap.Page))
}

// sendMailto sends the mail link recomputed from the current form.
func (s *Server) sendMailto(c *liveConn, log *zap.Logger) {
	s.sendData(c, ActionMailto, MailtoData{Href: c.session.MailLink()}, log)
}

func (s *Server) sendError(c *liveConn, message string, log *zap.Logger) {
	s.sendData(c, ActionError, ErrorData{Message: message}, log)
}

func (s *Server) sendData(c *liveConn, action string, data interface{}, log *zap.Logger) {
	env, err := encodeEnvelope(action, data)
	if err != nil {
		log.Error("failed to encode message", zap.Error(err))
		return
	}
	if err := c.send(env); err != nil {
		log.Debug("failed to send message", zap.String("action", action), zap.Error(err))
	}
}
