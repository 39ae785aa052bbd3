package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/terra-clan/rating-ladder/internal/browser"
	"github.com/terra-clan/rating-ladder/internal/models"
	"github.com/terra-clan/rating-ladder/internal/profile"
	"github.com/terra-clan/rating-ladder/internal/progress"
	"github.com/terra-clan/rating-ladder/internal/rating"
)

const (
	wsWriteTimeout = 10 * time.Second
	wsReadLimit    = 64 << 10
)

func (s *Server) newUpgrader() *websocket.Upgrader {
	return &websocket.Upgrader{
		ReadBufferSize:  4096,
		WriteBufferSize: 4096,
		CheckOrigin:     s.checkOrigin,
	}
}

// checkOrigin applies ALLOWED_ORIGINS to the websocket handshake. Requests
// without an Origin header do not come from a browser page and pass.
func (s *Server) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}

	allowed := s.config.AllowedOrigins
	if len(allowed) == 0 {
		return true
	}
	for _, o := range allowed {
		if o == "*" || strings.EqualFold(o, origin) {
			return true
		}
	}

	if u, err := url.Parse(origin); err == nil && strings.EqualFold(u.Host, r.Host) {
		return true
	}

	slog.Warn("rejected websocket origin", "origin", origin, "remote_addr", r.RemoteAddr)
	return false
}

// Inbound command types
const (
	cmdSelectBucket  = "select_bucket"
	cmdClearBucket   = "clear_bucket"
	cmdSearch        = "search"
	cmdSort          = "sort"
	cmdToggleSolved  = "toggle_solved"
	cmdToggleTags    = "toggle_tags"
	cmdGlobalSearch  = "global_search"
	cmdLookupProfile = "lookup_profile"
	cmdResetProgress = "reset_progress"
	cmdDistribution  = "distribution"
)

// SessionMessage is a command sent by the client
type SessionMessage struct {
	Type     string `json:"type"`
	Bucket   string `json:"bucket,omitempty"`
	Text     string `json:"text,omitempty"`
	Field    string `json:"field,omitempty"`
	ID       string `json:"id,omitempty"`
	Username string `json:"username,omitempty"`
}

// sessionReply is a server frame that is not a view event
type sessionReply struct {
	Type     string                `json:"type"`
	ClientID string                `json:"clientId,omitempty"`
	Command  string                `json:"command,omitempty"`
	Session  *browser.Session      `json:"session,omitempty"`
	Prefs    *progress.Preferences `json:"prefs,omitempty"`
	Tiers    []rating.Tier         `json:"tiers,omitempty"`
	ID       string                `json:"id,omitempty"`
	Solved   *bool                 `json:"solved,omitempty"`
	Error    string                `json:"error,omitempty"`
}

// wsView writes view events to the socket. Writes are serialized since the
// browser, the profile lookup and the read loop all publish.
type wsView struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

func (v *wsView) Publish(e browser.Event) {
	v.send(e)
}

func (v *wsView) send(msg interface{}) error {
	data, err := json.Marshal(msg)
	if err != nil {
		slog.Error("failed to marshal session message", "error", err)
		return err
	}

	v.mu.Lock()
	defer v.mu.Unlock()

	v.conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
	if err := v.conn.WriteMessage(websocket.TextMessage, data); err != nil {
		slog.Debug("failed to send session message", "error", err)
		return err
	}
	return nil
}

func (v *wsView) commandError(command, message string) {
	v.send(sessionReply{Type: "command_error", Command: command, Error: message})
}

// shutdown asks the peer to close and unblocks the read loop
func (v *wsView) shutdown() {
	msg := websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down")
	v.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second))
	v.conn.Close()
}

// session is one connected view session
type session struct {
	clientID string
	view     *wsView
	browser  *browser.Browser
	lookup   *profile.Lookup
}

func (s *Server) handleSessionWS(w http.ResponseWriter, r *http.Request) {
	clientID := ClientIDFromContext(r.Context())

	conn, err := s.upgrader.Upgrade(w, r, identityHeader(r.Context()))
	if err != nil {
		slog.Error("failed to upgrade to websocket", "error", err)
		return
	}
	defer conn.Close()
	conn.SetReadLimit(wsReadLimit)

	view := &wsView{conn: conn}
	if !s.sessions.add(view) {
		view.shutdown()
		return
	}
	defer s.sessions.done(view)

	// the request context ends with the handshake's timeouts, the session
	// lives as long as the socket
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store := s.progressStore(r.Context())

	b := browser.New(ctx, browser.Config{
		Catalog:      s.catalog,
		Progress:     store,
		Distribution: s.dist,
		View:         view,
		Debounce:     s.debounce,
		ClientID:     clientID,
	})
	sess := &session{
		clientID: clientID,
		view:     view,
		browser:  b,
		lookup:   profile.NewLookup(s.catalog, b, view),
	}
	defer func() {
		cancel()
		sess.lookup.Close()
		sess.browser.Close()
	}()

	slog.Info("view session connected", "client_id", clientID)

	prefs, err := store.Preferences(ctx)
	if err != nil {
		slog.Warn("failed to read preferences", "error", err, "client_id", clientID)
	}
	state := b.Session()
	view.send(sessionReply{
		Type:     "connected",
		ClientID: clientID,
		Session:  &state,
		Prefs:    &prefs,
		Tiers:    rating.Tiers(),
	})

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				slog.Debug("websocket read error", "error", err)
			}
			break
		}

		var msg SessionMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			slog.Debug("invalid message format", "error", err)
			view.commandError("", "invalid message format")
			continue
		}

		sess.dispatch(ctx, msg)
	}

	slog.Info("view session disconnected", "client_id", clientID)
}

// dispatch runs one inbound command. Every command goes through here, so
// repeated renders never register extra handlers.
func (sess *session) dispatch(ctx context.Context, msg SessionMessage) {
	b := sess.browser

	switch msg.Type {
	case cmdSelectBucket:
		bucket, err := rating.ParseBucket(msg.Bucket)
		if err != nil {
			sess.view.commandError(msg.Type, err.Error())
			return
		}
		b.SelectBucket(ctx, bucket)

	case cmdClearBucket:
		b.ClearBucket()

	case cmdSearch:
		b.SetSearch(ctx, msg.Text)

	case cmdSort:
		field, err := models.ParseSortField(msg.Field)
		if err != nil {
			sess.view.commandError(msg.Type, err.Error())
			return
		}
		b.SortBy(ctx, field)

	case cmdToggleSolved:
		if msg.ID == "" {
			sess.view.commandError(msg.Type, "id is required")
			return
		}
		solved, err := b.ToggleSolved(ctx, msg.ID)
		if err != nil {
			slog.Error("failed to toggle problem", "error", err, "client_id", sess.clientID)
			sess.view.commandError(msg.Type, "failed to update progress")
			return
		}
		sess.view.send(sessionReply{Type: "solved", ID: msg.ID, Solved: &solved})

	case cmdToggleTags:
		if _, err := b.ToggleTags(ctx); err != nil {
			slog.Error("failed to toggle tags", "error", err, "client_id", sess.clientID)
			sess.view.commandError(msg.Type, "failed to save preference")
		}

	case cmdGlobalSearch:
		b.GlobalSearch(ctx, msg.Text)

	case cmdLookupProfile:
		sess.lookup.Lookup(ctx, msg.Username)

	case cmdResetProgress:
		if err := b.ResetProgress(ctx); err != nil {
			slog.Error("failed to reset progress", "error", err, "client_id", sess.clientID)
			sess.view.commandError(msg.Type, "failed to reset progress")
		}

	case cmdDistribution:
		if err := b.Distribution(ctx); err != nil {
			slog.Warn("failed to load distribution", "error", err, "client_id", sess.clientID)
		}

	default:
		sess.view.commandError(msg.Type, "unknown command")
	}
}
