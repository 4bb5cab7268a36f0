package live

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/ashureev/consolebot/internal/agent"
	"github.com/ashureev/consolebot/internal/chat"
	"github.com/ashureev/consolebot/internal/domain"
	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/google/uuid"
)

const writeTimeout = 10 * time.Second

// Frame types.
const (
	frameSession   = "session"
	frameState     = "state"
	frameNotice    = "notice"
	frameClipboard = "clipboard"
	frameError     = "error"

	frameDraft  = "draft"
	frameSubmit = "submit"
	frameClear  = "clear"
	frameCopy   = "copy"
)

// clientFrame is a message from the browser.
type clientFrame struct {
	Type    string `json:"type"`
	Content string `json:"content,omitempty"`
	ID      string `json:"id,omitempty"`
}

// serverFrame is a message to the browser. State frames flatten the snapshot.
type serverFrame struct {
	Type    string `json:"type"`
	ID      string `json:"id,omitempty"`
	Content string `json:"content,omitempty"`
	*chat.Snapshot
}

// WebSocketHandler serves server-hosted chat sessions.
type WebSocketHandler struct {
	relay          chat.Relay
	sm             *SessionManager
	originPatterns []string
}

// NewWebSocketHandler creates a new WebSocket handler.
func NewWebSocketHandler(relay chat.Relay, sm *SessionManager, originPatterns []string) *WebSocketHandler {
	return &WebSocketHandler{
		relay:          relay,
		sm:             sm,
		originPatterns: originPatterns,
	}
}

// ServeHTTP implements http.Handler for WebSocket upgrade.
func (h *WebSocketHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ws, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: h.originPatterns,
	})
	if err != nil {
		slog.Error("Failed to accept WebSocket", "error", err, "ip", r.RemoteAddr)
		return
	}
	defer func() {
		if closeErr := ws.Close(websocket.StatusNormalClosure, "session ended"); closeErr != nil {
			slog.Debug("Failed to close websocket", "error", closeErr)
		}
	}()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	sessionID := uuid.NewString()
	out := newOutbox()
	session := chat.NewSession(h.relay,
		chat.WithClipboard(clipboardFunc(func(text string) error {
			out.pushEvent(serverFrame{Type: frameClipboard, Content: text})
			return nil
		})),
		chat.OnChange(out.pushState),
		chat.OnNotice(func(notice string) {
			out.pushEvent(serverFrame{Type: frameNotice, Content: notice})
		}),
	)

	h.sm.Register(sessionID, session)
	defer h.sm.Unregister(sessionID, session)

	out.pushEvent(serverFrame{Type: frameSession, ID: sessionID})
	out.pushState(session.Snapshot())

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		defer cancel()
		writeLoop(ctx, ws, out)
	}()

	h.readLoop(ctx, ws, session, out, &wg)

	cancel()
	wg.Wait()
	slog.Info("Live session closed", "session_id", sessionID)
}

func (h *WebSocketHandler) readLoop(ctx context.Context, ws *websocket.Conn, session *chat.Session, out *outbox, wg *sync.WaitGroup) {
	for {
		var frame clientFrame
		if err := wsjson.Read(ctx, ws, &frame); err != nil {
			status := websocket.CloseStatus(err)
			if status != websocket.StatusNormalClosure && status != websocket.StatusGoingAway && ctx.Err() == nil {
				slog.Debug("WebSocket read error", "error", err)
			}
			return
		}

		switch frame.Type {
		case frameDraft:
			session.SetDraft(frame.Content)
		case frameSubmit:
			var pending *chat.Pending
			var err error
			if frame.Content != "" {
				pending, err = session.Begin(frame.Content)
			} else {
				pending, err = session.BeginDraft()
			}
			if err != nil {
				slog.Debug("Live submit ignored", "error", err)
				continue
			}
			wg.Add(1)
			go func() {
				defer wg.Done()
				if err := pending.Run(ctx); err != nil {
					slog.Debug("Live submit finished with relay error", "error", err)
				}
			}()
		case frameClear:
			session.Clear()
		case frameCopy:
			if err := session.Copy(frame.ID); err != nil {
				out.pushEvent(serverFrame{Type: frameError, Content: "unknown message"})
			}
		default:
			out.pushEvent(serverFrame{Type: frameError, Content: "unknown frame type"})
		}
	}
}

func writeLoop(ctx context.Context, ws *websocket.Conn, out *outbox) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-out.signal:
			for _, frame := range out.drain() {
				writeCtx, cancel := context.WithTimeout(ctx, writeTimeout)
				err := wsjson.Write(writeCtx, ws, frame)
				cancel()
				if err != nil {
					if ctx.Err() == nil {
						slog.Debug("WebSocket write error", "error", err)
					}
					return
				}
			}
		}
	}
}

type clipboardFunc func(text string) error

func (f clipboardFunc) Copy(text string) error { return f(text) }

// ServiceRelay adapts the in-process relay service so failures carry the
// same client-facing messages as POST /api/chat.
type ServiceRelay struct {
	Service *agent.Service
}

// Reply implements chat.Relay.
func (r ServiceRelay) Reply(ctx context.Context, transcript []domain.Turn) (string, error) {
	reply, err := r.Service.Reply(ctx, transcript)
	if err == nil {
		return reply, nil
	}

	var upstreamErr *agent.UpstreamError
	if errors.As(err, &upstreamErr) {
		slog.Error("OpenRouter API error", "status", upstreamErr.StatusCode, "body", upstreamErr.Body)
	} else {
		slog.Error("Live relay failed", "error", err)
	}
	_, msg := agent.Classify(err)
	return "", errors.New(msg)
}
