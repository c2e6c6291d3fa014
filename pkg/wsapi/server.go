// Package wsapi serves the bidirectional attach channel over coder/websocket,
// the server-side counterpart to the teacher's client-side
// pkg/providers/tts websocket usage: one connection per attempted session
// attach, JSON message framing via wsjson, a mutex-guarded conn for
// concurrent writes from the orchestrator's event callbacks.
package wsapi

import (
	"context"
	"encoding/base64"
	"errors"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/pitchloop-ai/session-orchestrator/pkg/authtoken"
	"github.com/pitchloop-ai/session-orchestrator/pkg/orchestrator"
)

// Attacher is the subset of orchestrator.Service the attach channel drives.
type Attacher interface {
	Attach(ctx context.Context, sessionID string, socket orchestrator.Socket) error
	HandleAudioFrame(ctx context.Context, sessionID string, frame any) error
}

// Server accepts attach-channel websocket connections and wires them into
// the orchestrator.
type Server struct {
	svc    Attacher
	issuer *authtoken.Issuer
}

func New(svc Attacher, issuer *authtoken.Issuer) *Server {
	return &Server{svc: svc, issuer: issuer}
}

// inbound is the client->server message envelope (spec §6): join-session,
// audio-chunk, and ping all arrive shaped this way, with fields unused by a
// given message type left zero.
type inbound struct {
	Type      string `json:"type"`
	SessionID string `json:"sessionId"`
	AudioData string `json:"audioData"`
}

// socketAdapter implements orchestrator.Socket over one websocket
// connection, serializing writes the way the teacher's LokutorTTS serializes
// writes over its outbound connection.
type socketAdapter struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

func (s *socketAdapter) Send(event string, payload interface{}) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	envelope := map[string]interface{}{"type": event, "payload": payload}
	return wsjson.Write(ctx, s.conn, envelope)
}

func (s *socketAdapter) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conn.Close(websocket.StatusNormalClosure, "")
}

// ServeHTTP upgrades the request to a websocket and runs the attach-channel
// read loop until the client disconnects or sends a fatal message. An
// attachToken query parameter authorizes the connection; the sessionId it
// carries must match the session named by the first join-session message.
func (srv *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("attachToken")
	claims, err := srv.issuer.Verify(token)
	if err != nil {
		http.Error(w, "invalid or expired attach token", http.StatusUnauthorized)
		return
	}

	conn, err := websocket.Accept(w, r, nil)
	if err != nil {
		log.Printf("wsapi: accept failed: %v", err)
		return
	}
	defer conn.CloseNow()

	socket := &socketAdapter{conn: conn}
	ctx := r.Context()
	joined := false

	for {
		var msg inbound
		if err := wsjson.Read(ctx, conn, &msg); err != nil {
			var closeErr websocket.CloseError
			if errors.As(err, &closeErr) {
				return
			}
			return
		}

		switch msg.Type {
		case "join-session":
			if msg.SessionID != claims.SessionID {
				socket.Send("error", orchestrator.ErrorPayload{Message: "session id does not match attach token", Code: orchestrator.CodeInvalidSession})
				continue
			}
			if err := srv.svc.Attach(ctx, msg.SessionID, socket); err != nil {
				socket.Send("error", orchestrator.ErrorPayload{Message: err.Error(), Code: joinErrorCode(err)})
				continue
			}
			joined = true

		case "audio-chunk":
			if !joined {
				socket.Send("error", orchestrator.ErrorPayload{Message: "not joined", Code: orchestrator.CodeInvalidSession})
				continue
			}
			raw, decodeErr := base64.StdEncoding.DecodeString(msg.AudioData)
			var frame any = msg.AudioData
			if decodeErr == nil {
				frame = raw
			}
			if err := srv.svc.HandleAudioFrame(ctx, msg.SessionID, frame); err != nil {
				// HandleAudioFrame emits an "error" event itself when the
				// provider key is missing; other failures are dropped here.
				continue
			}

		case "ping":
			socket.Send("pong", orchestrator.PongPayload{Timestamp: time.Now()})

		default:
			socket.Send("error", orchestrator.ErrorPayload{Message: "unknown message type", Code: orchestrator.CodeInvalidSession})
		}
	}
}

func joinErrorCode(err error) string {
	switch {
	case errors.Is(err, orchestrator.ErrSessionNotFound):
		return orchestrator.CodeSessionNotFound
	case errors.Is(err, orchestrator.ErrSessionInactive):
		return orchestrator.CodeSessionInactive
	case errors.Is(err, orchestrator.ErrInvalidSession):
		return orchestrator.CodeInvalidSession
	default:
		return orchestrator.CodeJoinError
	}
}
