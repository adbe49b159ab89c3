package ws

import (
	"context"
	"net/http"
	"strings"
	"time"

	"speechvault/backend/internal/service"
	"speechvault/backend/pkg/logger"
	"speechvault/backend/shared/redis"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

const (
	writeWait = 10 * time.Second
	readWait  = 5 * time.Minute
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin: func(r *http.Request) bool {
		return true // CORS is enforced by the HTTP middleware
	},
}

// Message types exchanged over the streaming socket
const (
	msgStart   = "start"
	msgSegment = "segment"
	msgStop    = "stop"
	msgStarted = "started"
	msgAck     = "ack"
	msgDone    = "done"
	msgError   = "error"
)

// streamMessage is the wire format for both directions
type streamMessage struct {
	Type           string  `json:"type"`
	SourceLanguage string  `json:"source_language,omitempty"`
	Text           string  `json:"text,omitempty"`
	Confidence     float64 `json:"confidence,omitempty"`
	AudioURL       string  `json:"audio_url,omitempty"`
	StreamID       int64   `json:"stream_id,omitempty"`
	SessionID      string  `json:"session_id,omitempty"`
	Error          string  `json:"error,omitempty"`
}

// StreamHandler runs live transcription sessions over WebSocket. A
// session record is created on the start message and finalized exactly
// once, either on the stop message or when the socket drops with
// segments buffered.
type StreamHandler struct {
	store    *service.RecordStore
	presence *redis.Client
	log      *logger.Logger
}

// NewStreamHandler creates a new streaming handler
func NewStreamHandler(store *service.RecordStore, presence *redis.Client, log *logger.Logger) *StreamHandler {
	return &StreamHandler{
		store:    store,
		presence: presence,
		log:      log,
	}
}

// Serve upgrades the request and drives one streaming session
func (h *StreamHandler) Serve(c *gin.Context) {
	uid, _ := c.Get("userId")
	userID, _ := uid.(string)
	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Warn("websocket upgrade failed", "error", err.Error())
		return
	}
	defer conn.Close()

	h.run(c.Request.Context(), conn, userID)
}

// session accumulates interim results until finalization
type session struct {
	streamID   int64
	sessionID  string
	userID     string
	segments   []string
	confidence float64
	count      int
	finalized  bool
}

func (h *StreamHandler) run(ctx context.Context, conn *websocket.Conn, userID string) {
	var sess *session
	log := h.log.WithUserID(userID)

	defer func() {
		// Socket dropped mid-session: finalize with what we have so the
		// record does not stay open forever
		if sess != nil && !sess.finalized {
			h.finalize(context.Background(), conn, sess, "", log)
		}
	}()

	for {
		conn.SetReadDeadline(time.Now().Add(readWait))

		var msg streamMessage
		if err := conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Warn("websocket read failed", "error", err.Error())
			}
			return
		}

		switch msg.Type {
		case msgStart:
			if sess != nil {
				h.writeError(conn, "session already started")
				continue
			}
			record, err := h.store.StartStreamingSession(ctx, userID, msg.SourceLanguage)
			if err != nil {
				h.writeError(conn, err.Error())
				return
			}
			sess = &session{streamID: record.ID, sessionID: record.SessionID, userID: userID}
			if h.presence != nil {
				if err := h.presence.RegisterSession(ctx, record.SessionID, userID); err != nil {
					log.Warn("failed to register session presence", "error", err.Error())
				}
			}
			h.write(conn, streamMessage{Type: msgStarted, StreamID: record.ID, SessionID: record.SessionID})

		case msgSegment:
			if sess == nil {
				h.writeError(conn, "no session started")
				continue
			}
			sess.segments = append(sess.segments, msg.Text)
			sess.confidence += msg.Confidence
			sess.count++
			if h.presence != nil {
				if err := h.presence.TouchSession(ctx, sess.sessionID); err != nil {
					log.Warn("failed to refresh session presence", "error", err.Error())
				}
			}
			h.write(conn, streamMessage{Type: msgAck, StreamID: sess.streamID})

		case msgStop:
			if sess == nil {
				h.writeError(conn, "no session started")
				continue
			}
			h.finalize(ctx, conn, sess, msg.AudioURL, log)
			return

		default:
			h.writeError(conn, "unknown message type")
		}
	}
}

// finalize writes the session's final results exactly once
func (h *StreamHandler) finalize(ctx context.Context, conn *websocket.Conn, sess *session, audioURL string, log *logger.Logger) {
	if sess.finalized {
		return
	}
	sess.finalized = true

	finalText := strings.Join(sess.segments, " ")
	avg := 0.0
	if sess.count > 0 {
		avg = sess.confidence / float64(sess.count)
	}

	if err := h.store.UpdateStreamingSession(ctx, sess.userID, sess.streamID, finalText, avg, audioURL); err != nil {
		log.LogError(err, "failed to finalize streaming session", "stream_id", sess.streamID)
		h.writeError(conn, "failed to finalize session")
		return
	}

	if h.presence != nil {
		if err := h.presence.UnregisterSession(ctx, sess.sessionID); err != nil {
			log.Warn("failed to unregister session presence", "error", err.Error())
		}
	}

	h.write(conn, streamMessage{Type: msgDone, StreamID: sess.streamID, Confidence: avg})
}

func (h *StreamHandler) write(conn *websocket.Conn, msg streamMessage) {
	conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := conn.WriteJSON(msg); err != nil {
		h.log.Warn("websocket write failed", "error", err.Error())
	}
}

func (h *StreamHandler) writeError(conn *websocket.Conn, message string) {
	h.write(conn, streamMessage{Type: msgError, Error: message})
}
