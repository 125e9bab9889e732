package websocket

import (
	"net/http"
	"sync"
	"time"

	"courtsim/internal/trialevents"
	"courtsim/trial"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const writeWait = 10 * time.Second

var upgrader = websocket.Upgrader{
	// In production, adjust the CheckOrigin function to allow only trusted origins.
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// observer is one connected viewer of a trial
type observer struct {
	conn    *websocket.Conn
	writeMu sync.Mutex
}

// WriteJSON safely writes JSON to the WebSocket connection
func (o *observer) WriteJSON(v interface{}) error {
	o.writeMu.Lock()
	defer o.writeMu.Unlock()
	o.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return o.conn.WriteJSON(v)
}

type stateMessage struct {
	Type      string      `json:"type"`
	Payload   trial.State `json:"payload"`
	Timestamp int64       `json:"timestamp"`
}

// TrialStream pushes a session's events to websocket observers.
// With a Consumer, events are read back from the session's Redis stream
// instead of arriving on the hub directly.
type TrialStream struct {
	Manager  *trial.Manager
	Hub      *trialevents.Hub
	Consumer *trialevents.StreamConsumer
	Log      *zap.SugaredLogger
}

// Handle serves GET /api/sessions/:id/ws. The first message is the full state,
// then every event the session publishes until it ends or the client leaves.
func (ts *TrialStream) Handle(c *gin.Context) {
	sessionID := c.Param("id")
	s, err := ts.Manager.Get(sessionID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		ts.Log.Warnw("websocket upgrade failed", "session", sessionID, "error", err)
		return
	}
	defer conn.Close()

	events, cancel := ts.Hub.Subscribe(sessionID)
	defer cancel()

	if ts.Consumer != nil {
		release := ts.Consumer.Follow(sessionID)
		defer release()
	}

	client := &observer{conn: conn}
	if err := client.WriteJSON(stateMessage{Type: "state", Payload: s.GetState(), Timestamp: time.Now().Unix()}); err != nil {
		return
	}

	gone := make(chan struct{})
	go readPump(conn, gone)

	ts.Log.Debugw("observer connected", "session", sessionID)
	for {
		select {
		case <-gone:
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			if err := client.WriteJSON(ev); err != nil {
				ts.Log.Debugw("observer write failed", "session", sessionID, "error", err)
				return
			}
			if ev.Type == trialevents.TypeEnded {
				client.writeMu.Lock()
				conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, "session ended"),
					time.Now().Add(writeWait))
				client.writeMu.Unlock()
				return
			}
		}
	}
}

// readPump discards client messages; observers are read-only
func readPump(conn *websocket.Conn, gone chan<- struct{}) {
	defer close(gone)
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}
