package web

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"mileage/session"
)

const (
	keepAlivePingInterval = 10 * time.Second
	writeWait             = 5 * time.Second
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		// allow all origins for WebSocket connections
		return true
	},
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

// liveState streams the session state of the caller. Every message is a full
// snapshot; intermediate snapshots may be skipped when the client is slow.
func (h *handler) liveState(c *gin.Context) {
	id := identityFrom(c)
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logrus.Warnf("websocket upgrade: %v", err)
		return
	}
	defer conn.Close()

	manager := session.NewManager(h.svc.Repository())
	defer manager.Close()

	updates := make(chan session.State, 1)
	push := func(s session.State) {
		for {
			select {
			case updates <- s:
				return
			default:
			}
			// drop the stale snapshot and retry
			select {
			case <-updates:
			default:
			}
		}
	}
	unsubscribe := manager.OnChange(push)
	defer unsubscribe()

	if err := manager.SignIn(id); err != nil {
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.ClosePolicyViolation, err.Error()),
			time.Now().Add(writeWait))
		return
	}
	push(manager.Snapshot())

	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(keepAlivePingInterval)
	defer ticker.Stop()
	for {
		select {
		case <-closed:
			return
		case <-c.Request.Context().Done():
			return
		case s := <-updates:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(s); err != nil {
				logrus.Debugf("websocket write for %s: %v", id.ID, err)
				return
			}
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return
			}
		}
	}
}
