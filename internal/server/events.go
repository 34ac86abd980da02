package server

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/fpang/tubescript-ai/internal/workflow"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = pongWait * 9 / 10
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	CheckOrigin: func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		return origin == "" || isLocalOrigin(origin) || origin == "http://"+r.Host || origin == "https://"+r.Host
	},
}

// stateEvent is one message on the events stream.
type stateEvent struct {
	Type  string         `json:"type"`
	State workflow.State `json:"state"`
}

// handleEvents streams the session state on connect and after every
// change. Changes are coalesced: a slow client receives the newest state,
// never a backlog.
func (s *Server) handleEvents(c *gin.Context) {
	m := machineFrom(c)
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Warn().Err(err).Str("session", m.ID()).Msg("WebSocket upgrade failed")
		return
	}
	defer conn.Close()

	changed := make(chan struct{}, 1)
	unsubscribe := m.Subscribe(func(workflow.State) {
		select {
		case changed <- struct{}{}:
		default:
		}
	})
	defer unsubscribe()

	done := make(chan struct{})
	go readPump(conn, done)

	log.Debug().Str("session", m.ID()).Msg("Event stream connected")
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	if err := writeState(conn, m.State()); err != nil {
		return
	}
	for {
		select {
		case <-done:
			log.Debug().Str("session", m.ID()).Msg("Event stream closed")
			return
		case <-changed:
			if err := writeState(conn, m.State()); err != nil {
				log.Debug().Err(err).Str("session", m.ID()).Msg("Event stream write failed")
				return
			}
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return
			}
		}
	}
}

func writeState(conn *websocket.Conn, state workflow.State) error {
	conn.SetWriteDeadline(time.Now().Add(writeWait))
	return conn.WriteJSON(stateEvent{Type: "state", State: state})
}

// readPump discards client messages and closes done when the connection
// ends.
func readPump(conn *websocket.Conn, done chan<- struct{}) {
	defer close(done)
	conn.SetReadLimit(512)
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}
