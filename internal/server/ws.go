package server

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/agenthands/meddesert/internal/core/workflow"
)

const (
	wsWriteWait  = 10 * time.Second
	wsPongWait   = 60 * time.Second
	wsPingPeriod = wsPongWait * 9 / 10
	wsSubscribeQ = 32
	wsTypeState  = "state"
)

// WSMessage is the envelope pushed to step-stream clients.
type WSMessage struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload,omitempty"`
}

// StepStream pushes a dashboard snapshot to websocket clients after every state change.
type StepStream struct {
	upgrader websocket.Upgrader
	state    *workflow.State
	logger   logrus.FieldLogger
}

func NewStepStream(state *workflow.State, logger logrus.FieldLogger) *StepStream {
	return &StepStream{
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		state:  state,
		logger: logger,
	}
}

func (h *StepStream) Handle(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.WithError(err).Warn("Step stream upgrade failed")
		return
	}
	defer conn.Close()

	updates, cancel := h.state.Subscribe(wsSubscribeQ)
	defer cancel()

	h.logger.WithField("remote", c.ClientIP()).Debug("Step stream subscriber connected")
	defer h.logger.WithField("remote", c.ClientIP()).Debug("Step stream subscriber disconnected")

	closed := make(chan struct{})
	go h.readLoop(conn, closed)

	if err := h.write(conn, WSMessage{Type: wsTypeState, Payload: h.state.Snapshot()}); err != nil {
		return
	}

	ping := time.NewTicker(wsPingPeriod)
	defer ping.Stop()

	for {
		select {
		case <-closed:
			return
		case snap, ok := <-updates:
			if !ok {
				return
			}
			if err := h.write(conn, WSMessage{Type: wsTypeState, Payload: snap}); err != nil {
				return
			}
		case <-ping.C:
			_ = conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readLoop drains client frames so pongs and close frames are processed.
func (h *StepStream) readLoop(conn *websocket.Conn, closed chan<- struct{}) {
	defer close(closed)
	_ = conn.SetReadDeadline(time.Now().Add(wsPongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(wsPongWait))
	})
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *StepStream) write(conn *websocket.Conn, msg WSMessage) error {
	_ = conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
	if err := conn.WriteJSON(msg); err != nil {
		h.logger.WithError(err).Debug("Step stream write failed")
		return err
	}
	return nil
}
