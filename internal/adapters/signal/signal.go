// Package signal is the WebSocket transport in front of the voice room
// coordinator: it upgrades connections, pumps frames both ways and decodes
// the browser protocol into coordinator calls.
package signal

import (
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/Alexxandr133/JungAI-sub002/internal/domain"
	"github.com/Alexxandr133/JungAI-sub002/internal/voiceroom"
)

var ErrBackpressure = errors.New("backpressure")

const writeWait = 5 * time.Second

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

type Controller struct {
	coord      *voiceroom.Coordinator
	readLimit  int64
	pingPeriod time.Duration
}

func NewController(coord *voiceroom.Coordinator, readLimit int64, pingPeriod time.Duration) *Controller {
	return &Controller{
		coord:      coord,
		readLimit:  readLimit,
		pingPeriod: pingPeriod,
	}
}

// wsConn adapts one gorilla connection to voiceroom.Conn. Delivery is a
// non-blocking push into the send buffer; a full buffer drops the frame,
// which is the transport contract the coordinator expects.
type wsConn struct {
	id   domain.ConnID
	conn *websocket.Conn
	send chan []byte

	mu     sync.RWMutex
	closed bool
}

func (c *wsConn) ID() domain.ConnID { return c.id }

func (c *wsConn) Deliver(ev voiceroom.Outbound) {
	b, err := json.Marshal(ev)
	if err != nil {
		log.Error().Err(err).Str("module", "signal").Str("sid", string(c.id)).Msg("marshal outbound")
		return
	}
	if err := c.trySend(b); err != nil {
		log.Warn().Err(err).Str("module", "signal").Str("sid", string(c.id)).Msg("dropped outbound frame")
	}
}

func (c *wsConn) trySend(b []byte) error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return errors.New("connection closed")
	}
	select {
	case c.send <- b:
	default:
		return ErrBackpressure
	}
	return nil
}

func (c *wsConn) close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	close(c.send)
	_ = c.conn.Close()
	c.mu.Unlock()
}

// HandleVoice upgrades the request and starts the connection's pumps. The
// connection id minted here is the socketId peers address each other by.
func (ctl *Controller) HandleVoice(c *gin.Context) {
	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("ws upgrade")
		return
	}

	conn := &wsConn{
		id:   domain.ConnID(uuid.NewString()),
		conn: ws,
		send: make(chan []byte, 32),
	}
	log.Info().Str("module", "signal").
		Str("sid", string(conn.id)).
		Str("user", c.GetString("user_id")).
		Msg("new voice connection")

	ctl.coord.Register(conn)

	go ctl.writePump(conn)
	go ctl.readPump(conn)
}

func (ctl *Controller) writePump(c *wsConn) {
	ticker := time.NewTicker(ctl.pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case data, ok := <-c.send:
			if !ok {
				return
			}
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				log.Debug().Err(err).Str("module", "signal").Str("sid", string(c.id)).Msg("write error")
				return
			}
		case <-ticker.C:
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				return
			}
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (ctl *Controller) readPump(c *wsConn) {
	defer func() {
		ctl.coord.Disconnect(c.id)
		c.close()
		log.Info().Str("module", "signal").Str("sid", string(c.id)).Msg("connection closed")
	}()

	c.conn.SetReadLimit(ctl.readLimit)
	readWait := ctl.pingPeriod + writeWait
	_ = c.conn.SetReadDeadline(time.Now().Add(readWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(readWait))
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Debug().Err(err).Str("module", "signal").Str("sid", string(c.id)).Msg("read error")
			}
			return
		}
		ctl.dispatch(c, data)
	}
}
