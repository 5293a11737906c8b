package signal

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/dkeye/Stream/internal/app/orch"
	"github.com/dkeye/Stream/internal/core"
	"github.com/dkeye/Stream/internal/domain"
	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

var (
	ErrBackpressure = errors.New("backpressure")
	ErrConnClosed   = errors.New("connection closed")
)

// SessionNameKey holds the default display name in the cookie session.
const SessionNameKey = "display_name"

const defaultName = "guest"

type Options struct {
	ReadLimit    int64
	PingPeriod   time.Duration
	PongWait     time.Duration
	SendBuffer   int
	ChatLimit    int
	ChatInterval time.Duration
}

func (o Options) withDefaults() Options {
	if o.ReadLimit <= 0 {
		o.ReadLimit = 32768
	}
	if o.PingPeriod <= 0 {
		o.PingPeriod = 54 * time.Second
	}
	if o.PongWait <= o.PingPeriod {
		o.PongWait = o.PingPeriod * 10 / 9
	}
	if o.SendBuffer <= 0 {
		o.SendBuffer = 64
	}
	if o.ChatLimit <= 0 {
		o.ChatLimit = 5
	}
	if o.ChatInterval <= 0 {
		o.ChatInterval = time.Second
	}
	return o
}

type SignalWSController struct {
	Orch *orch.Orchestrator

	opts Options
	chat *RoomRateLimiter
}

func NewSignalWSController(o *orch.Orchestrator, opts Options) *SignalWSController {
	opts = opts.withDefaults()
	return &SignalWSController{
		Orch: o,
		opts: opts,
		chat: NewRoomRateLimiter(opts.ChatLimit, opts.ChatInterval),
	}
}

// WsSignalConn is the server side of one WebSocket. Frames are queued on
// send and written by writePump only.
type WsSignalConn struct {
	cid  core.ConnectionID
	conn *websocket.Conn
	send chan core.Frame

	mu     sync.RWMutex
	closed bool
}

func (c *WsSignalConn) TrySend(f core.Frame) error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return ErrConnClosed
	}
	select {
	case c.send <- f:
	default:
		return ErrBackpressure
	}
	return nil
}

func (c *WsSignalConn) Close() {
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

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// HandleSignal upgrades the request and runs the connection until either
// side closes it. Identity comes from ?identity= or the client token
// cookie; the display name from ?name=, the session, or "guest".
func (ctl *SignalWSController) HandleSignal(ctx context.Context, c *gin.Context) {
	rawID := c.Query("identity")
	if rawID == "" {
		rawID = c.GetString("client_token")
	}
	rawName := c.Query("name")
	if rawName == "" {
		rawName = sessionName(c)
	}
	if rawName == "" {
		rawName = defaultName
	}
	user, err := domain.NewUser(rawID, rawName)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("ws upgrade")
		return
	}

	cid := core.ConnectionID(uuid.NewString())
	conn := &WsSignalConn{
		cid:  cid,
		conn: ws,
		send: make(chan core.Frame, ctl.opts.SendBuffer),
	}
	if err := ctl.Orch.Connect(cid, user, conn); err != nil {
		conn.Close()
		return
	}
	log.Info().Str("module", "signal").Str("cid", string(cid)).Str("identity", string(user.Identity)).Msg("new WS connection")

	ctx, cancel := context.WithCancel(ctx)
	go ctl.writePump(ctx, conn)
	go ctl.readPump(ctx, cancel, user.Identity, conn)
}

func sessionName(c *gin.Context) string {
	if _, ok := c.Get(sessions.DefaultKey); !ok {
		return ""
	}
	name, _ := sessions.Default(c).Get(SessionNameKey).(string)
	return name
}
