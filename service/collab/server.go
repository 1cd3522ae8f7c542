package collab

import (
	"context"
	"net"
	"net/http"

	"GridSync/global"
	"GridSync/logger"
	"GridSync/middleware"
	"GridSync/service/storage"
	"GridSync/tools/errs"
	"GridSync/tools/ids"
	"GridSync/tools/safe"
	"GridSync/tools/security"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// HandlerFunc processes one inbound frame for one connection.
type HandlerFunc func(ctx context.Context, c *Client, env *Envelope) error

// Server owns the realtime engine: registry, presence, fan-out and the
// websocket endpoint. REST modules hang off the same registry through
// the Broadcaster.
type Server struct {
	conf global.AppConfig

	reg      *Registry
	presence *Tracker
	fanout   *Fanout
	bc       *Broadcaster
	chat     *ChatRelay
	mutator  *Mutator

	handlers map[string]HandlerFunc
	jwtOpts  security.Options
}

func NewServer(conf global.AppConfig, cells CellWriter, engine FormulaEngine) *Server {
	reg := NewRegistry()
	fanout := NewFanout(conf.WS.FanoutWorkers, conf.WS.FanoutQueue)
	bc := NewBroadcaster(reg, fanout)
	s := &Server{
		conf:     conf,
		reg:      reg,
		presence: NewTracker(TrackerConf{SweepEvery: conf.WS.PresenceSweep}),
		fanout:   fanout,
		bc:       bc,
		chat:     NewChatRelay(bc, conf.WS.MaxChatLen),
		mutator:  NewMutator(bc, cells, engine),
		handlers: make(map[string]HandlerFunc),
		jwtOpts:  security.DefaultOptions(conf.JWTSecret),
	}
	s.registerBuiltin()

	safe.SafeGo(func() {
		s.presence.RunReaper(reg.UserInRoom, func(room, user string) {
			s.bc.Room(room, EvPresenceRemove, gin.H{"userId": user})
		})
	})
	return s
}

// Register wires an inbound event handler; modules (comments) add
// their own events during boot.
func (s *Server) Register(event string, fn HandlerFunc) {
	s.handlers[event] = fn
}

func (s *Server) Registry() *Registry       { return s.reg }
func (s *Server) Presence() *Tracker        { return s.presence }
func (s *Server) Broadcaster() *Broadcaster { return s.bc }
func (s *Server) Chat() *ChatRelay          { return s.chat }
func (s *Server) Mutator() *Mutator         { return s.mutator }

func (s *Server) Close() {
	s.presence.Close()
	s.reg.Close()
	s.fanout.Close()
}

// HandleWS upgrades the connection, authenticates it, and runs the
// read loop until the peer goes away.
func (s *Server) HandleWS(c *gin.Context) {
	token := middleware.BearerToken(c)
	if token == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"code": errs.CodeUnauthorized, "msg": "missing token"})
		return
	}
	id, err := security.Verify(s.jwtOpts, token)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"code": errs.CodeUnauthorized, "msg": "invalid token"})
		return
	}

	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logger.Infof("[WS] upgrade error: %v", err)
		return
	}

	client := NewClient(ids.GenerateString(), id.UserID, id.DisplayName, id.Color, ws, s.conf.WS.SendQueueSize)
	if !s.reg.Register(client) {
		_ = ws.Close()
		return
	}
	// Private notification channel, joined for the connection's lifetime.
	s.reg.Join(client, UserRoom(client.UserID))

	// Cross-process presence mirror; best-effort, refreshed by pongs.
	if err := storage.PresenceOnline(client.UserID, s.conf.NodeID, s.conf.Redis.PresenceTTL); err != nil {
		logger.Warnf("[WS] presence mirror online user=%s err=%v", client.UserID, err)
	}
	ws.SetPongHandler(func(string) error {
		if err := storage.PresenceOnline(client.UserID, s.conf.NodeID, s.conf.Redis.PresenceTTL); err != nil {
			logger.Warnf("[WS] presence mirror refresh user=%s err=%v", client.UserID, err)
		}
		return nil
	})

	go client.WritePump(s.conf.WS.WriteDeadline)
	logger.Infof("[WS] connected conn=%s user=%s", client.ConnID, client.UserID)

	s.readLoop(client)
	s.Disconnect(client)
}

func (s *Server) readLoop(client *Client) {
	for {
		mt, data, rerr := client.WS.ReadMessage()
		if rerr != nil {
			if websocket.IsCloseError(rerr,
				websocket.CloseNormalClosure,
				websocket.CloseGoingAway,
				websocket.CloseNoStatusReceived,
			) {
				logger.Infof("[WS] peer closed conn=%s err=%v", client.ConnID, rerr)
			} else if ne, ok := rerr.(net.Error); ok && ne.Timeout() {
				logger.Infof("[WS] read timeout conn=%s err=%v", client.ConnID, rerr)
			} else {
				logger.Infof("[WS] read err conn=%s err=%v", client.ConnID, rerr)
			}
			return
		}
		if mt != websocket.TextMessage && mt != websocket.BinaryMessage {
			continue
		}

		env, perr := ParseEnvelope(data)
		if perr != nil {
			sample := data
			if len(sample) > 256 {
				sample = sample[:256]
			}
			logger.Infof("[WS] bad frame conn=%s err=%v sample=%q", client.ConnID, perr, sample)
			s.bc.ToConn(client, EvError, gin.H{"code": errs.CodeValidation, "msg": perr.Error()})
			continue
		}

		fn := s.handlers[env.Event]
		if fn == nil {
			logger.Infof("[WS] no handler for event=%s", env.Event)
			continue
		}
		if err := fn(context.Background(), client, env); err != nil {
			code, msg := errs.Payload(err)
			s.bc.ToConn(client, EvError, gin.H{"code": code, "msg": msg, "event": env.Event})
		}
	}
}

// Disconnect tears a connection down: leaves every room, prunes
// presence, and emits exactly one presence:remove per room where this
// was the user's last connection. Idempotent.
func (s *Server) Disconnect(client *Client) {
	lastOfUserRooms, userGone := s.reg.Disconnect(client)
	for _, room := range lastOfUserRooms {
		if s.presence.Remove(room, client.UserID) {
			s.bc.Room(room, EvPresenceRemove, gin.H{"userId": client.UserID})
		}
	}
	if userGone {
		if err := storage.PresenceOffline(client.UserID); err != nil {
			logger.Warnf("[WS] presence mirror offline user=%s err=%v", client.UserID, err)
		}
	}
	client.Close()
}
