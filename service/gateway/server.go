package gateway

import (
	"context"
	"sort"

	"CityTalk/global/config"
	"CityTalk/logger"
	usermodel "CityTalk/module/user/model"
	"CityTalk/tools/errs"
	"CityTalk/tools/security"
)

// Server owns the gateway's process-wide state: presence registry, room
// tracker, throttle table, dispatcher, fanout pool and reconciler. One Server
// per process; constructed once at startup and passed into handlers, so tests
// get isolated instances instead of package globals.
type Server struct {
	cfg config.GatewayConfig

	registry *Registry
	rooms    *RoomTracker
	throttle *AuthThrottle
	auth     *Authenticator
	disp     *Dispatcher
	fanout   *Fanout
	recon    *Reconciler

	users    UserStore
	roomAuth RoomAuthStore
	messages MessageStore
}

func NewServer(app *config.AppConfig, users UserStore, roomAuth RoomAuthStore, messages MessageStore) *Server {
	s := &Server{
		cfg:      app.Gateway,
		registry: NewRegistry(),
		rooms:    NewRoomTracker(),
		throttle: NewAuthThrottle(app.Gateway.ThrottleLimit, app.Gateway.ThrottleWindow),
		users:    users,
		roomAuth: roomAuth,
		messages: messages,
	}
	s.auth = NewAuthenticator(users, s.throttle, security.Options{
		Secret: app.JWTSecretBytes(),
		Alg:    app.JWTAlg,
		TTL:    app.JWTTTL,
	})
	s.fanout = NewFanout(4, 1024)
	s.recon = NewReconciler(s.rooms, s.registry, app.Gateway.ReconcileInterval)

	s.disp = NewDispatcher(s, app.Gateway.MaxContentLen)
	s.disp.Register(NewJoinHandler(s))
	s.disp.Register(NewLeaveHandler(s))
	s.disp.Register(NewSendHandler(s))
	s.disp.Register(NewTypingHandler(s))
	return s
}

// Start launches the background reconciler.
func (s *Server) Start() {
	go s.recon.Run()
}

// Shutdown stops the reconciler, closes every live connection and releases
// the fanout workers.
func (s *Server) Shutdown() {
	s.recon.Stop()
	for _, c := range s.registry.All() {
		s.registry.Unbind(c)
		c.Close()
	}
	s.fanout.Close()
}

func (s *Server) Registry() *Registry { return s.registry }
func (s *Server) Rooms() *RoomTracker { return s.rooms }
func (s *Server) Disp() *Dispatcher   { return s.disp }
func (s *Server) Recon() *Reconciler  { return s.recon }

// storeCtx bounds every external store call made from an event handler, so a
// hung store cannot stall a connection's event queue forever.
func (s *Server) storeCtx() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), s.cfg.StoreTimeout)
}

// ---- outbound ----

func (s *Server) sendFrame(c *Client, eventType string, payload any) {
	if !c.enqueue(BuildFrame(eventType, payload)) {
		logger.Warnf("[send] queue full, drop type=%s conn=%s", eventType, c.ConnID)
	}
}

// sendError converts an event-level failure into an error frame for the
// originating connection. Clients see the generic message; the detail stays
// in server logs.
func (s *Server) sendError(c *Client, err error) {
	s.sendFrame(c, EventError, &ErrorPayload{Message: errs.EMsg(err)})
}

func (s *Server) broadcastRoom(roomID string, payload []byte) {
	conns := s.registry.ClientsFor(s.rooms.Snapshot(roomID))
	s.fanout.Broadcast(conns, payload)
}

func (s *Server) broadcastRoomExcept(roomID, exceptConnID string, payload []byte) {
	all := s.registry.ClientsFor(s.rooms.Snapshot(roomID))
	conns := all[:0:0]
	for _, c := range all {
		if c.ConnID != exceptConnID {
			conns = append(conns, c)
		}
	}
	s.fanout.Broadcast(conns, payload)
}

// onlineMembers derives "who is here right now" from the room's conn set
// mapped through the presence registry. An approximation by design: it lists
// live subscribers, not the persisted roster.
func (s *Server) onlineMembers(roomID string) []*usermodel.UserProfile {
	clients := s.registry.ClientsFor(s.rooms.Snapshot(roomID))
	seen := make(map[string]struct{}, len(clients))
	out := make([]*usermodel.UserProfile, 0, len(clients))
	for _, c := range clients {
		if c.Profile == nil {
			continue
		}
		if _, dup := seen[c.UserID]; dup {
			continue
		}
		seen[c.UserID] = struct{}{}
		out = append(out, c.Profile)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UserID < out[j].UserID })
	return out
}

func (s *Server) broadcastMembers(roomID string) {
	s.broadcastRoom(roomID, BuildFrame(EventMembers, &MembersPayload{
		RoomID:        roomID,
		OnlineMembers: s.onlineMembers(roomID),
	}))
}

// ---- connection lifecycle ----

// handleConnect installs presence for a freshly authenticated client and
// flips the user online. A prior session for the same user is evicted first
// (single active session, last handshake wins).
func (s *Server) handleConnect(c *Client) {
	if evicted := s.registry.Bind(c); evicted != nil {
		s.evict(evicted)
	}
	ctx, cancel := s.storeCtx()
	if err := s.users.MarkOnline(ctx, c.UserID); err != nil {
		logger.Errorf("[connect] mark online user=%s: %v", c.UserID, err)
	}
	cancel()
}

// evict tears down a connection replaced by a newer handshake for the same
// user. The user stays online throughout, so no offline signal is emitted.
func (s *Server) evict(old *Client) {
	logger.Infof("[evict] user=%s conn=%s replaced by newer session", old.UserID, old.ConnID)
	affected := s.rooms.RemoveConn(old.ConnID)
	old.enqueue(BuildFrame(EventError, &ErrorPayload{Message: "signed in from another session"}))
	old.Close()
	for _, roomID := range affected {
		s.broadcastMembers(roomID)
	}
}

// handleDisconnect is the normal cleanup path for an explicit disconnect or a
// dead socket detected by the read loop. Ungraceful drops that never reach it
// are healed by the reconciler.
func (s *Server) handleDisconnect(c *Client) {
	affected := s.rooms.RemoveConn(c.ConnID)
	current := s.registry.Unbind(c)
	if current {
		ctx, cancel := s.storeCtx()
		if err := s.users.MarkOffline(ctx, c.UserID); err != nil {
			logger.Errorf("[disconnect] mark offline user=%s: %v", c.UserID, err)
		}
		cancel()
	}
	// offline signal scoped to rooms the connection was tracked in, not a
	// global broadcast
	for _, roomID := range affected {
		if current {
			s.broadcastRoom(roomID, BuildFrame(EventUserOffline, &UserOfflinePayload{UserID: c.UserID}))
		}
		s.broadcastMembers(roomID)
	}
}
