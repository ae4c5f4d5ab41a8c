package gateway

import (
	"CityTalk/tools/errs"
)

// JoinHandler subscribes a connection to a room's broadcast group after
// re-validating persisted membership.
type JoinHandler struct{ s *Server }

func NewJoinHandler(s *Server) Handler { return &JoinHandler{s: s} }

func (h *JoinHandler) Type() string { return EventJoin }

func (h *JoinHandler) Handle(c *Client, payload map[string]any) error {
	p, err := decodePayload[JoinPayload](payload)
	if err != nil {
		return err
	}
	if p.RoomID == "" {
		return errs.ErrValidation.WithDetail("roomId is required")
	}

	ctx, cancel := h.s.storeCtx()
	ok, err := h.s.roomAuth.IsMember(ctx, c.UserID, p.RoomID)
	cancel()
	if err != nil {
		return errs.ErrPersistence.WithDetail("membership check: " + err.Error())
	}
	if !ok {
		// no state change, no member-list broadcast
		return errs.ErrAuthorization.WithDetail("user=" + c.UserID + " room=" + p.RoomID)
	}

	h.s.rooms.Join(p.RoomID, c.ConnID)
	h.s.sendFrame(c, EventJoined, &RoomAckPayload{RoomID: p.RoomID})
	h.s.broadcastMembers(p.RoomID)
	return nil
}

// LeaveHandler unsubscribes a connection from a room.
type LeaveHandler struct{ s *Server }

func NewLeaveHandler(s *Server) Handler { return &LeaveHandler{s: s} }

func (h *LeaveHandler) Type() string { return EventLeave }

func (h *LeaveHandler) Handle(c *Client, payload map[string]any) error {
	p, err := decodePayload[LeavePayload](payload)
	if err != nil {
		return err
	}
	if p.RoomID == "" {
		return errs.ErrValidation.WithDetail("roomId is required")
	}

	h.s.rooms.Leave(p.RoomID, c.ConnID)
	h.s.sendFrame(c, EventLeft, &RoomAckPayload{RoomID: p.RoomID})
	h.s.broadcastMembers(p.RoomID)
	return nil
}
