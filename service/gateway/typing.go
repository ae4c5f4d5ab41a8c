package gateway

import (
	"CityTalk/tools/errs"
)

// TypingHandler relays ephemeral typing signals. No persistence, no
// store-backed authorization: being tracked in the room set is enough.
// Best-effort, droppable.
type TypingHandler struct{ s *Server }

func NewTypingHandler(s *Server) Handler { return &TypingHandler{s: s} }

func (h *TypingHandler) Type() string { return EventTyping }

func (h *TypingHandler) Handle(c *Client, payload map[string]any) error {
	p, err := decodePayload[TypingPayload](payload)
	if err != nil {
		return err
	}
	if p.RoomID == "" {
		return errs.ErrValidation.WithDetail("roomId is required")
	}
	if !h.s.rooms.Contains(p.RoomID, c.ConnID) {
		// not subscribed; drop silently, no correctness impact
		return nil
	}

	// never echoed back to the sender's own connection
	h.s.broadcastRoomExcept(p.RoomID, c.ConnID, BuildFrame(EventUserTyping, &UserTypingPayload{
		UserID:   c.UserID,
		RoomID:   p.RoomID,
		IsTyping: p.IsTyping,
	}))
	return nil
}
