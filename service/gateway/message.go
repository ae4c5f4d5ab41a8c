package gateway

import (
	"CityTalk/tools/errs"
)

// SendHandler is the message broadcast path: validate, re-authorize, persist,
// fan out, ack. Broadcast strictly happens-after the durable write.
type SendHandler struct{ s *Server }

func NewSendHandler(s *Server) Handler { return &SendHandler{s: s} }

func (h *SendHandler) Type() string { return EventSend }

func (h *SendHandler) Handle(c *Client, payload map[string]any) error {
	p, err := decodePayload[SendPayload](payload)
	if err != nil {
		return err
	}
	if p.RoomID == "" {
		return errs.ErrValidation.WithDetail("roomId is required")
	}
	// transport-boundary content check, independent of downstream sanitization
	if err := checkString("content", p.Content, h.s.cfg.MaxContentLen); err != nil {
		return err
	}

	// persisted membership is re-checked on EVERY send: a revocation after
	// join must bite even while the connection is still in the room set
	ctx, cancel := h.s.storeCtx()
	ok, err := h.s.roomAuth.IsMember(ctx, c.UserID, p.RoomID)
	cancel()
	if err != nil {
		return errs.ErrPersistence.WithDetail("membership check: " + err.Error())
	}
	if !ok {
		return errs.ErrAuthorization.WithDetail("user=" + c.UserID + " room=" + p.RoomID)
	}

	ctx, cancel = h.s.storeCtx()
	msg, err := h.s.messages.Create(ctx, p.RoomID, c.Profile, p.Content)
	cancel()
	if err != nil {
		// no broadcast; the sender alone hears about it
		return errs.ErrPersistence.WithDetail("create message: " + err.Error())
	}

	// everyone tracked in the room, sender included, converges on the
	// persisted record
	h.s.broadcastRoom(p.RoomID, BuildFrame(EventNewMessage, msg))
	h.s.sendFrame(c, EventMessageSent, &MessageSentPayload{MessageID: msg.MessageID, Message: msg})
	return nil
}
