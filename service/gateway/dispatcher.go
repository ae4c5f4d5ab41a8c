package gateway

import (
	"encoding/json"
	"fmt"
	"math"
	"unicode/utf8"

	"CityTalk/logger"
	"CityTalk/tools/errs"

	"github.com/mitchellh/mapstructure"
)

// Handler processes one inbound event type on a connection's event loop.
type Handler interface {
	Type() string
	Handle(c *Client, payload map[string]any) error
}

// Dispatcher validates inbound payloads against the field contract and routes
// them to the registered handler. A violation emits a structured error to the
// originating connection; the handler never runs.
type Dispatcher struct {
	handlers map[string]Handler
	srv      *Server
	maxLen   int
}

func NewDispatcher(srv *Server, maxStringLen int) *Dispatcher {
	return &Dispatcher{
		handlers: make(map[string]Handler),
		srv:      srv,
		maxLen:   maxStringLen,
	}
}

func (d *Dispatcher) Register(h Handler) { d.handlers[h.Type()] = h }

// Dispatch runs the full path for one frame: payload contract, handler
// lookup, handler. Event-level failures are converted to an error frame here;
// they never tear down the connection or escape to the read loop.
func (d *Dispatcher) Dispatch(c *Client, f *Frame) {
	defer func() {
		if r := recover(); r != nil {
			logger.Errorf("[dispatch] panic conn=%s type=%s: %v", c.ConnID, f.Type, r)
			d.srv.sendError(c, errs.ErrValidation)
		}
	}()

	h, ok := d.handlers[f.Type]
	if !ok {
		logger.Infof("[dispatch] no handler conn=%s type=%s", c.ConnID, f.Type)
		d.srv.sendError(c, errs.ErrValidation.WithDetail("unknown event type "+f.Type))
		return
	}

	payload, err := d.validatePayload(f.Payload)
	if err != nil {
		logger.Infof("[dispatch] bad payload conn=%s type=%s: %v", c.ConnID, f.Type, err)
		d.srv.sendError(c, err)
		return
	}

	if err := h.Handle(c, payload); err != nil {
		logger.Infof("[dispatch] handler err conn=%s user=%s type=%s: %v", c.ConnID, c.UserID, f.Type, err)
		d.srv.sendError(c, err)
	}
}

// validatePayload enforces the generic field contract: the payload must be a
// JSON object (arrays and scalars rejected), strings are non-empty, bounded
// and markup-free, numbers are finite and bounded, booleans pass through,
// anything else is rejected.
func (d *Dispatcher) validatePayload(raw json.RawMessage) (map[string]any, error) {
	if len(raw) == 0 {
		return nil, errs.ErrValidation.WithDetail("missing payload")
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, errs.ErrValidation.WithDetail("payload not valid JSON")
	}
	obj, ok := v.(map[string]any)
	if !ok {
		return nil, errs.ErrValidation.WithDetail("payload must be an object")
	}
	for key, val := range obj {
		if err := checkString("key", key, 128); err != nil {
			return nil, err
		}
		switch tv := val.(type) {
		case string:
			if err := checkString(key, tv, d.maxLen); err != nil {
				return nil, err
			}
		case float64:
			if math.IsNaN(tv) || math.IsInf(tv, 0) || math.Abs(tv) > 1e9 {
				return nil, errs.ErrValidation.WithDetail(fmt.Sprintf("field %s out of range", key))
			}
		case bool:
			// pass through
		default:
			return nil, errs.ErrValidation.WithDetail(fmt.Sprintf("field %s has unsupported type", key))
		}
	}
	return obj, nil
}

func checkString(name, s string, maxLen int) error {
	if s == "" {
		return errs.ErrValidation.WithDetail("field " + name + " is empty")
	}
	// the ceiling is in characters, not bytes
	if utf8.RuneCountInString(s) > maxLen {
		return errs.ErrValidation.WithDetail(fmt.Sprintf("field %s exceeds %d chars", name, maxLen))
	}
	for _, r := range s {
		if r == '<' || r == '>' {
			return errs.ErrValidation.WithDetail("field " + name + " contains markup")
		}
	}
	return nil
}

// decodePayload maps a validated object onto the event's typed struct.
// Unknown keys are an error, which closes the injected-field class of attacks
// by construction rather than by denylisting key names.
func decodePayload[T any](payload map[string]any) (*T, error) {
	out := new(T)
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:      out,
		ErrorUnused: true,
	})
	if err != nil {
		return nil, errs.ErrValidation.WithDetail(err.Error())
	}
	if err := dec.Decode(payload); err != nil {
		return nil, errs.ErrValidation.WithDetail(err.Error())
	}
	return out, nil
}
