package gateway

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"time"

	"CityTalk/logger"
	usermodel "CityTalk/module/user/model"
	"CityTalk/tools/errs"
	"CityTalk/tools/ids"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{ReadBufferSize: 4096, WriteBufferSize: 4096, CheckOrigin: func(r *http.Request) bool { return true }}

const maxFrameSize = 64 << 10

// HandleWS is the only way into the gateway. Upgrade, then a hard
// authentication gate: no event is processed and no registry is touched until
// the handshake succeeds; a failed handshake tears the socket down.
func (s *Server) HandleWS(c *gin.Context) {
	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logger.Infof("[HandleWS] upgrade websocket error: %v", err)
		return
	}
	addr := sourceAddr(c.Request)

	profile, aerr := s.handshake(ws, c.Request, addr)
	if aerr != nil {
		logger.Infof("[HandleWS] handshake rejected addr=%s: %v", addr, aerr)
		_ = ws.SetWriteDeadline(time.Now().Add(s.cfg.WriteWait))
		_ = ws.WriteMessage(websocket.TextMessage, BuildFrame(EventError, &ErrorPayload{Message: errs.EMsg(aerr)}))
		_ = ws.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.ClosePolicyViolation, ""))
		_ = ws.Close()
		return
	}

	client := NewClient(ids.GenerateString(), ws, addr, s.cfg.SendQueueSize)
	client.UserID = profile.UserID
	client.Profile = profile

	// connection and presence entry come into being together
	s.handleConnect(client)
	go client.writePump(s.cfg.PingPeriod, s.cfg.WriteWait)
	s.sendFrame(client, EventAuthAck, &AuthAckPayload{UserID: profile.UserID})
	logger.Infof("[HandleWS] connected user=%s conn=%s addr=%s", client.UserID, client.ConnID, addr)

	ws.SetReadLimit(maxFrameSize)
	_ = ws.SetReadDeadline(time.Now().Add(s.cfg.PongWait))
	ws.SetPongHandler(func(string) error {
		return ws.SetReadDeadline(time.Now().Add(s.cfg.PongWait))
	})

	// read loop: events on this connection run to completion, in order
	for {
		mt, data, rerr := ws.ReadMessage()
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
			break
		}
		if mt != websocket.TextMessage && mt != websocket.BinaryMessage {
			continue
		}

		frame, perr := ParseFrame(data)
		if perr != nil {
			sample := data
			if len(sample) > 256 {
				sample = sample[:256]
			}
			logger.Infof("[WS] ParseFrame err conn=%s err=%v sample=%q", client.ConnID, perr, sample)
			s.sendError(client, errs.ErrValidation)
			continue
		}

		s.disp.Dispatch(client, frame)
	}

	s.handleDisconnect(client)
	client.Close()
}

// handshake reads the mandatory first frame (type "auth") and authenticates.
// Token precedence: auth payload, then the token query parameter, then the
// access_token cookie.
func (s *Server) handshake(ws *websocket.Conn, r *http.Request, addr string) (*usermodel.UserProfile, error) {
	_ = ws.SetReadDeadline(time.Now().Add(s.cfg.AuthTimeout))
	ws.SetReadLimit(maxFrameSize)

	_, raw, err := ws.ReadMessage()
	if err != nil {
		return nil, errs.ErrAuthentication.WithDetail("handshake read: " + err.Error())
	}
	f, err := ParseFrame(raw)
	if err != nil || f.Type != EventAuth {
		return nil, errs.ErrAuthentication.WithDetail("first frame must be auth")
	}
	// the payload is optional here: the token may ride on the query/cookie
	var ap AuthPayload
	if len(f.Payload) > 0 {
		if err := json.Unmarshal(f.Payload, &ap); err != nil {
			return nil, errs.ErrAuthentication.WithDetail("malformed auth payload")
		}
	}
	token := ResolveToken(ap.Token, r)

	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.StoreTimeout)
	defer cancel()
	return s.auth.Authenticate(ctx, token, addr)
}

func sourceAddr(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
