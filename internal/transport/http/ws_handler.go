package http

import (
	"context"
	"errors"
	"io"
	stdhttp "net/http"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/teamchat/teamchat-server/internal/core"
	"github.com/teamchat/teamchat-server/internal/proto"
)

// WSHandler upgrades HTTP connections and bridges them to the chat core.
// Each connection gets one read loop and one write loop; the read loop
// dispatches inbound events to the facade in arrival order, which gives
// the per-connection ordering the core relies on.
type WSHandler struct {
	facade   *core.Facade
	msgLimit int
	log      *zerolog.Logger
}

// NewWSHandler builds a new WebSocket handler. msgLimit caps sendMessage
// events per connection per minute; zero disables the cap.
func NewWSHandler(facade *core.Facade, msgLimit int, logger *zerolog.Logger) stdhttp.Handler {
	return &WSHandler{facade: facade, msgLimit: msgLimit, log: logger}
}

func (h *WSHandler) ServeHTTP(w stdhttp.ResponseWriter, r *stdhttp.Request) {
	ctx := r.Context()

	wsConn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		InsecureSkipVerify: true,
	})
	if err != nil {
		h.log.Error().Err(err).Msg("ws accept error")
		return
	}
	defer wsConn.Close(websocket.StatusInternalError, "internal error")

	conn := core.NewConn(uuid.NewString())
	h.facade.Connect(conn)
	// Cleanup runs on a fresh context: the request context is already
	// cancelled by the time the socket is gone.
	defer h.facade.Disconnect(context.Background(), conn.ID)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	limiter := newRateLimiter(h.msgLimit)

	errCh := make(chan error, 2)
	go func() {
		errCh <- h.readLoop(ctx, wsConn, conn, limiter)
	}()
	go func() {
		errCh <- h.writeLoop(ctx, wsConn, conn)
	}()

	err = <-errCh
	cancel() // stop the other goroutine
	<-errCh

	status := websocket.StatusNormalClosure
	reason := "closing"
	if err != nil && !errors.Is(err, context.Canceled) {
		if errors.Is(err, io.EOF) {
			err = nil
		}
		if s := websocket.CloseStatus(err); s != 0 {
			status = s
		}
		if status == websocket.StatusNormalClosure || status == websocket.StatusGoingAway {
			err = nil
		}
		if err != nil {
			if status == websocket.StatusNormalClosure {
				status = websocket.StatusInternalError
			}
			reason = err.Error()
			h.log.Warn().Err(err).Str("conn_id", conn.ID).Msg("ws connection closed with error")
		}
	}

	wsConn.Close(status, reason)
}

func (h *WSHandler) readLoop(ctx context.Context, wsConn *websocket.Conn, conn *core.Conn, limiter *rateLimiter) error {
	for {
		var inbound proto.Inbound
		if err := wsjson.Read(ctx, wsConn, &inbound); err != nil {
			return err
		}

		if inbound.Event == proto.InboundSendMessage && !limiter.allow() {
			if err := wsjson.Write(ctx, wsConn, proto.Outbound{
				Event: proto.OutboundError,
				Error: &proto.Error{Code: "rate_limited", Msg: "too many messages"},
			}); err != nil {
				return err
			}
			continue
		}

		ack, err := h.dispatch(ctx, conn.ID, inbound)
		if err != nil {
			h.log.Warn().Err(err).Str("conn_id", conn.ID).Str("event", inbound.Event).Msg("inbound dispatch failed")
			return err
		}
		if ack != nil {
			if err := wsjson.Write(ctx, wsConn, *ack); err != nil {
				return err
			}
		}
	}
}

func (h *WSHandler) writeLoop(ctx context.Context, wsConn *websocket.Conn, conn *core.Conn) error {
	for {
		select {
		case event := <-conn.Events:
			if err := wsjson.Write(ctx, wsConn, outboundFromEvent(event)); err != nil {
				h.log.Error().Err(err).Str("conn_id", conn.ID).Msg("write ws event")
				return err
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}
