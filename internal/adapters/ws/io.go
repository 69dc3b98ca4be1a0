package ws

import (
	"context"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

const writeWait = 5 * time.Second

func (ctl *Controller) writePump(ctx context.Context, c *Conn) {
	ticker := time.NewTicker(ctl.Cfg.PingPeriod)
	defer func() {
		ticker.Stop()
		c.Close()
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case frame, ok := <-c.send:
			if !ok {
				_ = c.ws.WriteControl(websocket.CloseMessage, []byte{}, time.Now().Add(writeWait))
				return
			}
			if err := c.ws.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				log.Error().Err(err).Str("module", "ws").Str("conn", string(c.id)).Msg("set write deadline")
				return
			}
			if err := c.ws.WriteMessage(websocket.TextMessage, frame); err != nil {
				log.Debug().Err(err).Str("module", "ws").Str("conn", string(c.id)).Msg("write")
				return
			}
		case <-ticker.C:
			if err := c.ws.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				log.Debug().Err(err).Str("module", "ws").Str("conn", string(c.id)).Msg("ping")
				return
			}
		}
	}
}

// readPump is the single reader for the connection, so frames reach the
// dispatcher in wire order. Any read error, graceful or not, funnels into
// one Disconnect call; the coordinator makes the cleanup idempotent anyway.
func (ctl *Controller) readPump(ctx context.Context, c *Conn) {
	defer func() {
		c.Close()
		ctl.Coord.Disconnect(ctx, c)
		log.Info().Str("module", "ws").Str("conn", string(c.id)).Msg("closed")
	}()

	pongWait := ctl.Cfg.PingPeriod * 10 / 9
	c.ws.SetReadLimit(ctl.Cfg.ReadLimit)
	_ = c.ws.SetReadDeadline(time.Now().Add(pongWait))
	c.ws.SetPongHandler(func(string) error {
		return c.ws.SetReadDeadline(time.Now().Add(pongWait))
	})

	limiter := newRateLimiter(ctl.Cfg.MsgBurst, ctl.Cfg.MsgInterval)
	for {
		_, data, err := c.ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Debug().Err(err).Str("module", "ws").Str("conn", string(c.id)).Msg("read")
			}
			return
		}
		if !limiter.Allow() {
			log.Warn().Str("module", "ws").Str("conn", string(c.id)).Msg("rate limit exceeded, frame dropped")
			continue
		}
		ctl.Coord.Dispatch(ctx, c, data)
	}
}
