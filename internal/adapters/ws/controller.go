package ws

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/avess/huddle/internal/app"
	"github.com/avess/huddle/internal/config"
	"github.com/avess/huddle/internal/core"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

type Controller struct {
	Coord *app.Coordinator
	Cfg   *config.Config
}

func NewController(coord *app.Coordinator, cfg *config.Config) *Controller {
	return &Controller{Coord: coord, Cfg: cfg}
}

// HandleChat upgrades the request and runs the connection's pumps. The
// connection arrives unauthenticated; the first useful frame is an
// authenticate event handled by the coordinator.
func (ctl *Controller) HandleChat(ctx context.Context, c *gin.Context) {
	socket, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error().Err(err).Str("module", "ws").Msg("upgrade")
		return
	}

	id := core.ConnID(uuid.NewString())
	conn := newConn(id, socket, ctl.Cfg.SendBuffer)
	log.Info().Str("module", "ws").Str("conn", string(id)).Str("client", c.GetString("client_token")).Str("remote", c.ClientIP()).Msg("connected")

	ctx, cancel := context.WithCancel(ctx)
	go func() {
		defer cancel()
		ctl.writePump(ctx, conn)
	}()
	go func() {
		defer cancel()
		ctl.readPump(ctx, conn)
	}()
}
