package realtime

import (
	"context"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"github.com/robinjoseph08/golib/echo/v4/middleware/logger"
	"github.com/taleweave/taleweave/pkg/auth"
)

const writeTimeout = 10 * time.Second

type handler struct {
	hub *Hub
}

func (h *handler) feed(c echo.Context) error {
	params := FeedQuery{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}
	user := auth.UserFromContext(c)
	log := logger.FromEchoContext(c)

	conn, err := websocket.Accept(c.Response(), c.Request(), nil)
	if err != nil {
		// Accept has already written the error response.
		log.Err(err).Warn("websocket upgrade failed")
		return nil
	}
	defer conn.CloseNow()

	sub := h.hub.Subscribe(user.ID, params.tableList()...)
	defer sub.Close()

	// The feed is one way. CloseRead discards anything the client sends and
	// cancels ctx once the client goes away.
	ctx := conn.CloseRead(c.Request().Context())

	for {
		select {
		case <-ctx.Done():
			return nil
		case inv, ok := <-sub.C():
			if !ok {
				_ = conn.Close(websocket.StatusNormalClosure, "feed closed")
				return nil
			}
			if err := write(ctx, conn, inv); err != nil {
				log.Err(err).Debug("failed to write invalidation")
				return nil
			}
		}
	}
}

func write(ctx context.Context, conn *websocket.Conn, inv Invalidation) error {
	ctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()
	return errors.WithStack(wsjson.Write(ctx, conn, inv))
}
