package transport

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	echo "github.com/labstack/echo/v4"
	"github.com/supportdesk/signaling-platform/internal/room"
	"github.com/supportdesk/signaling-platform/internal/signaling"
	"github.com/supportdesk/signaling-platform/pkg/protocol"
	"github.com/supportdesk/signaling-platform/pkg/variables"
	"go.uber.org/fx"
)

type wsController struct {
	hub       *Hub
	router    *signaling.Router
	lifecycle *signaling.Lifecycle
	notifier  *room.Notifier
	upgrader  websocket.Upgrader
	logger    *slog.Logger
	queueSize int
}

// WsControllerSignaling is the main signaling endpoint: every inbound
// envelope goes through the router, the close goes through the
// lifecycle controller.
func (ctrl *wsController) WsControllerSignaling(ctx echo.Context) error {
	conn, err := ctrl.upgrader.Upgrade(ctx.Response().Writer, ctx.Request(), nil)
	if err != nil {
		ctrl.logger.Error("unable to upgrade request", slog.String("err", err.Error()))
		return err
	}

	id := uuid.NewString()
	client := newClient(id, conn, ctrl.queueSize, ctrl.logger,
		ctrl.router.Dispatch,
		func(closed protocol.ConnectionID) {
			ctrl.hub.Remove(closed)
			ctrl.lifecycle.OnDisconnect(closed)
		})

	ctrl.hub.Add(client)
	ctrl.lifecycle.OnConnect(id)

	go client.writePump()
	client.readPump()
	return nil
}

// WsControllerRoomNotifier serves lobby clients that only want live
// room-list updates. Inbound data on this socket is ignored.
func (ctrl *wsController) WsControllerRoomNotifier(ctx echo.Context) error {
	conn, err := ctrl.upgrader.Upgrade(ctx.Response().Writer, ctx.Request(), nil)
	if err != nil {
		ctrl.logger.Error("unable to upgrade request", slog.String("err", err.Error()))
		return err
	}

	id := uuid.NewString()
	client := newClient(id, conn, ctrl.queueSize, ctrl.logger,
		func(protocol.ConnectionID, string, json.RawMessage) {},
		func(closed protocol.ConnectionID) {
			ctrl.notifier.Stop(closed)
			ctrl.hub.Remove(closed)
		})

	ctrl.hub.Add(client)
	ctrl.notifier.Listen(id)

	go client.writePump()
	client.readPump()
	return nil
}

func (ctrl *wsController) Resolve(c *echo.Echo) error {
	c.GET("/ws", ctrl.WsControllerSignaling)
	c.GET("/ws/rooms", ctrl.WsControllerRoomNotifier)
	return nil
}

var _ protocol.HttpResolvable = (*wsController)(nil)

type newWsController_Params struct {
	fx.In

	Hub       *Hub
	Router    *signaling.Router
	Lifecycle *signaling.Lifecycle
	Notifier  *room.Notifier
	Logger    *slog.Logger
}

func NewWsController(params newWsController_Params) *wsController {
	return &wsController{
		hub:       params.Hub,
		router:    params.Router,
		lifecycle: params.Lifecycle,
		notifier:  params.Notifier,
		logger:    params.Logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  maxMessageSize,
			WriteBufferSize: maxMessageSize,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		queueSize: variables.EnvInt(variables.OUTBOUND_QUEUE_SIZE_NAME, variables.OUTBOUND_QUEUE_SIZE_DEFAULT),
	}
}
