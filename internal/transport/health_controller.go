package transport

import (
	"net/http"

	echo "github.com/labstack/echo/v4"
	"github.com/supportdesk/signaling-platform/internal/presence"
	"github.com/supportdesk/signaling-platform/internal/registry"
	"github.com/supportdesk/signaling-platform/internal/room"
	"github.com/supportdesk/signaling-platform/internal/signaling"
	"github.com/supportdesk/signaling-platform/pkg/protocol"
	"go.uber.org/fx"
)

type HealthResponse struct {
	Status         string                `json:"status"`
	Connections    int                   `json:"connections"`
	ConnectedUsers int                   `json:"connectedUsers"`
	Rooms          int                   `json:"rooms"`
	PresenceEvents uint64                `json:"presenceEvents"`
	Dropped        uint64                `json:"dropped"`
	Router         signaling.RouterStats `json:"router"`
}

type healthController struct {
	hub      *Hub
	router   *signaling.Router
	registry *registry.Registry
	rooms    *room.Store
	presence *presence.Broadcaster
}

func (ctrl *healthController) HealthControllerStatus(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, HealthResponse{
		Status:         "ok",
		Connections:    ctrl.hub.ConnectionCount(),
		ConnectedUsers: len(ctrl.registry.SnapshotUsernames()),
		Rooms:          len(ctrl.rooms.List()),
		PresenceEvents: ctrl.presence.EventsEmitted(),
		Dropped:        ctrl.hub.Dropped(),
		Router:         ctrl.router.Stats(),
	})
}

func (ctrl *healthController) Resolve(c *echo.Echo) error {
	c.GET("/api/health", ctrl.HealthControllerStatus)
	return nil
}

var _ protocol.HttpResolvable = (*healthController)(nil)

type newHealthController_Params struct {
	fx.In

	Hub      *Hub
	Router   *signaling.Router
	Registry *registry.Registry
	Rooms    *room.Store
	Presence *presence.Broadcaster
}

func NewHealthController(params newHealthController_Params) *healthController {
	return &healthController{
		hub:      params.Hub,
		router:   params.Router,
		registry: params.Registry,
		rooms:    params.Rooms,
		presence: params.Presence,
	}
}
