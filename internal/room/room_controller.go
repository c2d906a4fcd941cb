package room

import (
	"net/http"

	echo "github.com/labstack/echo/v4"
	"github.com/supportdesk/signaling-platform/pkg/protocol"
	"go.uber.org/fx"
)

type RoomListResponse struct {
	Rooms []RoomInfo `json:"rooms"`
}

type roomController struct {
	store *Store
}

func (ctrl *roomController) RoomControllerRoomList(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, RoomListResponse{
		Rooms: ctrl.store.List(),
	})
}

func (ctrl *roomController) Resolve(c *echo.Echo) error {
	c.GET("/api/rooms", ctrl.RoomControllerRoomList)
	return nil
}

var _ protocol.HttpResolvable = (*roomController)(nil)

type newRoomController_Params struct {
	fx.In

	Store *Store
}

func NewRoomController(params newRoomController_Params) *roomController {
	return &roomController{
		store: params.Store,
	}
}
