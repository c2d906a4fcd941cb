package identity

import (
	"net/http"

	echo "github.com/labstack/echo/v4"
	"github.com/supportdesk/signaling-platform/internal/registry"
	"github.com/supportdesk/signaling-platform/pkg/protocol"
	"go.uber.org/fx"
)

type CheckUsernameResponse struct {
	Username  string `json:"username"`
	Available bool   `json:"available"`
}

// usernameController answers whether a display name is free to use,
// so the front-end can refuse a name that is already online before
// opening the websocket.
type usernameController struct {
	registry *registry.Registry
}

func (ctrl *usernameController) UsernameControllerCheck(ctx echo.Context) error {
	username := ctx.QueryParam("username")
	if username == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "username query parameter is required")
	}

	return ctx.JSON(http.StatusOK, CheckUsernameResponse{
		Username:  username,
		Available: !ctrl.registry.IsUsernameTaken(username),
	})
}

func (ctrl *usernameController) Resolve(c *echo.Echo) error {
	c.GET("/api/check-username", ctrl.UsernameControllerCheck)
	return nil
}

var _ protocol.HttpResolvable = (*usernameController)(nil)

type newUsernameController_Params struct {
	fx.In

	Registry *registry.Registry
}

func NewUsernameController(params newUsernameController_Params) *usernameController {
	return &usernameController{
		registry: params.Registry,
	}
}
