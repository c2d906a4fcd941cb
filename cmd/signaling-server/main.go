package main

import (
	"fmt"
	"log"
	"net/http"

	"github.com/supportdesk/signaling-platform/internal/identity"
	"github.com/supportdesk/signaling-platform/internal/presence"
	"github.com/supportdesk/signaling-platform/internal/registry"
	"github.com/supportdesk/signaling-platform/internal/room"
	"github.com/supportdesk/signaling-platform/internal/signaling"
	"github.com/supportdesk/signaling-platform/internal/transport"
	"github.com/supportdesk/signaling-platform/pkg/protocol"
	"github.com/supportdesk/signaling-platform/pkg/service"
	"github.com/supportdesk/signaling-platform/pkg/variables"
	"go.uber.org/fx"

	_ "net/http/pprof"
)

func main() {
	go func() {
		addr := fmt.Sprintf("localhost:%s", variables.Env(variables.PPROF_PORT_NAME, variables.PPROF_PORT_DEFAULT))
		log.Println(http.ListenAndServe(addr, nil))
	}()

	fx.New(
		fx.Provide(
			registry.NewRegistry,
			room.NewStore,
			room.NewNotifier,
			presence.NewBroadcaster,
			signaling.NewRouter,
			signaling.NewLifecycle,

			transport.NewHub,
			func(hub *transport.Hub) protocol.Sender { return hub },

			protocol.AsHttpController(transport.NewWsController),
			protocol.AsHttpController(transport.NewHealthController),
			protocol.AsHttpController(room.NewRoomController),
			protocol.AsHttpController(identity.NewUsernameController),
		),

		service.LoggerModule,
		service.HttpModule,
	).Run()
}
