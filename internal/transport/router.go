package transport

import (
	"context"
	"log/slog"

	"github.com/gin-gonic/gin"

	"github.com/brightdoor/leadrouter/internal/domain/event"
	portdirectory "github.com/brightdoor/leadrouter/internal/port/directory"
	porteventbus "github.com/brightdoor/leadrouter/internal/port/eventbus"
	portidem "github.com/brightdoor/leadrouter/internal/port/idempotency"
	"github.com/brightdoor/leadrouter/internal/service/allocator"
	metricssvc "github.com/brightdoor/leadrouter/internal/service/metrics"
	agenthandler "github.com/brightdoor/leadrouter/internal/transport/agent"
	assignhandler "github.com/brightdoor/leadrouter/internal/transport/assignment"
	mcptransport "github.com/brightdoor/leadrouter/internal/transport/mcp"
	wshandler "github.com/brightdoor/leadrouter/internal/transport/ws"
)

func NewRouter(
	ctx context.Context,
	allocSvc *allocator.Service,
	metricsSvc *metricssvc.Service,
	directory portdirectory.AgentDirectory,
	idemStore portidem.Store,
	mcpServer *mcptransport.Server,
	eventBus porteventbus.EventBus,
) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()

	r.Use(gin.Recovery())
	r.Use(RequestLogger())
	r.Use(CORSMiddleware())
	r.Use(IdempotencyMiddleware(idemStore))

	api := r.Group("/api")

	assignhandler.Register(api.Group("/assignments"), allocSvc, metricsSvc)
	agenthandler.Register(api.Group("/agents"), directory)

	hub := wshandler.NewHub()
	hub.Register(api.Group("/ws"))

	// Bridge: one LISTEN connection for the assignment channel; every engine
	// event is forwarded to ws clients, which filter on event.Type.
	if _, err := eventBus.Subscribe(ctx, event.ChannelAssignment, func(_ context.Context, e event.Event) {
		hub.Broadcast(e)
	}); err != nil {
		slog.Error("failed to subscribe assignment channel to WS hub", "error", err)
	}

	mcpHandler := gin.WrapH(mcpServer.Handler())
	r.Any("/mcp", mcpHandler)
	r.Any("/mcp/*path", mcpHandler)

	return r
}
