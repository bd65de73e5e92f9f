package http

import (
	stdhttp "net/http"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/rs/zerolog"

	"github.com/mkravets/roomwire-server/internal/config"
	"github.com/mkravets/roomwire-server/internal/core"
	"github.com/mkravets/roomwire-server/internal/identity"
	"github.com/mkravets/roomwire-server/internal/store"
)

// NewServer builds the HTTP server: REST surface plus the websocket upgrade
// endpoint.
func NewServer(ids *identity.Service, st store.Store, hub *core.Hub, wsHandler stdhttp.Handler, cfg *config.Config, logger *zerolog.Logger) *stdhttp.Server {
	gin.SetMode(gin.ReleaseMode)
	// Submissions declare additionalProperties: false in the served schema.
	binding.EnableDecoderDisallowUnknownFields = true

	router := gin.New()
	router.Use(gin.Recovery(), LoggerMiddleware(logger))

	identityHandlers := NewIdentityHandlers(ids, logger)
	documentHandlers := NewDocumentHandlers(st, hub, logger)

	router.GET("/health", healthHandler)
	router.POST("/id", identityHandlers.Issue)
	router.POST("/documents", documentHandlers.Submit)
	router.GET("/documents", documentHandlers.List)
	router.GET("/schema", documentHandlers.Schema)
	router.GET("/ws", gin.WrapH(wsHandler))
	router.NoRoute(notFoundHandler)

	return &stdhttp.Server{
		Addr:              cfg.Addr,
		Handler:           router,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
	}
}

// ErrorResponse represents an error response body.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

func healthHandler(c *gin.Context) {
	c.String(stdhttp.StatusOK, "ok")
}

func notFoundHandler(c *gin.Context) {
	c.JSON(stdhttp.StatusNotFound, ErrorResponse{
		Error:   "Not Found",
		Message: "The route " + c.Request.URL.Path + " does not exist",
	})
}
