package cmd

import (
	"log"
	"os"
	"strconv"

	"waveplay/config"
	"waveplay/handlers"
	"waveplay/middleware"
	"waveplay/services"
	"waveplay/websocket"

	"github.com/gin-gonic/gin"
)

// StartWebServer starts the web server
func StartWebServer(port int) {
	// Set production mode if not specified
	if mode := os.Getenv("GIN_MODE"); mode != "" {
		gin.SetMode(mode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	// Initialize services
	hub := websocket.NewHub()
	go hub.Run()

	shareService := services.NewShareService(config.GetShareRoot(), config.GetManifestPath())

	optionsStore := config.NewOptionsStore(config.GetOptionsPath())
	stopWatch, err := optionsStore.Watch()
	if err != nil {
		log.Printf("Options file watch unavailable: %v", err)
	} else {
		defer stopWatch()
	}

	artworkStore := services.NewArtworkStore()
	tagService := services.NewTagService(artworkStore.Set)

	reporter := services.NewProgressReporter(hub)
	manager := services.NewSessionManager(services.NewClockEngine, shareService, reporter, tagService, optionsStore, hub)

	guard := services.NewGuard(services.ResolveHost(nil), manager.Session().ID)
	go guard.Run()
	defer guard.Stop()

	// Initialize handlers
	shareHandler := handlers.NewShareHandler(shareService)
	fileHandler := handlers.NewFileHandler(shareService)
	playerHandler := handlers.NewPlayerHandler(manager, guard, artworkStore, hub)
	settingsHandler := handlers.NewSettingsHandler(optionsStore)
	healthHandler := handlers.NewHealthHandler()

	// Setup router
	r := gin.Default()

	// Apply middleware
	r.Use(middleware.CORS())
	r.Use(middleware.Logging())
	r.Use(middleware.Security())

	// Setup routes
	setupRoutes(r, shareHandler, fileHandler, playerHandler, settingsHandler, healthHandler)

	// Start server
	portStr := strconv.Itoa(port)
	if serverPort := os.Getenv("SERVER_PORT"); serverPort != "" {
		portStr = serverPort
	}

	log.Printf("Waveplay web server starting on port %s", portStr)
	if err := r.Run(":" + portStr); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}

// setupRoutes configures all the HTTP routes
func setupRoutes(r *gin.Engine, shareHandler *handlers.ShareHandler, fileHandler *handlers.FileHandler, playerHandler *handlers.PlayerHandler, settingsHandler *handlers.SettingsHandler, healthHandler *handlers.HealthHandler) {
	// Health check endpoint
	r.GET("/health", healthHandler.HealthCheck)

	// Share resolution endpoints
	r.GET("/get-share-info/:shareToken", shareHandler.GetShareInfo)
	r.GET("/get-share-type/:shareToken", shareHandler.GetShareType)
	r.GET("/get-folder-structure/:shareToken", shareHandler.GetFolderStructure)

	// Byte stream for shared files
	r.GET("/s/:shareToken/download", fileHandler.Download)

	// API routes group
	apiGroup := r.Group("/api")
	{
		apiGroup.GET("/status", healthHandler.APIStatus)

		// Player session endpoints
		playerGroup := apiGroup.Group("/player")
		{
			playerGroup.POST("/load", playerHandler.Load)
			playerGroup.POST("/toggle", playerHandler.Toggle)
			playerGroup.POST("/volume", playerHandler.Volume)
			playerGroup.POST("/seek", playerHandler.Seek)
			playerGroup.POST("/close", playerHandler.Close)
			playerGroup.GET("/session", playerHandler.GetSession)
			playerGroup.GET("/metadata", playerHandler.GetMetadata)
			playerGroup.GET("/background", playerHandler.GetBackground)
		}

		// Viewing context detection
		apiGroup.POST("/context", playerHandler.SetContext)

		// WebSocket endpoints for real-time progress
		wsGroup := apiGroup.Group("/ws")
		{
			// WebSocket endpoint for one session's progress
			wsGroup.GET("/player/:sessionId", playerHandler.HandleWebSocketConnection)

			// WebSocket endpoint for all session updates
			wsGroup.GET("/player", playerHandler.HandleWebSocketAllConnection)
		}

		// Settings endpoints
		apiGroup.GET("/settings", settingsHandler.GetSettings)
		apiGroup.POST("/settings", settingsHandler.UpdateSettings)
	}
}
