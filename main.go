package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"

	"KopiPos/app/config"
	"KopiPos/app/database"
	"KopiPos/app/services"
	"KopiPos/app/websocket"

	"github.com/joho/godotenv"
)

// catalog joins the menu and material services behind the read-only
// catalog surface the REST handlers expect.
type catalog struct {
	*services.MenuService
	*services.MaterialService
}

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment defaults")
	}

	cfg := config.Load()

	logger := services.NewLoggerService(cfg.System.DataDir)
	defer logger.Close()
	logger.LogInfo("KopiPos daemon starting")

	if err := database.Initialize(cfg); err != nil {
		logger.LogError("Failed to connect to remote store", err)
		os.Exit(1)
	}
	defer database.Close()

	if err := database.InitializeLocalDB(cfg.LocalDBPath()); err != nil {
		logger.LogError("Failed to open offline mirror", err)
		os.Exit(1)
	}
	defer database.GetLocalDB().Close()

	orderSvc := services.NewOrderService()
	menuSvc := services.NewMenuService()
	materialSvc := services.NewMaterialService()
	dashboardSvc := services.NewDashboardService()

	orderSvc.SetWebhookService(services.NewWebhookService(cfg.Webhook))
	orderSvc.SetQRISService(services.NewQRISService(cfg.System.DataDir))

	feedServer := websocket.NewServer(cfg.Server.WSPort, cfg.Server.EnableMDNS)
	feedServer.SetRESTHandlers(websocket.NewRESTHandlers(
		orderSvc,
		catalog{menuSvc, materialSvc},
		dashboardSvc,
	))

	orderSvc.SetPublisher(feedServer)
	menuSvc.SetPublisher(feedServer)
	materialSvc.SetPublisher(feedServer)

	go func() {
		defer logger.RecoverPanic()
		if err := feedServer.Start(); err != nil {
			logger.LogError("Feed server stopped", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.LogInfo("Shutting down")
	feedServer.Stop()
}
