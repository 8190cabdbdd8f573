package api

import (
	"github.com/gofiber/fiber/v2"
	"github.com/trackforge/trackforge/pkg/api/routes"
	"github.com/trackforge/trackforge/pkg/engine"
)

func SetupServer(listen string, eng *engine.Engine) {
	webApp := fiber.New()

	webApp.Use(NewLogger())

	webApp.Get("version", routes.APIVersion)

	tracksGroup := webApp.Group("/tracks")
	routes.TracksRouter(tracksGroup, eng)

	webApp.Listen(listen)
}
