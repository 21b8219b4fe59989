package main

import (
	"log"
	"time"

	"github.com/rahatcse5bu/Finder-Backend/config"
	paymentController "github.com/rahatcse5bu/Finder-Backend/controllers/payment"
	"github.com/rahatcse5bu/Finder-Backend/database"
	"github.com/rahatcse5bu/Finder-Backend/gateway"
	listingRoutes "github.com/rahatcse5bu/Finder-Backend/routers/listingRoutes"
	paymentRoutes "github.com/rahatcse5bu/Finder-Backend/routers/paymentRoutes"
	"github.com/rahatcse5bu/Finder-Backend/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
)

func main() {
	config.LoadConfig()
	database.ConnectDb()

	// One gateway client for the whole process; handlers and the
	// reconciliation sweep share it.
	bkash := gateway.NewBkashClient(gateway.Config{
		BaseURL:     config.AppConfig.BkashBaseURL,
		AppKey:      config.AppConfig.BkashAppKey,
		AppSecret:   config.AppConfig.BkashAppSecret,
		Username:    config.AppConfig.BkashUsername,
		Password:    config.AppConfig.BkashPassword,
		CallbackURL: config.AppConfig.BkashCallbackURL,
		Timeout:     5 * time.Second,
		RetryCount:  2,
	})
	paymentController.GatewayClient = bkash

	app := fiber.New()

	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,PUT,DELETE",        // Allowed HTTP methods
		AllowHeaders: "Content-Type,Authorization", // Allowed headers
	}))

	// Enable the built-in logger middleware to log all requests
	app.Use(logger.New(logger.Config{
		Format: "[${time}] ${ip} ${method} ${path} ${status} ${latency}\n",
	}))

	paymentRoutes.SetupPaymentRoutes(app)
	listingRoutes.SetupListingRoutes(app)

	// Sweep payments whose callback never arrived
	utils.StartReconciliationScheduler(bkash)

	log.Printf("Server is running on port %s", config.AppConfig.Port)
	log.Fatal(app.Listen(":" + config.AppConfig.Port))
}
