package listingRoutes

import (
	listingController "github.com/rahatcse5bu/Finder-Backend/controllers/listing"
	"github.com/rahatcse5bu/Finder-Backend/middleware"
	listingValidator "github.com/rahatcse5bu/Finder-Backend/validators/listing"

	"github.com/gofiber/fiber/v2"
)

func SetupListingRoutes(app *fiber.App) {
	listingGroup := app.Group("/listing")

	listingGroup.Post("/", listingValidator.CreateListing(), middleware.JWTMiddleware, listingController.CreateListing)
	listingGroup.Get("/:id", middleware.JWTMiddleware, listingController.GetListing)
	listingGroup.Post("/:id/unlock", middleware.JWTMiddleware, listingController.UnlockContact)
}
