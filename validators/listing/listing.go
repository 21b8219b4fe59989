package listingValidator

import (
	"github.com/rahatcse5bu/Finder-Backend/middleware"

	"github.com/gofiber/fiber/v2"
)

// CreateListing validates a new listing request
func CreateListing() fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqData := new(struct {
			ListingType  string  `json:"listingType"`
			Title        string  `json:"title"`
			Description  string  `json:"description"`
			Location     string  `json:"location"`
			Price        float64 `json:"price"`
			ContactName  string  `json:"contactName"`
			ContactPhone string  `json:"contactPhone"`
			ContactEmail string  `json:"contactEmail"`
		})

		if err := c.BodyParser(reqData); err != nil {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request body!", nil)
		}

		errors := make(map[string]string)

		if reqData.ListingType != "TUITION" && reqData.ListingType != "PROPERTY" {
			errors["listingType"] = "Listing type must be TUITION or PROPERTY!"
		}
		if reqData.Title == "" {
			errors["title"] = "Title is required!"
		}
		if reqData.Price < 0 {
			errors["price"] = "Price cannot be negative!"
		}
		if reqData.ContactPhone == "" {
			errors["contactPhone"] = "Contact phone is required!"
		}

		if len(errors) > 0 {
			return middleware.ValidationErrorResponse(c, errors)
		}

		c.Locals("validatedCreateListing", reqData)
		return c.Next()
	}
}
