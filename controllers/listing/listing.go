package listingController

import (
	"errors"

	"github.com/rahatcse5bu/Finder-Backend/config"
	"github.com/rahatcse5bu/Finder-Backend/database"
	"github.com/rahatcse5bu/Finder-Backend/ledger"
	"github.com/rahatcse5bu/Finder-Backend/middleware"
	"github.com/rahatcse5bu/Finder-Backend/models"

	"github.com/gofiber/fiber/v2"
)

// CreateListing posts a new tuition/property listing
func CreateListing(c *fiber.Ctx) error {
	userId := c.Locals("userId").(uint)

	var user models.User
	if err := database.Database.Db.Where("id = ? AND is_deleted = false", userId).First(&user).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Access Denied!", nil)
	}

	reqData, ok := c.Locals("validatedCreateListing").(*struct {
		ListingType  string  `json:"listingType"`
		Title        string  `json:"title"`
		Description  string  `json:"description"`
		Location     string  `json:"location"`
		Price        float64 `json:"price"`
		ContactName  string  `json:"contactName"`
		ContactPhone string  `json:"contactPhone"`
		ContactEmail string  `json:"contactEmail"`
	})
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request data!", nil)
	}

	listing := models.Listing{
		PosterID:     userId,
		ListingType:  models.ListingType(reqData.ListingType),
		Title:        reqData.Title,
		Description:  reqData.Description,
		Location:     reqData.Location,
		Price:        reqData.Price,
		ContactName:  reqData.ContactName,
		ContactPhone: reqData.ContactPhone,
		ContactEmail: reqData.ContactEmail,
		IsActive:     true,
	}

	if err := database.Database.Db.Create(&listing).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to create listing!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Listing created!", fiber.Map{
		"listing": listing,
	})
}

// GetListing returns a listing; contact details are included only for
// the poster or a user who has already paid to unlock them.
func GetListing(c *fiber.Ctx) error {
	userId := c.Locals("userId").(uint)
	listingId, err := c.ParamsInt("id")
	if err != nil || listingId <= 0 {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid listing id!", nil)
	}

	var user models.User
	if err := database.Database.Db.Where("id = ? AND is_deleted = false", userId).First(&user).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Access Denied!", nil)
	}

	db := database.Database.Db

	var listing models.Listing
	if err := db.Where("id = ? AND is_active = true AND is_deleted = false", listingId).First(&listing).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Listing not found!", fiber.Map{"code": "NOT_FOUND"})
	}

	unlocked := listing.PosterID == userId
	if !unlocked {
		unlocked, _ = ledger.HasUnlockedContact(db, userId, listing.ID)
	}

	data := fiber.Map{
		"listing":  listing,
		"unlocked": unlocked,
	}
	if unlocked {
		data["contact"] = contactPayload(&listing)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Listing fetched!", data)
}

// UnlockContact is the paywall gate: debits the unlock price from the
// user's balance and returns the listing's contact details. The
// listing is loaded before the debit, so the payload returned after a
// committed debit can never be missing.
func UnlockContact(c *fiber.Ctx) error {
	userId := c.Locals("userId").(uint)
	listingId, err := c.ParamsInt("id")
	if err != nil || listingId <= 0 {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid listing id!", nil)
	}

	var user models.User
	if err := database.Database.Db.Where("id = ? AND is_deleted = false", userId).First(&user).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Access Denied!", nil)
	}

	db := database.Database.Db

	var listing models.Listing
	if err := db.Where("id = ? AND is_active = true AND is_deleted = false", listingId).First(&listing).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Listing not found!", fiber.Map{"code": "NOT_FOUND"})
	}

	// The poster sees their own contact for free
	if listing.PosterID == userId {
		return middleware.JsonResponse(c, fiber.StatusOK, true, "Contact details fetched!", fiber.Map{
			"contact": contactPayload(&listing),
			"charged": false,
		})
	}

	// Already paid once; never charge twice for the same listing
	if unlocked, err := ledger.HasUnlockedContact(db, userId, listing.ID); err == nil && unlocked {
		return middleware.JsonResponse(c, fiber.StatusOK, true, "Contact details fetched!", fiber.Map{
			"contact": contactPayload(&listing),
			"charged": false,
		})
	}

	price := config.AppConfig.ContactUnlockPrice

	trx, err := ledger.DebitForContact(db, userId, &listing, price)
	if err != nil {
		if errors.Is(err, ledger.ErrInsufficientBalance) {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Insufficient balance!", fiber.Map{
				"code":     "INSUFFICIENT_BALANCE",
				"required": price,
				"balance":  user.Balance,
			})
		}
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to unlock contact!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Contact details unlocked!", fiber.Map{
		"contact":       contactPayload(&listing),
		"charged":       true,
		"transactionId": trx.TrxID,
		"amount":        trx.Amount,
		"balanceAfter":  trx.BalanceAfter,
	})
}

func contactPayload(listing *models.Listing) fiber.Map {
	return fiber.Map{
		"name":  listing.ContactName,
		"phone": listing.ContactPhone,
		"email": listing.ContactEmail,
	}
}
