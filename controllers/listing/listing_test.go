package listingController_test

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rahatcse5bu/Finder-Backend/config"
	"github.com/rahatcse5bu/Finder-Backend/database"
	"github.com/rahatcse5bu/Finder-Backend/middleware"
	"github.com/rahatcse5bu/Finder-Backend/models"
	listingRoutes "github.com/rahatcse5bu/Finder-Backend/routers/listingRoutes"
)

type envelope struct {
	Status  bool                   `json:"status"`
	Message string                 `json:"message"`
	Data    map[string]interface{} `json:"data"`
}

func setupApp(t *testing.T) *fiber.App {
	t.Helper()

	config.LoadConfig()
	database.ConnectTestDb()

	app := fiber.New()
	listingRoutes.SetupListingRoutes(app)
	return app
}

func seedUser(t *testing.T, email string, balance float64) (*models.User, string) {
	t.Helper()

	user := models.User{Email: email, Password: "secret", Balance: balance}
	require.NoError(t, database.Database.Db.Create(&user).Error)

	token, err := middleware.GenerateJWT(user.ID, user.Name, user.Role, user.Email, user.Mobile)
	require.NoError(t, err)
	return &user, token
}

func seedListing(t *testing.T, posterID uint) *models.Listing {
	t.Helper()

	listing := models.Listing{
		PosterID:     posterID,
		ListingType:  models.ListingTypeProperty,
		Title:        "2BR flat in Dhanmondi",
		Location:     "Dhaka",
		Price:        18000,
		ContactName:  "Karim",
		ContactPhone: "01811111111",
		ContactEmail: "karim@example.com",
		IsActive:     true,
	}
	require.NoError(t, database.Database.Db.Create(&listing).Error)
	return &listing
}

func doJSON(t *testing.T, app *fiber.App, method, path, token, body string) (*http.Response, envelope) {
	t.Helper()

	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := app.Test(req, -1)
	require.NoError(t, err)

	var env envelope
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&env))
	resp.Body.Close()
	return resp, env
}

func dbBalance(t *testing.T, userID uint) float64 {
	t.Helper()

	var user models.User
	require.NoError(t, database.Database.Db.First(&user, userID).Error)
	return user.Balance
}

func TestUnlockContactFlow(t *testing.T) {
	app := setupApp(t)
	poster, _ := seedUser(t, "poster@test.com", 0)
	buyer, buyerToken := seedUser(t, "buyer@test.com", 10)
	listing := seedListing(t, poster.ID)

	path := fmt.Sprintf("/listing/%d/unlock", listing.ID)

	resp, env := doJSON(t, app, http.MethodPost, path, buyerToken, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.True(t, env.Status)

	assert.Equal(t, true, env.Data["charged"])
	contact := env.Data["contact"].(map[string]interface{})
	assert.Equal(t, "01811111111", contact["phone"])
	assert.Equal(t, 5.0, dbBalance(t, buyer.ID))

	// Unlocking again returns the contact without a second charge
	resp, env = doJSON(t, app, http.MethodPost, path, buyerToken, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, false, env.Data["charged"])
	assert.Equal(t, 5.0, dbBalance(t, buyer.ID))
}

func TestUnlockInsufficientBalance(t *testing.T) {
	app := setupApp(t)
	poster, _ := seedUser(t, "poster2@test.com", 0)
	buyer, buyerToken := seedUser(t, "broke@test.com", 3)
	listing := seedListing(t, poster.ID)

	resp, env := doJSON(t, app, http.MethodPost, fmt.Sprintf("/listing/%d/unlock", listing.ID), buyerToken, "")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "INSUFFICIENT_BALANCE", env.Data["code"])

	// No side effect: balance unchanged, no transaction recorded
	assert.Equal(t, 3.0, dbBalance(t, buyer.ID))
	var count int64
	database.Database.Db.Model(&models.Transaction{}).Where("user_id = ?", buyer.ID).Count(&count)
	assert.Equal(t, int64(0), count)
}

func TestPosterUnlocksOwnListingFree(t *testing.T) {
	app := setupApp(t)
	poster, posterToken := seedUser(t, "poster3@test.com", 0)
	listing := seedListing(t, poster.ID)

	resp, env := doJSON(t, app, http.MethodPost, fmt.Sprintf("/listing/%d/unlock", listing.ID), posterToken, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, false, env.Data["charged"])
	assert.Equal(t, 0.0, dbBalance(t, poster.ID))
}

func TestGetListingHidesContactUntilUnlocked(t *testing.T) {
	app := setupApp(t)
	poster, _ := seedUser(t, "poster4@test.com", 0)
	viewer, viewerToken := seedUser(t, "viewer@test.com", 10)
	listing := seedListing(t, poster.ID)

	path := fmt.Sprintf("/listing/%d", listing.ID)

	resp, env := doJSON(t, app, http.MethodGet, path, viewerToken, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, false, env.Data["unlocked"])
	_, hasContact := env.Data["contact"]
	assert.False(t, hasContact)

	doJSON(t, app, http.MethodPost, path+"/unlock", viewerToken, "")

	resp, env = doJSON(t, app, http.MethodGet, path, viewerToken, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, true, env.Data["unlocked"])
	contact := env.Data["contact"].(map[string]interface{})
	assert.Equal(t, "Karim", contact["name"])
	assert.Equal(t, 5.0, dbBalance(t, viewer.ID))
}

func TestCreateListingValidation(t *testing.T) {
	app := setupApp(t)
	_, token := seedUser(t, "creator@test.com", 0)

	resp, _ := doJSON(t, app, http.MethodPost, "/listing/", token, `{"listingType":"CAR","title":""}`)
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)

	resp, env := doJSON(t, app, http.MethodPost, "/listing/", token,
		`{"listingType":"TUITION","title":"HSC physics tutor","contactPhone":"01900000000","price":4000}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	listing := env.Data["listing"].(map[string]interface{})
	assert.Equal(t, "HSC physics tutor", listing["title"])
}
