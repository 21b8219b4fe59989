package paymentRoutes

import (
	paymentController "github.com/rahatcse5bu/Finder-Backend/controllers/payment"
	"github.com/rahatcse5bu/Finder-Backend/middleware"
	paymentValidator "github.com/rahatcse5bu/Finder-Backend/validators/payment"

	"github.com/gofiber/fiber/v2"
)

func SetupPaymentRoutes(app *fiber.App) {
	paymentGroup := app.Group("/payment")

	// User routes
	paymentGroup.Post("/recharge", paymentValidator.Recharge(), middleware.JWTMiddleware, paymentController.InitiateRecharge)
	paymentGroup.Post("/verify", paymentValidator.Verify(), middleware.JWTMiddleware, paymentController.VerifyPayment)
	paymentGroup.Get("/balance", middleware.JWTMiddleware, paymentController.GetWalletBalance)
	paymentGroup.Get("/history", middleware.JWTMiddleware, paymentController.GetTransactionHistory)
	paymentGroup.Get("/transaction/:trxId", middleware.JWTMiddleware, paymentController.GetTransactionDetail)

	// Provider webhook - authenticated by bKash's own retry contract,
	// never by a user token
	paymentGroup.Post("/callback", paymentValidator.Callback(), paymentController.PaymentCallback)

	// Admin routes
	adminGroup := paymentGroup.Group("/admin")
	adminGroup.Post("/refund", paymentValidator.Refund(), middleware.JWTMiddleware, paymentController.RefundTransaction)
}
