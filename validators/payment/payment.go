package paymentValidator

import (
	"fmt"

	"github.com/rahatcse5bu/Finder-Backend/config"
	"github.com/rahatcse5bu/Finder-Backend/middleware"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

var validate = validator.New()

// Recharge validates a recharge initiation request. Amount bounds come
// from configuration; unknown payment methods are rejected before
// anything is persisted.
func Recharge() fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqData := new(struct {
			Amount        float64 `json:"amount" validate:"required,gt=0"`
			PaymentMethod string  `json:"paymentMethod" validate:"required"`
		})

		if err := c.BodyParser(reqData); err != nil {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request body!", nil)
		}

		errors := make(map[string]string)

		if err := validate.Struct(reqData); err != nil {
			for _, fieldErr := range err.(validator.ValidationErrors) {
				switch fieldErr.Field() {
				case "Amount":
					errors["amount"] = "Amount is required and must be greater than 0!"
				case "PaymentMethod":
					errors["paymentMethod"] = "Payment method is required!"
				}
			}
		}

		cfg := config.AppConfig
		if reqData.Amount < cfg.RechargeMinAmount || reqData.Amount > cfg.RechargeMaxAmount {
			errors["amount"] = fmt.Sprintf("Amount must be between %.0f and %.0f BDT!", cfg.RechargeMinAmount, cfg.RechargeMaxAmount)
		}
		if reqData.PaymentMethod != "" && reqData.PaymentMethod != "bkash" {
			errors["paymentMethod"] = "Unknown payment method! Only bkash is supported."
		}

		if len(errors) > 0 {
			return middleware.ValidationErrorResponse(c, errors)
		}

		c.Locals("validatedRecharge", reqData)
		return c.Next()
	}
}

// Callback validates the provider webhook body. Missing fields still
// flow through to the controller, which acknowledges everything.
func Callback() fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqData := new(struct {
			PaymentID     string `json:"paymentID"`
			Status        string `json:"status"`
			TransactionID string `json:"transactionId"`
		})

		if err := c.BodyParser(reqData); err != nil {
			// Providers expect a success-shaped acknowledgment no
			// matter what; let the controller answer 200.
			return c.Next()
		}

		c.Locals("validatedCallback", reqData)
		return c.Next()
	}
}

// Verify validates a transaction verification request
func Verify() fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqData := new(struct {
			TransactionID string `json:"transactionId"`
		})

		if err := c.BodyParser(reqData); err != nil {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request body!", nil)
		}

		errors := make(map[string]string)

		if reqData.TransactionID == "" {
			errors["transactionId"] = "Transaction ID is required!"
		}

		if len(errors) > 0 {
			return middleware.ValidationErrorResponse(c, errors)
		}

		c.Locals("validatedVerify", reqData)
		return c.Next()
	}
}

// Refund validates an admin refund request
func Refund() fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqData := new(struct {
			TransactionID string `json:"transactionId"`
			Reason        string `json:"reason"`
		})

		if err := c.BodyParser(reqData); err != nil {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request body!", nil)
		}

		errors := make(map[string]string)

		if reqData.TransactionID == "" {
			errors["transactionId"] = "Transaction ID is required!"
		}
		if reqData.Reason == "" {
			errors["reason"] = "Reason is required for a refund!"
		}

		if len(errors) > 0 {
			return middleware.ValidationErrorResponse(c, errors)
		}

		c.Locals("validatedRefund", reqData)
		return c.Next()
	}
}
