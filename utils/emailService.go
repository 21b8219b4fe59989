package utils

import (
	"fmt"
	"net/smtp"
	"strings"

	"github.com/rahatcse5bu/Finder-Backend/config"
)

// Generic Send Email
func SendEmail(to []string, subject string, htmlBody string) error {
	smtpHost := "smtp.gmail.com"
	smtpPort := "587"

	from := config.AppConfig.EmailSender
	password := config.AppConfig.Password

	// MIME basics
	msg := "MIME-version: 1.0;\nContent-Type: text/html; charset=\"UTF-8\";\n"
	msg += fmt.Sprintf("From: Finder <%s>\r\n", from)
	msg += fmt.Sprintf("To: %s\r\n", strings.Join(to, ","))
	msg += fmt.Sprintf("Subject: %s\r\n\r\n", subject)
	msg += htmlBody

	auth := smtp.PlainAuth("", from, password, smtpHost)

	err := smtp.SendMail(smtpHost+":"+smtpPort, auth, from, to, []byte(msg))
	if err != nil {
		fmt.Println("Error sending email:", err)
		return err
	}
	return nil
}

// HTML wrapper shared by all payment emails
func getEmailTemplate(title string, bodyContent string) string {
	return fmt.Sprintf(`
	<!DOCTYPE html>
	<html>
	<head>
		<style>
			body { font-family: 'Helvetica Neue', Helvetica, Arial, sans-serif; background-color: #F6F6F6; margin: 0; padding: 0; }
			.container { max-width: 600px; margin: 40px auto; background: #FFFFFF; border-radius: 8px; overflow: hidden; box-shadow: 0 4px 15px rgba(0,0,0,0.05); }
			.header { background-color: #1B5E20; padding: 30px; text-align: center; }
			.header h1 { color: #FFFFFF; margin: 0; font-size: 24px; letter-spacing: 1px; }
			.content { padding: 40px 30px; color: #212121; line-height: 1.6; }
			.content h2 { color: #1B5E20; margin-top: 0; }
			.footer { background-color: #F6F6F6; padding: 20px; text-align: center; font-size: 12px; color: #666666; border-top: 1px solid #E0E0E0; }
			.info-box { background: #E8F5E9; padding: 15px; border-radius: 4px; border-left: 4px solid #1B5E20; margin: 20px 0; }
		</style>
	</head>
	<body>
		<div class="container">
			<div class="header">
				<h1>Finder</h1>
			</div>
			<div class="content">
				<h2>%s</h2>
				%s
			</div>
			<div class="footer">
				&copy; Finder. This is an automated message, please do not reply.
			</div>
		</div>
	</body>
	</html>`, title, bodyContent)
}

// SendRechargeReceiptEmail notifies a user that a recharge completed.
// Fired after the transition is committed; a mailer fault can never
// roll a payment back.
func SendRechargeReceiptEmail(email, name string, amount float64, trxID string, balance float64) error {
	body := fmt.Sprintf(`
		<p>Hi %s,</p>
		<p>Your wallet recharge was successful.</p>
		<div class="info-box">
			<p><b>Amount:</b> %.2f BDT</p>
			<p><b>Transaction ID:</b> %s</p>
			<p><b>New Balance:</b> %.2f BDT</p>
		</div>
		<p>Thank you for using Finder.</p>`, name, amount, trxID, balance)

	return SendEmail([]string{email}, "Recharge Successful - Finder", getEmailTemplate("Recharge Successful", body))
}

// SendRefundEmail notifies a user that a recharge was refunded.
func SendRefundEmail(email, name string, amount float64, trxID string) error {
	body := fmt.Sprintf(`
		<p>Hi %s,</p>
		<p>A refund has been credited to your wallet.</p>
		<div class="info-box">
			<p><b>Amount:</b> %.2f BDT</p>
			<p><b>Refund Transaction ID:</b> %s</p>
		</div>
		<p>If you did not expect this, please contact support.</p>`, name, amount, trxID)

	return SendEmail([]string{email}, "Refund Credited - Finder", getEmailTemplate("Refund Credited", body))
}
