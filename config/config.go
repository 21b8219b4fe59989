package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	Port      string
	DBName    string
	JWTKey    string
	SaltRound int

	// bKash tokenized checkout credentials
	BkashBaseURL     string
	BkashAppKey      string
	BkashAppSecret   string
	BkashUsername    string
	BkashPassword    string
	BkashCallbackURL string

	// Recharge amount bounds (BDT)
	RechargeMinAmount  float64
	RechargeMaxAmount  float64
	ContactUnlockPrice float64

	EmailSender string
	Password    string // SMTP Password
}

// AppConfig is a global variable to access configuration
var AppConfig *Config

// LoadConfig initializes configuration from environment variables or defaults
func LoadConfig() {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found. Using system environment variables.")
	}

	// Initialize AppConfig with values from environment variables
	AppConfig = &Config{
		Port:      getEnv("PORT", "3000"),
		DBName:    getEnv("DB_NAME", "finder"),
		JWTKey:    getEnv("JWT_SECRET_KEY", "defaultSecret"),
		SaltRound: getEnvInt("SALT_ROUND", 10),

		BkashBaseURL:     getEnv("BKASH_BASE_URL", "https://tokenized.sandbox.bka.sh/v1.2.0-beta"),
		BkashAppKey:      getEnv("BKASH_APP_KEY", ""),
		BkashAppSecret:   getEnv("BKASH_APP_SECRET", ""),
		BkashUsername:    getEnv("BKASH_USERNAME", ""),
		BkashPassword:    getEnv("BKASH_PASSWORD", ""),
		BkashCallbackURL: getEnv("BKASH_CALLBACK_URL", "http://localhost:3000/payment/callback"),

		RechargeMinAmount:  getEnvFloat("RECHARGE_MIN_AMOUNT", 10),
		RechargeMaxAmount:  getEnvFloat("RECHARGE_MAX_AMOUNT", 10000),
		ContactUnlockPrice: getEnvFloat("CONTACT_UNLOCK_PRICE", 5),

		EmailSender: getEnv("EMAIL_SENDER", "defaultSecret"),
		Password:    getEnv("PASSWORD", "defaultSecret"),
	}

	// Validate critical configuration
	if AppConfig.JWTKey == "defaultSecret" {
		log.Println("Warning: Using default JWT_SECRET_KEY. Update it in your environment.")
	}
	if AppConfig.BkashAppKey == "" {
		log.Println("Warning: BKASH_APP_KEY is not set. Gateway recharges will fail.")
	}
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

// getEnvInt retrieves an environment variable as an integer or returns the default integer value
func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	intValue, err := strconv.Atoi(value)
	if err != nil {
		log.Printf("Error converting environment variable %s to int: %v", key, err)
		return defaultValue
	}
	return intValue
}

// getEnvFloat retrieves an environment variable as a float or returns the default value
func getEnvFloat(key string, defaultValue float64) float64 {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	floatValue, err := strconv.ParseFloat(value, 64)
	if err != nil {
		log.Printf("Error converting environment variable %s to float: %v", key, err)
		return defaultValue
	}
	return floatValue
}
