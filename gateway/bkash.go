package gateway

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"
)

// StatusCodeSuccess is the bKash sentinel for a successful operation.
const StatusCodeSuccess = "0000"

// Transaction statuses reported by the provider
const (
	TrxStatusCompleted = "Completed"
	TrxStatusCancelled = "Cancelled"
	TrxStatusFailed    = "Failed"
	TrxStatusInitiated = "Initiated"
)

// Config carries everything the adapter needs to talk to bKash.
// Passed in at construction so tests can point the client at a stub.
type Config struct {
	BaseURL     string
	AppKey      string
	AppSecret   string
	Username    string
	Password    string
	CallbackURL string
	Timeout     time.Duration
	RetryCount  int
}

// GatewayError is the typed failure every adapter call returns on a
// non-success outcome. Retryable marks transport-level faults
// (timeout, connection refused); provider rejections are final.
type GatewayError struct {
	Code      string
	Message   string
	Retryable bool
}

func (e *GatewayError) Error() string {
	return "gateway: " + e.Code + ": " + e.Message
}

// Client is the surface the ledger and controllers consume.
type Client interface {
	CreatePayment(payerReference string, amount float64, currency, merchantInvoiceNumber string) (*CreateResult, error)
	ExecutePayment(paymentID string) (*PaymentResult, error)
	QueryPayment(paymentID string) (*PaymentResult, error)
}

// CreateResult is the outcome of opening a payment session.
type CreateResult struct {
	PaymentID   string `json:"paymentID"`
	RedirectURL string `json:"redirectURL"`
}

// PaymentResult is the outcome of executing or querying a payment.
type PaymentResult struct {
	PaymentID             string `json:"paymentID"`
	TrxID                 string `json:"trxID"`
	StatusCode            string `json:"statusCode"`
	TransactionStatus     string `json:"transactionStatus"`
	MerchantInvoiceNumber string `json:"merchantInvoiceNumber"`
	Amount                string `json:"amount"`
}

func (r *PaymentResult) Succeeded() bool {
	return r.StatusCode == StatusCodeSuccess && r.TransactionStatus == TrxStatusCompleted
}

func (r *PaymentResult) Cancelled() bool {
	return r.TransactionStatus == TrxStatusCancelled
}

func (r *PaymentResult) Failed() bool {
	return r.TransactionStatus == TrxStatusFailed
}

// BkashClient wraps the bKash tokenized checkout API. The client is
// stateless between flows: a fresh grant token is acquired per call
// chain rather than cached, so an expired session can never be replayed.
type BkashClient struct {
	cfg    Config
	client *resty.Client
}

func NewBkashClient(cfg Config) *BkashClient {
	if cfg.Timeout == 0 {
		cfg.Timeout = 5 * time.Second
	}

	client := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetTimeout(cfg.Timeout).
		SetRetryCount(cfg.RetryCount).
		SetRetryWaitTime(300 * time.Millisecond).
		SetRetryMaxWaitTime(2 * time.Second)

	return &BkashClient{cfg: cfg, client: client}
}

type tokenResponse struct {
	IDToken       string `json:"id_token"`
	TokenType     string `json:"token_type"`
	ExpiresIn     int    `json:"expires_in"`
	StatusCode    string `json:"statusCode"`
	StatusMessage string `json:"statusMessage"`
}

// GrantToken exchanges app credentials for a short-lived id_token.
// Error messages never echo the credentials.
func (b *BkashClient) GrantToken() (string, error) {
	var out tokenResponse
	resp, err := b.client.R().
		SetHeader("username", b.cfg.Username).
		SetHeader("password", b.cfg.Password).
		SetBody(map[string]string{
			"app_key":    b.cfg.AppKey,
			"app_secret": b.cfg.AppSecret,
		}).
		SetResult(&out).
		Post("/tokenized/checkout/token/grant")
	if err != nil {
		return "", &GatewayError{Code: "TOKEN_GRANT_UNAVAILABLE", Message: "could not reach payment gateway", Retryable: true}
	}
	if resp.StatusCode() != http.StatusOK || out.IDToken == "" {
		return "", &GatewayError{Code: "TOKEN_GRANT_REJECTED", Message: "gateway rejected credential grant", Retryable: false}
	}
	return out.IDToken, nil
}

type createResponse struct {
	PaymentID     string `json:"paymentID"`
	BkashURL      string `json:"bkashURL"`
	StatusCode    string `json:"statusCode"`
	StatusMessage string `json:"statusMessage"`
}

// CreatePayment opens a payment session for the given amount. The
// merchantInvoiceNumber is the ledger's own transaction id so the two
// sides stay correlated before bKash has assigned anything.
func (b *BkashClient) CreatePayment(payerReference string, amount float64, currency, merchantInvoiceNumber string) (*CreateResult, error) {
	token, err := b.GrantToken()
	if err != nil {
		return nil, err
	}

	var out createResponse
	resp, err := b.client.R().
		SetHeader("Authorization", token).
		SetHeader("X-App-Key", b.cfg.AppKey).
		SetBody(map[string]string{
			"mode":                  "0011",
			"payerReference":        payerReference,
			"callbackURL":           b.cfg.CallbackURL,
			"amount":                strconv.FormatFloat(amount, 'f', 2, 64),
			"currency":              currency,
			"intent":                "sale",
			"merchantInvoiceNumber": merchantInvoiceNumber,
		}).
		SetResult(&out).
		Post("/tokenized/checkout/create")
	if err != nil {
		return nil, &GatewayError{Code: "CREATE_UNAVAILABLE", Message: "could not reach payment gateway", Retryable: true}
	}
	if resp.StatusCode() != http.StatusOK || out.StatusCode != StatusCodeSuccess || out.PaymentID == "" {
		return nil, &GatewayError{Code: "CREATE_REJECTED", Message: "gateway declined to open payment: " + out.StatusMessage, Retryable: false}
	}

	return &CreateResult{PaymentID: out.PaymentID, RedirectURL: out.BkashURL}, nil
}

// ExecutePayment finalizes a created payment after payer approval.
func (b *BkashClient) ExecutePayment(paymentID string) (*PaymentResult, error) {
	token, err := b.GrantToken()
	if err != nil {
		return nil, err
	}

	var out PaymentResult
	resp, err := b.client.R().
		SetHeader("Authorization", token).
		SetHeader("X-App-Key", b.cfg.AppKey).
		SetBody(map[string]string{"paymentID": paymentID}).
		SetResult(&out).
		Post("/tokenized/checkout/execute")
	if err != nil {
		return nil, &GatewayError{Code: "EXECUTE_UNAVAILABLE", Message: "could not reach payment gateway", Retryable: true}
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, &GatewayError{Code: "EXECUTE_REJECTED", Message: "gateway declined payment execution", Retryable: false}
	}
	if out.StatusCode != StatusCodeSuccess {
		return nil, &GatewayError{Code: "EXECUTE_REJECTED", Message: "gateway returned status " + out.StatusCode, Retryable: false}
	}
	return &out, nil
}

// QueryPayment fetches the current provider-side state of a payment.
func (b *BkashClient) QueryPayment(paymentID string) (*PaymentResult, error) {
	token, err := b.GrantToken()
	if err != nil {
		return nil, err
	}

	var out PaymentResult
	resp, err := b.client.R().
		SetHeader("Authorization", token).
		SetHeader("X-App-Key", b.cfg.AppKey).
		SetBody(map[string]string{"paymentID": paymentID}).
		SetResult(&out).
		Post("/tokenized/checkout/payment/status")
	if err != nil {
		return nil, &GatewayError{Code: "QUERY_UNAVAILABLE", Message: "could not reach payment gateway", Retryable: true}
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, &GatewayError{Code: "QUERY_REJECTED", Message: "gateway refused status query", Retryable: false}
	}
	return &out, nil
}
