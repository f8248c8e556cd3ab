package mpesa

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"water-delivery-api/apperrors"
	"water-delivery-api/config"

	logrus "github.com/sirupsen/logrus"
)

// Client talks to the Daraja STK push API. It holds no order state — it
// only produces the payment reference (CheckoutRequestID) that order
// creation consumes, and never retries a failed attempt.
type Client struct {
	cfg        config.MpesaConfig
	httpClient *http.Client
}

func NewClient(cfg config.MpesaConfig) *Client {
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// STKPushResponse is the gateway's synchronous answer to an STK push.
type STKPushResponse struct {
	MerchantRequestID   string `json:"MerchantRequestID"`
	CheckoutRequestID   string `json:"CheckoutRequestID"`
	ResponseCode        string `json:"ResponseCode"`
	ResponseDescription string `json:"ResponseDescription"`
	CustomerMessage     string `json:"CustomerMessage"`
}

type stkPushRequest struct {
	BusinessShortCode string `json:"BusinessShortCode"`
	Password          string `json:"Password"`
	Timestamp         string `json:"Timestamp"`
	TransactionType   string `json:"TransactionType"`
	Amount            int    `json:"Amount"`
	PartyA            string `json:"PartyA"`
	PartyB            string `json:"PartyB"`
	PhoneNumber       string `json:"PhoneNumber"`
	CallBackURL       string `json:"CallBackURL"`
	AccountReference  string `json:"AccountReference"`
	TransactionDesc   string `json:"TransactionDesc"`
}

// NormalizePhone converts a local 07… number to the 254… format the
// gateway expects.
func NormalizePhone(phone string) string {
	phone = strings.TrimSpace(phone)
	if strings.HasPrefix(phone, "0") {
		return "254" + phone[1:]
	}
	if strings.HasPrefix(phone, "+") {
		return phone[1:]
	}
	return phone
}

// generatePassword builds the shortcode+passkey+timestamp password the
// gateway requires, with its yyyyMMddHHmmss timestamp.
func generatePassword(shortCode, passKey string, t time.Time) (string, string) {
	timestamp := t.Format("20060102150405")
	password := base64.StdEncoding.EncodeToString([]byte(shortCode + passKey + timestamp))
	return password, timestamp
}

func (c *Client) accessToken(ctx context.Context) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.cfg.BaseURL+"/oauth/v1/generate?grant_type=client_credentials", nil)
	if err != nil {
		return "", err
	}
	auth := base64.StdEncoding.EncodeToString([]byte(c.cfg.ConsumerKey + ":" + c.cfg.ConsumerSecret))
	req.Header.Set("Authorization", "Basic "+auth)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: token request: %v", apperrors.ErrPayment, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("%w: token request returned %d: %s", apperrors.ErrPayment, resp.StatusCode, body)
	}

	var tokenResp struct {
		AccessToken string `json:"access_token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&tokenResp); err != nil {
		return "", fmt.Errorf("%w: decoding token response: %v", apperrors.ErrPayment, err)
	}
	return tokenResp.AccessToken, nil
}

// InitiateSTKPush prompts the customer's phone to authorize the charge.
// The call is bounded by ctx and the client timeout; a hung gateway fails
// the attempt, it does not block the request forever.
func (c *Client) InitiateSTKPush(ctx context.Context, phone string, amount float64, accountRef string) (*STKPushResponse, error) {
	token, err := c.accessToken(ctx)
	if err != nil {
		return nil, err
	}

	password, timestamp := generatePassword(c.cfg.ShortCode, c.cfg.PassKey, time.Now())
	formattedPhone := NormalizePhone(phone)

	payload := stkPushRequest{
		BusinessShortCode: c.cfg.ShortCode,
		Password:          password,
		Timestamp:         timestamp,
		TransactionType:   c.cfg.TransactionType,
		Amount:            int(amount),
		PartyA:            formattedPhone,
		PartyB:            c.cfg.ShortCode,
		PhoneNumber:       formattedPhone,
		CallBackURL:       c.cfg.CallbackURL,
		AccountReference:  accountRef,
		TransactionDesc:   "Water delivery payment",
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.cfg.BaseURL+"/mpesa/stkpush/v1/processrequest", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: stk push: %v", apperrors.ErrPayment, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("%w: stk push returned %d: %s", apperrors.ErrPayment, resp.StatusCode, respBody)
	}

	var pushResp STKPushResponse
	if err := json.NewDecoder(resp.Body).Decode(&pushResp); err != nil {
		return nil, fmt.Errorf("%w: decoding stk push response: %v", apperrors.ErrPayment, err)
	}
	if pushResp.ResponseCode != "0" {
		return nil, fmt.Errorf("%w: gateway declined: %s", apperrors.ErrPayment, pushResp.ResponseDescription)
	}

	logrus.WithFields(logrus.Fields{
		"checkout_request_id": pushResp.CheckoutRequestID,
		"phone":               formattedPhone,
	}).Info("stk push initiated")

	return &pushResp, nil
}
