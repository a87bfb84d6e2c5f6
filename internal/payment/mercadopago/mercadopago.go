package mercadopago

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

var (
	ErrConfigInvalid   = errors.New("mercadopago config invalid")
	ErrRequestFailed   = errors.New("mercadopago request failed")
	ErrResponseInvalid = errors.New("mercadopago response invalid")
	ErrNotFound        = errors.New("mercadopago resource not found")
)

const (
	defaultBaseURL = "https://api.mercadopago.com"
	defaultTimeout = 12 * time.Second
)

// Config Mercado Pago channel configuration.
type Config struct {
	AccessToken     string `json:"access_token"`
	BaseURL         string `json:"base_url"`
	NotificationURL string `json:"notification_url"`
	SuccessURL      string `json:"success_url"`
	FailureURL      string `json:"failure_url"`
	TimeoutMS       int    `json:"timeout_ms"`
}

// PreferenceItem one checkout line item sent to the provider.
type PreferenceItem struct {
	Title          string
	Quantity       int
	UnitPriceCents int64
}

// CreateInput input for creating a checkout preference.
type CreateInput struct {
	ExternalReference string
	Items             []PreferenceItem
	ShippingCents     int64
	PayerEmail        string
	Currency          string
	NotificationURL   string
	SuccessURL        string
	FailureURL        string
}

// CreateResult created preference.
type CreateResult struct {
	PreferenceID     string
	InitPoint        string
	SandboxInitPoint string
	Raw              map[string]interface{}
}

// PaymentResult one provider payment.
type PaymentResult struct {
	ID                string
	Status            string
	StatusDetail      string
	ExternalReference string
	AmountCents       int64
	Method            string
	PaidAt            *time.Time
	Raw               map[string]interface{}
}

// MerchantOrderResult one provider merchant order with its payment references.
type MerchantOrderResult struct {
	ID                string
	Status            string
	ExternalReference string
	PaymentIDs        []string
	Raw               map[string]interface{}
}

// ValidateConfig checks required fields.
func ValidateConfig(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("%w: config is nil", ErrConfigInvalid)
	}
	if strings.TrimSpace(cfg.AccessToken) == "" {
		return fmt.Errorf("%w: access_token is required", ErrConfigInvalid)
	}
	if strings.TrimSpace(cfg.BaseURL) != "" {
		if _, err := url.ParseRequestURI(strings.TrimSpace(cfg.BaseURL)); err != nil {
			return fmt.Errorf("%w: base_url is invalid", ErrConfigInvalid)
		}
	}
	return nil
}

// CreatePreference creates a checkout preference and returns its redirect URL.
func CreatePreference(ctx context.Context, cfg *Config, input CreateInput) (*CreateResult, error) {
	if err := ValidateConfig(cfg); err != nil {
		return nil, err
	}
	if strings.TrimSpace(input.ExternalReference) == "" || len(input.Items) == 0 {
		return nil, fmt.Errorf("%w: preference input is invalid", ErrConfigInvalid)
	}
	currency := strings.ToUpper(strings.TrimSpace(input.Currency))
	if currency == "" {
		currency = "BRL"
	}

	items := make([]map[string]interface{}, 0, len(input.Items))
	for _, item := range input.Items {
		if item.Quantity <= 0 || item.UnitPriceCents <= 0 {
			return nil, fmt.Errorf("%w: item %q has non-positive quantity or price", ErrConfigInvalid, item.Title)
		}
		items = append(items, map[string]interface{}{
			"title":       strings.TrimSpace(item.Title),
			"quantity":    item.Quantity,
			"currency_id": currency,
			"unit_price":  amountFromCents(item.UnitPriceCents),
		})
	}

	payload := map[string]interface{}{
		"external_reference": strings.TrimSpace(input.ExternalReference),
		"items":              items,
	}
	if input.ShippingCents > 0 {
		payload["shipments"] = map[string]interface{}{
			"cost": amountFromCents(input.ShippingCents),
			"mode": "not_specified",
		}
	}
	if email := strings.TrimSpace(input.PayerEmail); email != "" {
		payload["payer"] = map[string]interface{}{"email": email}
	}
	if notifyURL := firstNonEmpty(input.NotificationURL, cfg.NotificationURL); notifyURL != "" {
		payload["notification_url"] = notifyURL
	}
	backURLs := map[string]string{}
	if successURL := firstNonEmpty(input.SuccessURL, cfg.SuccessURL); successURL != "" {
		backURLs["success"] = successURL
	}
	if failureURL := firstNonEmpty(input.FailureURL, cfg.FailureURL); failureURL != "" {
		backURLs["failure"] = failureURL
	}
	if len(backURLs) > 0 {
		payload["back_urls"] = backURLs
		if backURLs["success"] != "" {
			payload["auto_return"] = "approved"
		}
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("%w: marshal request failed", ErrRequestFailed)
	}

	respBody, statusCode, err := doJSONRequest(ctx, cfg, http.MethodPost, "/checkout/preferences", body)
	if err != nil {
		return nil, err
	}
	if statusCode < 200 || statusCode >= 300 {
		return nil, fmt.Errorf("%w: create preference status %d", ErrResponseInvalid, statusCode)
	}

	var raw map[string]interface{}
	if err := json.Unmarshal(respBody, &raw); err != nil {
		return nil, fmt.Errorf("%w: decode response failed", ErrResponseInvalid)
	}

	result := &CreateResult{Raw: raw}
	result.PreferenceID = strings.TrimSpace(readString(raw, "id"))
	result.InitPoint = strings.TrimSpace(readString(raw, "init_point"))
	result.SandboxInitPoint = strings.TrimSpace(readString(raw, "sandbox_init_point"))
	if result.PreferenceID == "" || result.InitPoint == "" {
		return nil, fmt.Errorf("%w: missing preference id or init point", ErrResponseInvalid)
	}
	return result, nil
}

// GetPayment fetches one payment by provider payment id.
func GetPayment(ctx context.Context, cfg *Config, paymentID string) (*PaymentResult, error) {
	if err := ValidateConfig(cfg); err != nil {
		return nil, err
	}
	paymentID = strings.TrimSpace(paymentID)
	if paymentID == "" {
		return nil, fmt.Errorf("%w: payment id is empty", ErrConfigInvalid)
	}

	respBody, statusCode, err := doJSONRequest(ctx, cfg, http.MethodGet, "/v1/payments/"+url.PathEscape(paymentID), nil)
	if err != nil {
		return nil, err
	}
	if statusCode == http.StatusNotFound {
		return nil, fmt.Errorf("%w: payment %s", ErrNotFound, paymentID)
	}
	if statusCode < 200 || statusCode >= 300 {
		return nil, fmt.Errorf("%w: get payment status %d", ErrResponseInvalid, statusCode)
	}

	var raw map[string]interface{}
	if err := json.Unmarshal(respBody, &raw); err != nil {
		return nil, fmt.Errorf("%w: decode response failed", ErrResponseInvalid)
	}

	result := &PaymentResult{Raw: raw}
	result.ID = strings.TrimSpace(readString(raw, "id"))
	result.Status = strings.ToLower(strings.TrimSpace(readString(raw, "status")))
	result.StatusDetail = strings.TrimSpace(readString(raw, "status_detail"))
	result.ExternalReference = strings.TrimSpace(readString(raw, "external_reference"))
	result.Method = strings.TrimSpace(readString(raw, "payment_method_id"))
	result.AmountCents = centsFromAmount(raw["transaction_amount"])
	if rawTime := strings.TrimSpace(readString(raw, "date_approved")); rawTime != "" {
		if parsed, err := time.Parse(time.RFC3339, rawTime); err == nil {
			result.PaidAt = &parsed
		}
	}
	if result.ID == "" || result.Status == "" {
		return nil, fmt.Errorf("%w: missing payment id or status", ErrResponseInvalid)
	}
	return result, nil
}

// SearchPaymentsByReference lists the provider payment ids attached to one
// external reference. Used by the reconciliation sweep to recover payments
// whose webhook never arrived.
func SearchPaymentsByReference(ctx context.Context, cfg *Config, externalReference string) ([]string, error) {
	if err := ValidateConfig(cfg); err != nil {
		return nil, err
	}
	externalReference = strings.TrimSpace(externalReference)
	if externalReference == "" {
		return nil, fmt.Errorf("%w: external reference is empty", ErrConfigInvalid)
	}

	endpoint := "/v1/payments/search?external_reference=" + url.QueryEscape(externalReference)
	respBody, statusCode, err := doJSONRequest(ctx, cfg, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	if statusCode == http.StatusNotFound {
		return nil, nil
	}
	if statusCode < 200 || statusCode >= 300 {
		return nil, fmt.Errorf("%w: search payments status %d", ErrResponseInvalid, statusCode)
	}

	var raw map[string]interface{}
	if err := json.Unmarshal(respBody, &raw); err != nil {
		return nil, fmt.Errorf("%w: decode response failed", ErrResponseInvalid)
	}

	var ids []string
	for _, item := range readArray(raw, "results") {
		paymentMap, ok := item.(map[string]interface{})
		if !ok {
			continue
		}
		if id := strings.TrimSpace(readString(paymentMap, "id")); id != "" {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

// GetMerchantOrder fetches one merchant order and the payment ids it carries.
func GetMerchantOrder(ctx context.Context, cfg *Config, merchantOrderID string) (*MerchantOrderResult, error) {
	if err := ValidateConfig(cfg); err != nil {
		return nil, err
	}
	merchantOrderID = strings.TrimSpace(merchantOrderID)
	if merchantOrderID == "" {
		return nil, fmt.Errorf("%w: merchant order id is empty", ErrConfigInvalid)
	}

	respBody, statusCode, err := doJSONRequest(ctx, cfg, http.MethodGet, "/merchant_orders/"+url.PathEscape(merchantOrderID), nil)
	if err != nil {
		return nil, err
	}
	if statusCode == http.StatusNotFound {
		return nil, fmt.Errorf("%w: merchant order %s", ErrNotFound, merchantOrderID)
	}
	if statusCode < 200 || statusCode >= 300 {
		return nil, fmt.Errorf("%w: get merchant order status %d", ErrResponseInvalid, statusCode)
	}

	var raw map[string]interface{}
	if err := json.Unmarshal(respBody, &raw); err != nil {
		return nil, fmt.Errorf("%w: decode response failed", ErrResponseInvalid)
	}

	result := &MerchantOrderResult{Raw: raw}
	result.ID = strings.TrimSpace(readString(raw, "id"))
	result.Status = strings.TrimSpace(readString(raw, "status"))
	result.ExternalReference = strings.TrimSpace(readString(raw, "external_reference"))
	for _, item := range readArray(raw, "payments") {
		paymentMap, ok := item.(map[string]interface{})
		if !ok {
			continue
		}
		if id := strings.TrimSpace(readString(paymentMap, "id")); id != "" {
			result.PaymentIDs = append(result.PaymentIDs, id)
		}
	}
	if result.ID == "" {
		result.ID = merchantOrderID
	}
	return result, nil
}

// FormatAmount renders integer cents as a provider decimal string.
func FormatAmount(cents int64) string {
	return decimal.NewFromInt(cents).Div(decimal.NewFromInt(100)).StringFixed(2)
}

func amountFromCents(cents int64) json.Number {
	return json.Number(FormatAmount(cents))
}

func centsFromAmount(value interface{}) int64 {
	switch v := value.(type) {
	case float64:
		return decimal.NewFromFloat(v).Mul(decimal.NewFromInt(100)).Round(0).IntPart()
	case string:
		parsed, err := decimal.NewFromString(strings.TrimSpace(v))
		if err != nil {
			return 0
		}
		return parsed.Mul(decimal.NewFromInt(100)).Round(0).IntPart()
	case json.Number:
		parsed, err := decimal.NewFromString(v.String())
		if err != nil {
			return 0
		}
		return parsed.Mul(decimal.NewFromInt(100)).Round(0).IntPart()
	default:
		return 0
	}
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		if trimmed := strings.TrimSpace(value); trimmed != "" {
			return trimmed
		}
	}
	return ""
}

func (c *Config) timeout() time.Duration {
	if c.TimeoutMS > 0 {
		return time.Duration(c.TimeoutMS) * time.Millisecond
	}
	return defaultTimeout
}

func (c *Config) baseURL() string {
	base := strings.TrimRight(strings.TrimSpace(c.BaseURL), "/")
	if base == "" {
		base = defaultBaseURL
	}
	return base
}

func doJSONRequest(ctx context.Context, cfg *Config, method, endpoint string, body []byte) ([]byte, int, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.timeout())
		defer cancel()
	}

	var reader io.Reader
	if len(body) > 0 {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, cfg.baseURL()+endpoint, reader)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: build request failed", ErrRequestFailed)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+strings.TrimSpace(cfg.AccessToken))

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: http request failed", ErrRequestFailed)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("%w: read response failed", ErrRequestFailed)
	}
	return respBody, resp.StatusCode, nil
}

func readString(raw map[string]interface{}, path ...string) string {
	if raw == nil {
		return ""
	}
	var current interface{} = raw
	for _, seg := range path {
		if idx, err := strconv.Atoi(seg); err == nil {
			arr, ok := current.([]interface{})
			if !ok || idx < 0 || idx >= len(arr) {
				return ""
			}
			current = arr[idx]
			continue
		}
		next, ok := current.(map[string]interface{})
		if !ok {
			return ""
		}
		current = next[seg]
	}
	if current == nil {
		return ""
	}
	switch v := current.(type) {
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return fmt.Sprintf("%v", current)
	}
}

func readArray(raw map[string]interface{}, path ...string) []interface{} {
	if raw == nil {
		return nil
	}
	var current interface{} = raw
	for _, seg := range path {
		next, ok := current.(map[string]interface{})
		if !ok {
			return nil
		}
		current = next[seg]
	}
	arr, ok := current.([]interface{})
	if !ok {
		return nil
	}
	return arr
}
