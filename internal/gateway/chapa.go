package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"stayhub/pkg/utils"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"
)

const chapaSuccess = "success"

type chapaClient struct {
	baseURL    string
	secretKey  string
	timeout    time.Duration
	httpClient *http.Client
	log        *zap.Logger
}

// NewChapa builds a Chapa client. The secret key comes from config and is
// never read from the environment here.
func NewChapa(config utils.GatewayConfig, log *zap.Logger) Gateway {
	timeout := config.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}

	return &chapaClient{
		baseURL:    strings.TrimRight(config.BaseURL, "/"),
		secretKey:  config.SecretKey,
		timeout:    timeout,
		httpClient: &http.Client{Timeout: timeout},
		log:        log.With(zap.String("gateway", "chapa")),
	}
}

type chapaInitializeBody struct {
	Amount        string        `json:"amount"`
	Currency      string        `json:"currency"`
	Email         string        `json:"email"`
	FirstName     string        `json:"first_name"`
	LastName      string        `json:"last_name"`
	TxRef         string        `json:"tx_ref"`
	CallbackURL   string        `json:"callback_url"`
	ReturnURL     string        `json:"return_url,omitempty"`
	Customization Customization `json:"customization"`
}

type chapaEnvelope struct {
	Status  string          `json:"status"`
	Message interface{}     `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func (c *chapaClient) Initialize(ctx context.Context, req InitializeRequest) (*InitializeResult, error) {
	ctx, span := otel.Tracer("stayhub/gateway").Start(ctx, "chapa.initialize")
	defer span.End()
	span.SetAttributes(attribute.String("tx_ref", req.TxRef))

	body, err := json.Marshal(chapaInitializeBody{
		Amount:        req.Amount.StringFixed(2),
		Currency:      req.Currency,
		Email:         req.Email,
		FirstName:     req.FirstName,
		LastName:      req.LastName,
		TxRef:         req.TxRef,
		CallbackURL:   req.CallbackURL,
		ReturnURL:     req.ReturnURL,
		Customization: req.Customization,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: encode initialize request: %v", ErrUnavailable, err)
	}

	status, raw, err := c.do(ctx, http.MethodPost, "/v1/transaction/initialize", body)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "initialize failed")
		return nil, err
	}

	var env chapaEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		c.log.Error("Unreadable initialize response",
			zap.Error(err),
			zap.Int("http_status", status),
			zap.String("tx_ref", req.TxRef),
		)
		return nil, fmt.Errorf("%w: decode initialize response: %v", ErrUnavailable, err)
	}

	result := &InitializeResult{Payload: raw}
	if status != http.StatusOK || env.Status != chapaSuccess {
		c.log.Warn("Initialize rejected by gateway",
			zap.Int("http_status", status),
			zap.String("status", env.Status),
			zap.String("tx_ref", req.TxRef),
		)
		return result, nil
	}

	var data struct {
		CheckoutURL string `json:"checkout_url"`
	}
	if err := json.Unmarshal(env.Data, &data); err != nil || data.CheckoutURL == "" {
		c.log.Error("Initialize response without checkout url", zap.String("tx_ref", req.TxRef))
		return nil, fmt.Errorf("%w: initialize response missing checkout_url", ErrUnavailable)
	}

	result.Success = true
	result.CheckoutURL = data.CheckoutURL
	return result, nil
}

func (c *chapaClient) Verify(ctx context.Context, txRef string) (*VerifyResult, error) {
	ctx, span := otel.Tracer("stayhub/gateway").Start(ctx, "chapa.verify")
	defer span.End()
	span.SetAttributes(attribute.String("tx_ref", txRef))

	status, raw, err := c.do(ctx, http.MethodGet, "/v1/transaction/verify/"+url.PathEscape(txRef), nil)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "verify failed")
		return nil, err
	}

	var env chapaEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		c.log.Error("Unreadable verify response",
			zap.Error(err),
			zap.Int("http_status", status),
			zap.String("tx_ref", txRef),
		)
		return nil, fmt.Errorf("%w: decode verify response: %v", ErrUnavailable, err)
	}

	result := &VerifyResult{Payload: raw}
	if env.Status != chapaSuccess {
		c.log.Warn("Verify rejected by gateway",
			zap.Int("http_status", status),
			zap.String("status", env.Status),
			zap.String("tx_ref", txRef),
		)
		return result, nil
	}

	var data struct {
		Status    string `json:"status"`
		Reference string `json:"reference"`
	}
	if err := json.Unmarshal(env.Data, &data); err != nil || data.Status == "" {
		c.log.Error("Verify response without transaction status", zap.String("tx_ref", txRef))
		return nil, fmt.Errorf("%w: verify response missing data.status", ErrUnavailable)
	}

	result.Success = true
	result.Status = data.Status
	result.Reference = data.Reference
	return result, nil
}

// do sends one request with the bearer secret and returns the HTTP status and body.
func (c *chapaClient) do(ctx context.Context, method, path string, body []byte) (int, []byte, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return 0, nil, fmt.Errorf("%w: build request: %v", ErrUnavailable, err)
	}
	req.Header.Set("Authorization", "Bearer "+c.secretKey)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	res, err := c.httpClient.Do(req)
	if err != nil {
		c.log.Error("Gateway request failed",
			zap.Error(err),
			zap.String("method", method),
			zap.String("path", path),
			zap.Duration("elapsed", time.Since(start)),
		)
		return 0, nil, fmt.Errorf("%w: %s %s: %v", ErrUnavailable, method, path, err)
	}
	defer res.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(res.Body, 1<<20))
	if err != nil {
		return 0, nil, fmt.Errorf("%w: read response: %v", ErrUnavailable, err)
	}

	c.log.Debug("Gateway response",
		zap.String("method", method),
		zap.String("path", path),
		zap.Int("http_status", res.StatusCode),
		zap.Duration("elapsed", time.Since(start)),
	)

	return res.StatusCode, raw, nil
}
