package paystack

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/Kkibe/spin-and-win-to-mpesa/domain"
)

type PaystackConfig struct {
	SecretKey string
	BaseURL   string
}

// PaystackRepository drives mobile-money charges through the Paystack
// aggregator: POST /charge to initiate, GET /transaction/verify/:reference
// to poll.
type PaystackRepository struct {
	paystackConfig PaystackConfig
	client         *http.Client
}

func NewPaystackRepository(cfg PaystackConfig) *PaystackRepository {
	return &PaystackRepository{
		paystackConfig: cfg,
		client:         &http.Client{Timeout: 30 * time.Second},
	}
}

func (r *PaystackRepository) Name() string {
	return domain.ProviderPaystack
}

type chargePayload struct {
	Email       string            `json:"email"`
	Amount      int64             `json:"amount"`
	Currency    string            `json:"currency"`
	MobileMoney mobileMoney       `json:"mobile_money"`
	Metadata    map[string]string `json:"metadata"`
}

type mobileMoney struct {
	Phone    string `json:"phone"`
	Provider string `json:"provider"`
}

type chargeEnvelope struct {
	Status  bool       `json:"status"`
	Message string     `json:"message"`
	Data    chargeData `json:"data"`
}

type chargeData struct {
	Reference       string `json:"reference"`
	Status          string `json:"status"`
	DisplayText     string `json:"display_text"`
	Message         string `json:"message"`
	GatewayResponse string `json:"gateway_response"`
}

func (r *PaystackRepository) InitiateCharge(ctx context.Context, req domain.ChargeRequest) (domain.ChargeResult, error) {
	payload := chargePayload{
		Email:    req.Email,
		Amount:   int64(req.Amount * 100), // Paystack wants subunits
		Currency: "KES",
		MobileMoney: mobileMoney{
			Phone:    req.Phone,
			Provider: "mpesa",
		},
		Metadata: map[string]string{
			"user_id":         fmt.Sprintf("%d", req.UserID),
			"activation_type": "account_activation",
		},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return domain.ChargeResult{}, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, r.paystackConfig.BaseURL+"/charge", bytes.NewReader(body))
	if err != nil {
		return domain.ChargeResult{}, err
	}
	httpReq.Header.Set("Authorization", "Bearer "+r.paystackConfig.SecretKey)
	httpReq.Header.Set("Content-Type", "application/json")

	envelope, err := r.do(httpReq)
	if err != nil {
		return domain.ChargeResult{}, err
	}

	return normalize(envelope), nil
}

func (r *PaystackRepository) VerifyCharge(ctx context.Context, reference string) (domain.ChargeResult, error) {
	url := fmt.Sprintf("%s/transaction/verify/%s", r.paystackConfig.BaseURL, reference)

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return domain.ChargeResult{}, err
	}
	httpReq.Header.Set("Authorization", "Bearer "+r.paystackConfig.SecretKey)

	envelope, err := r.do(httpReq)
	if err != nil {
		return domain.ChargeResult{}, err
	}

	result := normalize(envelope)
	if result.Reference == "" {
		result.Reference = reference
	}

	return result, nil
}

func (r *PaystackRepository) do(req *http.Request) (chargeEnvelope, error) {
	res, err := r.client.Do(req)
	if err != nil {
		return chargeEnvelope{}, err
	}
	defer res.Body.Close()

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return chargeEnvelope{}, err
	}

	var envelope chargeEnvelope
	if err := json.Unmarshal(body, &envelope); err != nil {
		return chargeEnvelope{}, fmt.Errorf("malformed paystack response: %w", err)
	}

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		return chargeEnvelope{}, fmt.Errorf("paystack error: %s", envelope.Message)
	}

	if !envelope.Status {
		return chargeEnvelope{}, fmt.Errorf("paystack error: %s", envelope.Message)
	}

	return envelope, nil
}

func normalize(envelope chargeEnvelope) domain.ChargeResult {
	status := domain.NormalizeChargeStatus(envelope.Data.Status)

	message := envelope.Data.GatewayResponse
	if message == "" {
		message = status.Message()
	}

	return domain.ChargeResult{
		Reference:       envelope.Data.Reference,
		Status:          status,
		Message:         message,
		DisplayText:     envelope.Data.DisplayText,
		GatewayResponse: envelope.Data.GatewayResponse,
	}
}
