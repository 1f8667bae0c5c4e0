package daraja

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/Kkibe/spin-and-win-to-mpesa/domain"

	"github.com/pobyzaarif/goshortcute"
)

type DarajaConfig struct {
	ConsumerKey    string
	ConsumerSecret string
	ShortCode      string
	Passkey        string
	BaseURL        string
	CallbackURL    string
}

// DarajaRepository drives charges straight through Safaricom's Daraja API:
// an STK push to initiate, the stkpushquery endpoint to poll.
type DarajaRepository struct {
	darajaConfig DarajaConfig
	client       *http.Client
}

func NewDarajaRepository(cfg DarajaConfig) *DarajaRepository {
	return &DarajaRepository{
		darajaConfig: cfg,
		client:       &http.Client{Timeout: 30 * time.Second},
	}
}

func (r *DarajaRepository) Name() string {
	return domain.ProviderMpesa
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   string `json:"expires_in"`
}

type stkPushRequest struct {
	BusinessShortCode string `json:"BusinessShortCode"`
	Password          string `json:"Password"`
	Timestamp         string `json:"Timestamp"`
	TransactionType   string `json:"TransactionType"`
	Amount            string `json:"Amount"`
	PartyA            string `json:"PartyA"`
	PartyB            string `json:"PartyB"`
	PhoneNumber       string `json:"PhoneNumber"`
	CallBackURL       string `json:"CallBackURL"`
	AccountReference  string `json:"AccountReference"`
	TransactionDesc   string `json:"TransactionDesc"`
}

type stkPushResponse struct {
	MerchantRequestID   string `json:"MerchantRequestID"`
	CheckoutRequestID   string `json:"CheckoutRequestID"`
	ResponseCode        string `json:"ResponseCode"`
	ResponseDescription string `json:"ResponseDescription"`
	CustomerMessage     string `json:"CustomerMessage"`
	ErrorCode           string `json:"errorCode"`
	ErrorMessage        string `json:"errorMessage"`
}

type stkQueryRequest struct {
	BusinessShortCode string `json:"BusinessShortCode"`
	Password          string `json:"Password"`
	Timestamp         string `json:"Timestamp"`
	CheckoutRequestID string `json:"CheckoutRequestID"`
}

type stkQueryResponse struct {
	ResponseCode string `json:"ResponseCode"`
	ResultCode   string `json:"ResultCode"`
	ResultDesc   string `json:"ResultDesc"`
	ErrorCode    string `json:"errorCode"`
	ErrorMessage string `json:"errorMessage"`
}

func (r *DarajaRepository) accessToken(ctx context.Context) (string, error) {
	url := r.darajaConfig.BaseURL + "/oauth/v1/generate?grant_type=client_credentials"

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", err
	}
	req.SetBasicAuth(r.darajaConfig.ConsumerKey, r.darajaConfig.ConsumerSecret)

	res, err := r.client.Do(req)
	if err != nil {
		return "", err
	}
	defer res.Body.Close()

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return "", err
	}

	var token tokenResponse
	if err := json.Unmarshal(body, &token); err != nil {
		return "", fmt.Errorf("malformed daraja token response: %w", err)
	}

	if token.AccessToken == "" {
		return "", fmt.Errorf("daraja auth failed: %s", string(body))
	}

	return token.AccessToken, nil
}

// stkPassword is base64(shortcode + passkey + timestamp) per Daraja docs.
func (r *DarajaRepository) stkPassword(timestamp string) string {
	return goshortcute.StringtoBase64Encode(r.darajaConfig.ShortCode + r.darajaConfig.Passkey + timestamp)
}

func (r *DarajaRepository) InitiateCharge(ctx context.Context, req domain.ChargeRequest) (domain.ChargeResult, error) {
	token, err := r.accessToken(ctx)
	if err != nil {
		return domain.ChargeResult{}, err
	}

	timestamp := time.Now().Format("20060102150405")

	// Daraja wants the phone in 2547XXXXXXXX form, no plus sign
	phone := req.Phone
	if len(phone) > 0 && phone[0] == '+' {
		phone = phone[1:]
	}

	push := stkPushRequest{
		BusinessShortCode: r.darajaConfig.ShortCode,
		Password:          r.stkPassword(timestamp),
		Timestamp:         timestamp,
		TransactionType:   "CustomerPayBillOnline",
		Amount:            fmt.Sprintf("%.0f", req.Amount),
		PartyA:            phone,
		PartyB:            r.darajaConfig.ShortCode,
		PhoneNumber:       phone,
		CallBackURL:       r.darajaConfig.CallbackURL,
		AccountReference:  req.Reference,
		TransactionDesc:   "Account activation",
	}

	body, err := json.Marshal(push)
	if err != nil {
		return domain.ChargeResult{}, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, r.darajaConfig.BaseURL+"/mpesa/stkpush/v1/processrequest", bytes.NewReader(body))
	if err != nil {
		return domain.ChargeResult{}, err
	}
	httpReq.Header.Set("Authorization", "Bearer "+token)
	httpReq.Header.Set("Content-Type", "application/json")

	res, err := r.client.Do(httpReq)
	if err != nil {
		return domain.ChargeResult{}, err
	}
	defer res.Body.Close()

	resBody, err := io.ReadAll(res.Body)
	if err != nil {
		return domain.ChargeResult{}, err
	}

	var pushRes stkPushResponse
	if err := json.Unmarshal(resBody, &pushRes); err != nil {
		return domain.ChargeResult{}, fmt.Errorf("malformed daraja response: %w", err)
	}

	if pushRes.ErrorCode != "" {
		return domain.ChargeResult{}, fmt.Errorf("daraja error: %s", pushRes.ErrorMessage)
	}

	if pushRes.ResponseCode != "0" {
		return domain.ChargeResult{
			Reference:       pushRes.CheckoutRequestID,
			Status:          domain.ChargeFailed,
			Message:         domain.ChargeFailed.Message(),
			GatewayResponse: pushRes.ResponseDescription,
		}, nil
	}

	// push accepted; the payer still has to authorize on their handset
	return domain.ChargeResult{
		Reference:       pushRes.CheckoutRequestID,
		Status:          domain.ChargePayOffline,
		Message:         domain.ChargePayOffline.Message(),
		DisplayText:     pushRes.CustomerMessage,
		GatewayResponse: pushRes.ResponseDescription,
	}, nil
}

func (r *DarajaRepository) VerifyCharge(ctx context.Context, reference string) (domain.ChargeResult, error) {
	token, err := r.accessToken(ctx)
	if err != nil {
		return domain.ChargeResult{}, err
	}

	timestamp := time.Now().Format("20060102150405")

	query := stkQueryRequest{
		BusinessShortCode: r.darajaConfig.ShortCode,
		Password:          r.stkPassword(timestamp),
		Timestamp:         timestamp,
		CheckoutRequestID: reference,
	}

	body, err := json.Marshal(query)
	if err != nil {
		return domain.ChargeResult{}, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, r.darajaConfig.BaseURL+"/mpesa/stkpushquery/v1/query", bytes.NewReader(body))
	if err != nil {
		return domain.ChargeResult{}, err
	}
	httpReq.Header.Set("Authorization", "Bearer "+token)
	httpReq.Header.Set("Content-Type", "application/json")

	res, err := r.client.Do(httpReq)
	if err != nil {
		return domain.ChargeResult{}, err
	}
	defer res.Body.Close()

	resBody, err := io.ReadAll(res.Body)
	if err != nil {
		return domain.ChargeResult{}, err
	}

	var queryRes stkQueryResponse
	if err := json.Unmarshal(resBody, &queryRes); err != nil {
		return domain.ChargeResult{}, fmt.Errorf("malformed daraja response: %w", err)
	}

	// Daraja answers "transaction is being processed" as an error payload
	if queryRes.ErrorCode == "500.001.1001" {
		return domain.ChargeResult{
			Reference: reference,
			Status:    domain.ChargePending,
			Message:   domain.ChargePending.Message(),
		}, nil
	}

	if queryRes.ErrorCode != "" {
		return domain.ChargeResult{}, fmt.Errorf("daraja error: %s", queryRes.ErrorMessage)
	}

	status := mapResultCode(queryRes.ResultCode)

	return domain.ChargeResult{
		Reference:       reference,
		Status:          status,
		Message:         status.Message(),
		GatewayResponse: queryRes.ResultDesc,
	}, nil
}

// mapResultCode translates Daraja STK query result codes into the shared
// status vocabulary. 1032 is the payer cancelling the prompt.
func mapResultCode(code string) domain.ChargeStatus {
	switch code {
	case "0":
		return domain.ChargeSuccess
	case "1032":
		return domain.ChargeAbandoned
	default:
		return domain.ChargeFailed
	}
}
