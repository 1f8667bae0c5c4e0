package payment

import (
	"context"
	"errors"
	"regexp"
	"strings"

	"github.com/Kkibe/spin-and-win-to-mpesa/domain"
	"github.com/Kkibe/spin-and-win-to-mpesa/pkg/logger"
	"github.com/Kkibe/spin-and-win-to-mpesa/pkg/metrics"

	"github.com/google/uuid"
)

// Gateway is the pluggable adapter one payment provider implements. Both
// integrations share the same state shape; only the request/response
// mapping differs.
type Gateway interface {
	Name() string
	InitiateCharge(ctx context.Context, req domain.ChargeRequest) (domain.ChargeResult, error)
	VerifyCharge(ctx context.Context, reference string) (domain.ChargeResult, error)
}

// ChargeRepository contract interface
type ChargeRepository interface {
	Create(ctx context.Context, charge *domain.Charge) error
	FindByReference(ctx context.Context, reference string) (domain.Charge, error)
	FindByUser(ctx context.Context, userID uint) ([]domain.Charge, error)
	UpdateStatus(ctx context.Context, reference string, status domain.ChargeStatus) error
	MarkCredited(ctx context.Context, reference string) (bool, error)
}

// LedgerService contract interface
type LedgerService interface {
	CreditActivation(ctx context.Context, sessionID string, userID uint) (domain.User, error)
}

var (
	ErrInvalidAmount   = errors.New("invalid amount")
	ErrInvalidPhone    = errors.New("invalid Kenyan M-Pesa number, use +2547XXXXXXXX or +2541XXXXXXXX")
	ErrUnknownProvider = errors.New("unknown payment provider")
	ErrChargeNotFound  = errors.New("charge not found")
	// ErrGatewayUnavailable hides raw gateway failures from clients.
	ErrGatewayUnavailable = errors.New("payment could not be processed, please try again")
)

var mpesaPhonePattern = regexp.MustCompile(`^\+254[17]\d{8}$`)

type paymentService struct {
	chargeRepo ChargeRepository
	ledger     LedgerService
	gateways   map[string]Gateway
}

func NewPaymentService(chargeRepo ChargeRepository, ledger LedgerService, gateways ...Gateway) *paymentService {
	byName := make(map[string]Gateway, len(gateways))
	for _, gw := range gateways {
		byName[gw.Name()] = gw
	}

	return &paymentService{
		chargeRepo: chargeRepo,
		ledger:     ledger,
		gateways:   byName,
	}
}

// NormalizePhone rewrites a raw phone number into +254 international form
// and rejects anything outside the Kenyan mobile-money numbering pattern.
func NormalizePhone(raw string) (string, error) {
	phone := strings.NewReplacer(" ", "", "-", "", "(", "", ")", "").Replace(raw)

	switch {
	case strings.HasPrefix(phone, "0"):
		phone = "+254" + phone[1:]
	case strings.HasPrefix(phone, "254"):
		phone = "+" + phone
	}

	if !mpesaPhonePattern.MatchString(phone) {
		return "", ErrInvalidPhone
	}

	return phone, nil
}

// ChargeStatusView is the normalized status payload surfaced to callers,
// never a raw gateway body.
type ChargeStatusView struct {
	Reference        string `json:"reference"`
	Status           string `json:"status"`
	Message          string `json:"message"`
	DisplayText      string `json:"display_text,omitempty"`
	GatewayResponse  string `json:"gateway_response,omitempty"`
	UserAction       string `json:"user_action"`
	Paid             bool   `json:"paid"`
	CanRetry         bool   `json:"can_retry"`
	RequiresAction   bool   `json:"requires_action"`
	IsProcessing     bool   `json:"is_processing"`
	AccountActivated bool   `json:"account_activated"`
}

func newStatusView(res domain.ChargeResult, activated bool) ChargeStatusView {
	return ChargeStatusView{
		Reference:        res.Reference,
		Status:           string(res.Status),
		Message:          res.Message,
		DisplayText:      res.DisplayText,
		GatewayResponse:  res.GatewayResponse,
		UserAction:       res.Status.UserAction(),
		Paid:             res.Status == domain.ChargeSuccess,
		CanRetry:         res.Status.CanRetry(),
		RequiresAction:   res.Status.RequiresAction(),
		IsProcessing:     res.Status.IsProcessing(),
		AccountActivated: activated,
	}
}

// InitiateDeposit validates the request, asks the selected gateway to start
// a charge and persists the attempt under the gateway's reference. A
// synchronous success credits the activation bonus through the same
// idempotent path the polling endpoints use.
func (s *paymentService) InitiateDeposit(ctx context.Context, sessionID string, userID uint, email string, amount float64, rawPhone, provider string) (ChargeStatusView, error) {
	if amount <= 0 {
		return ChargeStatusView{}, ErrInvalidAmount
	}

	phone, err := NormalizePhone(rawPhone)
	if err != nil {
		return ChargeStatusView{}, err
	}

	gw, ok := s.gateways[provider]
	if !ok {
		return ChargeStatusView{}, ErrUnknownProvider
	}

	req := domain.ChargeRequest{
		UserID:    userID,
		Email:     email,
		Amount:    amount,
		Phone:     phone,
		Reference: uuid.NewString(),
	}

	res, err := gw.InitiateCharge(ctx, req)
	if err != nil {
		logger.Error("Charge initiation failed", err, "provider", provider)
		return ChargeStatusView{}, ErrGatewayUnavailable
	}

	reference := res.Reference
	if reference == "" {
		reference = req.Reference
		res.Reference = reference
	}

	charge := domain.Charge{
		Reference: reference,
		Provider:  provider,
		UserID:    userID,
		Amount:    amount,
		Phone:     phone,
		Status:    res.Status,
	}

	if err := s.chargeRepo.Create(ctx, &charge); err != nil {
		logger.Error("Failed to persist charge", err, "reference", reference)
		return ChargeStatusView{}, err
	}

	activated := false
	if res.Status == domain.ChargeSuccess {
		activated, err = s.creditOnce(ctx, sessionID, charge)
		if err != nil {
			return ChargeStatusView{}, err
		}
	}

	return newStatusView(res, activated), nil
}

// CheckStatus polls the gateway for a charge the user owns, persists the
// transition and applies the activation credit at most once per reference.
// Polling twice after success credits nothing the second time.
func (s *paymentService) CheckStatus(ctx context.Context, sessionID string, userID uint, reference string) (ChargeStatusView, error) {
	charge, err := s.chargeRepo.FindByReference(ctx, reference)
	if err != nil {
		return ChargeStatusView{}, err
	}

	if charge.UserID != userID {
		// do not reveal other users' references
		return ChargeStatusView{}, ErrChargeNotFound
	}

	gw, ok := s.gateways[charge.Provider]
	if !ok {
		return ChargeStatusView{}, ErrUnknownProvider
	}

	res, err := gw.VerifyCharge(ctx, reference)
	if err != nil {
		logger.Error("Charge verification failed", err, "reference", reference)
		return ChargeStatusView{}, ErrGatewayUnavailable
	}

	if res.Status != charge.Status {
		if err := s.chargeRepo.UpdateStatus(ctx, reference, res.Status); err != nil {
			logger.Error("Failed to persist charge status", err, "reference", reference)
			return ChargeStatusView{}, err
		}
	}

	activated := false
	if res.Status == domain.ChargeSuccess {
		charge.Status = res.Status
		activated, err = s.creditOnce(ctx, sessionID, charge)
		if err != nil {
			return ChargeStatusView{}, err
		}
	}

	return newStatusView(res, activated), nil
}

// creditOnce wins or loses the per-reference credited flag. Only the winner
// touches the ledger; everyone still reports the account as activated once
// the charge has succeeded.
func (s *paymentService) creditOnce(ctx context.Context, sessionID string, charge domain.Charge) (bool, error) {
	won, err := s.chargeRepo.MarkCredited(ctx, charge.Reference)
	if err != nil {
		logger.Error("Failed to mark charge credited", err, "reference", charge.Reference)
		return false, err
	}

	if !won {
		return true, nil
	}

	if _, err := s.ledger.CreditActivation(ctx, sessionID, charge.UserID); err != nil {
		return false, err
	}

	metrics.ActivationCredits.Inc()
	logger.Info("Activation bonus credited", "reference", charge.Reference, "user_id", charge.UserID)
	return true, nil
}

// History lists the caller's charge attempts, newest first.
func (s *paymentService) History(ctx context.Context, userID uint) ([]domain.Charge, error) {
	charges, err := s.chargeRepo.FindByUser(ctx, userID)
	if err != nil {
		logger.Error("Failed to load charge history", err)
		return nil, err
	}

	return charges, nil
}
