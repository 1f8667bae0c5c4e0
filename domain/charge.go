package domain

import "time"

// ChargeStatus is the normalized status vocabulary shared by both gateway
// integrations.
type ChargeStatus string

const (
	ChargePending    ChargeStatus = "pending"
	ChargeOngoing    ChargeStatus = "ongoing"
	ChargeProcessing ChargeStatus = "processing"
	ChargeQueued     ChargeStatus = "queued"
	ChargePayOffline ChargeStatus = "pay_offline"
	ChargeSendOTP    ChargeStatus = "send_otp"
	ChargeSuccess    ChargeStatus = "success"
	ChargeFailed     ChargeStatus = "failed"
	ChargeAbandoned  ChargeStatus = "abandoned"
	ChargeReversed   ChargeStatus = "reversed"
)

const (
	ProviderPaystack = "paystack"
	ProviderMpesa    = "mpesa"
)

// Charge is a persisted payment attempt. Credited flips to true at most once
// per reference; the flip is the idempotency point for the activation bonus.
type Charge struct {
	ID        uint         `gorm:"primaryKey" json:"id"`
	Reference string       `gorm:"column:reference;unique;not null" json:"reference"`
	Provider  string       `gorm:"column:provider;not null" json:"provider"`
	UserID    uint         `gorm:"column:user_id;index;not null" json:"user_id"`
	Amount    float64      `gorm:"column:amount;not null" json:"amount"`
	Phone     string       `gorm:"column:phone" json:"phone"`
	Status    ChargeStatus `gorm:"column:status;not null" json:"status"`
	Credited  bool         `gorm:"column:credited;default:false" json:"credited"`
	CreatedAt time.Time    `json:"created_at"`
	UpdatedAt time.Time    `json:"updated_at"`
}

func (Charge) TableName() string {
	return "charges"
}

// IsTerminal reports whether no further gateway transition is expected.
func (s ChargeStatus) IsTerminal() bool {
	switch s {
	case ChargeSuccess, ChargeFailed, ChargeAbandoned, ChargeReversed:
		return true
	}
	return false
}

// CanRetry reports whether the caller may start a fresh charge.
func (s ChargeStatus) CanRetry() bool {
	switch s {
	case ChargeFailed, ChargeAbandoned, ChargeReversed:
		return true
	}
	return false
}

// RequiresAction reports whether the payer must do something on their phone.
func (s ChargeStatus) RequiresAction() bool {
	switch s {
	case ChargeOngoing, ChargePayOffline, ChargeSendOTP:
		return true
	}
	return false
}

// IsProcessing reports whether the caller should just keep polling.
func (s ChargeStatus) IsProcessing() bool {
	switch s {
	case ChargePending, ChargeProcessing, ChargeQueued:
		return true
	}
	return false
}

var chargeStatusMessages = map[ChargeStatus]string{
	ChargeAbandoned:  "Payment was not completed. Please try again.",
	ChargeFailed:     "Payment failed. Please check your details and try again.",
	ChargeOngoing:    "Payment in progress. Please complete the authorization on your phone.",
	ChargePending:    "Payment is being processed. Please wait...",
	ChargeProcessing: "Payment is being processed. This may take a few moments.",
	ChargeQueued:     "Payment has been queued and will be processed shortly.",
	ChargeReversed:   "Payment was reversed. Please contact support if this was unexpected.",
	ChargeSuccess:    "Payment successful! Your account has been activated.",
	ChargePayOffline: "Please complete authorization on your mobile phone.",
	ChargeSendOTP:    "OTP sent to your phone. Please enter it to continue.",
}

// Message returns the user-facing text for a status.
func (s ChargeStatus) Message() string {
	if m, ok := chargeStatusMessages[s]; ok {
		return m
	}
	return "Payment processing"
}

// UserAction tells the client what the payer should do next.
func (s ChargeStatus) UserAction() string {
	switch s {
	case ChargeSuccess:
		return "complete"
	case ChargeFailed, ChargeAbandoned:
		return "retry"
	case ChargeReversed:
		return "contact_support"
	case ChargePayOffline:
		return "authorize"
	case ChargeSendOTP:
		return "enter_otp"
	default:
		return "wait"
	}
}

// NormalizeChargeStatus maps a raw gateway status string onto the fixed
// vocabulary. Unknown strings collapse to pending so callers keep polling
// instead of acting on a status we do not understand.
func NormalizeChargeStatus(raw string) ChargeStatus {
	s := ChargeStatus(raw)
	if _, ok := chargeStatusMessages[s]; ok {
		return s
	}
	return ChargePending
}

// ChargeRequest is the gateway-independent input to a charge initiation.
// Phone is already normalized to international format.
type ChargeRequest struct {
	UserID uint
	Email  string
	Amount float64
	Phone  string
	// Reference is a locally generated id handed to gateways that want the
	// caller to name the transaction (Daraja AccountReference).
	Reference string
}

// ChargeResult is the normalized outcome of an initiate or verify call,
// independent of which gateway produced it.
type ChargeResult struct {
	Reference       string       `json:"reference"`
	Status          ChargeStatus `json:"status"`
	Message         string       `json:"message"`
	DisplayText     string       `json:"display_text,omitempty"`
	GatewayResponse string       `json:"gateway_response,omitempty"`
}
