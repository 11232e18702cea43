package gateway

import (
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/vendora/vendora-backend/pkg/enums"
	pkgerrors "github.com/vendora/vendora-backend/pkg/errors"
)

// PaystackSignatureHeader carries the HMAC the gateway computes over the raw
// webhook body.
const PaystackSignatureHeader = "X-Paystack-Signature"

const paystackChargeSuccess = "charge.success"

// Paystack verifies and parses Paystack webhook deliveries.
type Paystack struct {
	secretKey string
}

// NewPaystack builds the adapter. The secret key is the account API secret,
// which Paystack also uses as the webhook HMAC key.
func NewPaystack(secretKey string) (*Paystack, error) {
	if secretKey == "" {
		return nil, fmt.Errorf("paystack secret key is required")
	}
	return &Paystack{secretKey: secretKey}, nil
}

type paystackEnvelope struct {
	Event string `json:"event"`
	Data  struct {
		ID        int64           `json:"id"`
		Reference string          `json:"reference"`
		Amount    int64           `json:"amount"`
		Currency  string          `json:"currency"`
		Customer  json.RawMessage `json:"customer"`
		Metadata  struct {
			BusinessID  string `json:"business_id"`
			BuyerKey    string `json:"buyer_key"`
			PaymentType string `json:"payment_type"`
		} `json:"metadata"`
	} `json:"data"`
}

// VerifyAndParse checks the body HMAC against the signature header and maps a
// charge.success event into a VerifiedPayment. Paystack amounts already arrive
// in the minor unit.
func (p *Paystack) VerifyAndParse(body []byte, signature string) (*VerifiedPayment, error) {
	if !p.validSignature(body, signature) {
		return nil, ErrInvalidSignature
	}

	var envelope paystackEnvelope
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "decode paystack payload")
	}

	if envelope.Event != paystackChargeSuccess {
		return nil, ErrIgnoredEvent
	}
	if envelope.Data.Reference == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "paystack payload missing reference")
	}
	if envelope.Data.Amount <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "paystack payload amount must be positive")
	}

	currency, err := enums.ParseCurrency(envelope.Data.Currency)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "paystack payload currency")
	}

	paymentType := enums.PaymentType(envelope.Data.Metadata.PaymentType)
	if !paymentType.IsValid() {
		paymentType = enums.PaymentTypeEscrowGateway
	}

	return &VerifiedPayment{
		Gateway:     NamePaystack,
		EventID:     fmt.Sprintf("%d", envelope.Data.ID),
		Reference:   envelope.Data.Reference,
		BusinessID:  envelope.Data.Metadata.BusinessID,
		BuyerKey:    envelope.Data.Metadata.BuyerKey,
		AmountMinor: envelope.Data.Amount,
		Currency:    currency,
		PaymentType: paymentType,
		BuyerInfo:   envelope.Data.Customer,
	}, nil
}

func (p *Paystack) validSignature(body []byte, signature string) bool {
	if signature == "" {
		return false
	}
	mac := hmac.New(sha512.New, []byte(p.secretKey))
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(signature))
}
