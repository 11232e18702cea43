package gateway

import (
	"crypto/subtle"
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/vendora/vendora-backend/pkg/enums"
	pkgerrors "github.com/vendora/vendora-backend/pkg/errors"
)

// FlutterwaveSignatureHeader carries the static verification hash configured
// on the Flutterwave dashboard.
const FlutterwaveSignatureHeader = "verif-hash"

const flutterwaveChargeCompleted = "charge.completed"

// Flutterwave verifies and parses Flutterwave webhook deliveries.
type Flutterwave struct {
	secretHash string
}

// NewFlutterwave builds the adapter around the dashboard secret hash.
func NewFlutterwave(secretHash string) (*Flutterwave, error) {
	if secretHash == "" {
		return nil, fmt.Errorf("flutterwave secret hash is required")
	}
	return &Flutterwave{secretHash: secretHash}, nil
}

type flutterwaveEnvelope struct {
	Event string `json:"event"`
	Data  struct {
		ID       int64           `json:"id"`
		TxRef    string          `json:"tx_ref"`
		Status   string          `json:"status"`
		Amount   decimal.Decimal `json:"amount"`
		Currency string          `json:"currency"`
		Customer json.RawMessage `json:"customer"`
		Meta     struct {
			BusinessID  string `json:"business_id"`
			BuyerKey    string `json:"buyer_key"`
			PaymentType string `json:"payment_type"`
		} `json:"meta"`
	} `json:"data"`
}

// VerifyAndParse compares the verif-hash header in constant time and maps a
// successful charge.completed event into a VerifiedPayment. Flutterwave sends
// amounts in major units; the conversion to minor units must be exact or the
// payload is rejected.
func (f *Flutterwave) VerifyAndParse(body []byte, signature string) (*VerifiedPayment, error) {
	if subtle.ConstantTimeCompare([]byte(f.secretHash), []byte(signature)) != 1 {
		return nil, ErrInvalidSignature
	}

	var envelope flutterwaveEnvelope
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "decode flutterwave payload")
	}

	if envelope.Event != flutterwaveChargeCompleted || envelope.Data.Status != "successful" {
		return nil, ErrIgnoredEvent
	}
	if envelope.Data.TxRef == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "flutterwave payload missing tx_ref")
	}

	amountMinor, err := toMinorUnits(envelope.Data.Amount)
	if err != nil {
		return nil, err
	}

	currency, err := enums.ParseCurrency(envelope.Data.Currency)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "flutterwave payload currency")
	}

	paymentType := enums.PaymentType(envelope.Data.Meta.PaymentType)
	if !paymentType.IsValid() {
		paymentType = enums.PaymentTypeEscrowGateway
	}

	return &VerifiedPayment{
		Gateway:     NameFlutterwave,
		EventID:     fmt.Sprintf("%d", envelope.Data.ID),
		Reference:   envelope.Data.TxRef,
		BusinessID:  envelope.Data.Meta.BusinessID,
		BuyerKey:    envelope.Data.Meta.BuyerKey,
		AmountMinor: amountMinor,
		Currency:    currency,
		PaymentType: paymentType,
		BuyerInfo:   envelope.Data.Customer,
	}, nil
}

func toMinorUnits(major decimal.Decimal) (int64, error) {
	minor := major.Mul(decimal.NewFromInt(100))
	if !minor.IsInteger() {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "amount has sub-minor-unit precision")
	}
	value := minor.IntPart()
	if value <= 0 {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "amount must be positive")
	}
	return value, nil
}
