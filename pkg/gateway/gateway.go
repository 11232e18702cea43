package gateway

import (
	"encoding/json"

	"github.com/vendora/vendora-backend/pkg/enums"
	pkgerrors "github.com/vendora/vendora-backend/pkg/errors"
)

// Gateway names, used for webhook dedupe scoping and ledger metadata.
const (
	NamePaystack    = "paystack"
	NameFlutterwave = "flutterwave"
)

// ErrInvalidSignature is returned when a webhook payload fails signature
// verification. Handlers map it to a 401 and must not process the body.
var ErrInvalidSignature = pkgerrors.New(pkgerrors.CodeUnauthorized, "webhook signature verification failed")

// ErrIgnoredEvent is returned for event types the escrow pipeline does not
// ingest. Handlers acknowledge these with a 200 so the gateway stops retrying.
var ErrIgnoredEvent = pkgerrors.New(pkgerrors.CodeValidation, "event type not handled")

// VerifiedPayment is the gateway-neutral result of webhook verification: a
// successful charge expressed in minor units, ready for escrow ingestion.
type VerifiedPayment struct {
	Gateway     string
	EventID     string
	Reference   string
	BusinessID  string
	BuyerKey    string
	AmountMinor int64
	Currency    enums.Currency
	PaymentType enums.PaymentType
	BuyerInfo   json.RawMessage
	Metadata    json.RawMessage
}
