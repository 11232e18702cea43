package enums

import "fmt"

// PaymentType records how the buyer's money entered the platform.
type PaymentType string

const (
	PaymentTypeEscrowGateway  PaymentType = "escrow_gateway"
	PaymentTypeDirectTransfer PaymentType = "direct_transfer"
	PaymentTypeChatManual     PaymentType = "chat_manual"
)

var validPaymentTypes = []PaymentType{
	PaymentTypeEscrowGateway,
	PaymentTypeDirectTransfer,
	PaymentTypeChatManual,
}

// String implements fmt.Stringer.
func (p PaymentType) String() string {
	return string(p)
}

// IsValid reports whether the value is a known PaymentType.
func (p PaymentType) IsValid() bool {
	for _, candidate := range validPaymentTypes {
		if candidate == p {
			return true
		}
	}
	return false
}

// ParsePaymentType converts raw input into a PaymentType.
func ParsePaymentType(value string) (PaymentType, error) {
	for _, candidate := range validPaymentTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid payment type %q", value)
}
