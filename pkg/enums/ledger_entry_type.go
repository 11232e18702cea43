package enums

import "fmt"

// LedgerEntryType names the money movement an append-only ledger row records.
type LedgerEntryType string

const (
	LedgerEntryTypePaymentHeld       LedgerEntryType = "payment_held"
	LedgerEntryTypeEscrowReleased    LedgerEntryType = "escrow_released"
	LedgerEntryTypeEscrowRefunded    LedgerEntryType = "escrow_refunded"
	LedgerEntryTypeDisputeOpened     LedgerEntryType = "dispute_opened"
	LedgerEntryTypeDisputeReleased   LedgerEntryType = "dispute_released"
	LedgerEntryTypeDisputeRefunded   LedgerEntryType = "dispute_refunded"
	LedgerEntryTypeWithdrawRequested LedgerEntryType = "withdraw_requested"
	LedgerEntryTypeWithdrawRejected  LedgerEntryType = "withdraw_rejected"
	LedgerEntryTypeWithdrawPaid      LedgerEntryType = "withdraw_paid"
)

var validLedgerEntryTypes = []LedgerEntryType{
	LedgerEntryTypePaymentHeld,
	LedgerEntryTypeEscrowReleased,
	LedgerEntryTypeEscrowRefunded,
	LedgerEntryTypeDisputeOpened,
	LedgerEntryTypeDisputeReleased,
	LedgerEntryTypeDisputeRefunded,
	LedgerEntryTypeWithdrawRequested,
	LedgerEntryTypeWithdrawRejected,
	LedgerEntryTypeWithdrawPaid,
}

// IsValid reports whether the value matches the canonical ledger entry enum.
func (t LedgerEntryType) IsValid() bool {
	for _, candidate := range validLedgerEntryTypes {
		if candidate == t {
			return true
		}
	}
	return false
}

// String implements fmt.Stringer.
func (t LedgerEntryType) String() string {
	return string(t)
}

// ParseLedgerEntryType converts raw input into LedgerEntryType.
func ParseLedgerEntryType(value string) (LedgerEntryType, error) {
	for _, candidate := range validLedgerEntryTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid ledger entry type %q", value)
}
