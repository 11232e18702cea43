package enums

import "fmt"

// OrderStatus mirrors the escrow lifecycle on the order record for listing
// and display purposes.
type OrderStatus string

const (
	OrderStatusPaidHeld               OrderStatus = "paid_held"
	OrderStatusAwaitingVendorConfirm  OrderStatus = "awaiting_vendor_confirmation"
	OrderStatusReleasedToVendorWallet OrderStatus = "released_to_vendor_wallet"
	OrderStatusRefunded               OrderStatus = "refunded"
	OrderStatusDisputed               OrderStatus = "disputed"
)

var validOrderStatuses = []OrderStatus{
	OrderStatusPaidHeld,
	OrderStatusAwaitingVendorConfirm,
	OrderStatusReleasedToVendorWallet,
	OrderStatusRefunded,
	OrderStatusDisputed,
}

// String implements fmt.Stringer.
func (o OrderStatus) String() string {
	return string(o)
}

// IsValid reports whether the value is a known OrderStatus.
func (o OrderStatus) IsValid() bool {
	for _, candidate := range validOrderStatuses {
		if candidate == o {
			return true
		}
	}
	return false
}

// ParseOrderStatus converts raw input into an OrderStatus.
func ParseOrderStatus(value string) (OrderStatus, error) {
	for _, candidate := range validOrderStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid order status %q", value)
}
