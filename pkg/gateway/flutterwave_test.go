package gateway

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vendora/vendora-backend/pkg/enums"
)

const flutterwaveTestHash = "flw-verif-hash"

func TestFlutterwaveVerifyAndParse(t *testing.T) {
	adapter, err := NewFlutterwave(flutterwaveTestHash)
	require.NoError(t, err)

	body := []byte(`{
		"event": "charge.completed",
		"data": {
			"id": 9917,
			"tx_ref": "flw_ref_001",
			"status": "successful",
			"amount": 2500.50,
			"currency": "NGN",
			"customer": {"email": "buyer@example.com"},
			"meta": {"business_id": "8d7cb5a1-4a89-4f11-92e4-3f2e63c70b0a", "buyer_key": "0f3f2a94-8a5e-4c7e-9a43-6a1f15f1de22", "payment_type": "direct_transfer"}
		}
	}`)

	payment, err := adapter.VerifyAndParse(body, flutterwaveTestHash)
	require.NoError(t, err)

	assert.Equal(t, NameFlutterwave, payment.Gateway)
	assert.Equal(t, "9917", payment.EventID)
	assert.Equal(t, "flw_ref_001", payment.Reference)
	assert.Equal(t, int64(250050), payment.AmountMinor)
	assert.Equal(t, enums.CurrencyNGN, payment.Currency)
	assert.Equal(t, enums.PaymentTypeDirectTransfer, payment.PaymentType)
	assert.Equal(t, "0f3f2a94-8a5e-4c7e-9a43-6a1f15f1de22", payment.BuyerKey)
}

func TestFlutterwaveRejectsBadHash(t *testing.T) {
	adapter, err := NewFlutterwave(flutterwaveTestHash)
	require.NoError(t, err)

	_, err = adapter.VerifyAndParse([]byte(`{}`), "wrong-hash")
	assert.True(t, errors.Is(err, ErrInvalidSignature))
}

func TestFlutterwaveRejectsFractionalMinorUnits(t *testing.T) {
	adapter, err := NewFlutterwave(flutterwaveTestHash)
	require.NoError(t, err)

	body := []byte(`{
		"event": "charge.completed",
		"data": {"id": 1, "tx_ref": "x", "status": "successful", "amount": 10.005, "currency": "NGN"}
	}`)
	_, err = adapter.VerifyAndParse(body, flutterwaveTestHash)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrIgnoredEvent)
}

func TestFlutterwaveIgnoresFailedCharges(t *testing.T) {
	adapter, err := NewFlutterwave(flutterwaveTestHash)
	require.NoError(t, err)

	body := []byte(`{
		"event": "charge.completed",
		"data": {"id": 1, "tx_ref": "x", "status": "failed", "amount": 10, "currency": "NGN"}
	}`)
	_, err = adapter.VerifyAndParse(body, flutterwaveTestHash)
	assert.True(t, errors.Is(err, ErrIgnoredEvent))
}
