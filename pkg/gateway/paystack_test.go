package gateway

import (
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vendora/vendora-backend/pkg/enums"
)

const paystackTestSecret = "sk_test_secret"

func signPaystack(t *testing.T, body []byte) string {
	t.Helper()
	mac := hmac.New(sha512.New, []byte(paystackTestSecret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

func TestPaystackVerifyAndParse(t *testing.T) {
	adapter, err := NewPaystack(paystackTestSecret)
	require.NoError(t, err)

	body := []byte(`{
		"event": "charge.success",
		"data": {
			"id": 302961,
			"reference": "ps_ref_001",
			"amount": 250000,
			"currency": "NGN",
			"customer": {"email": "buyer@example.com"},
			"metadata": {"business_id": "8d7cb5a1-4a89-4f11-92e4-3f2e63c70b0a", "buyer_key": "0f3f2a94-8a5e-4c7e-9a43-6a1f15f1de22", "payment_type": "escrow_gateway"}
		}
	}`)

	payment, err := adapter.VerifyAndParse(body, signPaystack(t, body))
	require.NoError(t, err)

	assert.Equal(t, NamePaystack, payment.Gateway)
	assert.Equal(t, "302961", payment.EventID)
	assert.Equal(t, "ps_ref_001", payment.Reference)
	assert.Equal(t, int64(250000), payment.AmountMinor)
	assert.Equal(t, enums.CurrencyNGN, payment.Currency)
	assert.Equal(t, enums.PaymentTypeEscrowGateway, payment.PaymentType)
	assert.Equal(t, "8d7cb5a1-4a89-4f11-92e4-3f2e63c70b0a", payment.BusinessID)
	assert.Equal(t, "0f3f2a94-8a5e-4c7e-9a43-6a1f15f1de22", payment.BuyerKey)
}

func TestPaystackRejectsBadSignature(t *testing.T) {
	adapter, err := NewPaystack(paystackTestSecret)
	require.NoError(t, err)

	body := []byte(`{"event":"charge.success","data":{"reference":"x","amount":100,"currency":"NGN"}}`)

	_, err = adapter.VerifyAndParse(body, "deadbeef")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidSignature))

	_, err = adapter.VerifyAndParse(body, "")
	assert.True(t, errors.Is(err, ErrInvalidSignature))
}

func TestPaystackIgnoresOtherEvents(t *testing.T) {
	adapter, err := NewPaystack(paystackTestSecret)
	require.NoError(t, err)

	body := []byte(`{"event":"transfer.success","data":{"reference":"x","amount":100,"currency":"NGN"}}`)
	_, err = adapter.VerifyAndParse(body, signPaystack(t, body))
	assert.True(t, errors.Is(err, ErrIgnoredEvent))
}

func TestPaystackRejectsNonPositiveAmount(t *testing.T) {
	adapter, err := NewPaystack(paystackTestSecret)
	require.NoError(t, err)

	body := []byte(`{"event":"charge.success","data":{"id":1,"reference":"x","amount":0,"currency":"NGN"}}`)
	_, err = adapter.VerifyAndParse(body, signPaystack(t, body))
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrIgnoredEvent)
}
