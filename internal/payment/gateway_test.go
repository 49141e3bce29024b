package payment

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmynk/ebills/internal/models"
)

func TestCheckout(t *testing.T) {
	g := NewSignedGateway("merchant-key", "https://pay.example/checkout")

	co, err := g.Checkout(context.Background(), Order{
		OrderID:  "order-1",
		Amount:   "60.00",
		Currency: "UAH",
	})
	require.NoError(t, err)
	assert.Equal(t, "https://pay.example/checkout", co.URL)
	assert.NotEmpty(t, co.Signature)

	raw, err := base64.StdEncoding.DecodeString(co.Data)
	require.NoError(t, err)
	var p map[string]any
	require.NoError(t, json.Unmarshal(raw, &p))
	assert.Equal(t, "order-1", p["order_id"])
	assert.Equal(t, "60.00", p["amount"])
	assert.Equal(t, "pay", p["action"])
}

func TestVerify(t *testing.T) {
	g := NewSignedGateway("merchant-key", "")

	tests := []struct {
		gatewayStatus string
		want          models.PaymentStatus
	}{
		{"success", models.PaymentSuccess},
		{"wait_accept", models.PaymentSuccess},
		{"failure", models.PaymentFailed},
		{"processing", models.PaymentPending},
	}

	for _, tt := range tests {
		t.Run(tt.gatewayStatus, func(t *testing.T) {
			data, sig, err := g.SignCallback(Callback{
				OrderID:       "order-1",
				Amount:        "60.00",
				Currency:      "UAH",
				TransactionID: "tx-42",
			}, tt.gatewayStatus)
			require.NoError(t, err)

			cb, err := g.Verify(data, sig)
			require.NoError(t, err)
			assert.Equal(t, "order-1", cb.OrderID)
			assert.Equal(t, "tx-42", cb.TransactionID)
			assert.Equal(t, tt.want, cb.Status)
		})
	}
}

func TestVerifyRejectsForgery(t *testing.T) {
	g := NewSignedGateway("merchant-key", "")
	other := NewSignedGateway("someone-else", "")

	data, sig, err := other.SignCallback(Callback{OrderID: "order-1"}, "success")
	require.NoError(t, err)

	_, err = g.Verify(data, sig)
	assert.True(t, errors.Is(err, ErrInvalidSignature))

	_, goodSig, err := g.SignCallback(Callback{OrderID: "order-1"}, "success")
	require.NoError(t, err)
	tampered, _, err := g.SignCallback(Callback{OrderID: "order-1", Amount: "9999.00"}, "success")
	require.NoError(t, err)
	_, err = g.Verify(tampered, goodSig)
	assert.True(t, errors.Is(err, ErrInvalidSignature), "signature must cover the data")
}

func TestVerifyMalformed(t *testing.T) {
	g := NewSignedGateway("k", "")

	_, err := g.Verify("not base64!", g.sign("not base64!"))
	assert.True(t, errors.Is(err, ErrMalformedPayload))

	data := base64.StdEncoding.EncodeToString([]byte(`{"status":"success"}`))
	_, err = g.Verify(data, g.sign(data))
	assert.True(t, errors.Is(err, ErrMalformedPayload))
}
