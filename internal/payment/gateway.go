// Package payment talks to the card payment gateway. The gateway works with
// a signed, base64-encoded JSON blob in both directions: the checkout form
// posts {data, signature} and the callback returns the same shape.
package payment

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mmynk/ebills/internal/models"
)

var (
	ErrInvalidSignature = errors.New("invalid payment signature")
	ErrMalformedPayload = errors.New("malformed payment payload")
)

// Order is a payment the gateway should collect.
type Order struct {
	OrderID     string
	Amount      string
	Currency    string
	Description string
}

// Checkout is what the client needs to open the gateway's payment page.
type Checkout struct {
	URL       string
	Data      string
	Signature string
}

// Callback is the gateway's verdict on an order.
type Callback struct {
	OrderID       string
	Status        models.PaymentStatus
	Amount        string
	Currency      string
	TransactionID string
}

// Gateway initiates payments and verifies callbacks.
type Gateway interface {
	Checkout(ctx context.Context, order Order) (Checkout, error)
	Verify(data, signature string) (Callback, error)
}

// payload is the JSON carried inside data.
type payload struct {
	Version       int    `json:"version"`
	Action        string `json:"action,omitempty"`
	OrderID       string `json:"order_id"`
	Amount        string `json:"amount"`
	Currency      string `json:"currency"`
	Description   string `json:"description,omitempty"`
	Status        string `json:"status,omitempty"`
	TransactionID string `json:"transaction_id,omitempty"`
}

// SignedGateway signs checkout payloads with a merchant key and verifies
// callbacks signed with the same key. It does not call out to the network:
// the payment page at checkoutURL is responsible for collecting the money.
type SignedGateway struct {
	merchantKey []byte
	checkoutURL string
}

// NewSignedGateway creates a gateway for the given merchant key and checkout page.
func NewSignedGateway(merchantKey, checkoutURL string) *SignedGateway {
	return &SignedGateway{merchantKey: []byte(merchantKey), checkoutURL: checkoutURL}
}

func (g *SignedGateway) Checkout(_ context.Context, order Order) (Checkout, error) {
	data, signature, err := g.encode(payload{
		Version:     3,
		Action:      "pay",
		OrderID:     order.OrderID,
		Amount:      order.Amount,
		Currency:    order.Currency,
		Description: order.Description,
	})
	if err != nil {
		return Checkout{}, err
	}
	return Checkout{URL: g.checkoutURL, Data: data, Signature: signature}, nil
}

func (g *SignedGateway) Verify(data, signature string) (Callback, error) {
	if !hmac.Equal([]byte(g.sign(data)), []byte(signature)) {
		return Callback{}, ErrInvalidSignature
	}

	raw, err := base64.StdEncoding.DecodeString(data)
	if err != nil {
		return Callback{}, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}
	var p payload
	if err := json.Unmarshal(raw, &p); err != nil {
		return Callback{}, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}
	if p.OrderID == "" {
		return Callback{}, fmt.Errorf("%w: missing order_id", ErrMalformedPayload)
	}

	return Callback{
		OrderID:       p.OrderID,
		Status:        mapStatus(p.Status),
		Amount:        p.Amount,
		Currency:      p.Currency,
		TransactionID: p.TransactionID,
	}, nil
}

// SignCallback builds a callback as the gateway would send it, for
// simulating the gateway.
func (g *SignedGateway) SignCallback(cb Callback, gatewayStatus string) (data, signature string, err error) {
	return g.encode(payload{
		Version:       3,
		OrderID:       cb.OrderID,
		Amount:        cb.Amount,
		Currency:      cb.Currency,
		Status:        gatewayStatus,
		TransactionID: cb.TransactionID,
	})
}

func (g *SignedGateway) encode(p payload) (string, string, error) {
	raw, err := json.Marshal(p)
	if err != nil {
		return "", "", fmt.Errorf("failed to encode payment payload: %w", err)
	}
	data := base64.StdEncoding.EncodeToString(raw)
	return data, g.sign(data), nil
}

func (g *SignedGateway) sign(data string) string {
	mac := hmac.New(sha256.New, g.merchantKey)
	mac.Write([]byte(data))
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

// mapStatus folds the gateway's status vocabulary into ours.
func mapStatus(s string) models.PaymentStatus {
	switch s {
	case "success", "wait_accept", "sandbox":
		return models.PaymentSuccess
	case "failure", "error", "reversed":
		return models.PaymentFailed
	default:
		return models.PaymentPending
	}
}
