package payment

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"

	razorpay "github.com/razorpay/razorpay-go"
)

// Gateway abstracts the payment provider: open an order, and later check
// that a payment callback really came from the provider.
type Gateway interface {
	CreateOrder(ctx context.Context, amountPaise int, currency, receipt string) (string, error)
	VerifySignature(orderID, paymentID, signature string) bool
}

type RazorpayGateway struct {
	client    *razorpay.Client
	keySecret string
}

func NewRazorpayGateway(keyID, keySecret string) *RazorpayGateway {
	return &RazorpayGateway{
		client:    razorpay.NewClient(keyID, keySecret),
		keySecret: keySecret,
	}
}

func (g *RazorpayGateway) CreateOrder(ctx context.Context, amountPaise int, currency, receipt string) (string, error) {
	data := map[string]interface{}{
		"amount":   amountPaise,
		"currency": currency,
		"receipt":  receipt,
	}

	order, err := g.client.Order.Create(data, nil)
	if err != nil {
		return "", fmt.Errorf("razorpay order create: %w", err)
	}

	orderID, ok := order["id"].(string)
	if !ok || orderID == "" {
		return "", errors.New("razorpay order response missing id")
	}
	return orderID, nil
}

// VerifySignature recomputes HMAC-SHA256 over "orderID|paymentID" with the
// key secret, per Razorpay's checkout callback scheme.
func (g *RazorpayGateway) VerifySignature(orderID, paymentID, signature string) bool {
	mac := hmac.New(sha256.New, []byte(g.keySecret))
	mac.Write([]byte(orderID + "|" + paymentID))
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(signature))
}
