// Package payments wraps the hosted payment provider. The storefront never
// touches card data: it creates a hosted checkout session, redirects the
// buyer, and learns the outcome through a signed webhook.
package payments

import (
	"github.com/stripe/stripe-go/v79"
	"github.com/stripe/stripe-go/v79/checkout/session"
	"github.com/stripe/stripe-go/v79/webhook"
)

// LineItem is the minimal order line the provider needs.
type LineItem struct {
	Title     string
	UnitPrice float64 // major units
	Qty       int
}

// CheckoutResult identifies the hosted session the buyer is redirected to.
type CheckoutResult struct {
	SessionID string
	URL       string
}

type Client interface {
	CreateCheckout(orderID, customerEmail string, items []LineItem, successURL, cancelURL string) (CheckoutResult, error)
}

type StripeClient struct{}

func NewStripeClient(apiKey string) *StripeClient {
	stripe.Key = apiKey
	return &StripeClient{}
}

func (s *StripeClient) CreateCheckout(orderID, customerEmail string, items []LineItem, successURL, cancelURL string) (CheckoutResult, error) {
	lines := make([]*stripe.CheckoutSessionLineItemParams, 0, len(items))
	for _, it := range items {
		lines = append(lines, &stripe.CheckoutSessionLineItemParams{
			Quantity: stripe.Int64(int64(it.Qty)),
			PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
				Currency:   stripe.String(string(stripe.CurrencyUSD)),
				UnitAmount: stripe.Int64(int64(it.UnitPrice * 100)),
				ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
					Name: stripe.String(it.Title),
				},
			},
		})
	}

	params := &stripe.CheckoutSessionParams{
		Mode:              stripe.String(string(stripe.CheckoutSessionModePayment)),
		ClientReferenceID: stripe.String(orderID),
		CustomerEmail:     stripe.String(customerEmail),
		LineItems:         lines,
		SuccessURL:        stripe.String(successURL),
		CancelURL:         stripe.String(cancelURL),
	}

	sess, err := session.New(params)
	if err != nil {
		return CheckoutResult{}, err
	}
	return CheckoutResult{SessionID: sess.ID, URL: sess.URL}, nil
}

// VerifyEvent checks the webhook signature and parses the event payload.
func VerifyEvent(payload []byte, sigHeader, secret string) (stripe.Event, error) {
	return webhook.ConstructEvent(payload, sigHeader, secret)
}
