package services

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"log"
	"math"
	"sort"

	"github.com/google/uuid"

	"logbloga/internal/domain"
	"logbloga/internal/mail"
	"logbloga/internal/payments"
	"logbloga/internal/repos"
)

// totalDriftEpsilon decides when a resumed pending order needs its totals
// recomputed because catalog pricing moved underneath it.
const totalDriftEpsilon = 0.001

type OrderService struct {
	Carts    *repos.CartRepo
	Orders   *repos.OrderRepo
	Coupons  *repos.CouponRepo
	Licenses *LicenseService
	Notes    *NotificationService
	Mail     mail.Mailer
	Pay      payments.Client // nil when payments are not configured
	BaseURL  string
}

func NewOrderService(carts *repos.CartRepo, orders *repos.OrderRepo, coupons *repos.CouponRepo,
	lic *LicenseService, notes *NotificationService, mailer mail.Mailer, pay payments.Client, baseURL string) *OrderService {
	return &OrderService{
		Carts: carts, Orders: orders, Coupons: coupons,
		Licenses: lic, Notes: notes, Mail: mailer, Pay: pay, BaseURL: baseURL,
	}
}

// CalculateTotals prices a cart against an optional coupon. The discount
// never exceeds the subtotal. Tax stays zero here: the payment provider
// computes it at charge time, this is a deferred boundary rather than a gap.
func CalculateTotals(items []repos.CartItem, coupon *domain.Coupon) domain.OrderTotals {
	t := domain.OrderTotals{}
	for _, it := range items {
		t.Subtotal += it.CurrentPrice * float64(it.Qty)
	}
	if coupon != nil {
		switch coupon.Type {
		case "fixed":
			t.DiscountAmount = coupon.Value
		case "percent":
			t.DiscountAmount = t.Subtotal * coupon.Value / 100
		}
		if t.DiscountAmount > t.Subtotal {
			t.DiscountAmount = t.Subtotal
		}
	}
	t.Total = t.Subtotal - t.DiscountAmount + t.TaxAmount
	return t
}

// Fingerprint produces a normalized serialization of cart contents used to
// recognize an unchanged cart when resuming an interrupted checkout.
func Fingerprint(items []repos.CartItem) string {
	type line struct {
		ProductID string `json:"product_id"`
		Quantity  int    `json:"quantity"`
	}
	lines := make([]line, 0, len(items))
	for _, it := range items {
		lines = append(lines, line{ProductID: it.ProductID, Quantity: it.Qty})
	}
	sort.Slice(lines, func(i, j int) bool {
		if lines[i].ProductID != lines[j].ProductID {
			return lines[i].ProductID < lines[j].ProductID
		}
		return lines[i].Quantity < lines[j].Quantity
	})
	b, _ := json.Marshal(lines)
	return string(b)
}

func snapshot(items []repos.CartItem) []repos.OrderItemRow {
	rows := make([]repos.OrderItemRow, 0, len(items))
	for _, it := range items {
		rows = append(rows, repos.OrderItemRow{
			ProductID:  it.ProductID,
			VariantID:  it.VariantID,
			Title:      it.Title,
			Qty:        it.Qty,
			UnitPrice:  it.CurrentPrice,
			TotalPrice: it.CurrentPrice * float64(it.Qty),
		})
	}
	return rows
}

// CreateOrResume turns the user's cart into a pending order, or resumes an
// existing pending order when the cart fingerprint is unchanged. Resuming
// only rewrites totals when pricing drifted beyond totalDriftEpsilon.
func (s *OrderService) CreateOrResume(user *domain.User, sessionID, couponCode string) (repos.OrderRow, []repos.OrderItemRow, bool, error) {
	cartID, err := s.Carts.EnsureForUser(user.ID, sessionID)
	if err != nil {
		return repos.OrderRow{}, nil, false, err
	}
	items, err := s.Carts.Items(cartID)
	if err != nil {
		return repos.OrderRow{}, nil, false, err
	}
	if len(items) == 0 {
		return repos.OrderRow{}, nil, false, ErrCartEmpty
	}

	var coupon *domain.Coupon
	if couponCode != "" {
		c, err := s.Coupons.GetActive(couponCode)
		if err != nil {
			if err == sql.ErrNoRows {
				return repos.OrderRow{}, nil, false, ErrValidation{Msg: "Invalid or expired coupon code"}
			}
			return repos.OrderRow{}, nil, false, err
		}
		coupon = &c
	}

	totals := CalculateTotals(items, coupon)
	fp := Fingerprint(items)

	if pending, err := s.Orders.PendingByFingerprint(user.ID, fp); err == nil {
		if math.Abs(pending.Total-totals.Total) > totalDriftEpsilon {
			if err := s.Orders.UpdateTotals(pending.ID, couponCode, totals, snapshot(items)); err != nil {
				return repos.OrderRow{}, nil, false, err
			}
			pending.CouponCode = couponCode
			pending.Subtotal = totals.Subtotal
			pending.Discount = totals.DiscountAmount
			pending.Tax = totals.TaxAmount
			pending.Total = totals.Total
		}
		rows, err := s.Orders.ItemsOf(pending.ID)
		if err != nil {
			return repos.OrderRow{}, nil, false, err
		}
		return pending, rows, true, nil
	} else if err != sql.ErrNoRows {
		return repos.OrderRow{}, nil, false, err
	}

	order := repos.OrderRow{
		ID:           uuid.NewString(),
		UserID:       user.ID,
		SessionID:    sessionID,
		CouponCode:   couponCode,
		Subtotal:     totals.Subtotal,
		Discount:     totals.DiscountAmount,
		Tax:          totals.TaxAmount,
		Total:        totals.Total,
		Status:       domain.StatusPending,
		Fingerprint:  fp,
		BillingName:  user.Name,
		BillingEmail: user.Email,
	}
	rows := snapshot(items)
	if err := s.Orders.Create(order, rows); err != nil {
		return repos.OrderRow{}, nil, false, err
	}

	// Best-effort side effects; the order stands even when these fail.
	if s.Notes != nil {
		if _, err := s.Notes.Notify(user.ID, "order_created", "Order received",
			fmt.Sprintf("Your order %s is awaiting payment.", order.ID)); err != nil {
			log.Printf("[order] notification failed for %s: %v", order.ID, err)
		}
	}
	if s.Mail != nil {
		body := fmt.Sprintf("Hi %s,\n\nWe received your order %s. Total: $%.2f.\n", user.Name, order.ID, order.Total)
		if err := s.Mail.Send(user.Email, "Your LogBloga order", body); err != nil {
			log.Printf("[order] confirmation email failed for %s: %v", order.ID, err)
		}
	}

	return order, rows, false, nil
}

// StartCheckout creates the hosted payment session for a pending order and
// records the session reference. Returns the redirect URL, empty when
// payments are not configured.
func (s *OrderService) StartCheckout(order repos.OrderRow, items []repos.OrderItemRow) (string, error) {
	if s.Pay == nil {
		return "", nil
	}
	lines := make([]payments.LineItem, 0, len(items))
	for _, it := range items {
		lines = append(lines, payments.LineItem{Title: it.Title, UnitPrice: it.UnitPrice, Qty: it.Qty})
	}
	res, err := s.Pay.CreateCheckout(order.ID, order.BillingEmail, lines,
		s.BaseURL+"/checkout/success?order="+order.ID,
		s.BaseURL+"/checkout/cancel?order="+order.ID)
	if err != nil {
		return "", err
	}
	if err := s.Orders.SetStripeRefs(order.ID, res.SessionID, ""); err != nil {
		return "", err
	}
	return res.URL, nil
}

// Complete marks an order paid, issues licenses and access grants, and sends
// the receipt. Safe to call more than once: completed orders and already
// issued licenses are skipped, so webhook retries are harmless.
func (s *OrderService) Complete(orderID, paymentIntent string) error {
	order, items, err := s.Orders.Get(orderID)
	if err != nil {
		return err
	}
	if order.Status == domain.StatusCompleted {
		return nil
	}
	if paymentIntent != "" {
		if err := s.Orders.SetStripeRefs(order.ID, order.StripeSessionID, paymentIntent); err != nil {
			return err
		}
	}
	if err := s.Orders.UpdateStatus(order.ID, domain.StatusCompleted); err != nil {
		return err
	}

	if order.UserID != "" && s.Licenses != nil {
		if _, err := s.Licenses.IssueForOrder(order.UserID, order.ID, items); err != nil {
			log.Printf("[order] license issue failed for %s: %v", order.ID, err)
		}
	}
	if order.UserID != "" && s.Notes != nil {
		if _, err := s.Notes.Notify(order.UserID, "order_completed", "Purchase complete",
			fmt.Sprintf("Order %s is paid. Your content is ready.", order.ID)); err != nil {
			log.Printf("[order] notification failed for %s: %v", order.ID, err)
		}
	}
	if s.Mail != nil && order.BillingEmail != "" {
		body := fmt.Sprintf("Order %s is paid. Total: $%.2f.\nYour licenses are available in your account.\n", order.ID, order.Total)
		if err := s.Mail.Send(order.BillingEmail, "Your LogBloga receipt", body); err != nil {
			log.Printf("[order] receipt email failed for %s: %v", order.ID, err)
		}
	}

	// The cart served its purpose once the order is paid.
	if cartID, err := s.Carts.ForUser(order.UserID); err == nil {
		_ = s.Carts.Clear(cartID)
	}
	return nil
}

// CompleteFromStripeSession resolves the order behind a checkout session id.
func (s *OrderService) CompleteFromStripeSession(stripeSessionID, paymentIntent string) error {
	order, err := s.Orders.GetByStripeSession(stripeSessionID)
	if err != nil {
		return err
	}
	return s.Complete(order.ID, paymentIntent)
}
