package reconciliation

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// ---------------------------------------------------------------------------
// Status
// ---------------------------------------------------------------------------

// Status is the canonical order status shared across all carriers.
type Status string

const (
	// StatusPending indicates the order has been placed but not confirmed
	StatusPending Status = "pending"
	// StatusConfirmed indicates the order has been confirmed by the carrier
	StatusConfirmed Status = "confirmed"
	// StatusShipped indicates the order has left the warehouse
	StatusShipped Status = "shipped"
	// StatusDelivered indicates the order reached the customer
	StatusDelivered Status = "delivered"
	// StatusCancelled indicates the order was cancelled or returned
	StatusCancelled Status = "cancelled"
)

// IsValid returns true if the status is a known canonical status
func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusShipped, StatusDelivered, StatusCancelled:
		return true
	default:
		return false
	}
}

// String returns the string representation of Status
func (s Status) String() string {
	return string(s)
}

// IsTerminal returns true if the status is assumed unlikely to change further.
// Terminal orders are still sampled by incremental syncs to catch rare
// post-terminal corrections.
func (s Status) IsTerminal() bool {
	return s == StatusDelivered || s == StatusCancelled
}

// AtLeastConfirmed returns true once the order has passed carrier confirmation.
// Derived costs only apply from this point on.
func (s Status) AtLeastConfirmed() bool {
	switch s {
	case StatusConfirmed, StatusShipped, StatusDelivered:
		return true
	default:
		return false
	}
}

// ---------------------------------------------------------------------------
// Order
// ---------------------------------------------------------------------------

// Order is the canonical, locally stored representation of an order.
// It is created on first observation from any carrier and mutated only by
// the reconciliation engine when the mapped status changes. Orders are never
// deleted by the engine.
type Order struct {
	// ID is globally unique and stable across re-syncs. It is derived from
	// the carrier's external ID with a provider prefix to avoid collisions.
	ID string
	// Customer holds the buyer contact details as reported by the carrier
	Customer Customer
	// Status is the canonical order status
	Status Status
	// Total is the order total in the provider currency
	Total decimal.Decimal
	// Currency is the ISO currency code of Total
	Currency string
	// ProductCost is the derived cost of goods for this order
	ProductCost decimal.Decimal
	// ShippingCost is the derived shipping cost for this order
	ShippingCost decimal.Decimal
	// PaymentMethod is the payment method string reported by the carrier
	PaymentMethod string
	// Provider identifies the carrier this order was observed on
	Provider ProviderCode
	// OrderDate is when the order was placed on the carrier
	OrderDate time.Time
	// LastStatusUpdate is when the canonical status last changed
	LastStatusUpdate time.Time
	// CreatedAt is when the order was first observed locally
	CreatedAt time.Time
	// UpdatedAt is when the local record was last written
	UpdatedAt time.Time
}

// BuildOrderID derives the canonical order ID from a provider-scoped
// external ID. The provider prefix keeps IDs from different carriers from
// colliding in the shared ledger.
func BuildOrderID(provider ProviderCode, externalID string) string {
	return fmt.Sprintf("%s-%s", provider, externalID)
}

// ExternalID recovers the provider-scoped external ID from a canonical
// order ID. Inverse of BuildOrderID for the order's own provider.
func ExternalID(provider ProviderCode, orderID string) string {
	return strings.TrimPrefix(orderID, string(provider)+"-")
}

// ---------------------------------------------------------------------------
// Derived Costs
// ---------------------------------------------------------------------------

// costBand is one tier of the value-banded cost rule.
type costBand struct {
	upTo         decimal.Decimal
	productCost  decimal.Decimal
	shippingCost decimal.Decimal
}

// costBands are evaluated in order; the first band whose upper bound exceeds
// the order total applies. The last band is open-ended.
var costBands = []costBand{
	{upTo: decimal.NewFromInt(50), productCost: decimal.NewFromInt(15), shippingCost: decimal.RequireFromString("4.5")},
	{upTo: decimal.NewFromInt(150), productCost: decimal.NewFromInt(40), shippingCost: decimal.NewFromInt(8)},
	{upTo: decimal.NewFromInt(300), productCost: decimal.NewFromInt(90), shippingCost: decimal.NewFromInt(12)},
}

// openEndedBand applies to totals at or above the highest bounded band.
var openEndedBand = costBand{
	productCost:  decimal.NewFromInt(150),
	shippingCost: decimal.NewFromInt(15),
}

// DerivedCosts computes the product and shipping costs for an order from its
// status and total. Unconfirmed orders carry zero derived cost; costs are
// applied once, when the status reaches a confirmed-or-later state.
func DerivedCosts(status Status, total decimal.Decimal) (productCost, shippingCost decimal.Decimal) {
	if !status.AtLeastConfirmed() {
		return decimal.Zero, decimal.Zero
	}
	for _, band := range costBands {
		if total.LessThan(band.upTo) {
			return band.productCost, band.shippingCost
		}
	}
	return openEndedBand.productCost, openEndedBand.shippingCost
}
