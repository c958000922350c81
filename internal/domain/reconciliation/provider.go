package reconciliation

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// ---------------------------------------------------------------------------
// Provider Errors
// ---------------------------------------------------------------------------

var (
	// ErrProviderNotConfigured indicates credentials are missing or incomplete
	ErrProviderNotConfigured = errors.New("reconciliation: provider not configured")
	// ErrProviderUnknown indicates an unrecognized provider code
	ErrProviderUnknown = errors.New("reconciliation: unknown provider")
	// ErrAuthenticationFailed indicates the carrier rejected the credentials.
	// Not retryable; operator action is required.
	ErrAuthenticationFailed = errors.New("reconciliation: provider authentication failed")
	// ErrProviderUnavailable indicates a network failure or carrier 5xx.
	// Eligible for the caller's retry policy.
	ErrProviderUnavailable = errors.New("reconciliation: provider temporarily unavailable")
	// ErrProviderInvalidResponse indicates an unparseable carrier response
	ErrProviderInvalidResponse = errors.New("reconciliation: invalid provider response")
	// ErrOrderNotFound indicates the carrier does not know the external ID
	ErrOrderNotFound = errors.New("reconciliation: order not found on provider")
	// ErrSyncAlreadyRunning indicates a sync is active for the same
	// (provider, operation) pair. The second trigger is rejected, not queued.
	ErrSyncAlreadyRunning = errors.New("reconciliation: sync already running")
	// ErrOperationUnknown indicates an operation ID with no registered
	// provider clients
	ErrOperationUnknown = errors.New("reconciliation: unknown operation")
)

// MissingFieldsError reports exactly which credential fields are absent so an
// operator UI can render the list.
type MissingFieldsError struct {
	Provider ProviderCode
	Fields   []string
}

// Error implements the error interface
func (e *MissingFieldsError) Error() string {
	return fmt.Sprintf("reconciliation: %s credentials missing fields: %s",
		e.Provider, strings.Join(e.Fields, ", "))
}

// Unwrap lets callers match the error with errors.Is(err, ErrProviderNotConfigured)
func (e *MissingFieldsError) Unwrap() error {
	return ErrProviderNotConfigured
}

// ---------------------------------------------------------------------------
// ProviderCode
// ---------------------------------------------------------------------------

// ProviderCode identifies an external fulfillment carrier.
type ProviderCode string

const (
	// ProviderEuropeanFulfillment is the European Fulfillment carrier
	ProviderEuropeanFulfillment ProviderCode = "european_fulfillment"
	// ProviderElogy is the Elogy carrier
	ProviderElogy ProviderCode = "elogy"
	// ProviderFHB is the FHB Group carrier
	ProviderFHB ProviderCode = "fhb"
)

// IsValid returns true if the provider code is known
func (c ProviderCode) IsValid() bool {
	switch c {
	case ProviderEuropeanFulfillment, ProviderElogy, ProviderFHB:
		return true
	default:
		return false
	}
}

// String returns the string representation of ProviderCode
func (c ProviderCode) String() string {
	return string(c)
}

// ---------------------------------------------------------------------------
// Value Objects
// ---------------------------------------------------------------------------

// Credential is a cached bearer credential issued by a carrier login endpoint.
type Credential struct {
	// AccessToken is the bearer token for subsequent API calls
	AccessToken string
	// ExpiresAt is when the token stops being accepted
	ExpiresAt time.Time
}

// Expired returns true once the credential can no longer be used
func (c Credential) Expired() bool {
	return !time.Now().Before(c.ExpiresAt)
}

// Customer holds buyer contact details as reported by a carrier.
type Customer struct {
	Name    string
	Email   string
	Phone   string
	City    string
	Country string
}

// RemoteOrder is a carrier order normalized into provider-agnostic shape.
// It is transient: rebuilt on every fetch and never persisted directly.
type RemoteOrder struct {
	// ExternalID is the provider-scoped order identifier
	ExternalID string
	// Customer holds the buyer contact details
	Customer Customer
	// Total is the order total in the provider currency
	Total decimal.Decimal
	// Currency is the ISO currency code of Total
	Currency string
	// RawStatus is the untranslated provider vocabulary string
	RawStatus string
	// Status is RawStatus mapped through the provider's lookup table
	Status Status
	// PaymentMethod is the payment method reported by the carrier
	PaymentMethod string
	// OrderDate is when the order was placed on the carrier
	OrderDate time.Time
	// Provider tags which carrier produced this record
	Provider ProviderCode
	// RawPayload is the original carrier JSON, kept for audit
	RawPayload string
}

// ---------------------------------------------------------------------------
// ProviderClient Port
// ---------------------------------------------------------------------------

// ProviderClient is the capability set every carrier adapter implements.
// New carriers are added by implementing this interface, never by modifying
// the reconciliation engine.
type ProviderClient interface {
	// Provider returns the carrier this client talks to
	Provider() ProviderCode

	// Authenticate returns a cached bearer credential, refreshing it at most
	// once even under concurrent calls. Missing credential fields fail with
	// ErrProviderNotConfigured before any network call; a rejected login
	// fails with ErrAuthenticationFailed and is not retried; transport
	// failures and carrier 5xx map to ErrProviderUnavailable.
	Authenticate(ctx context.Context) (Credential, error)

	// ListOrders returns one bounded page of orders. Pages are 1-indexed.
	// An empty or short page (len < PageSize) signals end of data. The
	// client performs no multi-page aggregation; pagination control belongs
	// to the engine.
	ListOrders(ctx context.Context, page int) ([]RemoteOrder, error)

	// GetOrderStatus returns the current canonical status of a single order,
	// or nil if the carrier no longer knows the external ID.
	GetOrderStatus(ctx context.Context, externalID string) (*Status, error)

	// PageSize returns the carrier-defined page size
	PageSize() int

	// Simulated returns true when the client serves deterministic synthetic
	// data instead of real carrier responses. Simulated output is synced
	// into the ledger but must never trigger webhook dispatch.
	Simulated() bool
}

// ClientRegistry resolves which provider clients an operation syncs. An
// operation is one business account whose orders are spread across carriers.
type ClientRegistry interface {
	// ClientsFor returns the clients configured for an operation, or
	// ErrOperationUnknown.
	ClientsFor(operationID string) ([]ProviderClient, error)
}
