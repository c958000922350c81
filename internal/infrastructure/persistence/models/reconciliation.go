package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/commerceops/backend/internal/domain/reconciliation"
)

// OrderModel is the persistence model for the canonical Order entity.
type OrderModel struct {
	ID               string                      `gorm:"type:varchar(120);primary_key"`
	CustomerName     string                      `gorm:"type:varchar(255)"`
	CustomerEmail    string                      `gorm:"type:varchar(255)"`
	CustomerPhone    string                      `gorm:"type:varchar(50)"`
	CustomerCity     string                      `gorm:"type:varchar(120)"`
	CustomerCountry  string                      `gorm:"type:varchar(2)"`
	Status           reconciliation.Status       `gorm:"type:varchar(20);not null;index:idx_orders_provider_status,priority:2"`
	Total            decimal.Decimal             `gorm:"type:decimal(12,2);not null"`
	Currency         string                      `gorm:"type:varchar(3);not null"`
	ProductCost      decimal.Decimal             `gorm:"type:decimal(12,2);not null"`
	ShippingCost     decimal.Decimal             `gorm:"type:decimal(12,2);not null"`
	PaymentMethod    string                      `gorm:"type:varchar(50)"`
	Provider         reconciliation.ProviderCode `gorm:"type:varchar(40);not null;index:idx_orders_provider_status,priority:1"`
	OrderDate        time.Time
	LastStatusUpdate time.Time `gorm:"not null"`
	CreatedAt        time.Time `gorm:"not null"`
	UpdatedAt        time.Time `gorm:"not null;index"`
}

// TableName returns the table name for GORM
func (OrderModel) TableName() string {
	return "orders"
}

// ToDomain converts the persistence model to a domain Order entity.
func (m *OrderModel) ToDomain() *reconciliation.Order {
	return &reconciliation.Order{
		ID: m.ID,
		Customer: reconciliation.Customer{
			Name:    m.CustomerName,
			Email:   m.CustomerEmail,
			Phone:   m.CustomerPhone,
			City:    m.CustomerCity,
			Country: m.CustomerCountry,
		},
		Status:           m.Status,
		Total:            m.Total,
		Currency:         m.Currency,
		ProductCost:      m.ProductCost,
		ShippingCost:     m.ShippingCost,
		PaymentMethod:    m.PaymentMethod,
		Provider:         m.Provider,
		OrderDate:        m.OrderDate,
		LastStatusUpdate: m.LastStatusUpdate,
		CreatedAt:        m.CreatedAt,
		UpdatedAt:        m.UpdatedAt,
	}
}

// FromDomain populates the persistence model from a domain Order entity.
func (m *OrderModel) FromDomain(o *reconciliation.Order) {
	m.ID = o.ID
	m.CustomerName = o.Customer.Name
	m.CustomerEmail = o.Customer.Email
	m.CustomerPhone = o.Customer.Phone
	m.CustomerCity = o.Customer.City
	m.CustomerCountry = o.Customer.Country
	m.Status = o.Status
	m.Total = o.Total
	m.Currency = o.Currency
	m.ProductCost = o.ProductCost
	m.ShippingCost = o.ShippingCost
	m.PaymentMethod = o.PaymentMethod
	m.Provider = o.Provider
	m.OrderDate = o.OrderDate
	m.LastStatusUpdate = o.LastStatusUpdate
	m.CreatedAt = o.CreatedAt
	m.UpdatedAt = o.UpdatedAt
}

// OrderModelFromDomain creates a new persistence model from a domain Order
func OrderModelFromDomain(o *reconciliation.Order) *OrderModel {
	m := &OrderModel{}
	m.FromDomain(o)
	return m
}

// WebhookDeliveryModel is the persistence model for the delivery audit log.
type WebhookDeliveryModel struct {
	ID                 uuid.UUID `gorm:"type:uuid;primary_key"`
	SubscriberConfigID uuid.UUID `gorm:"type:uuid;not null;index"`
	OrderID            string    `gorm:"type:varchar(120);not null;index"`
	Payload            string    `gorm:"type:text;not null"`
	ResponseStatus     int
	ResponseBody       string    `gorm:"type:text"`
	ErrorMessage       string    `gorm:"type:text"`
	CreatedAt          time.Time `gorm:"not null;index"`
}

// TableName returns the table name for GORM
func (WebhookDeliveryModel) TableName() string {
	return "webhook_deliveries"
}

// ToDomain converts the persistence model to a domain WebhookDelivery.
func (m *WebhookDeliveryModel) ToDomain() *reconciliation.WebhookDelivery {
	return &reconciliation.WebhookDelivery{
		ID:                 m.ID,
		SubscriberConfigID: m.SubscriberConfigID,
		OrderID:            m.OrderID,
		Payload:            m.Payload,
		ResponseStatus:     m.ResponseStatus,
		ResponseBody:       m.ResponseBody,
		ErrorMessage:       m.ErrorMessage,
		CreatedAt:          m.CreatedAt,
	}
}

// FromDomain populates the persistence model from a domain WebhookDelivery.
func (m *WebhookDeliveryModel) FromDomain(d *reconciliation.WebhookDelivery) {
	m.ID = d.ID
	m.SubscriberConfigID = d.SubscriberConfigID
	m.OrderID = d.OrderID
	m.Payload = d.Payload
	m.ResponseStatus = d.ResponseStatus
	m.ResponseBody = d.ResponseBody
	m.ErrorMessage = d.ErrorMessage
	m.CreatedAt = d.CreatedAt
}
