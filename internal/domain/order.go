package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type OrderStatus string

const (
	OrderStatusPendingPayment OrderStatus = "PENDING_PAYMENT"
	OrderStatusPaid           OrderStatus = "PAGO_CONFIRMADO"
	OrderStatusShipped        OrderStatus = "EN_CAMINO"
	OrderStatusDelivered      OrderStatus = "ENTREGADO"
	OrderStatusCancelled      OrderStatus = "CANCELADO"
)

func (s OrderStatus) Valid() bool {
	switch s {
	case OrderStatusPendingPayment, OrderStatusPaid, OrderStatusShipped, OrderStatusDelivered, OrderStatusCancelled:
		return true
	}
	return false
}

type PaymentMethod string

const (
	PaymentMercadoPago   PaymentMethod = "MERCADO_PAGO"
	PaymentTransferencia PaymentMethod = "TRANSFERENCIA"
	PaymentEfectivo      PaymentMethod = "EFECTIVO"
)

type Order struct {
	ID            uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	UserID        uuid.UUID       `gorm:"type:uuid;index;not null" json:"userId"`
	User          *User           `gorm:"constraint:OnDelete:RESTRICT" json:"user,omitempty"`
	AddressID     uuid.UUID       `gorm:"type:uuid;index;not null" json:"addressId"`
	Address       *Address        `gorm:"constraint:OnDelete:RESTRICT" json:"address,omitempty"`
	Status        OrderStatus     `gorm:"type:varchar(30);index;not null" json:"status"`
	PaymentMethod PaymentMethod   `gorm:"type:varchar(30);not null" json:"paymentMethod"`
	PaymentRef    string          `gorm:"size:140" json:"paymentRef,omitempty"`
	Note          string          `gorm:"type:text" json:"note,omitempty"`
	Subtotal      decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"subtotal"`
	Total         decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"total"`
	Items         []OrderItem     `gorm:"constraint:OnDelete:CASCADE" json:"items"`
	PaidAt        *time.Time      `json:"paidAt,omitempty"`
	ShippedAt     *time.Time      `json:"shippedAt,omitempty"`
	DeliveredAt   *time.Time      `json:"deliveredAt,omitempty"`
	CancelledAt   *time.Time      `json:"cancelledAt,omitempty"`
	CreatedAt     time.Time       `json:"createdAt"`
	UpdatedAt     time.Time       `json:"updatedAt"`
}

func (o *Order) BeforeCreate(*gorm.DB) error {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	return nil
}

// StampStatus fija el estado y el timestamp que le corresponde.
// No valida transiciones: cualquier estado es alcanzable.
func (o *Order) StampStatus(s OrderStatus, at time.Time) {
	o.Status = s
	t := at
	switch s {
	case OrderStatusPaid:
		o.PaidAt = &t
	case OrderStatusShipped:
		o.ShippedAt = &t
	case OrderStatusDelivered:
		o.DeliveredAt = &t
	case OrderStatusCancelled:
		o.CancelledAt = &t
	}
}

// OrderItem guarda una foto de la variante al momento de la compra.
type OrderItem struct {
	ID          uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	OrderID     uuid.UUID       `gorm:"type:uuid;index;not null" json:"orderId"`
	ProductID   uuid.UUID       `gorm:"type:uuid;index;not null" json:"productId"`
	VariantID   uuid.UUID       `gorm:"type:uuid;index;not null" json:"variantId"`
	ProductName string          `gorm:"size:180;not null" json:"productName"`
	Size        string          `gorm:"size:20" json:"size"`
	Color       string          `gorm:"size:60" json:"color"`
	Gender      Gender          `gorm:"type:varchar(10)" json:"gender"`
	UnitPrice   decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"unitPrice"`
	Quantity    int             `gorm:"not null" json:"quantity"`
	LineTotal   decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"lineTotal"`
}

func (i *OrderItem) BeforeCreate(*gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}

// OrderBuilder recibe el carrito ya bloqueado y devuelve la orden a insertar.
// Si devuelve error la transacción se descarta sin escribir nada.
type OrderBuilder func(cart *Cart) (*Order, error)

type OrderFilter struct {
	UserID   *uuid.UUID
	Status   OrderStatus
	Page     int
	PageSize int
}

type OrderRepo interface {
	PlaceFromCart(ctx context.Context, userID uuid.UUID, build OrderBuilder) (*Order, error)
	FindByID(ctx context.Context, id uuid.UUID) (*Order, error)
	List(ctx context.Context, f OrderFilter) ([]Order, int64, error)
	Save(ctx context.Context, o *Order) error
}
