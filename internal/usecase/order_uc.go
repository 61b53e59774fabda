package usecase

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/phenrril/storefront/internal/domain"
)

type OrderUC struct {
	Orders    domain.OrderRepo
	Addresses domain.AddressRepo
	Users     domain.UserRepo
	// Gateway es opcional; sin él las órdenes MERCADO_PAGO quedan pendientes sin checkout.
	Gateway  domain.PaymentGateway
	Notifier domain.OrderNotifier
	Now      func() time.Time
}

type PlaceOrderInput struct {
	AddressID     string               `json:"addressId" validate:"required,uuid"`
	PaymentMethod domain.PaymentMethod `json:"paymentMethod" validate:"required,oneof=MERCADO_PAGO TRANSFERENCIA EFECTIVO"`
	Note          string               `json:"note" validate:"max=500"`
}

type StatusInput struct {
	Status domain.OrderStatus `json:"status" validate:"required,oneof=PENDING_PAYMENT PAGO_CONFIRMADO EN_CAMINO ENTREGADO CANCELADO"`
}

type PlacedOrder struct {
	Order       *domain.Order `json:"order"`
	CheckoutURL string        `json:"checkoutUrl,omitempty"`
}

// builder valida el carrito bloqueado y arma la orden con la foto de cada variante.
// depleted junta los SKU que quedan sin stock después de la compra.
func builder(userID, addressID uuid.UUID, in PlaceOrderInput, depleted *[]string) domain.OrderBuilder {
	return func(c *domain.Cart) (*domain.Order, error) {
		if len(c.Items) == 0 {
			return nil, domain.ErrEmptyCart
		}
		o := &domain.Order{
			ID:            uuid.New(),
			UserID:        userID,
			AddressID:     addressID,
			Status:        domain.OrderStatusPendingPayment,
			PaymentMethod: in.PaymentMethod,
			Note:          strings.TrimSpace(in.Note),
		}
		subtotal := decimal.Zero
		*depleted = (*depleted)[:0]
		for _, it := range c.Items {
			v := it.Variant
			if v == nil {
				return nil, domain.ErrInactiveProduct
			}
			if err := purchasable(v, it.Quantity); err != nil {
				return nil, err
			}
			line := v.Price.Mul(decimal.NewFromInt(int64(it.Quantity)))
			o.Items = append(o.Items, domain.OrderItem{
				OrderID:     o.ID,
				ProductID:   v.ProductID,
				VariantID:   v.ID,
				ProductName: v.Product.Name,
				Size:        v.Size,
				Color:       v.Color,
				Gender:      v.Gender,
				UnitPrice:   v.Price,
				Quantity:    it.Quantity,
				LineTotal:   line,
			})
			subtotal = subtotal.Add(line)
			if v.Stock == it.Quantity {
				*depleted = append(*depleted, v.SKU)
			}
		}
		o.Subtotal = subtotal
		o.Total = subtotal
		return o, nil
	}
}

// Place convierte el carrito del usuario en una orden PENDING_PAYMENT.
func (uc *OrderUC) Place(ctx context.Context, userID uuid.UUID, in PlaceOrderInput) (*PlacedOrder, error) {
	addressID, err := parseID(in.AddressID, "addressId")
	if err != nil {
		return nil, err
	}
	if _, err := uc.Addresses.FindOwned(ctx, userID, addressID); err != nil {
		return nil, err
	}
	var depleted []string
	o, err := uc.Orders.PlaceFromCart(ctx, userID, builder(userID, addressID, in, &depleted))
	if err != nil {
		return nil, err
	}
	log.Info().
		Str("order", o.ID.String()).
		Str("user", userID.String()).
		Str("total", o.Total.StringFixed(2)).
		Int("items", len(o.Items)).
		Msg("order placed")
	for _, sku := range depleted {
		log.Info().Str("sku", sku).Msg("stock depleted")
	}

	out := &PlacedOrder{Order: o}
	if o.PaymentMethod == domain.PaymentMercadoPago && uc.Gateway != nil {
		email := ""
		if u, err := uc.Users.FindByID(ctx, userID); err == nil {
			email = u.Email
		}
		url, err := uc.Gateway.CreatePreference(ctx, o, email)
		if err != nil {
			// la orden ya está confirmada; el pago puede reintentarse
			log.Error().Err(err).Str("order", o.ID.String()).Msg("crear preferencia MP")
		} else {
			out.CheckoutURL = url
		}
	}
	return out, nil
}

// Get devuelve la orden si es del usuario o si quien consulta es admin.
func (uc *OrderUC) Get(ctx context.Context, p domain.Principal, id uuid.UUID) (*domain.Order, error) {
	o, err := uc.Orders.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if o.UserID != p.UserID && !p.IsAdmin() {
		return nil, domain.NotFound("orden")
	}
	return o, nil
}

func (uc *OrderUC) ListMine(ctx context.Context, userID uuid.UUID, page, size int) (Page[domain.Order], error) {
	return uc.list(ctx, domain.OrderFilter{UserID: &userID, Page: page, PageSize: size})
}

func (uc *OrderUC) ListAll(ctx context.Context, f domain.OrderFilter) (Page[domain.Order], error) {
	if f.Status != "" && !f.Status.Valid() {
		return Page[domain.Order]{}, domain.Invalid("estado inválido: %s", f.Status)
	}
	return uc.list(ctx, f)
}

func (uc *OrderUC) list(ctx context.Context, f domain.OrderFilter) (Page[domain.Order], error) {
	list, total, err := uc.Orders.List(ctx, f)
	if err != nil {
		return Page[domain.Order]{}, err
	}
	return newPage(list, total, f.Page, f.PageSize), nil
}

// UpdateStatus no valida transiciones: sólo fija el estado y su timestamp.
func (uc *OrderUC) UpdateStatus(ctx context.Context, id uuid.UUID, status domain.OrderStatus) (*domain.Order, error) {
	if !status.Valid() {
		return nil, domain.Invalid("estado inválido: %s", status)
	}
	o, err := uc.Orders.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	prev := o.Status
	o.StampStatus(status, clock(uc.Now))
	if err := uc.Orders.Save(ctx, o); err != nil {
		return nil, err
	}
	log.Info().Str("order", id.String()).Str("from", string(prev)).Str("to", string(status)).Msg("estado de orden")
	return o, nil
}

// HandlePayment procesa la notificación de MercadoPago para paymentID.
// Devuelve la orden afectada o nil si el pago no corresponde a ninguna.
func (uc *OrderUC) HandlePayment(ctx context.Context, paymentID string) (*domain.Order, error) {
	if uc.Gateway == nil {
		return nil, domain.Invalid("pagos no configurados")
	}
	if strings.TrimSpace(paymentID) == "" {
		return nil, domain.Invalid("payment id vacío")
	}
	status, ref, err := uc.Gateway.PaymentInfo(ctx, paymentID)
	if err != nil {
		return nil, err
	}
	orderID, ok := uc.Gateway.ResolveExternalRef(ref)
	if !ok {
		log.Warn().Str("payment", paymentID).Str("ref", ref).Msg("referencia externa inválida")
		return nil, nil
	}
	o, err := uc.Orders.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if status != "approved" || o.Status == domain.OrderStatusPaid {
		log.Info().Str("order", o.ID.String()).Str("mp_status", status).Msg("webhook MP sin cambios")
		return o, nil
	}
	o.PaymentRef = paymentID
	o.StampStatus(domain.OrderStatusPaid, clock(uc.Now))
	if err := uc.Orders.Save(ctx, o); err != nil {
		return nil, err
	}
	log.Info().Str("order", o.ID.String()).Str("payment", paymentID).Msg("pago confirmado")
	if uc.Notifier != nil {
		if err := uc.Notifier.OrderPaid(ctx, o); err != nil {
			log.Error().Err(err).Str("order", o.ID.String()).Msg("aviso de venta")
		}
	}
	return o, nil
}
