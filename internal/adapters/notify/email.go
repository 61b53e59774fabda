package notify

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	"gopkg.in/gomail.v2"

	"github.com/phenrril/storefront/internal/domain"
)

type sender interface {
	DialAndSend(m ...*gomail.Message) error
}

// Mailer manda el aviso de venta por SMTP.
type Mailer struct {
	from   string
	to     []string
	dialer sender
}

func NewMailer(host string, port int, user, pass, from string, to []string) *Mailer {
	if from == "" {
		from = user
	}
	return &Mailer{from: from, to: to, dialer: gomail.NewDialer(host, port, user, pass)}
}

func body(o *domain.Order) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Estado: %s\n", o.Status)
	fmt.Fprintf(&b, "Orden: %s\n", o.ID)
	fmt.Fprintf(&b, "Pago: %s %s\n", o.PaymentMethod, o.PaymentRef)
	if a := o.Address; a != nil {
		fmt.Fprintf(&b, "Envío a: %s, %s %s, %s (%s) CP:%s\n", a.RecipientName, a.Street, a.Number, a.City, a.Province, a.PostalCode)
	}
	b.WriteString("Items:\n")
	for _, it := range o.Items {
		fmt.Fprintf(&b, "- %s %s/%s x%d $%s\n", it.ProductName, it.Size, it.Color, it.Quantity, it.LineTotal.StringFixed(2))
	}
	fmt.Fprintf(&b, "Total: $%s\n", o.Total.StringFixed(2))
	if o.Note != "" {
		fmt.Fprintf(&b, "Nota: %s\n", o.Note)
	}
	return b.String()
}

func (m *Mailer) OrderPaid(_ context.Context, o *domain.Order) error {
	if len(m.to) == 0 {
		log.Warn().Msg("ORDER_NOTIFY_EMAIL vacío, se omite envío de email")
		return nil
	}
	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", m.to...)
	msg.SetHeader("Subject", fmt.Sprintf("Nueva orden PAGO APROBADO #%s", o.ID))
	msg.SetBody("text/plain", body(o))
	if err := m.dialer.DialAndSend(msg); err != nil {
		return fmt.Errorf("email send: %w", err)
	}
	return nil
}
