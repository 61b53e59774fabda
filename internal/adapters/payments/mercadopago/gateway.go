package mercadopago

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/phenrril/storefront/internal/domain"
)

const defaultAPI = "https://api.mercadopago.com"

type Gateway struct {
	token      string
	publicURL  string
	secret     []byte
	sandbox    bool
	apiBase    string
	httpClient *http.Client
}

// NewGateway arma el cliente. publicURL es la base usada para back_urls y el webhook.
func NewGateway(token, publicURL, secret string, production bool) *Gateway {
	if publicURL == "" {
		publicURL = "http://localhost:8080"
	}
	return &Gateway{
		token:      token,
		publicURL:  strings.TrimRight(publicURL, "/"),
		secret:     []byte(secret),
		sandbox:    strings.HasPrefix(token, "TEST-") && !production,
		apiBase:    defaultAPI,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

type mpItem struct {
	ID         string  `json:"id,omitempty"`
	Title      string  `json:"title"`
	Quantity   int     `json:"quantity"`
	UnitPrice  float64 `json:"unit_price"`
	CurrencyID string  `json:"currency_id"`
}

type mpPreferenceRequest struct {
	Items               []mpItem          `json:"items"`
	Payer               map[string]string `json:"payer,omitempty"`
	BackURLs            map[string]string `json:"back_urls,omitempty"`
	AutoReturn          string            `json:"auto_return,omitempty"`
	NotificationURL     string            `json:"notification_url,omitempty"`
	StatementDescriptor string            `json:"statement_descriptor,omitempty"`
	ExternalReference   string            `json:"external_reference,omitempty"`
}

type mpPrefResp struct {
	ID               string `json:"id"`
	InitPoint        string `json:"init_point"`
	SandboxInitPoint string `json:"sandbox_init_point"`
}

type mpPaymentResp struct {
	ID                int64  `json:"id"`
	Status            string `json:"status"`
	ExternalReference string `json:"external_reference"`
}

func (g *Gateway) sign(orderID string) string {
	h := hmac.New(sha256.New, g.secret)
	h.Write([]byte(orderID))
	return hex.EncodeToString(h.Sum(nil))[:24]
}

// ExternalRef es "orderID|firma"; la firma evita webhooks que apunten a otra orden.
func (g *Gateway) ExternalRef(orderID uuid.UUID) string {
	return fmt.Sprintf("%s|%s", orderID.String(), g.sign(orderID.String()))
}

func (g *Gateway) ResolveExternalRef(ref string) (uuid.UUID, bool) {
	parts := strings.Split(ref, "|")
	if len(parts) != 2 {
		return uuid.Nil, false
	}
	if !hmac.Equal([]byte(g.sign(parts[0])), []byte(parts[1])) {
		return uuid.Nil, false
	}
	id, err := uuid.Parse(parts[0])
	if err != nil {
		return uuid.Nil, false
	}
	return id, true
}

func (g *Gateway) CreatePreference(ctx context.Context, o *domain.Order, payerEmail string) (string, error) {
	if g.token == "" {
		return "", errors.New("MP token faltante (MP_ACCESS_TOKEN)")
	}
	if o == nil {
		return "", errors.New("orden nil")
	}
	items := make([]mpItem, 0, len(o.Items))
	for _, it := range o.Items {
		title := it.ProductName
		if attrs := strings.TrimSpace(strings.Join([]string{it.Size, it.Color}, " ")); attrs != "" {
			title += " (" + attrs + ")"
		}
		items = append(items, mpItem{
			ID:         it.VariantID.String(),
			Title:      title,
			Quantity:   it.Quantity,
			UnitPrice:  it.UnitPrice.InexactFloat64(),
			CurrencyID: "ARS",
		})
	}
	back := g.publicURL + "/orders/" + o.ID.String()
	payload := mpPreferenceRequest{
		Items:               items,
		BackURLs:            map[string]string{"success": back, "pending": back, "failure": back},
		NotificationURL:     g.publicURL + "/webhooks/mercadopago",
		StatementDescriptor: "STOREFRONT",
		ExternalReference:   g.ExternalRef(o.ID),
	}
	if payerEmail != "" {
		payload.Payer = map[string]string{"email": payerEmail}
	}
	// con credenciales de producción MP rechaza auto_return contra localhost
	if g.sandbox || !strings.Contains(g.publicURL, "localhost") {
		payload.AutoReturn = "approved"
	}

	buf, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("error serializando payload MP: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.apiBase+"/checkout/preferences", bytes.NewReader(buf))
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+g.token)
	req.Header.Set("Content-Type", "application/json")
	res, err := g.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("error de conexión con MercadoPago: %w", err)
	}
	defer res.Body.Close()
	if res.StatusCode >= 300 {
		body, _ := io.ReadAll(res.Body)
		var mpError struct {
			Message string `json:"message"`
		}
		if res.StatusCode == 401 || res.StatusCode == 403 {
			return "", fmt.Errorf("credenciales de MercadoPago inválidas o sin permisos (status %d)", res.StatusCode)
		}
		if json.Unmarshal(body, &mpError) == nil && mpError.Message != "" {
			return "", fmt.Errorf("error de MercadoPago (status %d): %s", res.StatusCode, mpError.Message)
		}
		return "", fmt.Errorf("mp pref status %d: %s", res.StatusCode, string(body))
	}
	var pref mpPrefResp
	if err := json.NewDecoder(res.Body).Decode(&pref); err != nil {
		return "", err
	}
	if pref.ID == "" {
		return "", errors.New("respuesta MP incompleta")
	}
	if g.sandbox && pref.SandboxInitPoint != "" {
		return pref.SandboxInitPoint, nil
	}
	return pref.InitPoint, nil
}

func (g *Gateway) PaymentInfo(ctx context.Context, paymentID string) (string, string, error) {
	if g.token == "" || paymentID == "" {
		return "", "", errors.New("params")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.apiBase+"/v1/payments/"+paymentID, nil)
	if err != nil {
		return "", "", err
	}
	req.Header.Set("Authorization", "Bearer "+g.token)
	res, err := g.httpClient.Do(req)
	if err != nil {
		return "", "", err
	}
	defer res.Body.Close()
	if res.StatusCode >= 300 {
		b, _ := io.ReadAll(res.Body)
		return "", "", fmt.Errorf("mp payment status %d: %s", res.StatusCode, string(b))
	}
	var pr mpPaymentResp
	if err := json.NewDecoder(res.Body).Decode(&pr); err != nil {
		return "", "", err
	}
	return pr.Status, pr.ExternalReference, nil
}
