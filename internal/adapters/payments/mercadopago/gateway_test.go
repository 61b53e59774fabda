package mercadopago

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phenrril/storefront/internal/domain"
)

func newTestGateway(t *testing.T, h http.HandlerFunc) *Gateway {
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	g := NewGateway("TEST-123", "https://tienda.example.com/", "firma", false)
	g.apiBase = srv.URL
	return g
}

func TestExternalRef(t *testing.T) {
	g := NewGateway("tok", "", "secreto", true)
	id := uuid.New()

	got, ok := g.ResolveExternalRef(g.ExternalRef(id))
	require.True(t, ok)
	assert.Equal(t, id, got)

	other := NewGateway("tok", "", "otro", true)
	_, ok = other.ResolveExternalRef(g.ExternalRef(id))
	assert.False(t, ok, "firma de otra clave")

	for _, ref := range []string{"", id.String(), id.String() + "|x", "no-uuid|" + g.sign("no-uuid")} {
		_, ok := g.ResolveExternalRef(ref)
		assert.False(t, ok, ref)
	}
}

func TestCreatePreference(t *testing.T) {
	var got mpPreferenceRequest
	g := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/checkout/preferences", r.URL.Path)
		assert.Equal(t, "Bearer TEST-123", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_ = json.NewEncoder(w).Encode(mpPrefResp{ID: "pref-1", InitPoint: "https://mp/prod", SandboxInitPoint: "https://mp/sandbox"})
	})
	o := &domain.Order{
		ID: uuid.New(),
		Items: []domain.OrderItem{{
			VariantID: uuid.New(), ProductName: "Remera", Size: "M", Color: "Negro",
			UnitPrice: decimal.RequireFromString("12.50"), Quantity: 2,
		}},
	}

	url, err := g.CreatePreference(context.Background(), o, "ana@example.com")
	require.NoError(t, err)
	assert.Equal(t, "https://mp/sandbox", url)

	require.Len(t, got.Items, 1)
	assert.Equal(t, "Remera (M Negro)", got.Items[0].Title)
	assert.Equal(t, 12.5, got.Items[0].UnitPrice)
	assert.Equal(t, "ARS", got.Items[0].CurrencyID)
	assert.Equal(t, "https://tienda.example.com/webhooks/mercadopago", got.NotificationURL)
	assert.Equal(t, "https://tienda.example.com/orders/"+o.ID.String(), got.BackURLs["success"])
	assert.Equal(t, "approved", got.AutoReturn)
	assert.Equal(t, "ana@example.com", got.Payer["email"])
	ref, ok := g.ResolveExternalRef(got.ExternalReference)
	require.True(t, ok)
	assert.Equal(t, o.ID, ref)
}

func TestCreatePreferenceErrors(t *testing.T) {
	g := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"message":"invalid items"}`))
	})
	_, err := g.CreatePreference(context.Background(), &domain.Order{ID: uuid.New()}, "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid items")

	g = newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})
	_, err = g.CreatePreference(context.Background(), &domain.Order{ID: uuid.New()}, "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "credenciales")

	_, err = NewGateway("", "", "s", true).CreatePreference(context.Background(), &domain.Order{}, "")
	assert.Error(t, err)
}

func TestPaymentInfo(t *testing.T) {
	g := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/payments/42" {
			http.NotFound(w, r)
			return
		}
		_ = json.NewEncoder(w).Encode(mpPaymentResp{ID: 42, Status: "approved", ExternalReference: "ref"})
	})

	status, ref, err := g.PaymentInfo(context.Background(), "42")
	require.NoError(t, err)
	assert.Equal(t, "approved", status)
	assert.Equal(t, "ref", ref)

	_, _, err = g.PaymentInfo(context.Background(), "7")
	assert.Error(t, err)
	_, _, err = g.PaymentInfo(context.Background(), "")
	assert.Error(t, err)
}
