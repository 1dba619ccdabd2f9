package httppresentation

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	appPayment "github.com/Zhima-Mochi/minishop-payment/internal/application/payment"
	domainPayment "github.com/Zhima-Mochi/minishop-payment/internal/domain/payment"
	"github.com/Zhima-Mochi/minishop-payment/internal/infrastructure/collaborator"
	"github.com/Zhima-Mochi/minishop-payment/internal/infrastructure/id"
	infraobs "github.com/Zhima-Mochi/minishop-payment/internal/infrastructure/observability"
	"github.com/Zhima-Mochi/minishop-payment/internal/infrastructure/observability/prometrics"
	"github.com/Zhima-Mochi/minishop-payment/internal/observability"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubCheckout struct {
	got    appPayment.CheckoutInput
	calls  int
	result *appPayment.CheckoutResult
	err    error
}

func (s *stubCheckout) Execute(_ context.Context, in appPayment.CheckoutInput) (*appPayment.CheckoutResult, error) {
	s.calls++
	s.got = in
	return s.result, s.err
}

func serve(t *testing.T, h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	h := NewHandler(&stubCheckout{}, nil, nil, nil).Router()

	rec := serve(t, h, http.MethodGet, "/health", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "OK", rec.Body.String())
	assert.NotEmpty(t, rec.Header().Get(headerRequestID))
}

func TestPay_Success(t *testing.T) {
	stub := &stubCheckout{result: &appPayment.CheckoutResult{OrderID: "o-123"}}
	h := NewHandler(stub, nil, nil, nil).Router()

	body := `{"items":[{"sku":"SHIP","qty":1,"name":"Shipping","price":10}],"total":100,"tax":16.67}`
	rec := serve(t, h, http.MethodPost, "/pay/alice", body)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"orderid":"o-123"}`, rec.Body.String())
	assert.Equal(t, "alice", stub.got.UserID)
	assert.Equal(t, 100.0, stub.got.Cart.Total)
	require.Len(t, stub.got.Cart.Items, 1)
	assert.Equal(t, "SHIP", stub.got.Cart.Items[0].SKU)
	assert.Equal(t, "Shipping", stub.got.Cart.Items[0].Name)
}

func TestPay_ErrorMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantBody   string
	}{
		{
			name:       "cart invalid",
			err:        appPayment.ErrCartInvalid,
			wantStatus: http.StatusBadRequest,
			wantBody:   "cart not valid",
		},
		{
			name:       "payment declined",
			err:        &appPayment.UpstreamStatusError{Peer: "gateway", Reason: "payment error", StatusCode: http.StatusPaymentRequired},
			wantStatus: http.StatusPaymentRequired,
			wantBody:   "payment error",
		},
		{
			name:       "transport",
			err:        &appPayment.TransportError{Peer: "gateway", Err: errors.New("dial tcp: connection refused")},
			wantStatus: http.StatusInternalServerError,
			wantBody:   "gateway: dial tcp: connection refused",
		},
		{
			name:       "broker",
			err:        &appPayment.BrokerError{Err: errors.New("rabbitmq: dial: connection refused")},
			wantStatus: http.StatusInternalServerError,
			wantBody:   "broker: rabbitmq: dial: connection refused",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewHandler(&stubCheckout{err: tt.err}, nil, nil, nil).Router()

			rec := serve(t, h, http.MethodPost, "/pay/alice", `{"items":[{"sku":"SHIP","qty":1}],"total":100}`)

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, tt.wantBody, rec.Body.String())
		})
	}
}

func TestPay_MalformedBody(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "not json", body: "cart please"},
		{name: "items not a list", body: `{"items":"SHIP","total":1}`},
		{name: "qty not a number", body: `{"items":[{"sku":"SHIP","qty":"one"}],"total":1}`},
		{name: "empty", body: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stub := &stubCheckout{}
			h := NewHandler(stub, nil, nil, nil).Router()

			rec := serve(t, h, http.MethodPost, "/pay/alice", tt.body)

			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, "cart not valid", rec.Body.String())
			assert.Zero(t, stub.calls)
		})
	}
}

func TestPay_MethodNotAllowed(t *testing.T) {
	h := NewHandler(&stubCheckout{}, nil, nil, nil).Router()

	rec := serve(t, h, http.MethodGet, "/pay/alice", "")

	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	reg := prometheus.NewRegistry()
	counters, histograms := prometrics.Instruments(prometrics.New("", "", reg))
	tel := infraobs.New(nil, nil, counters, histograms)
	h := NewHandler(&stubCheckout{}, promhttp.HandlerFor(reg, promhttp.HandlerOpts{}), nil, tel).Router()

	require.Equal(t, http.StatusOK, serve(t, h, http.MethodGet, "/health", "").Code)
	rec := serve(t, h, http.MethodGet, "/metrics", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `http_requests_total{method="GET",route="GET /health",status="200"} 1`)
}

// recordingPublisher stands in for the broker.
type recordingPublisher struct {
	mu   sync.Mutex
	msgs []domainPayment.Order
}

func (p *recordingPublisher) Publish(_ context.Context, msg any, _ observability.TraceHeaders) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.msgs = append(p.msgs, msg.(domainPayment.Order))
	return nil
}

type upstream struct {
	mu           sync.Mutex
	checkStatus  int
	deleteStatus int
	historyCalls int
	deleteCalls  int
	gatewayCalls int
}

func (u *upstream) server() *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u.mu.Lock()
		defer u.mu.Unlock()
		switch {
		case strings.HasPrefix(r.URL.Path, "/check/"):
			w.WriteHeader(u.checkStatus)
		case strings.HasPrefix(r.URL.Path, "/order/"):
			u.historyCalls++
			w.WriteHeader(http.StatusOK)
		case strings.HasPrefix(r.URL.Path, "/cart/"):
			u.deleteCalls++
			w.WriteHeader(u.deleteStatus)
		case r.URL.Path == "/gateway":
			u.gatewayCalls++
			w.WriteHeader(http.StatusOK)
		default:
			w.WriteHeader(http.StatusTeapot)
		}
	}))
}

func newCheckoutRouter(srvURL string, pub *recordingPublisher) http.Handler {
	uc := appPayment.NewCheckoutUseCase(appPayment.Dependencies{
		Users:     collaborator.NewUserClient(srvURL, nil),
		Carts:     collaborator.NewCartClient(srvURL, nil),
		Gateway:   collaborator.NewGatewayClient(srvURL+"/gateway", nil),
		Publisher: pub,
		IDs:       id.NewUUIDGenerator(),
	}, nil)
	return NewHandler(uc, nil, nil, nil).Router()
}

func TestPay_AnonymousCheckoutEndToEnd(t *testing.T) {
	up := &upstream{checkStatus: http.StatusNotFound, deleteStatus: http.StatusOK}
	srv := up.server()
	defer srv.Close()
	pub := &recordingPublisher{}

	rec := serve(t, newCheckoutRouter(srv.URL, pub), http.MethodPost, "/pay/guest-1",
		`{"items":[{"sku":"SHIP","qty":1}],"total":100}`)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp payResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	_, err := uuid.Parse(resp.OrderID)
	assert.NoError(t, err)

	require.Len(t, pub.msgs, 1)
	assert.Equal(t, resp.OrderID, pub.msgs[0].OrderID)
	assert.Equal(t, "guest-1", pub.msgs[0].User)
	assert.Zero(t, up.historyCalls)
	assert.Equal(t, 1, up.deleteCalls)
}

func TestPay_CartDeleteRejectedEndToEnd(t *testing.T) {
	up := &upstream{checkStatus: http.StatusOK, deleteStatus: http.StatusNotFound}
	srv := up.server()
	defer srv.Close()
	pub := &recordingPublisher{}

	rec := serve(t, newCheckoutRouter(srv.URL, pub), http.MethodPost, "/pay/alice",
		`{"items":[{"sku":"SHIP","qty":1}],"total":100}`)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "order history update error", rec.Body.String())
	assert.Len(t, pub.msgs, 1)
	assert.Equal(t, 1, up.historyCalls)
}

func TestPay_InvalidCartEndToEnd(t *testing.T) {
	up := &upstream{checkStatus: http.StatusOK, deleteStatus: http.StatusOK}
	srv := up.server()
	defer srv.Close()
	pub := &recordingPublisher{}

	rec := serve(t, newCheckoutRouter(srv.URL, pub), http.MethodPost, "/pay/alice",
		`{"items":[{"sku":"ABC","qty":2}],"total":50}`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "cart not valid", rec.Body.String())
	assert.Empty(t, pub.msgs)
	assert.Zero(t, up.gatewayCalls)
}
