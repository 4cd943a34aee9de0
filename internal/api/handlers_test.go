package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Tuwebai/tuwebai-sub002/config"
	"github.com/Tuwebai/tuwebai-sub002/internal/audit"
	"github.com/Tuwebai/tuwebai-sub002/internal/checkout"
	"github.com/Tuwebai/tuwebai-sub002/internal/domain"
	"github.com/Tuwebai/tuwebai-sub002/internal/webhook"
)

type fakeGateway struct {
	mu          sync.Mutex
	prefCalls   int
	prefResult  *domain.PreferenceResult
	detailsErr  error
	details     *domain.PaymentDetails
	detailCalls int
}

func (g *fakeGateway) CreatePreference(context.Context, domain.PreferenceOrder) (*domain.PreferenceResult, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.prefCalls++
	if g.prefResult == nil {
		return nil, errors.New("gateway down")
	}
	return g.prefResult, nil
}

func (g *fakeGateway) GetPaymentDetails(context.Context, string) (*domain.PaymentDetails, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.detailCalls++
	if g.detailsErr != nil {
		return nil, g.detailsErr
	}
	return g.details, nil
}

type stubLedger struct{}

func (stubLedger) Claim(context.Context, string, map[string]any) (bool, error) { return true, nil }
func (stubLedger) Name() string                                               { return "stub" }

func testPlans() map[string]config.PlanConfig {
	return map[string]config.PlanConfig{
		"esencial": {Title: "Plan Esencial", UnitPrice: 299000, Currency: "ARS"},
		"avanzado": {Title: "Plan Avanzado", UnitPrice: 499000, Currency: "ARS"},
		"premium":  {Title: "Plan Premium", UnitPrice: 799000, Currency: "ARS"},
	}
}

func newTestRouter(gateway *fakeGateway) *gin.Engine {
	checkoutSvc := checkout.NewService(gateway, testPlans(), "https://tuweb-ai.com", "https://api.tuweb-ai.com")
	coordinator := webhook.NewCoordinator(gateway, stubLedger{}, audit.NopSink{}, "", true)
	handler := NewHandler(checkoutSvc, coordinator, gateway, stubLedger{})
	return SetupRouter(handler, gin.TestMode, "https://tuweb-ai.com")
}

func TestCreatePreferenceEndpoint(t *testing.T) {
	gateway := &fakeGateway{prefResult: &domain.PreferenceResult{InitPoint: "https://pay/x"}}
	router := newTestRouter(gateway)

	req := httptest.NewRequest(http.MethodPost, "/crear-preferencia", strings.NewReader(`{"plan":"esencial"}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if body["init_point"] != "https://pay/x" {
		t.Errorf("init_point = %q, want https://pay/x", body["init_point"])
	}
}

func TestCreatePreferenceUnknownPlan(t *testing.T) {
	gateway := &fakeGateway{prefResult: &domain.PreferenceResult{InitPoint: "https://pay/x"}}
	router := newTestRouter(gateway)

	req := httptest.NewRequest(http.MethodPost, "/crear-preferencia", strings.NewReader(`{"plan":"gold"}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "Plan invalido") {
		t.Errorf("body = %s, want Plan invalido", rec.Body.String())
	}
	if gateway.prefCalls != 0 {
		t.Error("gateway must not be called for an unknown plan")
	}
}

func TestCreatePreferenceMalformedBody(t *testing.T) {
	router := newTestRouter(&fakeGateway{})

	req := httptest.NewRequest(http.MethodPost, "/crear-preferencia", strings.NewReader(`not json`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestCreatePreferenceGatewayError(t *testing.T) {
	router := newTestRouter(&fakeGateway{}) // no prefResult -> gateway fails

	req := httptest.NewRequest(http.MethodPost, "/crear-preferencia", strings.NewReader(`{"plan":"esencial"}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rec.Code)
	}
}

func TestPaymentStatusEndpoint(t *testing.T) {
	gateway := &fakeGateway{details: &domain.PaymentDetails{
		PaymentID:         "123",
		Status:            "approved",
		StatusDetail:      "accredited",
		TransactionAmount: 299000,
		Currency:          "ARS",
		DateApproved:      time.Now(),
		PaymentMethodID:   "visa",
	}}
	router := newTestRouter(gateway)

	req := httptest.NewRequest(http.MethodGet, "/api/payments/status/123", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var body struct {
		Success bool `json:"success"`
		Data    struct {
			ID     string `json:"id"`
			Status string `json:"status"`
		} `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if !body.Success || body.Data.ID != "123" || body.Data.Status != "approved" {
		t.Errorf("unexpected body: %s", rec.Body.String())
	}
}

func TestPaymentStatusTimeout(t *testing.T) {
	gateway := &fakeGateway{detailsErr: fmt.Errorf("%w: deadline exceeded", domain.ErrGatewayTimeout)}
	router := newTestRouter(gateway)

	req := httptest.NewRequest(http.MethodGet, "/api/payments/status/123", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", rec.Code)
	}
}

func TestPaymentStatusNotFound(t *testing.T) {
	gateway := &fakeGateway{detailsErr: errors.New("payment not found")}
	router := newTestRouter(gateway)

	req := httptest.NewRequest(http.MethodGet, "/api/payments/status/999", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}

func TestWebhookAlwaysAcknowledges(t *testing.T) {
	router := newTestRouter(&fakeGateway{details: &domain.PaymentDetails{PaymentID: "123"}})

	bodies := []string{
		`{"type":"payment","data":{"id":"123"}}`,
		`garbage`,
		``,
	}
	for _, body := range bodies {
		req := httptest.NewRequest(http.MethodPost, "/webhook/mercadopago", strings.NewReader(body))
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Errorf("body %q: status = %d, want 200", body, rec.Code)
		}
		if !strings.Contains(rec.Body.String(), `"received":true`) {
			t.Errorf("body %q: response = %s, want received:true", body, rec.Body.String())
		}
	}
}

func TestWebhookHealthEndpoint(t *testing.T) {
	router := newTestRouter(&fakeGateway{})

	req := httptest.NewRequest(http.MethodGet, "/webhook/mercadopago/health", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"ok":true`) {
		t.Errorf("body = %s, want ok:true", rec.Body.String())
	}
}

func TestHealthEndpoint(t *testing.T) {
	router := newTestRouter(&fakeGateway{})

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
}
