// Package checkout implements the preference orchestration flow: plan
// validation against the static catalog and checkout preference creation.
package checkout

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/Tuwebai/tuwebai-sub002/config"
	"github.com/Tuwebai/tuwebai-sub002/internal/domain"
)

// Service validates requested plans and creates checkout preferences.
type Service struct {
	gateway     domain.PaymentGateway
	catalog     map[string]domain.PlanSpec
	frontendURL string
	backendURL  string
	logger      logrus.FieldLogger
}

// NewService creates the checkout service from the configured plan catalog.
// gateway may be nil when no Mercado Pago credential is configured.
func NewService(gateway domain.PaymentGateway, plans map[string]config.PlanConfig, frontendURL, backendURL string) *Service {
	catalog := make(map[string]domain.PlanSpec, len(plans))
	for id, plan := range plans {
		catalog[id] = domain.PlanSpec{
			Title:     plan.Title,
			UnitPrice: plan.UnitPrice,
			Currency:  plan.Currency,
		}
	}
	return &Service{
		gateway:     gateway,
		catalog:     catalog,
		frontendURL: frontendURL,
		backendURL:  backendURL,
		logger:      logrus.StandardLogger().WithField("component", "checkout"),
	}
}

// CreatePreference validates the plan and creates a Mercado Pago preference,
// returning the init_point redirect URL. Unknown plans are a hard rejection.
func (s *Service) CreatePreference(ctx context.Context, planID string) (*domain.PreferenceResult, error) {
	plan, ok := s.catalog[planID]
	if !ok {
		return nil, domain.NewPaymentError(domain.ErrInvalidPlan,
			fmt.Sprintf("plan %q is not in the catalog", planID), "INVALID_PLAN")
	}

	if s.gateway == nil {
		return nil, domain.NewPaymentError(domain.ErrMissingCredential,
			"cannot create preferences without a Mercado Pago credential", "MISSING_CREDENTIAL")
	}

	order := domain.PreferenceOrder{
		Title:             plan.Title,
		UnitPrice:         plan.UnitPrice,
		Currency:          plan.Currency,
		ExternalReference: fmt.Sprintf("%s-%d", planID, time.Now().UnixMilli()),
		SuccessURL:        s.frontendURL + "/pago-exitoso",
		FailureURL:        s.frontendURL + "/pago-fallido",
		PendingURL:        s.frontendURL + "/pago-pendiente",
		NotificationURL:   s.backendURL + "/webhook/mercadopago",
	}

	result, err := s.gateway.CreatePreference(ctx, order)
	if err != nil {
		s.logger.WithError(err).WithField("plan", planID).Error("Failed to create preference")
		return nil, domain.NewPaymentError(domain.ErrGatewayRejected,
			"failed to create payment preference", "GATEWAY_ERROR")
	}

	s.logger.WithFields(logrus.Fields{
		"plan":               planID,
		"preference_id":      result.PreferenceID,
		"external_reference": result.ExternalReference,
	}).Info("Created payment preference")

	return result, nil
}
