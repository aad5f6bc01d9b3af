package stripe

import (
	"context"

	"github.com/stripe/stripe-go/v82"

	"github.com/vidinfra/billsync/internal/config"
	ierr "github.com/vidinfra/billsync/internal/errors"
	"github.com/vidinfra/billsync/internal/httpclient"
	"github.com/vidinfra/billsync/internal/logger"
	"github.com/vidinfra/billsync/internal/provider"
)

// MetadataCustomerIDKey is the Stripe metadata key carrying our customer id.
// It is the correlation key used to match provider customers back to local
// records.
const MetadataCustomerIDKey = "billsync_customer_id"

// MetadataTenantIDKey is the Stripe metadata key carrying the tenant id
const MetadataTenantIDKey = "billsync_tenant_id"

// Provider implements provider.BillingProvider against the Stripe API
type Provider struct {
	api        *stripe.Client
	cfg        *config.StripeConfig
	httpClient httpclient.Client
	logger     *logger.Logger
}

// NewProvider creates a Stripe-backed billing provider
func NewProvider(
	cfg *config.Configuration,
	httpClient httpclient.Client,
	logger *logger.Logger,
) (*Provider, error) {
	if cfg.Stripe.SecretKey == "" {
		return nil, ierr.NewError("stripe secret key is not configured").
			WithHint("Set BILLSYNC_STRIPE_SECRET_KEY or stripe.secret_key").
			Mark(ierr.ErrValidation)
	}

	return &Provider{
		api:        stripe.NewClient(cfg.Stripe.SecretKey, nil),
		cfg:        &cfg.Stripe,
		httpClient: httpClient,
		logger:     logger,
	}, nil
}

var _ provider.BillingProvider = (*Provider)(nil)

// CheckConnection verifies the configured credentials against the Stripe API
func (p *Provider) CheckConnection(ctx context.Context) error {
	params := &stripe.CustomerListParams{}
	params.Limit = stripe.Int64(1)

	for _, err := range p.api.V1Customers.List(ctx, params) {
		if err != nil {
			return ierr.WithError(err).
				WithHint("Stripe is not reachable with the configured credentials").
				Mark(ierr.ErrIntegration)
		}
		break
	}

	return nil
}

// isNotFound reports whether a Stripe error means the resource does not exist
func isNotFound(err error) bool {
	if stripeErr, ok := err.(*stripe.Error); ok {
		return stripeErr.HTTPStatusCode == 404 || stripeErr.Code == stripe.ErrorCodeResourceMissing
	}
	return false
}

// wrapStripeErr translates a Stripe API error into the engine taxonomy
func wrapStripeErr(err error, msg string) error {
	if isNotFound(err) {
		return ierr.WithError(err).
			WithMessage(msg).
			Mark(ierr.ErrNotFound)
	}
	return ierr.WithError(err).
		WithMessage(msg).
		Mark(ierr.ErrIntegration)
}
