package stripe

import (
	"context"
	"time"

	"github.com/samber/lo"
	"github.com/stripe/stripe-go/v82"

	"github.com/vidinfra/billsync/internal/domain/customer"
	ierr "github.com/vidinfra/billsync/internal/errors"
	"github.com/vidinfra/billsync/internal/provider"
)

// customerChangeEvents are the Stripe event types that mean a customer needs
// to be reconciled
var customerChangeEvents = []string{
	"customer.created",
	"customer.updated",
	"customer.deleted",
}

// ListChangedCustomerIDs returns the Stripe customer ids touched since the
// watermark, derived from the Stripe event feed
func (p *Provider) ListChangedCustomerIDs(ctx context.Context, since *time.Time) ([]string, error) {
	return p.listChangedObjectIDs(ctx, since, customerChangeEvents)
}

// listChangedObjectIDs collects the distinct object ids of the given event
// types since the watermark, oldest first
func (p *Provider) listChangedObjectIDs(ctx context.Context, since *time.Time, eventTypes []string) ([]string, error) {
	params := &stripe.EventListParams{
		Types: lo.Map(eventTypes, func(t string, _ int) *string {
			return stripe.String(t)
		}),
	}
	if since != nil {
		params.CreatedRange = &stripe.RangeQueryParams{
			GreaterThanOrEqual: since.Unix(),
		}
	}

	seen := make(map[string]struct{})
	var ids []string

	for event, err := range p.api.V1Events.List(ctx, params) {
		if err != nil {
			return nil, wrapStripeErr(err, "failed to list stripe events")
		}

		objectID, ok := event.Data.Object["id"].(string)
		if !ok || objectID == "" {
			continue
		}
		if _, dup := seen[objectID]; dup {
			continue
		}
		seen[objectID] = struct{}{}
		ids = append(ids, objectID)
	}

	// The event feed is newest first; sweeps process oldest first
	lo.Reverse(ids)

	return ids, nil
}

// GetCustomer fetches a Stripe customer by id. Returns nil when the customer
// does not exist; a soft-deleted customer is returned with Deleted set.
func (p *Provider) GetCustomer(ctx context.Context, providerCustomerID string) (*provider.Customer, error) {
	cust, err := p.api.V1Customers.Retrieve(ctx, providerCustomerID, nil)
	if err != nil {
		if isNotFound(err) {
			return nil, nil
		}
		return nil, wrapStripeErr(err, "failed to retrieve stripe customer")
	}

	return fromStripeCustomer(cust), nil
}

// GetCustomerByEmail looks a Stripe customer up by email, nil when absent
func (p *Provider) GetCustomerByEmail(ctx context.Context, email string) (*provider.Customer, error) {
	params := &stripe.CustomerSearchParams{}
	params.Query = "email:'" + email + "'"
	params.Limit = stripe.Int64(1)

	for cust, err := range p.api.V1Customers.Search(ctx, params) {
		if err != nil {
			return nil, wrapStripeErr(err, "failed to search stripe customers")
		}
		return fromStripeCustomer(cust), nil
	}

	return nil, nil
}

// CreateCustomer creates the Stripe record for a local customer, stamping the
// correlation metadata
func (p *Provider) CreateCustomer(ctx context.Context, local *customer.Customer) (*provider.Customer, error) {
	params := &stripe.CustomerCreateParams{
		Name:  stripe.String(local.Name),
		Email: stripe.String(local.Email),
		Metadata: map[string]string{
			MetadataCustomerIDKey: local.ID,
			MetadataTenantIDKey:   local.TenantID,
			"external_id":         local.ExternalID,
		},
	}

	cust, err := p.api.V1Customers.Create(ctx, params)
	if err != nil {
		return nil, wrapStripeErr(err, "failed to create stripe customer")
	}

	p.logger.Infow("created stripe customer",
		"customer_id", local.ID,
		"stripe_customer_id", cust.ID)

	return fromStripeCustomer(cust), nil
}

// UpdateCustomer pushes the local customer's fields to Stripe
func (p *Provider) UpdateCustomer(ctx context.Context, local *customer.Customer) (*provider.Customer, error) {
	providerID := local.ProviderCustomerID()
	if providerID == "" {
		return nil, ierr.NewError("customer has no provider identity").
			WithHint("Customer must be created at the provider before it can be updated").
			Mark(ierr.ErrInvalidOperation)
	}

	params := &stripe.CustomerUpdateParams{
		Name:  stripe.String(local.Name),
		Email: stripe.String(local.Email),
		Metadata: map[string]string{
			MetadataCustomerIDKey: local.ID,
			MetadataTenantIDKey:   local.TenantID,
			"external_id":         local.ExternalID,
		},
	}

	cust, err := p.api.V1Customers.Update(ctx, providerID, params)
	if err != nil {
		return nil, wrapStripeErr(err, "failed to update stripe customer")
	}

	return fromStripeCustomer(cust), nil
}

// CustomerExists reports whether the local customer already has a Stripe
// record, by provider id when known and by correlation metadata otherwise
func (p *Provider) CustomerExists(ctx context.Context, local *customer.Customer) (bool, error) {
	if providerID := local.ProviderCustomerID(); providerID != "" {
		cust, err := p.GetCustomer(ctx, providerID)
		if err != nil {
			return false, err
		}
		return cust != nil && !cust.Deleted, nil
	}

	params := &stripe.CustomerSearchParams{}
	params.Query = "metadata['" + MetadataCustomerIDKey + "']:'" + local.ID + "'"
	params.Limit = stripe.Int64(1)

	for _, err := range p.api.V1Customers.Search(ctx, params) {
		if err != nil {
			return false, wrapStripeErr(err, "failed to search stripe customers")
		}
		return true, nil
	}

	return false, nil
}

func fromStripeCustomer(c *stripe.Customer) *provider.Customer {
	if c == nil {
		return nil
	}
	return &provider.Customer{
		ID:      c.ID,
		Email:   c.Email,
		Name:    c.Name,
		Deleted: c.Deleted,
	}
}

// LocalCustomerID extracts our customer id from the Stripe correlation
// metadata, empty when the customer was not created by this engine
func LocalCustomerID(c *stripe.Customer) string {
	if c == nil || c.Metadata == nil {
		return ""
	}
	return c.Metadata[MetadataCustomerIDKey]
}
