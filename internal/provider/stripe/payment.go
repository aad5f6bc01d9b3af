package stripe

import (
	"context"

	"github.com/shopspring/decimal"
	"github.com/stripe/stripe-go/v82"

	ierr "github.com/vidinfra/billsync/internal/errors"
	"github.com/vidinfra/billsync/internal/provider"
)

// ChargeInvoice attempts settlement of the invoice with the customer's
// default payment method
func (p *Provider) ChargeInvoice(ctx context.Context, inv *provider.Invoice) (*provider.ChargeResult, error) {
	if inv == nil || inv.ID == "" {
		return nil, ierr.NewError("invoice has no provider identity").
			Mark(ierr.ErrInvalidOperation)
	}

	paid, err := p.api.V1Invoices.Pay(ctx, inv.ID, &stripe.InvoicePayParams{})
	if err != nil {
		if stripeErr, ok := err.(*stripe.Error); ok && stripeErr.Code == stripe.ErrorCodeCardDeclined {
			return nil, ierr.NewError("payment method declined").
				WithHint("The customer's saved payment method was declined").
				WithReportableDetails(map[string]interface{}{
					"stripe_invoice_id": inv.ID,
					"stripe_error_code": stripeErr.Code,
				}).
				Mark(ierr.ErrInvalidOperation)
		}
		return nil, wrapStripeErr(err, "failed to pay stripe invoice")
	}

	p.logger.Infow("charged stripe invoice",
		"stripe_invoice_id", paid.ID,
		"status", paid.Status,
		"amount_paid", paid.AmountPaid)

	return &provider.ChargeResult{
		InvoiceID:     paid.ID,
		PaymentStatus: paymentStatusFromStripe(paid.Status),
		AmountPaid:    decimal.NewFromInt(paid.AmountPaid).Div(decimal.NewFromInt(100)),
	}, nil
}

// GetTaxRates lists the active Stripe tax rates
func (p *Provider) GetTaxRates(ctx context.Context) ([]*provider.TaxRate, error) {
	params := &stripe.TaxRateListParams{
		Active: stripe.Bool(true),
	}

	var rates []*provider.TaxRate
	for rate, err := range p.api.V1TaxRates.List(ctx, params) {
		if err != nil {
			return nil, wrapStripeErr(err, "failed to list stripe tax rates")
		}
		rates = append(rates, &provider.TaxRate{
			ID:         rate.ID,
			Name:       rate.DisplayName,
			Percentage: decimal.NewFromFloat(rate.Percentage),
			Inclusive:  rate.Inclusive,
		})
	}

	return rates, nil
}

// AttachPaymentMethod attaches a payment method to the Stripe customer and
// makes it the invoice default
func (p *Provider) AttachPaymentMethod(ctx context.Context, providerCustomerID string, methodRef string) error {
	if providerCustomerID == "" || methodRef == "" {
		return ierr.NewError("customer id and payment method are required").
			Mark(ierr.ErrValidation)
	}

	_, err := p.api.V1PaymentMethods.Attach(ctx, methodRef, &stripe.PaymentMethodAttachParams{
		Customer: stripe.String(providerCustomerID),
	})
	if err != nil {
		return wrapStripeErr(err, "failed to attach payment method")
	}

	_, err = p.api.V1Customers.Update(ctx, providerCustomerID, &stripe.CustomerUpdateParams{
		InvoiceSettings: &stripe.CustomerUpdateInvoiceSettingsParams{
			DefaultPaymentMethod: stripe.String(methodRef),
		},
	})
	if err != nil {
		return wrapStripeErr(err, "failed to set default payment method")
	}

	return nil
}
