package service

import (
	"github.com/vidinfra/billsync/internal/domain/session"
	ierr "github.com/vidinfra/billsync/internal/errors"
)

// SessionGuard runs the billing precondition checks that gate a metered-usage
// session's lifecycle. The checks are pure validations: no I/O, no retries,
// deterministic given their inputs. They are invoked by the external
// transaction lifecycle, never by the sync sweeps.
type SessionGuard struct{}

// NewSessionGuard creates a session guard
func NewSessionGuard() SessionGuard {
	return SessionGuard{}
}

// GuardStart fails when the session's owner cannot be charged by the billing
// provider. A billable session must never begin for an identity the provider
// does not know.
func (SessionGuard) GuardStart(sess *session.Session) error {
	if sess == nil || sess.Customer == nil {
		return ierr.NewError("session has no customer").
			WithHint("A billable session requires an owning customer").
			Mark(ierr.ErrValidation)
	}

	if sess.Customer.BillingData == nil || sess.Customer.BillingData.ProviderCustomerID == "" {
		return ierr.NewError("customer has no billing identity").
			WithHint("Customer must be synchronized with the billing provider before starting a session").
			WithReportableDetails(map[string]any{
				"session_id":  sess.ID,
				"customer_id": sess.Customer.ID,
			}).
			Mark(ierr.ErrValidation)
	}

	return nil
}

// GuardStop fails when the finished session cannot be invoiced: missing
// customer or charging resource, missing customer billing data, or a session
// that already carries an invoice reference and must not be invoiced twice.
func (SessionGuard) GuardStop(sess *session.Session) error {
	if sess == nil || sess.Customer == nil {
		return ierr.NewError("session has no customer").
			WithHint("A billable session requires an owning customer").
			Mark(ierr.ErrValidation)
	}

	if sess.ResourceID == "" {
		return ierr.NewError("session has no charging resource").
			WithReportableDetails(map[string]any{
				"session_id": sess.ID,
			}).
			Mark(ierr.ErrValidation)
	}

	if sess.Invoiced() {
		return ierr.NewError("session is already invoiced").
			WithHint("A session must not be invoiced twice").
			WithReportableDetails(map[string]any{
				"session_id":          sess.ID,
				"provider_invoice_id": sess.BillingData.ProviderInvoiceID,
			}).
			Mark(ierr.ErrValidation)
	}

	if sess.Customer.BillingData == nil {
		return ierr.NewError("customer has no billing data").
			WithReportableDetails(map[string]any{
				"session_id":  sess.ID,
				"customer_id": sess.Customer.ID,
			}).
			Mark(ierr.ErrValidation)
	}

	return nil
}
