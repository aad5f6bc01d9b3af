package service

import (
	"github.com/vidinfra/billsync/internal/cache"
	"github.com/vidinfra/billsync/internal/config"
	"github.com/vidinfra/billsync/internal/domain/customer"
	"github.com/vidinfra/billsync/internal/domain/document"
	"github.com/vidinfra/billsync/internal/domain/invoice"
	"github.com/vidinfra/billsync/internal/domain/settings"
	"github.com/vidinfra/billsync/internal/logger"
	"github.com/vidinfra/billsync/internal/notification"
	"github.com/vidinfra/billsync/internal/provider"
)

// ServiceParams holds common dependencies for services
type ServiceParams struct {
	Logger   *logger.Logger
	Config   *config.Configuration
	Cache    cache.Cache
	Provider provider.BillingProvider
	Notifier notification.Notifier

	// Repositories
	CustomerRepo customer.Repository
	InvoiceRepo  invoice.Repository
	DocumentRepo document.Repository
	SettingsRepo settings.Repository
}
