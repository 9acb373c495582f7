package app

import (
	"stockservice/internal/inventory"
)

// ServiceFactory creates business logic services with their dependencies
type ServiceFactory struct {
	container *Container
}

// NewServiceFactory creates a new service factory
func NewServiceFactory(container *Container) *ServiceFactory {
	return &ServiceFactory{
		container: container,
	}
}

// CreateSettlementService creates a request-scoped settlement service
func (f *ServiceFactory) CreateSettlementService() inventory.Service {
	cfg := f.container.Config()
	return inventory.NewService(inventory.ServiceDeps{
		Store:             f.container.Store(),
		Publisher:         f.container.Publisher(),
		Logger:            f.container.Logger(),
		Tracer:            f.container.Tracer(),
		Metrics:           f.container.Metrics(),
		LowStockThreshold: cfg.LowStockThreshold,
		Compensate:        cfg.CompensatePartialFailures,
	})
}

// CreateHTTPHandler creates the HTTP handler for the settlement routes
func (f *ServiceFactory) CreateHTTPHandler() *inventory.HTTPHandler {
	return inventory.NewHTTPHandler(f.CreateSettlementService, f.container.Logger())
}

// CreateMessageHandler creates a new message handler instance
func (f *ServiceFactory) CreateMessageHandler() inventory.MessageHandler {
	return inventory.NewMessageHandler(f.CreateSettlementService(), f.container.Publisher(), f.container.Logger())
}

// CreateConsumerService returns nil unless Kafka is the event backend
func (f *ServiceFactory) CreateConsumerService() inventory.ConsumerService {
	consumer := f.container.MessageConsumer()
	if consumer == nil {
		return nil
	}
	return inventory.NewConsumerService(consumer, f.CreateMessageHandler(), f.container.Logger())
}
