//go:build wireinject
// +build wireinject

package di

import (
	"Horacle/internal/usecase"
	"Horacle/pkg/config"
	"Horacle/pkg/server"

	"github.com/google/wire"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, func(), error) {
	wire.Build(
		// Ambient
		ProvideLogger,
		ProvideMetrics,

		// Infrastructure clients
		ProvideRedisClient,
		ProvideResultCache,
		ProvideKafkaProducer,
		ProvideKafkaConsumer,
		ProvideRedisQueue,

		// Collaborators and repositories
		ProvideEphemeris,
		ProvideEventStore,
		ProvideEventPublisher,

		// Use cases
		ProvidePredictor,
		ProvidePredictionService,
		ProvideRequestHandler,

		// Transport
		ProvideRateLimiter,
		ProvidePredictionsHandler,
		ProvideHTTPServer,

		// Application server
		ProvideApp,
	)
	return nil, nil, nil
}

// InitializePredictionService wires only what a one-shot prediction needs:
// no transports, no HTTP server.
func InitializePredictionService(cfg *config.Config) (*usecase.PredictionService, func(), error) {
	wire.Build(
		ProvideLogger,
		ProvideMetrics,
		ProvideRedisClient,
		ProvideResultCache,
		ProvideKafkaProducer,
		ProvideEphemeris,
		ProvideEventStore,
		ProvideEventPublisher,
		ProvidePredictor,
		ProvidePredictionService,
	)
	return nil, nil, nil
}
