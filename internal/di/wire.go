//go:build wireinject
// +build wireinject

package di

import (
	"AfriPulse/pkg/config"
	"AfriPulse/pkg/server"

	"github.com/google/wire"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	wire.Build(
		ProvideLogger,
		ProvideMetrics,

		// Infrastructure clients
		ProvideClickHouseClient,
		ProvideRedisCache,

		// Repositories
		ProvideObservationStore,
		ProvideSnapshotCache,

		// Use cases and transport
		ProvideHub,
		ProvideRefresher,
		ProvideKafkaConsumer,
		ProvideKafkaObservationsHandler,
		ProvideJobQueue,
		ProvideHTTPHandler,

		// Application server
		ProvideApp,
	)
	return &server.App{}, nil
}
