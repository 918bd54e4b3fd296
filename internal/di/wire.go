//go:build wireinject
// +build wireinject

package di

import (
	"StructBreak/pkg/config"
	"StructBreak/pkg/server"

	"github.com/google/wire"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	wire.Build(
		ProvideLogger,
		ProvideMetrics,
		ProvideDetector,

		// Infrastructure clients
		ProvideRedisClient,
		ProvideCache,
		ProvideClickHouseClient,
		ProvideKafkaProducer,
		ProvideKafkaConsumer,

		// Repositories
		ProvideBarSource,
		ProvideBarStore,
		ProvideSignalArchive,
		ProvideAlertHub,
		ProvideSignalPublisher,
		ProvideAlertLog,

		// Services
		ProvideNarrator,
		ProvideNotifier,

		// Use cases
		ProvideAlertDispatchJob,
		ProvideAlertQueue,
		ProvideScanner,
		ProvideBacktester,
		ProvideKafkaSignalsHandler,

		// Transport
		ProvideResponseCache,
		ProvideScanHandler,

		// Application server
		ProvideApp,
	)
	return &server.App{}, nil
}
