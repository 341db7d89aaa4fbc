//go:build wireinject
// +build wireinject

package app

import (
	"context"

	"github.com/google/wire"

	"github.com/eslsoft/jamdict/internal/infrastructure/config"
	"github.com/eslsoft/jamdict/internal/infrastructure/server"
)

var configSet = wire.NewSet(
	config.Load,
	server.NewLogger,
)

var dictionarySet = wire.NewSet(
	ProvideDictionary,
	ProvideLookup,
)

var serverSet = wire.NewSet(
	ProvideAPI,
	server.NewServer,
)

// Initialize builds the application container using Wire.
func Initialize(ctx context.Context) (*Container, func(), error) {
	wire.Build(
		configSet,
		dictionarySet,
		serverSet,
		wire.Struct(new(Container), "Config", "Logger", "Lookup", "Server"),
	)
	return nil, nil, nil
}

// InitializeImport builds the container for bulk imports.
func InitializeImport(ctx context.Context) (*ImportContainer, func(), error) {
	wire.Build(
		configSet,
		ProvideWritableStore,
		wire.Struct(new(ImportContainer), "Config", "Logger", "Store"),
	)
	return nil, nil, nil
}
