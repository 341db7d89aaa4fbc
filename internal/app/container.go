package app

import (
	"github.com/sirupsen/logrus"

	adapterrepo "github.com/eslsoft/jamdict/internal/adapter/repository"
	"github.com/eslsoft/jamdict/internal/infrastructure/config"
	"github.com/eslsoft/jamdict/internal/infrastructure/server"
	"github.com/eslsoft/jamdict/internal/usecase"
)

// Container aggregates the application dependencies produced by Wire.
type Container struct {
	Config *config.Config
	Logger *logrus.Logger
	Lookup usecase.LookupUsecase
	Server *server.Server
}

// ImportContainer holds what the import command writes through.
type ImportContainer struct {
	Config *config.Config
	Logger *logrus.Logger
	Store  *adapterrepo.Store
}
