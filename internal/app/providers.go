package app

import (
	"context"
	"fmt"
	"net/http"

	"github.com/sirupsen/logrus"

	"github.com/eslsoft/jamdict/internal/adapter/httpapi"
	"github.com/eslsoft/jamdict/internal/adapter/krad"
	"github.com/eslsoft/jamdict/internal/adapter/memory"
	adapterrepo "github.com/eslsoft/jamdict/internal/adapter/repository"
	"github.com/eslsoft/jamdict/internal/infrastructure/config"
	"github.com/eslsoft/jamdict/internal/infrastructure/database"
	"github.com/eslsoft/jamdict/internal/usecase"
)

// ProvideDictionary opens the configured backend: the parsed XML documents when data.use_xml
// is set, the database otherwise.
func ProvideDictionary(ctx context.Context, cfg *config.Config, logger *logrus.Logger) (usecase.Dictionary, func(), error) {
	components := ProvideComponents(cfg, logger)
	if cfg.Data.UseXML {
		mem, err := memory.Load(ctx, memory.Files{
			JMdict:    cfg.Data.JMdictXML,
			Kanjidic2: cfg.Data.Kanjidic2XML,
			JMnedict:  cfg.Data.JMnedictXML,
		}, logger)
		if err != nil {
			return usecase.Dictionary{}, nil, fmt.Errorf("load xml dictionary: %w", err)
		}
		return usecase.Dictionary{
			Words:      mem.Words,
			Chars:      mem.Chars,
			Names:      mem.Names,
			Meta:       mem.Meta,
			Components: components,
		}, func() {}, nil
	}

	db, cleanup, err := database.NewConnection(ctx, cfg)
	if err != nil {
		return usecase.Dictionary{}, nil, err
	}
	store := newStore(db, cfg, logger)
	return usecase.Dictionary{
		Words:      adapterrepo.NewJMdictStore(store),
		Chars:      adapterrepo.NewCharacterStore(store),
		Names:      adapterrepo.NewJMnedictStore(store),
		Meta:       adapterrepo.NewMetaStore(store),
		Components: components,
	}, cleanup, nil
}

// ProvideComponents returns the kanji component index, reading data.kradfile when set.
func ProvideComponents(cfg *config.Config, logger *logrus.Logger) *krad.Index {
	opts := []krad.Option{krad.WithLogger(logger)}
	if cfg.Data.Kradfile != "" {
		opts = append(opts, krad.WithFile(cfg.Data.Kradfile))
	}
	return krad.New(opts...)
}

// ProvideWritableStore opens or creates the database and brings its schema up to date.
func ProvideWritableStore(ctx context.Context, cfg *config.Config, logger *logrus.Logger) (*adapterrepo.Store, func(), error) {
	if cfg.Database.Memory {
		return nil, nil, fmt.Errorf("database.memory is read-only; unset it to import")
	}
	db, cleanup, err := database.NewConnection(ctx, cfg, database.WithCreate())
	if err != nil {
		return nil, nil, err
	}
	if err := database.Migrate(ctx, db); err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("migrate: %w", err)
	}
	return newStore(db, cfg, logger), cleanup, nil
}

func newStore(db *database.DB, cfg *config.Config, logger *logrus.Logger) *adapterrepo.Store {
	return adapterrepo.NewStore(db,
		adapterrepo.WithLogger(logger),
		adapterrepo.WithSQLLogging(cfg.Database.LogSQL),
	)
}

func ProvideLookup(dict usecase.Dictionary, logger *logrus.Logger) usecase.LookupUsecase {
	return usecase.NewLookupUsecase(dict, usecase.WithLogger(logger))
}

// ProvideAPI mounts the JSON routes.
func ProvideAPI(uc usecase.LookupUsecase, logger *logrus.Logger) http.Handler {
	return httpapi.NewHandler(uc, logger).Routes()
}
