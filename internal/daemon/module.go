package daemon

import (
	"context"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/momocall/shopchat/internal/autoresponder"
	"github.com/momocall/shopchat/internal/blobstore"
	"github.com/momocall/shopchat/internal/bus"
	"github.com/momocall/shopchat/internal/config"
	"github.com/momocall/shopchat/internal/docstore"
	"github.com/momocall/shopchat/internal/httpapi"
	"github.com/momocall/shopchat/internal/lock"
	"github.com/momocall/shopchat/internal/logging"
)

// Params holds the resolved startup options passed to the fx module.
type Params struct {
	ConfigPath string
}

// Module returns the fx module for the daemon, composing all providers and
// lifecycle hooks.
func Module(p Params) fx.Option {
	return fx.Module("daemon",
		fx.Supply(p),
		fx.Provide(
			provideConfig,
			provideLogger,
			provideBus,
			provideLock,
			provideDocStore,
			provideBlobStore,
			provideRules,
			provideHandler,
			provideServer,
		),
		fx.Invoke(registerLifecycle),
	)
}

func provideConfig(p Params) (*config.Config, error) {
	if p.ConfigPath == "" {
		return config.Default(), nil
	}
	return config.Load(p.ConfigPath)
}

func provideLogger(cfg *config.Config) (*zap.Logger, error) {
	if err := config.EnsureDirs(cfg.DataDir); err != nil {
		return nil, err
	}
	return logging.New(config.LogPath(cfg.DataDir), cfg.ShopName)
}

func provideBus() *bus.Bus {
	return bus.New()
}

func provideLock(cfg *config.Config, logger *zap.Logger) (*lock.Lock, error) {
	logger.Info("acquiring data dir lock", zap.String("data_dir", cfg.DataDir))
	l, err := lock.Acquire(cfg.DataDir)
	if err != nil {
		return nil, err
	}
	logger.Info("data dir lock acquired")
	return l, nil
}

func provideDocStore(cfg *config.Config, _ *lock.Lock, logger *zap.Logger) (*docstore.Store, error) {
	dbPath := config.DBPath(cfg.DataDir)
	docs, err := docstore.Open(dbPath, logger)
	if err != nil {
		return nil, err
	}
	result, err := docs.Migrate()
	if err != nil {
		_ = docs.Close()
		return nil, err
	}
	if result.Changed {
		logger.Info("migrations applied", zap.Uint("version", result.Version))
	} else {
		logger.Info("migrations up to date", zap.Uint("version", result.Version))
	}
	logger.Info("document store initialized", zap.String("path", dbPath))
	return docs, nil
}

func provideBlobStore(cfg *config.Config, logger *zap.Logger) (*blobstore.Store, error) {
	return blobstore.New(config.UploadsDir(cfg.DataDir), cfg.BlobBaseURL, logger)
}

func provideRules(cfg *config.Config, logger *zap.Logger) (*autoresponder.Rules, error) {
	if cfg.RulesPath == "" {
		logger.Info("using built-in rule tables")
		return autoresponder.Default(), nil
	}
	rules, err := autoresponder.Load(cfg.RulesPath)
	if err != nil {
		return nil, err
	}
	logger.Info("rule tables loaded",
		zap.String("path", cfg.RulesPath),
		zap.Int("text_rules", len(rules.Text)),
		zap.Int("quick_replies", len(rules.QuickReplies)),
	)
	return rules, nil
}

func provideHandler(cfg *config.Config, docs *docstore.Store, blobs *blobstore.Store, rules *autoresponder.Rules, b *bus.Bus, logger *zap.Logger) *httpapi.Handler {
	return httpapi.New(docs, blobs, rules, cfg.ShopName, b, logger)
}

func provideServer(cfg *config.Config, handler *httpapi.Handler, logger *zap.Logger) *Server {
	return NewServer(cfg.ListenAddr, handler, logger)
}

func registerLifecycle(lc fx.Lifecycle, srv *Server, handler *httpapi.Handler, docs *docstore.Store, lk *lock.Lock, logger *zap.Logger) {
	lc.Append(fx.Hook{
		OnStart: func(_ context.Context) error {
			go func() {
				if err := srv.Start(); err != nil {
					logger.Error("http server error", zap.Error(err))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			handler.CloseAll()
			srv.Stop(ctx)
			if err := docs.Close(); err != nil {
				logger.Warn("error closing document store", zap.Error(err))
			}
			if err := lk.Release(); err != nil {
				logger.Warn("error releasing lock", zap.Error(err))
			}
			logger.Info("daemon stopped")
			return nil
		},
	})
}
