package app

import (
	"context"
	"fmt"

	"github.com/dbrag/dbrag-server/internal/config"
	"github.com/dbrag/dbrag-server/internal/db"
	"github.com/dbrag/dbrag-server/internal/db/drivers"
	"github.com/dbrag/dbrag-server/internal/db/models"
	"github.com/dbrag/dbrag-server/internal/db/repository"
	"github.com/dbrag/dbrag-server/internal/mq"
	"github.com/dbrag/dbrag-server/internal/pipeline"
	"github.com/dbrag/dbrag-server/pkg/logger"

	"github.com/uptrace/bun"
	"go.uber.org/zap"
)

type App struct {
	mq         mq.MQ
	driver     drivers.Driver
	config     *config.Config
	ctx        context.Context
	cancelFunc context.CancelFunc
	pipeline   *pipeline.Pipeline

	Logger *zap.Logger

	APIKeyRepository      repository.IAPIKeyRepository
	QueryRecordRepository repository.IQueryRecordRepository
}

// Option funcs used to initialize the App struct
type OptionFunc func(app *App) error

func WithDriver(driver drivers.Driver) OptionFunc {
	return func(app *App) error {
		app.driver = driver
		return nil
	}
}

func WithLogger(logger *zap.Logger) OptionFunc {
	return func(app *App) error {
		app.Logger = logger
		return nil
	}
}

func WithMQ(queue mq.MQ) OptionFunc {
	return func(app *App) error {
		app.mq = queue
		return nil
	}
}

func WithPipeline(p *pipeline.Pipeline) OptionFunc {
	return func(app *App) error {
		app.pipeline = p
		return nil
	}
}

func NewApp(cfg *config.Config, options ...OptionFunc) (*App, error) {
	log, err := logger.InitLogger(cfg.Environment)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(context.Background())

	app := &App{
		ctx:        ctx,
		config:     cfg,
		Logger:     log,
		cancelFunc: cancel,
	}

	for _, opt := range options {
		if err := opt(app); err != nil {
			cancel()
			return nil, err
		}
	}

	return app, nil
}

func (app *App) InitializeMQ() error {
	if app.mq != nil {
		return nil
	}

	queue, err := mq.NewMQ(app.config)
	if err != nil {
		return err
	}

	app.mq = queue
	return nil
}

// InitializeDB opens the configured database, makes sure the operational
// tables exist, and wires the repositories. The tables the model queries
// are the user's own; only api_keys and query_log belong to us.
func (app *App) InitializeDB() error {
	if app.driver == nil {
		driver, err := db.NewConnection(app.ctx, app.config)
		if err != nil {
			return err
		}
		app.driver = driver
	}

	bunDB := app.driver.GetDB()

	err := bunDB.RunInTx(app.ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		tables := []interface{}{
			(*models.APIKey)(nil),
			(*models.QueryRecord)(nil),
		}

		for _, table := range tables {
			if _, err := tx.NewCreateTable().
				Model(table).
				IfNotExists().
				Exec(ctx); err != nil {
				return fmt.Errorf("failed to create table: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	app.APIKeyRepository = repository.NewAPIKeyRepository(bunDB)
	app.QueryRecordRepository = repository.NewQueryRecordRepository(bunDB)

	return nil
}

// InitializePipeline builds the query pipeline over the shared driver and
// runs its startup check. InitializeDB must have run first.
func (app *App) InitializePipeline(options ...pipeline.OptionFunc) error {
	if app.pipeline == nil {
		opts := append([]pipeline.OptionFunc{pipeline.WithDriver(app.driver)}, options...)

		p, err := pipeline.New(app.config, app.Logger, opts...)
		if err != nil {
			return err
		}
		app.pipeline = p
	}

	return app.pipeline.Startup(app.ctx)
}

func (app *App) Close() {
	app.cancelFunc()

	if app.mq != nil {
		app.mq.Close()
	}

	if app.driver != nil {
		app.driver.Close()
	}
}

func (app *App) Config() *config.Config {
	return app.config
}

func (app *App) Context() context.Context {
	return app.ctx
}

func (app *App) MQ() mq.MQ {
	return app.mq
}

func (app *App) Driver() drivers.Driver {
	return app.driver
}

func (app *App) DB() *bun.DB {
	return app.driver.GetDB()
}

func (app *App) Pipeline() *pipeline.Pipeline {
	return app.pipeline
}
