package cmd

import (
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/dbrag/dbrag-server/internal/app"
	"github.com/dbrag/dbrag-server/internal/config"
	"github.com/dbrag/dbrag-server/internal/server"
	"github.com/dbrag/dbrag-server/internal/services/answer"
	"go.uber.org/zap"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start the dbrag server",
	RunE:  runApp,
}

func init() {
	flags := runCmd.Flags()

	flags.Int("port", config.DefaultPort, "Port to run the server on")
	flags.String("host", config.DefaultHost, "Host to run the server on")
	flags.String("environment", "dev", "Environment configuration")
	flags.Bool("enable-auth", false, "Require an API key on incoming requests")
	flags.String("public-dir", "", "Path where static files should be served from. Relative paths are relative to the current working directory.")
	flags.Int("workers", 1, "Number of concurrent answer workers. More than one shares the database handle across requests.")

	flags.String("db-driver", config.DriverPostgres, "Database driver: 'pg' or 'sqlite'")
	flags.String("db-dsn", "", "Database DSN override (connection URL or path)")
	flags.String("pulsar-url", "", "URL of the pulsar broker. Example: pulsar+ssl://my-cluster.streamnative.cloud:6651")

	viper.BindPFlags(flags)

	bindEnvs()
	rootCmd.AddCommand(runCmd)
}

func bindEnvs() {
	// Core settings (will use DBRAG_ prefix)
	// Example: DBRAG_PORT
	viper.BindEnv("port")
	viper.BindEnv("host")
	viper.BindEnv("environment")
	viper.BindEnv("enable_auth")
	viper.BindEnv("public_dir")
	viper.BindEnv("workers")

	// The database connection and model settings keep their original
	// unprefixed names (does NOT use DBRAG_ prefix)
	// Example: DB_HOST, TEXT_TO_SQL_MODEL
	viper.BindEnv("db.host", "DB_HOST")
	viper.BindEnv("db.port", "DB_PORT")
	viper.BindEnv("db.user", "DB_USER")
	viper.BindEnv("db.password", "DB_PASSWORD")
	viper.BindEnv("db.database", "DB_DATABASE")
	viper.BindEnv("db.table", "DB_TABLE")
	viper.BindEnv("ollama.host", "OLLAMA_HOST")
	viper.BindEnv("ollama.model", "TEXT_TO_SQL_MODEL")

	// Service settings (will use DBRAG_ prefix)
	// Example: DBRAG_DB_DRIVER
	viper.BindEnv("db.driver")
	viper.BindEnv("db.dsn")
	viper.BindEnv("db.allow_writes")
	viper.BindEnv("ollama.request_timeout")
	viper.BindEnv("ollama.context_window")
	viper.BindEnv("pulsar.url")
}

func runApp(_ *cobra.Command, _ []string) error {
	errc := make(chan error, 2)
	signalc := make(chan os.Signal, 1)

	app, err := createNewApp()
	if err != nil {
		return err
	}
	defer app.Close()

	ctx := app.Context()

	srv, err := runServer(app)
	if err != nil {
		return err
	}

	go func() {
		if err := answer.RunProcessor(app); err != nil {
			errc <- err
		}
	}()

	signal.Notify(signalc, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errc:
		srv.Stop(ctx)
		return err
	case <-signalc:
		app.Logger.Info("shutting down")
		srv.Stop(ctx)
		return nil
	}
}

func createNewApp() (*app.App, error) {
	app, err := app.NewApp(config.MustGetConfig())
	if err != nil {
		return nil, err
	}

	if err := app.InitializeMQ(); err != nil {
		return nil, err
	}

	if err := app.InitializeDB(); err != nil {
		return nil, err
	}

	if err := app.InitializePipeline(); err != nil {
		return nil, err
	}

	return app, nil
}

func runServer(app *app.App) (*server.Server, error) {
	srv, err := server.NewServer(app.Config())
	if err != nil {
		return nil, err
	}

	// Setup the server routes
	srv.SetupRoutes(app)

	errc := make(chan error, 1)
	go func() {
		app.Logger.Info("dbrag server started", zap.Int("port", app.Config().Port))
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
	}()

	select {
	case err := <-errc:
		return nil, err
	default:
		return srv, nil
	}
}
