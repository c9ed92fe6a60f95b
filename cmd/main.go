package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	migrate "github.com/rubenv/sql-migrate"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"storefront/internal/config"
	"storefront/internal/events"
	httpapi "storefront/internal/http"
	"storefront/internal/observability"
	"storefront/internal/repository"
	"storefront/internal/repository/sqlstore"
	"storefront/internal/service"

	_ "storefront/docs"
)

const shutdownTimeout = 5 * time.Second

func main() {
	app := &cli.App{
		Name:  config.ServiceName,
		Usage: "catalog, orders and order fulfillment",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config", Aliases: []string{"c"}, Usage: "YAML config file", EnvVars: []string{"STOREFRONT_CONFIG"}},
		},
		Commands: []*cli.Command{
			{
				Name:  "serve",
				Usage: "run the HTTP API and the fulfillment consumer",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "migrate", Usage: "apply pending migrations before serving"},
				},
				Action: serve,
			},
			{
				Name:  "migrate",
				Usage: "apply or roll back schema migrations",
				Subcommands: []*cli.Command{
					{Name: "up", Flags: []cli.Flag{limitFlag()}, Action: migrateAction(migrate.Up)},
					{Name: "down", Flags: []cli.Flag{limitFlag()}, Action: migrateAction(migrate.Down)},
				},
			},
		},
	}
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func limitFlag() cli.Flag {
	return &cli.IntFlag{Name: "limit", Usage: "maximum number of migrations, 0 for all"}
}

func loadConfig(c *cli.Context) (*config.Config, error) {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}

func migrateAction(dir migrate.MigrationDirection) cli.ActionFunc {
	return func(c *cli.Context) error {
		cfg, err := loadConfig(c)
		if err != nil {
			return err
		}
		if cfg.Storage.Driver == config.DriverMemory {
			return errors.New("migrations need a SQL storage driver")
		}
		db, err := sqlstore.Open(c.Context, cfg.Storage.Driver, cfg.Storage.DSN)
		if err != nil {
			return err
		}
		defer db.Close()
		n, err := sqlstore.Migrate(db, dir, c.Int("limit"))
		if err != nil {
			return err
		}
		fmt.Printf("applied %d migrations\n", n)
		return nil
	}
}

// backend is one storage implementation behind the repository interfaces.
type backend struct {
	products  repository.ProductRepository
	stock     repository.StockStore
	customers repository.CustomerRepository
	employees repository.EmployeeRepository
	orders    repository.OrderRepository
	tx        repository.TxManager
	health    repository.Pinger
	close     func() error
}

func openBackend(ctx context.Context, cfg config.StorageConfig, runMigrations bool, logger *zap.Logger) (*backend, error) {
	if cfg.Driver == config.DriverMemory {
		store := repository.NewMemoryStore()
		return &backend{
			products:  store,
			stock:     store,
			customers: repository.NewMemoryCustomers(store),
			employees: repository.NewMemoryEmployees(store),
			orders:    repository.NewMemoryOrders(store),
			tx:        repository.NewMemoryTx(store),
			health:    store,
			close:     func() error { return nil },
		}, nil
	}

	db, err := sqlstore.Open(ctx, cfg.Driver, cfg.DSN)
	if err != nil {
		return nil, err
	}
	if runMigrations {
		n, err := sqlstore.Migrate(db, migrate.Up, 0)
		if err != nil {
			return nil, errors.Join(err, db.Close())
		}
		logger.Info("migrations applied", zap.Int("count", n))
	}
	products := sqlstore.NewProducts(db)
	return &backend{
		products:  products,
		stock:     products,
		customers: sqlstore.NewCustomers(db),
		employees: sqlstore.NewEmployees(db),
		orders:    sqlstore.NewOrders(db),
		tx:        db,
		health:    db,
		close:     db.Close,
	}, nil
}

func openBroker(cfg config.KafkaConfig, logger *zap.Logger) (*events.Broker, error) {
	adapter := events.NewZapLoggerAdapter(logger.Named("watermill"))
	if len(cfg.Brokers) == 0 {
		return events.NewInMemoryBroker(adapter), nil
	}
	return events.NewKafkaBroker(cfg.Brokers, cfg.ConsumerGroup, adapter)
}

func serve(c *cli.Context) (rerr error) {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(c.Context, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	otelShutdown, err := observability.Setup(ctx, cfg.Otel)
	if err != nil {
		return fmt.Errorf("setup telemetry: %w", err)
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		rerr = errors.Join(rerr, otelShutdown(sctx))
	}()

	logger := observability.NewLogger(cfg.Level(), cfg.Otel.Endpoint != "")
	defer func() { _ = logger.Sync() }()

	be, err := openBackend(ctx, cfg.Storage, c.Bool("migrate"), logger)
	if err != nil {
		logger.Error("failed to open storage", zap.String("driver", cfg.Storage.Driver), zap.Error(err))
		return err
	}
	defer func() { rerr = errors.Join(rerr, be.close()) }()

	broker, err := openBroker(cfg.Kafka, logger)
	if err != nil {
		logger.Error("failed to connect broker", zap.Strings("brokers", cfg.Kafka.Brokers), zap.Error(err))
		return err
	}
	defer func() { rerr = errors.Join(rerr, broker.Close()) }()

	ledger := service.NewInventoryLedger(be.stock)
	publisher := events.NewPublisher(broker.Publisher)
	fulfiller := service.NewFulfillmentCoordinator(be.orders, ledger, be.tx, publisher, logger.Named("fulfillment"))

	router, err := events.NewRouter(
		broker.Subscriber,
		events.NewFulfillHandler(fulfiller, cfg.HTTP.FulfillTimeout, logger.Named("consumer")),
		events.NewZapLoggerAdapter(logger.Named("router")),
	)
	if err != nil {
		return err
	}

	srv := httpapi.NewServer(httpapi.Services{
		Products:  service.NewProductService(be.products, ledger),
		Customers: service.NewCustomerService(be.customers),
		Employees: service.NewEmployeeService(be.employees),
		Orders:    service.NewOrderService(be.products, be.customers, be.employees, be.orders, be.tx),
		Fulfiller: fulfiller,
		Health:    be.health,
	}, logger.Named("http"), cfg.HTTP.FulfillTimeout)

	httpServer := &http.Server{
		Addr:              cfg.HTTP.Addr,
		Handler:           srv.Engine(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 2)
	go func() {
		logger.Info("HTTP server listening", zap.String("addr", httpServer.Addr))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()
	go func() {
		if err := router.Run(ctx); err != nil {
			errCh <- fmt.Errorf("message router: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutting down")
	case err := <-errCh:
		logger.Error("component failed", zap.Error(err))
		rerr = err
	}

	sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return errors.Join(rerr, httpServer.Shutdown(sctx), router.Close())
}
