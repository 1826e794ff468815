package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"gorm.io/gorm"

	"mileage/auth"
	"mileage/backup"
	"mileage/config"
	dbt "mileage/db/db"
	"mileage/db/gormdb"
	"mileage/metrics"
	migrations "mileage/migration"
	"mileage/mq/gcppubsub"
	"mileage/mq/goch"
	"mileage/mq/mq"
	"mileage/mq/rabbit"
	"mileage/repository"
	"mileage/service"
	"mileage/web"
)

const shutdownTimeout = 10 * time.Second

func serverCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the web server",
		Long:  `This command migrates the database to the latest version and starts the web server.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if cfg.JWTSecret == "" {
				return fmt.Errorf("JWT_SECRET must be set")
			}
			isDev, _ := cmd.Flags().GetBool("dev")

			app := fx.New(
				fx.WithLogger(func() fxevent.Logger {
					return &fxevent.ConsoleLogger{W: logrus.StandardLogger().WriterLevel(logrus.DebugLevel)}
				}),
				fx.Supply(cfg, web.ServiceConfig{IsDev: isDev, Port: cfg.Port}),
				fx.Provide(
					provideDB,
					provideBus,
					provideBackup,
					provideRegistry,
					provideMetrics,
					func(reg *prometheus.Registry) prometheus.Gatherer { return reg },
					repository.New,
					service.New,
					func(cfg *config.Config) *auth.Verifier { return auth.NewVerifier(cfg.JWTSecret) },
					web.NewEngine,
					web.NewHTTPServer,
				),
				fx.Invoke(runHTTP),
			)
			app.Run()
			return app.Err()
		},
	}

	cmd.Flags().Bool("dev", false, "Run in development mode")
	cmd.Flags().String("port", "8080", "Port to run the web server on")

	return cmd
}

// provideDB opens the database and migrates it before anything reads it.
func provideDB(lc fx.Lifecycle, cfg *config.Config) (dbt.DBWrapper, error) {
	db, err := gormdb.Open(cfg)
	if err != nil {
		return nil, err
	}
	if err := migrate(context.Background(), db, cfg); err != nil {
		gormdb.CloseGORM(db)
		return nil, err
	}
	lc.Append(fx.StopHook(func() { gormdb.CloseGORM(db) }))
	return gormdb.NewGORMDBWrapper(db), nil
}

func migrate(ctx context.Context, db *gorm.DB, cfg *config.Config) error {
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	m, err := migrations.NewMigrator(sqlDB, dialectOf(cfg))
	if err != nil {
		return err
	}
	return m.Up(ctx)
}

func dialectOf(cfg *config.Config) migrations.Dialect {
	if cfg.DBType == config.DBTypePostgres {
		return migrations.DialectPostgres
	}
	return migrations.DialectSQLite
}

func provideBus(lc fx.Lifecycle, cfg *config.Config) (mq.ChangeMessageQueue, error) {
	var bus mq.ChangeMessageQueue
	switch cfg.MQMode {
	case config.MQModeRabbitMQ:
		conn, err := rabbit.NewRabbitConnection(cfg.RabbitMQURL)
		if err != nil {
			return nil, err
		}
		bus, err = rabbit.NewRabbitChangeMessageQueue(conn)
		if err != nil {
			conn.Close()
			return nil, err
		}
	case config.MQModeGCPPubSub:
		ctx := context.Background()
		client, err := gcppubsub.NewClient(ctx, cfg.GCPProjectID)
		if err != nil {
			return nil, err
		}
		bus, err = gcppubsub.NewGCPChangeMessageQueue(ctx, client)
		if err != nil {
			client.Close()
			return nil, err
		}
	default:
		bus = goch.NewGoChanChangeMessageQueue(goch.DefaultBufferSize)
	}
	logrus.Printf("Using %s change bus", cfg.MQMode)

	lc.Append(fx.StopHook(bus.Close))
	return bus, nil
}

// provideBackup returns nil when backup is disabled.
func provideBackup(cfg *config.Config) (*backup.Backup, error) {
	var (
		store backup.Store
		err   error
	)
	switch cfg.BackupMode {
	case config.BackupModeDir:
		store, err = backup.NewDirStore(cfg.BackupDir)
	case config.BackupModeDrive:
		store, err = backup.NewDriveStore(cfg.GoogleCredentialsFile)
	case config.BackupModeS3:
		store, err = backup.NewS3Store(context.Background(), backup.S3Config{
			Endpoint:  cfg.S3.Endpoint,
			AccessKey: cfg.S3.AccessKey,
			SecretKey: cfg.S3.SecretKey,
			Bucket:    cfg.S3.Bucket,
			UseSSL:    cfg.S3.UseSSL,
		})
	default:
		logrus.Printf("Backup is disabled")
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	logrus.Printf("Using %s backup store", cfg.BackupMode)
	return backup.New(store), nil
}

func provideRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

func provideMetrics(reg *prometheus.Registry) *metrics.Metrics {
	return metrics.New(reg)
}

func runHTTP(lc fx.Lifecycle, srv *http.Server, svc *service.Service, shutdowner fx.Shutdowner) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				logrus.Printf("Server is running on %s", srv.Addr)
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					logrus.Errorf("server stopped: %v", err)
					_ = shutdowner.Shutdown(fx.ExitCode(1))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			shutdownCtx, cancel := context.WithTimeout(ctx, shutdownTimeout)
			defer cancel()
			err := srv.Shutdown(shutdownCtx)
			// backups started by saved trips finish before the database closes
			svc.Wait()
			logrus.Println("Server exiting")
			return err
		},
	})
}
