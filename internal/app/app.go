package app

import (
	"context"
	"crypto/tls"
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"github.com/niksmo/modelshop-admin/config"
	"github.com/niksmo/modelshop-admin/internal/adapter"
	"github.com/niksmo/modelshop-admin/internal/adapter/blob"
	"github.com/niksmo/modelshop-admin/internal/adapter/cache"
	"github.com/niksmo/modelshop-admin/internal/adapter/httphandler"
	"github.com/niksmo/modelshop-admin/internal/adapter/kafka"
	"github.com/niksmo/modelshop-admin/internal/adapter/storage"
	"github.com/niksmo/modelshop-admin/internal/core/domain"
	"github.com/niksmo/modelshop-admin/internal/core/port"
	"github.com/niksmo/modelshop-admin/internal/core/service"
	"github.com/niksmo/modelshop-admin/internal/imageprep"
	"github.com/niksmo/modelshop-admin/pkg/retry"
	"github.com/niksmo/modelshop-admin/pkg/schema"
	"github.com/redis/go-redis/v9"
	"github.com/twmb/franz-go/pkg/sr"
)

type outbound struct {
	sqldb     storage.SQLDB
	rdb       *redis.Client
	products  port.ProductsStorage
	imageRefs port.ImageRefChecker
	gateway   service.UploadGateway
	publisher *kafka.ProductEventsProducer
	janitor   *kafka.ImageJanitor
}

type App struct {
	ctx        context.Context
	cfg        config.Config
	tlsConfig  *tls.Config
	serde      schema.Serde
	outbound   outbound
	service    service.Service
	httpServer httphandler.HTTPServer
}

func New(ctx context.Context, cfg config.Config) *App {
	app := &App{ctx: ctx, cfg: cfg}

	app.initLogger()
	app.initStorage()
	app.initBlobStore()
	if cfg.EventsEnabled() {
		app.initSerde()
		app.initEvents()
	} else {
		slog.Warn("broker is not configured, product events are disabled")
	}
	app.initCoreService()
	app.initInboundAdapters()

	return app
}

func (app *App) initLogger() {
	opts := &slog.HandlerOptions{Level: app.cfg.LogLevel}
	logger := slog.New(slog.NewJSONHandler(os.Stderr, opts))
	slog.SetDefault(logger)
}

func (app *App) retryConfig() retry.RetryConfig {
	return retry.RetryConfig{
		MaxAttempts: app.cfg.Startup.Attempts,
		Backoff:     retry.ExponentialBackoff(app.cfg.Startup.Delay),
		ShouldRetry: retry.Unless(domain.ErrConfiguration),
	}
}

func (app *App) initStorage() {
	const op = "App.initStorage"

	sqldb, err := storage.NewSQLDB(app.ctx, app.cfg.SQLDB, app.retryConfig())
	if err != nil {
		app.fallDown(op, err)
	}
	app.outbound.sqldb = sqldb

	repo := storage.NewProductsRepository(sqldb)
	app.outbound.imageRefs = repo

	var products port.ProductsStorage = repo

	if app.cfg.CacheEnabled() {
		rdb, err := cache.NewRedisClient(app.ctx, cache.RedisConfig{
			Addr:     app.cfg.Redis.Addr,
			Password: app.cfg.Redis.Password,
			DB:       app.cfg.Redis.DB,
		})
		if err != nil {
			app.fallDown(op, err)
		}
		app.outbound.rdb = rdb
		products = cache.NewProductsCache(products, rdb, app.cfg.Redis.ListTTL)
	}

	app.outbound.products = products
}

func (app *App) initBlobStore() {
	const op = "App.initBlobStore"

	store, err := blob.New(blob.Config{
		Endpoint:  app.cfg.Blob.Endpoint,
		AccessKey: app.cfg.Blob.AccessKey,
		SecretKey: app.cfg.Blob.SecretKey,
		Bucket:    app.cfg.Blob.Bucket,
		UseSSL:    app.cfg.Blob.UseSSL,
		PublicURL: app.cfg.Blob.PublicURL,
	})
	if err != nil {
		app.fallDown(op, err)
	}

	err = retry.Do(app.ctx, app.retryConfig(), func() error {
		err := store.Ping(app.ctx)
		if err != nil {
			slog.Warn("blob store is not ready", "op", op, "err", err)
		}
		return err
	})
	if err != nil {
		app.fallDown(op, err)
	}

	app.outbound.gateway = service.NewUploadGateway(
		store, service.KeyPrefixOpt(app.cfg.Blob.KeyPrefix),
	)
}

func (app *App) brokerClientConfig() kafka.ClientConfig {
	const op = "App.brokerClientConfig"

	if app.cfg.BrokerTLSEnabled() && app.tlsConfig == nil {
		tlsCfg := app.cfg.Broker.TLS
		tlsConfig, err := adapter.MakeTLSConfig(tlsCfg.CA, tlsCfg.Cert, tlsCfg.Key)
		if err != nil {
			app.fallDown(op, err)
		}
		app.tlsConfig = tlsConfig
	}
	return kafka.ClientConfig{
		SeedBrokers: app.cfg.Broker.SeedBrokers,
		TLSConfig:   app.tlsConfig,
		User:        app.cfg.Broker.User,
		Pass:        app.cfg.Broker.Pass,
	}
}

func (app *App) initSerde() {
	const op = "App.initSerde"

	srOpts := []sr.ClientOpt{sr.URLs(app.cfg.Broker.SchemaRegistryURLs...)}
	if cc := app.brokerClientConfig(); cc.TLSConfig != nil {
		srOpts = append(srOpts, sr.DialTLSConfig(cc.TLSConfig))
	}
	srClient, err := sr.NewClient(srOpts...)
	if err != nil {
		app.fallDown(op, err)
	}

	subject := app.cfg.Broker.ProductEventsTopic + "-value"
	serde, err := schema.NewSerdeProductEventV1(
		app.ctx,
		schema.SubjectOpt(subject),
		schema.SchemaIdentifierOpt(schema.NewSchemaCreater(srClient)),
	)
	if err != nil {
		app.fallDown(op, err)
	}
	app.serde = serde
}

func (app *App) initEvents() {
	const op = "App.initEvents"

	cc := app.brokerClientConfig()
	topic := app.cfg.Broker.ProductEventsTopic

	producer, err := kafka.NewProductEventsProducer(
		kafka.ProducerClientOpt(app.ctx, cc, topic),
		kafka.ProducerEncoderOpt(app.serde),
	)
	if err != nil {
		app.fallDown(op, err)
	}
	app.outbound.publisher = &producer

	janitor, err := kafka.NewImageJanitor(kafka.ImageJanitorConfig{
		SeedBrokers: cc.SeedBrokers,
		Topic:       topic,
		Group:       app.cfg.Broker.ImageJanitorGroup,
		Serde:       app.serde,
		Remover:     app.outbound.gateway,
		Refs:        app.outbound.imageRefs,
		TLSConfig:   cc.TLSConfig,
		User:        cc.User,
		Pass:        cc.Pass,
	})
	if err != nil {
		app.fallDown(op, err)
	}
	app.outbound.janitor = janitor
}

func (app *App) initCoreService() {
	var (
		publisher port.ProductEventsPublisher
		janitor   port.ImageJanitorProcessor
	)
	if app.outbound.publisher != nil {
		publisher = app.outbound.publisher
	}
	if app.outbound.janitor != nil {
		janitor = app.outbound.janitor
	}

	app.service = service.New(app.outbound.products, publisher, janitor)
}

func (app *App) initInboundAdapters() {
	const op = "App.initInboundAdapters"

	preparer, err := imageprep.New()
	if err != nil {
		app.fallDown(op, err)
	}

	gateway := app.outbound.gateway
	mux := http.NewServeMux()
	httphandler.RegisterHealth(mux)
	httphandler.RegisterCategories(mux)
	httphandler.RegisterProducts(mux, app.service)
	httphandler.RegisterUploads(mux, gateway, preparer)
	httphandler.RegisterForms(mux, gateway, app.service)

	middlewares := []httphandler.Middleware{
		httphandler.LogRequests,
		httphandler.CORS(app.cfg.HTTP.AllowedOrigins),
	}
	if secret := app.cfg.Auth.JWTSecret; secret != "" {
		middlewares = append(middlewares, httphandler.RequireAdmin([]byte(secret)))
	} else {
		slog.Warn("auth.jwt_secret is empty, admin endpoints are not protected")
	}
	middlewares = append(middlewares,
		httphandler.AllowMediaTypes("application/json", "multipart/form-data"),
	)

	handler := httphandler.Chain(middlewares...)(mux)
	app.httpServer = httphandler.NewHTTPServer(
		app.cfg.HTTP.Addr, handler, app.cfg.HTTP.RequestTimeout,
	)
}

// Run blocks until the background processors are ready.
func (app *App) Run(stopFn context.CancelFunc) {
	app.service.Run(app.ctx, stopFn)
	go app.httpServer.Run(stopFn)

	slog.Info("application is running")
}

func (app *App) Close(ctx context.Context) {
	slog.Info("application is closing...")

	app.httpServer.Close(ctx)
	app.service.Close()
	if app.outbound.publisher != nil {
		app.outbound.publisher.Close()
	}
	if app.outbound.rdb != nil {
		if err := app.outbound.rdb.Close(); err != nil {
			slog.Error("failed to close redis client", "err", err)
		}
	}
	app.outbound.sqldb.Close()

	slog.Info("application is closed")
}

func (app *App) fallDown(op string, err error) {
	panic(fmt.Errorf("%s: %w", op, err))
}
