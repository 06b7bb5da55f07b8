package main

import (
	"context"
	"errors"
	"flag"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"storefront/internal/config"
	"storefront/internal/docstore"
	"storefront/internal/events"
	httpapi "storefront/internal/http"
	"storefront/internal/logger"
	"storefront/internal/repository"
	"storefront/internal/screen"
	"storefront/internal/service"
	"storefront/internal/session"

	_ "storefront/docs"
)

// @title Storefront API
// @version 1.0
// @description Catalog, session cart, checkout and order history for a single fast-food vendor.
// @BasePath /api/v1

func main() {
	configFile := flag.String("config", "", "optional config file, watched for log level changes")
	flag.Parse()

	boot := logger.New(os.Stderr, "info", "console")
	loader, err := config.NewLoader(*configFile)
	if err != nil {
		boot.Fatal().Err(err).Msg("config")
	}
	cf, err := loader.Load()
	if err != nil {
		boot.Fatal().Err(err).Msg("config")
	}
	log := logger.New(os.Stdout, cf.LogLevel, cf.LogFormat)
	if *configFile != "" {
		loader.Watch(func(next *config.Config) {
			lvl := logger.SetLevel(next.LogLevel)
			log.Info().Str("level", lvl.String()).Msg("log level reloaded")
		}, func(err error) {
			log.Error().Err(err).Msg("config reload")
		})
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cf, log); err != nil {
		log.Fatal().Err(err).Msg("storefront stopped")
	}
}

func run(ctx context.Context, cf *config.Config, log zerolog.Logger) error {
	g, ctx := errgroup.WithContext(ctx)

	store, err := openStore(ctx, g, cf, log)
	if err != nil {
		return err
	}
	defer store.Close()

	publisher := openPublisher(cf, log)
	defer publisher.Close()

	productsRepo := repository.NewProducts(store, log)
	ordersRepo := repository.NewOrders(store, log)

	productsSvc := service.NewProductService(productsRepo)
	getProducts := service.NewGetProducts(productsRepo)
	getHistory := service.NewGetOrderHistory(ordersRepo)
	placeOrder := service.NewPlaceOrder(ordersRepo, publisher, log)

	if cf.SeedCatalog {
		seedCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		n, err := productsSvc.Seed(seedCtx)
		cancel()
		if err != nil {
			return err
		}
		if n > 0 {
			log.Info().Int("products", n).Msg("catalog seeded")
		}
	}

	home := screen.NewHomeScreen(ctx, getProducts, log)
	defer home.Close()
	history := screen.NewHistoryScreen(ctx, getHistory, log)
	defer history.Close()

	fee := cf.Fee()
	sessions := session.NewRegistry(10000, cf.SessionTTL, func() *screen.CartScreen {
		return screen.NewCartScreen(placeOrder, fee, log)
	}, log)
	defer sessions.Close()

	srv := httpapi.NewServer(httpapi.Deps{
		Log:         log,
		Products:    productsSvc,
		GetProducts: getProducts,
		GetHistory:  getHistory,
		Home:        home,
		History:     history,
		Sessions:    sessions,
		Cookies:     session.NewCookies(cf.SessionSecret, cf.SessionTTL, cf.SessionSecure),
	})

	httpServer := &http.Server{
		Addr:        net.JoinHostPort("", cf.Port),
		Handler:     srv.Engine(),
		BaseContext: func(net.Listener) context.Context { return ctx },
	}

	g.Go(func() error {
		log.Info().Str("addr", httpServer.Addr).Msg("HTTP server listening")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("shutdown")
		}
		return nil
	})
	return g.Wait()
}

// openStore picks the document store. SQL stores get a Redis change feed when
// REDIS_ADDR is set so that several instances see each other's writes.
func openStore(ctx context.Context, g *errgroup.Group, cf *config.Config, log zerolog.Logger) (docstore.Store, error) {
	if cf.StoreDriver == config.DriverMemory {
		log.Info().Msg("using in-memory document store")
		return docstore.NewMemoryStore(), nil
	}

	var notifier docstore.Notifier
	if cf.RedisAddr != "" {
		client := redis.NewClient(&redis.Options{Addr: cf.RedisAddr, Password: cf.RedisPassword})
		rn := docstore.NewRedisNotifier(client, cf.RedisPrefix, log)
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		err := rn.Ping(pingCtx)
		cancel()
		if err != nil {
			_ = client.Close()
			return nil, err
		}
		g.Go(func() error {
			defer client.Close()
			return rn.Run(ctx)
		})
		notifier = rn
	}

	store, err := docstore.OpenSQL(cf.StoreDriver, cf.DatabaseURL, notifier, log)
	if err != nil {
		return nil, err
	}
	log.Info().Str("driver", cf.StoreDriver).Bool("redis_feed", notifier != nil).Msg("using SQL document store")
	return store, nil
}

func openPublisher(cf *config.Config, log zerolog.Logger) events.Publisher {
	brokers := cf.Brokers()
	if len(brokers) == 0 {
		return events.Nop{}
	}
	log.Info().Strs("brokers", brokers).Str("topic", cf.KafkaTopic).Msg("publishing order events to kafka")
	return events.NewKafka(events.KafkaConfig{
		Brokers:      brokers,
		Topic:        cf.KafkaTopic,
		BatchTimeout: 10 * time.Millisecond,
		MaxAttempts:  3,
	}, log)
}
