package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/multierr"

	"github.com/polybazaar/polybazaar-backend/api/routes"
	"github.com/polybazaar/polybazaar-backend/internal/accesscontrol"
	authsvc "github.com/polybazaar/polybazaar-backend/internal/auth"
	cartsvc "github.com/polybazaar/polybazaar-backend/internal/cart"
	checkoutsvc "github.com/polybazaar/polybazaar-backend/internal/checkout"
	listingsvc "github.com/polybazaar/polybazaar-backend/internal/listings"
	"github.com/polybazaar/polybazaar-backend/internal/messaging"
	ordersvc "github.com/polybazaar/polybazaar-backend/internal/orders"
	productsvc "github.com/polybazaar/polybazaar-backend/internal/products"
	"github.com/polybazaar/polybazaar-backend/internal/realtime"
	"github.com/polybazaar/polybazaar-backend/internal/users"
	"github.com/polybazaar/polybazaar-backend/pkg/config"
	"github.com/polybazaar/polybazaar-backend/pkg/db"
	"github.com/polybazaar/polybazaar-backend/pkg/logger"
	"github.com/polybazaar/polybazaar-backend/pkg/metrics"
	"github.com/polybazaar/polybazaar-backend/pkg/migrate"
	"github.com/polybazaar/polybazaar-backend/pkg/redis"
)

const shutdownGrace = 15 * time.Second

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}

	httpMetrics := metrics.NewHTTPMetrics(prometheus.DefaultRegisterer)

	events := realtime.NewBroadcaster(redisClient, cfg.Realtime.Channel, logg)

	svcs, err := buildServices(cfg, dbClient, events)
	if err != nil {
		logg.Error(context.Background(), "failed to wire services", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port

	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(
			cfg,
			logg,
			dbClient,
			redisClient,
			httpMetrics,
			promhttp.Handler(),
			svcs,
		),
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logg.Error(ctx, "api server stopped unexpectedly", err)
			os.Exit(1)
		}
	case sig := <-stop:
		logg.Info(logg.WithField(ctx, "signal", sig.String()), "shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancel()

	shutdownErr := server.Shutdown(shutdownCtx)
	shutdownErr = multierr.Append(shutdownErr, redisClient.Close())
	shutdownErr = multierr.Append(shutdownErr, dbClient.Close())
	if shutdownErr != nil {
		logg.Error(ctx, "shutdown finished with errors", shutdownErr)
		os.Exit(1)
	}
	logg.Info(ctx, "shutdown complete")
}

func buildServices(cfg *config.Config, dbClient *db.Client, events *realtime.Broadcaster) (routes.Services, error) {
	gdb := dbClient.DB()

	userRepo := users.NewRepository(gdb)
	conversationRepo := messaging.NewConversationRepository(gdb)
	messageRepo := messaging.NewMessageRepository(gdb)
	productRepo := productsvc.NewRepository(gdb)
	machineryRepo := listingsvc.NewMachineryRepository(gdb)
	cartRepo := cartsvc.NewRepository(gdb)
	ordersRepo := ordersvc.NewRepository(gdb)

	authService, err := authsvc.NewService(authsvc.ServiceParams{
		UserRepo:  userRepo,
		JWTConfig: cfg.JWT,
	})
	if err != nil {
		return routes.Services{}, err
	}

	accessService, err := accesscontrol.NewService(accesscontrol.ServiceParams{
		Tx:             dbClient,
		PermissionRepo: accesscontrol.NewPermissionRequestRepository(gdb),
		AccessRepo:     accesscontrol.NewAccessRequestRepository(gdb),
		Users:          userRepo,
		Flags:          accesscontrol.UserFlagWriter{Repo: userRepo},
		Conversations: messaging.PermissionSync{
			Conversations: conversationRepo,
			Machinery:     machineryRepo,
		},
		Events: events,
	})
	if err != nil {
		return routes.Services{}, err
	}

	messagingService, err := messaging.NewService(messaging.ServiceParams{
		Conversations: conversationRepo,
		Messages:      messageRepo,
		Capabilities:  accessService,
	})
	if err != nil {
		return routes.Services{}, err
	}

	productsService, err := productsvc.NewService(productsvc.ServiceParams{
		Repo:         productRepo,
		Capabilities: accessService,
		Events:       events,
	})
	if err != nil {
		return routes.Services{}, err
	}

	listingsService, err := listingsvc.NewService(listingsvc.ServiceParams{
		Jobs:         listingsvc.NewJobRepository(gdb),
		Bids:         listingsvc.NewBidRepository(gdb),
		Machinery:    machineryRepo,
		Capabilities: accessService,
		Events:       events,
	})
	if err != nil {
		return routes.Services{}, err
	}

	cartService, err := cartsvc.NewService(cartsvc.ServiceParams{
		Repo:         cartRepo,
		Products:     productRepo,
		Capabilities: accessService,
	})
	if err != nil {
		return routes.Services{}, err
	}

	checkoutService, err := checkoutsvc.NewService(checkoutsvc.ServiceParams{
		Tx:           dbClient,
		CartRepo:     cartRepo,
		OrdersRepo:   ordersRepo,
		Products:     productRepo,
		Capabilities: accessService,
		Events:       events,
	})
	if err != nil {
		return routes.Services{}, err
	}

	ordersService, err := ordersvc.NewService(ordersRepo)
	if err != nil {
		return routes.Services{}, err
	}

	return routes.Services{
		Auth:          authService,
		AccessControl: accessService,
		Messaging:     messagingService,
		Products:      productsService,
		Listings:      listingsService,
		Cart:          cartService,
		Checkout:      checkoutService,
		Orders:        ordersService,
	}, nil
}
