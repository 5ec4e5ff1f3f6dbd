package commands

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"lockbox/config"
	"lockbox/database"
	bookingRepo "lockbox/database/repository/booking"
	chatRepo "lockbox/database/repository/chat"
	directoryRepo "lockbox/database/repository/directory"
	"lockbox/database/repository/memory"
	notificationRepo "lockbox/database/repository/notification"
	recordsRepo "lockbox/database/repository/records"
	"lockbox/services/booking"
	"lockbox/services/chat"
	"lockbox/services/events"
	"lockbox/services/lease"
	"lockbox/services/lifecycle"
	"lockbox/services/notification"
	"lockbox/services/payment"
	"lockbox/utils"

	"github.com/hibiken/asynq"
	"github.com/stripe/stripe-go/v76"
	"go.uber.org/zap"
)

// stores is every repository the engine writes or reads.
type stores struct {
	bookings      bookingRepo.BookingRepository
	transactions  recordsRepo.TransactionRepository
	disputes      recordsRepo.DisputeRepository
	checkIns      recordsRepo.CheckInRepository
	notifications notificationRepo.NotificationRepository
	chat          chatRepo.ChatRepository
	users         directoryRepo.UserDirectory
	listings      directoryRepo.ListingDirectory
	reviews       directoryRepo.ReviewDirectory
	indexers      map[string]indexer
}

type indexer interface {
	EnsureIndexes(ctx context.Context) error
}

// storeOpener picks the repositories for STORE_BACKEND.
var storeOpener = openStores

// App is the wired engine shared by the serve, worker and sweep commands.
type App struct {
	Logger        *zap.Logger
	Bookings      *booking.DefaultBookingService
	Notifications *notification.DefaultNotificationService
	Sweeper       *lifecycle.Sweeper
	Registry      *chat.Registry
	Relay         *chat.RedisRelay
	Health        *utils.HealthMonitor
	Indexers      map[string]indexer

	closers []func(context.Context) error
}

// Close releases connections in reverse order of acquisition.
func (a *App) Close(ctx context.Context) {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](ctx); err != nil {
			a.Logger.Warn("shutdown step failed", zap.Error(err))
		}
	}
}

func buildApp(ctx context.Context) (*App, error) {
	cfg := config.AppConfig
	logger := utils.GetLogger()
	app := &App{Logger: logger, Registry: chat.NewRegistry()}
	pingers := map[string]utils.Pinger{}

	st, err := storeOpener(ctx, cfg, app)
	if err != nil {
		return nil, err
	}
	if cfg.StoreBackend == "mongo" {
		pingers["mongo"] = utils.PingFunc(database.Ping)
	}

	var pub events.Publisher = events.NopPublisher{}
	if cfg.AMQPURL != "" {
		amqpPub, err := events.NewAMQPPublisher(cfg.AMQPURL, cfg.AMQPExchange, utils.ServiceLogger("events"))
		if err != nil {
			app.Close(ctx)
			return nil, err
		}
		app.closers = append(app.closers, func(context.Context) error { return amqpPub.Close() })
		pub = amqpPub
	}

	locker, err := newLocker(cfg, st)
	if err != nil {
		app.Close(ctx)
		return nil, err
	}
	// reminder dedup and payment idempotency rest on the unique indexes
	if err := ensureIndexes(ctx, utils.ServiceLogger("store"), st.indexers); err != nil {
		app.Close(ctx)
		return nil, err
	}
	app.Indexers = st.indexers
	if cfg.LeaseBackend == "redis" {
		pingers["redis"] = utils.PingFunc(func(ctx context.Context) error {
			return utils.GetLeaseClient().Ping(ctx).Err()
		})
	}

	gateway, err := newGateway(cfg)
	if err != nil {
		app.Close(ctx)
		return nil, err
	}
	payTimeout, err := gatewayTimeout(cfg)
	if err != nil {
		app.Close(ctx)
		return nil, err
	}

	var relay chat.Relay
	if cfg.StoreBackend == "mongo" {
		app.Relay = chat.NewRedisRelay(utils.GetChatClient(), app.Registry, utils.ServiceLogger("chat"))
		relay = app.Relay
	}

	app.Notifications, err = notification.NewDefaultNotificationService(st.notifications, pub, utils.ServiceLogger("notification"))
	if err != nil {
		app.Close(ctx)
		return nil, err
	}

	app.Bookings, err = booking.NewDefaultBookingService(booking.DefaultBookingService{
		Bookings:      st.bookings,
		Disputes:      st.disputes,
		CheckIns:      st.checkIns,
		Payments:      payment.NewOrchestrator(gateway, st.transactions, utils.ServiceLogger("payment")),
		Leases:        locker,
		Notifications: app.Notifications,
		Messenger:     chat.NewMessenger(st.chat, app.Registry, relay, utils.ServiceLogger("chat")),
		Users:         st.users,
		Listings:      st.listings,
		Events:        pub,
		Logger:        utils.ServiceLogger("booking"),

		GatewayTimeout: payTimeout,
	})
	if err != nil {
		app.Close(ctx)
		return nil, err
	}

	app.Sweeper, err = lifecycle.NewSweeper(lifecycle.Sweeper{
		Bookings:          st.bookings,
		Listings:          st.listings,
		Reviews:           st.reviews,
		Notifications:     app.Notifications,
		Events:            pub,
		Location:          cfg.Location(),
		CheckoutLookahead: cfg.CheckoutLookaheadDays,
		Logger:            utils.ServiceLogger("lifecycle"),
	})
	if err != nil {
		app.Close(ctx)
		return nil, err
	}

	app.Health = utils.NewHealthMonitor(pingers)
	return app, nil
}

func openStores(ctx context.Context, cfg config.Config, app *App) (*stores, error) {
	switch cfg.StoreBackend {
	case "memory":
		app.Logger.Warn("using in-memory store; data is lost on exit")
		dir := memory.NewDirectory()
		return &stores{
			bookings:      memory.NewBookingRepo(),
			transactions:  memory.NewTransactionRepo(),
			disputes:      memory.NewDisputeRepo(),
			checkIns:      memory.NewCheckInRepo(),
			notifications: memory.NewNotificationRepo(),
			chat:          memory.NewChatRepo(),
			users:         dir,
			listings:      dir,
			reviews:       dir,
			indexers:      map[string]indexer{},
		}, nil
	case "mongo":
		if err := database.InitDB(ctx); err != nil {
			return nil, err
		}
		app.closers = append(app.closers, database.Close)
		db := database.DB()

		bookings := bookingRepo.NewMongoBookingRepo(db)
		transactions := recordsRepo.NewMongoTransactionRepo(db)
		disputes := recordsRepo.NewMongoDisputeRepo(db)
		checkIns := recordsRepo.NewMongoCheckInRepo(db)
		notes := notificationRepo.NewMongoNotificationRepo(db)
		chats := chatRepo.NewMongoChatRepo(db)
		dir := directoryRepo.NewMongoDirectory(db)
		return &stores{
			bookings:      bookings,
			transactions:  transactions,
			disputes:      disputes,
			checkIns:      checkIns,
			notifications: notes,
			chat:          chats,
			users:         dir,
			listings:      dir,
			reviews:       dir,
			indexers: map[string]indexer{
				"booking":      bookings,
				"transaction":  transactions,
				"dispute":      disputes,
				"checkIn":      checkIns,
				"notification": notes,
				"chat":         chats,
			},
		}, nil
	}
	return nil, fmt.Errorf("unknown STORE_BACKEND %q (want mongo or memory)", cfg.StoreBackend)
}

func newLocker(cfg config.Config, st *stores) (lease.Locker, error) {
	opts := lease.Options{TTL: cfg.LeaseTTL, Wait: cfg.LeaseWait}
	switch cfg.LeaseBackend {
	case "redis":
		return lease.NewRedisLocker(utils.GetLeaseClient(), opts), nil
	case "mongo":
		if cfg.StoreBackend != "mongo" {
			return nil, fmt.Errorf("LEASE_BACKEND=mongo requires STORE_BACKEND=mongo")
		}
		locker := lease.NewMongoLocker(database.DB(), opts)
		st.indexers["listingLock"] = locker
		return locker, nil
	case "memory":
		return lease.NewMemoryLocker(opts), nil
	}
	return nil, fmt.Errorf("unknown LEASE_BACKEND %q (want redis, mongo or memory)", cfg.LeaseBackend)
}

// ensureIndexes creates every collection's indexes in name order and stops at
// the first failure.
func ensureIndexes(ctx context.Context, logger *zap.Logger, indexers map[string]indexer) error {
	for _, name := range indexNames(indexers) {
		if err := indexers[name].EnsureIndexes(ctx); err != nil {
			return fmt.Errorf("ensure %s indexes: %w", name, err)
		}
		logger.Debug("indexes ensured", zap.String("collection", name))
	}
	return nil
}

func indexNames(indexers map[string]indexer) []string {
	names := make([]string, 0, len(indexers))
	for name := range indexers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// gatewayTimeout is the budget for a gateway call made under the listing
// lease. It has to end before the lease does.
func gatewayTimeout(cfg config.Config) (time.Duration, error) {
	ttl := cfg.LeaseTTL
	if ttl <= 0 {
		ttl = lease.DefaultTTL
	}
	if cfg.GatewayTimeout <= 0 {
		return ttl * 2 / 3, nil
	}
	if cfg.GatewayTimeout >= ttl {
		return 0, fmt.Errorf("GATEWAY_TIMEOUT (%s) must be shorter than LEASE_TTL (%s)", cfg.GatewayTimeout, ttl)
	}
	return cfg.GatewayTimeout, nil
}

func newGateway(cfg config.Config) (payment.Gateway, error) {
	switch cfg.GatewayBackend {
	case "stripe":
		if cfg.StripeKey == "" {
			return nil, fmt.Errorf("STRIPE_KEY is required for GATEWAY_BACKEND=stripe")
		}
		stripe.Key = cfg.StripeKey
		return payment.NewStripeGateway(), nil
	case "memory":
		return payment.NewMemoryGateway(), nil
	}
	return nil, fmt.Errorf("unknown GATEWAY_BACKEND %q (want stripe or memory)", cfg.GatewayBackend)
}

func queueRedisOpt(cfg config.Config) asynq.RedisClientOpt {
	return asynq.RedisClientOpt{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisQueueDB,
	}
}

// jwtSecret refuses to run in production without a signing key.
func jwtSecret(cfg config.Config) ([]byte, error) {
	if strings.TrimSpace(cfg.JWTSecret) == "" {
		if config.IsProduction() {
			return nil, fmt.Errorf("JWT_SECRET is required in production")
		}
		return []byte("lockbox-dev-secret"), nil
	}
	return []byte(cfg.JWTSecret), nil
}
