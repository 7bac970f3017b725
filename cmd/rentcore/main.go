package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"rentcore/internal/app/commands"
	availabilityapp "rentcore/internal/app/handlers/availability"
	bookingapp "rentcore/internal/app/handlers/booking"
	pricingapp "rentcore/internal/app/handlers/pricing"
	"rentcore/internal/app/middleware"
	"rentcore/internal/app/outbox"
	"rentcore/internal/app/policies"
	"rentcore/internal/app/queries"
	"rentcore/internal/app/schedule"
	domainbooking "rentcore/internal/domain/booking"
	domainlisting "rentcore/internal/domain/listing"
	domainpricing "rentcore/internal/domain/pricing"
	"rentcore/internal/domain/shared/interval"
	"rentcore/internal/domain/shared/money"
	"rentcore/internal/infra/broker/kafka"
	"rentcore/internal/infra/clock"
	"rentcore/internal/infra/config"
	mongodb "rentcore/internal/infra/db/mongo"
	ginserver "rentcore/internal/infra/http/gin"
	"rentcore/internal/infra/obs"
	"rentcore/internal/infra/storage/memory"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("configuration invalid", "error", err)
		os.Exit(1)
	}
	logger := obs.NewLogger(cfg.Env)

	app, err := buildApplication(ctx, cfg, logger)
	if err != nil {
		logger.Error("wiring failed", "error", err)
		os.Exit(1)
	}
	defer app.close(logger)

	if cfg.FixturesPath != "" {
		if err := loadListingFixtures(ctx, cfg, app.listings, logger); err != nil {
			logger.Warn("listing fixtures load failed", "error", err, "path", cfg.FixturesPath)
		}
	}

	server := ginserver.NewServer(cfg, obs.Middleware{Logger: logger}, obs.HealthHandlers{
		Ready: app.ready,
	}, app.handlers)

	go func() {
		if err := app.sweeper.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("approval sweeper stopped", "error", err)
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("http shutdown failed", "error", err)
		}
	}()

	logger.Info("HTTP server starting", "addr", cfg.HTTPAddr)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("http server failed", "error", err)
		os.Exit(1)
	}
	logger.Info("HTTP server stopped")
}

type application struct {
	handlers ginserver.Handlers
	listings *memory.ListingStore
	sweeper  *schedule.Sweeper
	ready    func() error
	mongo    *mongodb.Client
	producer *kafka.Producer
}

func buildApplication(ctx context.Context, cfg config.Config, logger *slog.Logger) (*application, error) {
	listingStore := memory.NewListingStore()
	ledger := memory.NewLedger(listingStore)
	sysClock := clock.NewSystem()
	calculator := domainpricing.NewCalculator(cfg.PlatformFeeBps)

	app := &application{
		listings: listingStore,
		ready:    func() error { return nil },
	}

	var bookingRepo domainbooking.Repository
	var idStore middleware.IdempotencyStore
	switch cfg.PersistenceMode {
	case "mongo":
		client, err := mongodb.New(cfg.MongoURI, cfg.MongoDB)
		if err != nil {
			return nil, fmt.Errorf("mongo connect: %w", err)
		}
		repo := mongodb.NewBookingRepository(client.DB)
		if err := repo.EnsureIndexes(ctx); err != nil {
			logger.Warn("booking index creation failed", "error", err)
		}
		bookingRepo = repo
		idStore = mongodb.NewIdempotencyStore(client.DB, cfg.IdempotencyTTL)
		app.mongo = client
		app.ready = func() error {
			pingCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			return client.Ping(pingCtx)
		}
	default:
		bookingRepo = memory.NewBookingRepository()
		idStore = memory.NewIdempotencyStore(cfg.IdempotencyTTL)
	}

	outboxStore := memory.NewOutbox()
	if len(cfg.KafkaBrokers) > 0 {
		producer, err := kafka.NewProducer(cfg.KafkaBrokers, nil)
		if err != nil {
			return nil, fmt.Errorf("kafka connect: %w", err)
		}
		outboxStore.WithPublisher(producer, cfg.KafkaTopicPrefix)
		app.producer = producer
	}

	uowFactory := memory.Factory{
		ListingsStore: listingStore,
		BookingRepo:   bookingRepo,
		LedgerStore:   ledger,
	}

	commandBus := commands.NewInMemoryBus()
	reserveHandler := &bookingapp.ReserveHandler{
		UoWFactory: uowFactory,
		Calculator: calculator,
		Clock:      sysClock,
		Payments:   policies.NoopPayments{},
		Outbox:     outboxStore,
		Encoder:    outbox.JSONEventEncoder{},
	}
	commands.RegisterHandler(commandBus, bookingapp.ReserveCommand{}.Key(), reserveHandler)
	transitionHandler := &bookingapp.TransitionHandler{
		UoWFactory: uowFactory,
		Clock:      sysClock,
		Outbox:     outboxStore,
		Encoder:    outbox.JSONEventEncoder{},
	}
	commands.RegisterHandler(commandBus, bookingapp.TransitionCommand{}.Key(), transitionHandler)

	queryBus := queries.NewInMemoryBus()
	queries.RegisterHandler(queryBus, availabilityapp.CheckQuery{}.Key(), &availabilityapp.CheckHandler{
		Listings: listingStore,
		Ledger:   ledger,
	})
	queries.RegisterHandler(queryBus, pricingapp.QuoteQuery{}.Key(), &pricingapp.QuoteHandler{
		Listings:   listingStore,
		Calculator: calculator,
	})
	queries.RegisterHandler(queryBus, bookingapp.ListByRenterQuery{}.Key(), &bookingapp.ListByRenterHandler{
		Bookings: bookingRepo,
	})

	commandBusWithMiddleware := middleware.ChainCommands(
		commandBus,
		middleware.Idempotency(idStore, nil, ginserver.ErrorCode),
		middleware.Transaction(uowFactory, nil),
		middleware.OutboxFlush(outboxStore),
	)
	queryBusWithMiddleware := middleware.ChainQueries(queryBus)

	app.sweeper = &schedule.Sweeper{
		Bookings: bookingRepo,
		Bus:      commandBusWithMiddleware,
		Clock:    sysClock,
		Timeout:  cfg.ApprovalTimeout,
		Interval: cfg.SweepInterval,
		Logger:   logger,
	}

	app.handlers = ginserver.Handlers{
		Booking: ginserver.BookingHandler{
			Commands: commandBusWithMiddleware,
			Queries:  queryBusWithMiddleware,
		},
		Listing: ginserver.ListingHandler{
			Queries: queryBusWithMiddleware,
		},
	}
	return app, nil
}

func (a *application) close(logger *slog.Logger) {
	if a.producer != nil {
		if err := a.producer.Close(); err != nil {
			logger.Warn("kafka close failed", "error", err)
		}
	}
	if a.mongo != nil {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := a.mongo.Close(closeCtx); err != nil {
			logger.Warn("mongo disconnect failed", "error", err)
		}
	}
}

type listingFixture struct {
	ID             string            `json:"id"`
	Host           string            `json:"host"`
	TotalQuantity  int               `json:"total_quantity"`
	Unit           string            `json:"unit"`
	BasePrice      int64             `json:"base_price"`
	Currency       string            `json:"currency"`
	Deposit        fixtureDeposit    `json:"deposit"`
	MinUnits       int               `json:"min_units"`
	MaxUnits       int               `json:"max_units"`
	Cancellation   string            `json:"cancellation"`
	InstantBooking bool              `json:"instant_booking"`
	Discounts      []fixtureDiscount `json:"discounts"`
}

type fixtureDeposit struct {
	Type        string `json:"type"`
	BasisPoints int64  `json:"basis_points"`
	Flat        int64  `json:"flat"`
}

type fixtureDiscount struct {
	Name        string `json:"name"`
	Kind        string `json:"kind"`
	Threshold   int    `json:"threshold"`
	BasisPoints int64  `json:"basis_points"`
}

func loadListingFixtures(ctx context.Context, cfg config.Config, store *memory.ListingStore, logger *slog.Logger) error {
	data, err := os.ReadFile(cfg.FixturesPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			logger.Info("listing fixtures file not found, skipping", "path", cfg.FixturesPath)
			return nil
		}
		return fmt.Errorf("read fixtures: %w", err)
	}
	var fixtures []listingFixture
	if err := json.Unmarshal(data, &fixtures); err != nil {
		return fmt.Errorf("decode fixtures: %w", err)
	}

	for _, fx := range fixtures {
		currency := fx.Currency
		if currency == "" {
			currency = cfg.Currency
		}
		snapshot := &domainlisting.Snapshot{
			ID:            domainlisting.ListingID(fx.ID),
			Host:          domainlisting.HostID(fx.Host),
			TotalQuantity: fx.TotalQuantity,
			Unit:          interval.Unit(fx.Unit),
			BasePrice:     money.Money{Amount: fx.BasePrice, Currency: currency},
			Deposit: domainlisting.DepositPolicy{
				Type:        domainlisting.DepositType(fx.Deposit.Type),
				BasisPoints: fx.Deposit.BasisPoints,
				Flat:        money.Money{Amount: fx.Deposit.Flat, Currency: currency},
			},
			MinUnits:       fx.MinUnits,
			MaxUnits:       fx.MaxUnits,
			Cancellation:   domainlisting.CancellationPolicy(fx.Cancellation),
			InstantBooking: fx.InstantBooking,
		}
		for _, d := range fx.Discounts {
			snapshot.Discounts = append(snapshot.Discounts, domainlisting.DiscountConfig{
				Name:        d.Name,
				Kind:        domainlisting.DiscountKind(d.Kind),
				Threshold:   d.Threshold,
				BasisPoints: d.BasisPoints,
			})
		}
		if err := store.Put(ctx, snapshot); err != nil {
			logger.Error("fixture invalid", "listing_id", fx.ID, "error", err)
			continue
		}
		logger.Info("listing fixture imported", "listing_id", fx.ID)
	}
	return nil
}
