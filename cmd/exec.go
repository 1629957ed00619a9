package cmd

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"event-ticketing/config"
	"event-ticketing/internal/handlers"
	"event-ticketing/internal/idempotency"
	"event-ticketing/internal/services"
	"event-ticketing/internal/services/gateway"
	"event-ticketing/internal/services/gateway/mpesa"
	"event-ticketing/internal/store"
	"event-ticketing/monitoring"
	"event-ticketing/security"
	"event-ticketing/utils"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/apis"
	"github.com/pocketbase/pocketbase/core"
	"github.com/pocketbase/pocketbase/plugins/migratecmd"
	pubnub "github.com/pubnub/go/v7"

	_ "event-ticketing/migrations"
)

func Start() error {
	app := pocketbase.New()

	// Load configuration
	cfg := config.LoadConfig()

	// Initialize Redis
	redisClient := utils.NewRedisClient(cfg.RedisURL)
	defer redisClient.Close()

	// Initialize PubNub
	var pn *pubnub.PubNub
	if cfg.PubNubPublishKey != "" && cfg.PubNubSubscribeKey != "" {
		pnConfig := pubnub.NewConfigWithUserId(pubnub.UserId(cfg.PubNubUserID))
		pnConfig.PublishKey = cfg.PubNubPublishKey
		pnConfig.SubscribeKey = cfg.PubNubSubscribeKey
		pnConfig.SecretKey = cfg.PubNubSecretKey
		pn = pubnub.NewPubNub(pnConfig)
	} else {
		slog.Warn("pubnub keys not configured, payment notifications disabled")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize payment gateway. Missing credentials keep the server
	// bootable for development; initiation requests then fail with a
	// gateway unavailable error.
	var gw gateway.Gateway
	if cfg.Mpesa.ConsumerKey != "" {
		var err error
		gw, err = gateway.New(ctx, gateway.ProviderMpesa, &mpesa.Config{
			BaseURL:        cfg.Mpesa.BaseURL,
			ConsumerKey:    cfg.Mpesa.ConsumerKey,
			ConsumerSecret: cfg.Mpesa.ConsumerSecret,
			ShortCode:      cfg.Mpesa.ShortCode,
			Passkey:        cfg.Mpesa.Passkey,
			CallbackURL:    cfg.Mpesa.CallbackURL,
			Timeout:        cfg.Mpesa.Timeout.String(),
		})
		if err != nil {
			return err
		}
	} else {
		slog.Warn("mpesa credentials not configured, payment initiation disabled")
	}

	// Initialize services
	st := store.New(app)
	guard := idempotency.New(redisClient, cfg.PendingGracePeriod)
	bookingService := services.NewBookingService(st)
	paymentService := services.NewPaymentService(st, gw, guard, pn)
	queryService := services.NewQueryService(st)

	// Initialize handlers
	bookingHandler := handlers.NewBookingHandler(app, bookingService, queryService)
	paymentHandler := handlers.NewPaymentHandler(app, paymentService, queryService)

	limiter := security.NewRateLimiter(redisClient)

	// Enable migrations
	migratecmd.MustRegister(app, app.RootCmd, migratecmd.Config{
		Automigrate: true,
	})

	// Start background tasks
	go paymentService.SweepStalePending(ctx, cfg.PendingGracePeriod, cfg.SweepInterval)
	if cfg.EnableMetrics {
		go monitoring.Serve(cfg.MetricsPort)
	}

	// Setup graceful shutdown
	go handleShutdown(cancel)

	app.OnServe().BindFunc(func(e *core.ServeEvent) error {
		// Booking endpoints
		e.Router.POST("/api/v1/events/{eventId}/book", bookingHandler.BookTicket).
			Bind(apis.RequireAuth()).
			BindFunc(limiter.Limit("booking", cfg.BookingRateLimit, cfg.BookingRateWindow))
		e.Router.GET("/api/v1/tickets/my", bookingHandler.GetMyTickets).Bind(apis.RequireAuth())
		e.Router.GET("/api/v1/tickets/sold", bookingHandler.GetSoldTickets).Bind(apis.RequireAuth())
		e.Router.GET("/api/v1/events/analytics", bookingHandler.GetAnalytics).Bind(apis.RequireAuth())

		// Payment endpoints
		e.Router.POST("/api/v1/payments/mpesa", paymentHandler.InitiateMpesa).Bind(apis.RequireAuth())
		e.Router.POST("/api/v1/payments/mpesa/callback", paymentHandler.MpesaCallback)
		e.Router.GET("/api/v1/payments/my", paymentHandler.GetMyTransactions).Bind(apis.RequireAuth())

		// Health check
		e.Router.GET("/health", func(e *core.RequestEvent) error {
			if err := utils.RedisHealthCheck(redisClient); err != nil {
				return e.JSON(503, map[string]string{
					"status": "unhealthy",
					"error":  err.Error(),
				})
			}
			return e.JSON(200, map[string]string{"status": "healthy"})
		})

		log.Println("Server routes registered")

		setupEventHooks(app)

		return e.Next()
	})

	// Start server
	if err := app.Start(); err != nil {
		log.Fatal(err)
	}
	return nil
}

// setupEventHooks keeps event inventory consistent at the record layer
// no matter which surface (API, admin UI, migration) writes it.
func setupEventHooks(app *pocketbase.PocketBase) {
	app.OnRecordCreate("events").BindFunc(func(e *core.RecordEvent) error {
		capacity := e.Record.GetInt("capacity")
		if capacity < 0 {
			return apis.NewBadRequestError("capacity cannot be negative", nil)
		}

		// New events start fully available unless seeded explicitly.
		if e.Record.GetString("available_tickets") == "" || e.Record.GetInt("available_tickets") > capacity {
			e.Record.Set("available_tickets", capacity)
		}

		return e.Next()
	})

	app.OnRecordUpdate("events").BindFunc(func(e *core.RecordEvent) error {
		capacity := e.Record.GetInt("capacity")
		available := e.Record.GetInt("available_tickets")
		if available < 0 || available > capacity {
			return apis.NewBadRequestError("available_tickets must stay between 0 and capacity", nil)
		}
		return e.Next()
	})
}

// handleShutdown handles graceful shutdown
func handleShutdown(cancel context.CancelFunc) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	<-sigChan
	log.Println("Shutdown signal received, cleaning up...")
	cancel()
}
