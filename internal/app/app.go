package app

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"threewloc-backend/internal/config"
	"threewloc-backend/internal/events"
	"threewloc-backend/internal/jobs"
	"threewloc-backend/internal/logger"
	"threewloc-backend/internal/notify"
	"threewloc-backend/internal/payment"
	"threewloc-backend/internal/repository/postgres"
	"threewloc-backend/internal/security"
	"threewloc-backend/internal/service"
)

// App holds the services shared by the API server and the cronjob runner.
type App struct {
	Store    *postgres.Store
	Gateways *payment.Registry
	// Sandbox is nil unless the sandbox provider is enabled.
	Sandbox *payment.SandboxGateway
	Tokens  security.TokenManager

	Availability  service.AvailabilityService
	Wallets       service.WalletService
	Bookings      service.BookingService
	Payments      service.PaymentService
	Notifications service.NotificationService

	closers []func() error
}

// New wires every service from cfg. Kafka, Redis, SendGrid and FCM are
// optional: when one is unconfigured or unreachable the service runs
// without it and logs a warning.
func New(ctx context.Context, cfg *config.Config, db *sql.DB) (*App, error) {
	platformUserID, err := cfg.PlatformUserID()
	if err != nil {
		return nil, err
	}
	operatorIDs, err := cfg.OperatorIDs()
	if err != nil {
		return nil, err
	}

	a := &App{
		Store:  postgres.NewStore(db),
		Tokens: security.NewTokenManager(cfg.JWT.Secret, cfg.JWT.Issuer, cfg.JWT.Audience),
	}
	a.Gateways, a.Sandbox = newGateways(cfg)

	publisher, feed := a.connectEvents(ctx, cfg)
	notifier := notify.NewDispatcher(a.Store.NotificationRepository, a.Store.UserRepository, newSinks(ctx, cfg)...)

	repos := a.Store.Repositories()
	a.Availability = service.NewAvailabilityService(a.Store.BookingRepository, feed)
	a.Wallets = service.NewWalletService(a.Store.WalletRepository, notifier, operatorIDs)
	a.Bookings = service.NewBookingService(repos, a.Store, a.Availability, a.Gateways, notifier, publisher, platformUserID)
	a.Payments = service.NewPaymentService(repos, a.Store, a.Gateways, notifier, publisher, service.PaymentOptions{
		MinimumRecharge: cfg.Payments.MinimumRecharge,
		ReturnURL:       cfg.Payments.ReturnURL,
	})
	a.Notifications = service.NewNotificationService(a.Store.NotificationRepository)

	return a, nil
}

// JobServices exposes the services the scheduled jobs drive.
func (a *App) JobServices() *jobs.Services {
	return &jobs.Services{
		Payments: a.Payments,
		Refunds:  a.Bookings,
		Expiry:   a.Bookings,
		Ledger:   a.Wallets,
	}
}

// Close releases broker connections.
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			logger.Warn("Failed to close dependency", "error", err)
		}
	}
}

func newGateways(cfg *config.Config) (*payment.Registry, *payment.SandboxGateway) {
	p := cfg.Payments
	timeout := time.Duration(p.TimeoutSeconds) * time.Second

	var gateways []payment.Gateway
	if p.Midtrans.Enabled {
		gateways = append(gateways, payment.NewMidtransGateway(payment.MidtransOptions{
			ServerKey: p.Midtrans.ServerKey,
			APIURL:    p.Midtrans.APIURL,
			SnapURL:   p.Midtrans.SnapURL,
			Timeout:   timeout,
		}, nil))
	}
	if p.Kkiapay.Enabled {
		gateways = append(gateways, payment.NewKkiapayGateway(payment.KkiapayOptions{
			PublicKey:  p.Kkiapay.PublicKey,
			PrivateKey: p.Kkiapay.PrivateKey,
			Secret:     p.Kkiapay.Secret,
			APIURL:     p.Kkiapay.APIURL,
			WidgetURL:  p.Kkiapay.WidgetURL,
			Sandbox:    p.Kkiapay.Sandbox,
			Timeout:    timeout,
		}, nil))
	}
	var sandbox *payment.SandboxGateway
	if p.Sandbox.Enabled {
		logger.Warn("Sandbox payment provider enabled, do not use in production")
		sandbox = payment.NewSandboxGateway(cfg.Server.PublicBaseURL, p.Sandbox.AutoComplete)
		gateways = append(gateways, sandbox)
	}

	registry := payment.NewRegistry(gateways...)
	logger.Info("Payment providers configured", "providers", registry.Providers())
	return registry, sandbox
}

func (a *App) connectEvents(ctx context.Context, cfg *config.Config) (events.MultiPublisher, service.ChangeFeed) {
	var (
		publishers events.MultiPublisher
		feed       service.ChangeFeed
	)

	if len(cfg.Kafka.Brokers) > 0 {
		producer, err := events.NewKafkaPublisher(cfg.Kafka.Brokers, cfg.Kafka.Topic, cfg.Kafka.ClientID)
		if err != nil {
			logger.Warn("Kafka unavailable, booking events will not be published", "brokers", cfg.Kafka.Brokers, "error", err)
		} else {
			publishers = append(publishers, producer)
			a.closers = append(a.closers, producer.Close)
			logger.Info("Kafka publisher connected", "topic", cfg.Kafka.Topic)
		}
	}

	if cfg.Redis.Addr != "" {
		client, err := events.NewRedisClient(ctx, events.RedisOptions{
			Addr:      cfg.Redis.Addr,
			Password:  cfg.Redis.Password,
			DB:        cfg.Redis.DB,
			EnableTLS: cfg.Redis.EnableTLS,
			Prefix:    cfg.Redis.ChannelPrefix,
		})
		if err != nil {
			logger.Warn("Redis unavailable, availability streams disabled", "addr", cfg.Redis.Addr, "error", err)
		} else {
			redisFeed := events.NewRedisFeed(client, cfg.Redis.ChannelPrefix)
			publishers = append(publishers, redisFeed)
			feed = redisFeed
			a.closers = append(a.closers, client.Close)
			logger.Info("Redis change feed connected", "addr", cfg.Redis.Addr)
		}
	}

	return publishers, feed
}

func newSinks(ctx context.Context, cfg *config.Config) []notify.Sink {
	n := cfg.Notifications
	var sinks []notify.Sink
	if n.SendGridAPIKey != "" && n.FromEmail != "" {
		sinks = append(sinks, notify.NewEmailSink(n.SendGridAPIKey, n.FromEmail, n.FromName))
	}
	if n.FirebaseCredentials != "" {
		push, err := notify.NewPushSink(ctx, n.FirebaseCredentials)
		if err != nil {
			logger.Warn("Push notifications disabled", "error", err)
		} else {
			sinks = append(sinks, push)
		}
	}
	return sinks
}

// Ping fails when the database is unreachable.
func Ping(ctx context.Context, db *sql.DB) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("ping database: %w", err)
	}
	return nil
}
