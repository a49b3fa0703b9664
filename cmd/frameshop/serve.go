package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/nats-io/nats.go"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"frameshop/domain"
	"frameshop/internal/admin"
	"frameshop/internal/cart"
	"frameshop/internal/checkout"
	"frameshop/internal/customizer"
	"frameshop/internal/fulfillment"
	"frameshop/internal/pricing"
	"frameshop/internal/server"
	"frameshop/pkg/cache"
	natsLocal "frameshop/pkg/nats"
)

const sweepInterval = time.Minute

var withWorkers bool

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API, the order intake subscriber and the print job publisher",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return serve(ctx)
	},
}

func serve(ctx context.Context) error {
	if withWorkers && cfg.RabbitMQ.URI == "" {
		return errors.New("--with-workers needs RABBITMQ_URI")
	}

	st, err := openStores(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		_ = st.Close()
	}()

	calc, err := pricing.NewCalculator(cfg.Pricing.Calculator())
	if err != nil {
		return err
	}
	tracking, err := checkout.NewTrackingGenerator(cfg.Tracking.Salt, cfg.Tracking.MinLength)
	if err != nil {
		return err
	}

	// without NATS the shop still takes web orders, it just does not
	// announce them nor accept orders from other systems
	var natsClient *natsLocal.Client
	if cfg.NATS.URL != "" {
		natsClient, err = natsLocal.New(cfg.NATS.URL)
		if err != nil {
			return err
		}
		defer func() {
			_ = natsClient.Close()
		}()
	} else {
		logger.Warn("NATS_URL is not set, order intake and events are disabled")
	}

	var (
		rabbit    *amqp.Connection
		printJobs admin.PrintQueue
	)
	if cfg.RabbitMQ.URI != "" {
		rabbit, err = amqp.Dial(cfg.RabbitMQ.URI)
		if err != nil {
			return fmt.Errorf("failed to connect to RabbitMQ: %w", err)
		}
		defer func() {
			_ = rabbit.Close()
		}()

		publisher, err := fulfillment.NewPublisher(rabbit, cfg.RabbitMQ.Queue)
		if err != nil {
			return err
		}
		defer func() {
			_ = publisher.Close()
		}()
		printJobs = publisher
	} else {
		logger.Warn("RABBITMQ_URI is not set, paid orders are not sent to print")
	}

	orderCache := cache.NewInMemory[domain.Order]()
	sessions := customizer.NewStore(cache.NewInMemory[*customizer.Session](), cfg.SessionTTL())

	deps := checkout.Deps{
		Carts:         cart.NewMemoryStore(),
		Orders:        st.orders,
		Products:      st.products,
		Catalog:       st.options,
		Calculator:    calc,
		Tracking:      tracking,
		EventsSubject: cfg.NATS.EventsSubject,
		Logger:        logger.Named("checkout"),
	}
	handlerDeps := server.Deps{
		Products:      st.products,
		Catalog:       st.options,
		Blogs:         st.blogs,
		Carts:         deps.Carts,
		Sessions:      sessions,
		Cache:         orderCache,
		CacheTTL:      cfg.OrderCacheTTL(),
		IntakeSubject: cfg.NATS.IntakeSubject,
		MaxFrames:     cfg.Pricing.MaxFrames,
		Logger:        logger.Named("http"),
	}
	if natsClient != nil {
		deps.Publisher = natsClient
		handlerDeps.Publisher = natsClient
	}
	checkoutService := checkout.NewService(deps)
	handlerDeps.Checkout = checkoutService
	handlerDeps.Admin = admin.NewService(st.orders, orderCache, printJobs, logger.Named("admin"))

	ln, err := net.Listen(fiber.NetworkTCP4, cfg.HTTP.Address)
	if err != nil {
		return fmt.Errorf("failed to get http listener: %w", err)
	}

	app := server.NewApp(cfg.HTTP.Templates, cfg.HTTP.ServerHeader, logger.Named("http"))
	server.NewHandler(handlerDeps).MountRoutes(app)

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("http server started", zap.String("address", ln.Addr().String()))
		if err := app.Listener(ln); err != nil {
			return fmt.Errorf("failed to start http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		shutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return app.ShutdownWithContext(shutdown)
	})

	if natsClient != nil {
		err = natsClient.Subscribe(cfg.NATS.IntakeSubject, func(msg *nats.Msg) {
			order, err := checkoutService.Intake(ctx, msg.Data)
			if err != nil {
				logger.Warn("dropped intake message", zap.String("subject", msg.Subject), zap.Error(err))
				return
			}
			logger.Info("order received", zap.String("order", order.ID), zap.String("tracking", order.TrackingNumber))
		})
		if err != nil {
			// without the intake the shop cannot do all of its work
			return fmt.Errorf("failed to subscribe %s: %w", cfg.NATS.IntakeSubject, err)
		}
	}

	if withWorkers {
		pool := fulfillment.NewPool(fulfillment.MarkProcessing(handlerDeps.Admin, logger.Named("print")),
			cfg.RabbitMQ.Workers, cfg.RabbitMQ.Prefetch, logger.Named("print"))
		g.Go(func() error {
			return pool.Run(ctx, rabbit, cfg.RabbitMQ.Queue)
		})
	}

	g.Go(func() error {
		ticker := time.NewTicker(sweepInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return nil
			case <-ticker.C:
				if n := sessions.Sweep(); n > 0 {
					logger.Debug("expired customizer sessions dropped", zap.Int("count", n))
				}
				orderCache.Sweep()
			}
		}
	})

	if err = g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	logger.Info("shutdown complete")
	return nil
}
