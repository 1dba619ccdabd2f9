package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	appPayment "github.com/Zhima-Mochi/minishop-payment/internal/application/payment"
	"github.com/Zhima-Mochi/minishop-payment/internal/config"
	"github.com/Zhima-Mochi/minishop-payment/internal/infrastructure/collaborator"
	"github.com/Zhima-Mochi/minishop-payment/internal/infrastructure/id"
	infraobs "github.com/Zhima-Mochi/minishop-payment/internal/infrastructure/observability"
	"github.com/Zhima-Mochi/minishop-payment/internal/infrastructure/observability/oteltrace"
	"github.com/Zhima-Mochi/minishop-payment/internal/infrastructure/observability/prometrics"
	"github.com/Zhima-Mochi/minishop-payment/internal/infrastructure/observability/telemetry"
	"github.com/Zhima-Mochi/minishop-payment/internal/infrastructure/observability/zaplogger"
	"github.com/Zhima-Mochi/minishop-payment/internal/infrastructure/rabbitmq"
	"github.com/Zhima-Mochi/minishop-payment/internal/observability"
	"github.com/Zhima-Mochi/minishop-payment/internal/pkg/logging"
	httppresentation "github.com/Zhima-Mochi/minishop-payment/internal/presentation/http"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	baseLogger := logging.MustNewLogger(logging.Options{
		Service: cfg.ServiceName,
		Env:     cfg.Env,
		Level:   cfg.LogLevel,
		File:    cfg.LogFile,
	})
	defer func() { _ = baseLogger.Sync() }()
	zap.ReplaceGlobals(baseLogger)

	systemLogger := logging.WithTrace(baseLogger, logging.SystemTraceID, logging.SystemSpanID)
	logger := zaplogger.New(baseLogger)

	shutdownTracing, err := telemetry.Setup(context.Background(), cfg.ServiceName, cfg.Env, cfg.OTLPEndpoint)
	if err != nil {
		systemLogger.Fatal("telemetry_setup_failed", zap.Error(err))
	}

	counters, histograms := prometrics.Instruments(prometrics.New("", "", prometheus.DefaultRegisterer))
	tel := infraobs.New(oteltrace.New(cfg.ServiceName), logger, counters, histograms)

	publisher := rabbitmq.NewPublisher(cfg.AMQPURL(), logger)

	httpClient := collaborator.NewHTTPClient(cfg.HTTPTimeout)
	checkout := appPayment.NewCheckoutUseCase(appPayment.Dependencies{
		Users:     collaborator.NewUserClient(cfg.UserURL(), httpClient),
		Carts:     collaborator.NewCartClient(cfg.CartURL(), httpClient),
		Gateway:   collaborator.NewGatewayClient(cfg.PaymentGateway, httpClient),
		Publisher: publisher,
		IDs:       id.NewUUIDGenerator(),
	}, tel, appPayment.WithPublishDelay(cfg.PublishDelay))

	handler := httppresentation.NewHandler(checkout, promhttp.Handler(), logger, tel)

	server := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           handler.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		systemLogger.Info("http_server_start",
			zap.String("addr", server.Addr),
			zap.String("cart_url", cfg.CartURL()),
			zap.String("user_url", cfg.UserURL()),
			zap.String("payment_gateway", cfg.PaymentGateway),
			zap.Duration("publish_delay", cfg.PublishDelay),
		)
		err := server.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			systemLogger.Error("http_server_error",
				zap.Error(err),
			)
			stop()
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		systemLogger.Error("http_server_shutdown_error",
			zap.Error(err),
		)
	} else {
		systemLogger.Info("http_server_stopped")
	}

	if err := publisher.Close(); err != nil {
		logger.Warn("broker_close_failed", observability.F("error", err.Error()))
	}
	if err := shutdownTracing(shutdownCtx); err != nil {
		systemLogger.Warn("telemetry_shutdown_failed", zap.Error(err))
	}
}
