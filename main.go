package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	appcart "github.com/Zhima-Mochi/candyshop/internal/application/cart"
	appinventory "github.com/Zhima-Mochi/candyshop/internal/application/inventory"
	apporder "github.com/Zhima-Mochi/candyshop/internal/application/order"
	"github.com/Zhima-Mochi/candyshop/internal/domain/catalog"
	"github.com/Zhima-Mochi/candyshop/internal/domain/customer"
	"github.com/Zhima-Mochi/candyshop/internal/domain/order"
	"github.com/Zhima-Mochi/candyshop/internal/infrastructure/eventbus"
	"github.com/Zhima-Mochi/candyshop/internal/infrastructure/memory"
	"github.com/Zhima-Mochi/candyshop/internal/infrastructure/observability/oteltrace"
	"github.com/Zhima-Mochi/candyshop/internal/infrastructure/observability/prometrics"
	"github.com/Zhima-Mochi/candyshop/internal/infrastructure/observability/telemetry"
	"github.com/Zhima-Mochi/candyshop/internal/infrastructure/observability/zaplogger"
	"github.com/Zhima-Mochi/candyshop/internal/observability"
	"github.com/Zhima-Mochi/candyshop/internal/pkg/logging"
	httppresentation "github.com/Zhima-Mochi/candyshop/internal/presentation/http"
)

func main() {
	serviceName := getenvDefault("SERVICE_NAME", "candyshop")
	env := getenvDefault("ENV", "dev")
	addr := getenvDefault("ADDR", ":8080")

	baseLogger := logging.MustNewLogger(serviceName, env)
	defer func() { _ = baseLogger.Sync() }()
	zap.ReplaceGlobals(baseLogger)

	systemLogger := logging.WithTrace(baseLogger, logging.SystemTraceID, logging.SystemSpanID)

	logger := zaplogger.Wrap(baseLogger)

	registry := prometrics.New(serviceName, "")
	counters := map[observability.MetricKey]observability.Counter{
		observability.MUsecaseRequests: registry.Counter(observability.MUsecaseRequests,
			"Total number of use case invocations.", "use_case", "outcome"),
		observability.MHTTPRequests: registry.Counter(observability.MHTTPRequests,
			"Total number of HTTP requests.", "method", "route", "status"),
		observability.MExternalRequests: registry.Counter(observability.MExternalRequests,
			"Total number of calls to external peers.", "peer", "endpoint", "outcome"),
		observability.MStockDeductions: registry.Counter(observability.MStockDeductions,
			"Total number of per-line stock deduction attempts.", "outcome"),
	}
	histograms := map[observability.MetricKey]observability.Histogram{
		observability.MUsecaseDuration: registry.Histogram(observability.MUsecaseDuration,
			"Duration of use case execution in seconds.", prometheus.DefBuckets, "use_case"),
		observability.MHTTPRequestDuration: registry.Histogram(observability.MHTTPRequestDuration,
			"Duration of HTTP requests in seconds.", prometheus.DefBuckets, "method", "route", "status"),
		observability.MExternalRequestDuration: registry.Histogram(observability.MExternalRequestDuration,
			"Duration of calls to external peers in seconds.", prometheus.DefBuckets, "peer", "endpoint"),
	}
	tel := telemetry.New(oteltrace.New(serviceName), logger, counters, histograms)

	cat := catalog.New()
	seedCatalog(cat, systemLogger)

	orderRepo := memory.NewOrderRepository()
	seq := order.NewSequence()

	bus := eventbus.NewBus(logger)
	bus.Start(context.Background())
	defer bus.Stop(context.Background())

	shopper := customer.New(
		getenvDefault("SHOPPER_NAME", "Keanu"),
		getenvDefault("SHOPPER_EMAIL", "keanu@example.com"),
		getenvDefault("SHOPPER_PASSWORD", "sweet-tooth"),
	)

	checkout := appcart.NewCheckoutUseCase(orderRepo, seq, tel)
	confirm := apporder.NewConfirmPaymentUseCase(orderRepo, bus, tel)
	fulfillment := apporder.NewFulfillmentService(orderRepo, bus, tel)
	stock := appinventory.NewStockService(cat, orderRepo, bus, tel)

	appinventory.NewWorker(bus, stock, tel).Start()

	handler := httppresentation.NewHandler(cat, shopper, checkout, confirm, fulfillment, stock, tel)
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.Handle("/", handler.Router())

	server := &http.Server{
		Addr:    addr,
		Handler: mux,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		systemLogger.Info("http_server_start",
			zap.String("addr", server.Addr),
		)
		err := server.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			systemLogger.Error("http_server_error",
				zap.Error(err),
			)
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
}

func seedCatalog(cat *catalog.Catalog, logger *zap.Logger) {
	seed := []struct {
		id, name, price string
		quantity        int
		flavor          string
	}{
		{"candy-001", "GummyBear", "2.50", 10, "strawberry"},
		{"candy-002", "ChocoBar", "3.25", 8, "dark chocolate"},
		{"candy-003", "SourWorm", "1.75", 20, "citrus"},
		{"candy-004", "MintDrop", "0.95", 50, "peppermint"},
	}
	for _, s := range seed {
		item, err := catalog.NewItem(s.id, s.name, decimal.RequireFromString(s.price), s.quantity, s.flavor)
		if err != nil {
			logger.Error("catalog_seed_failed", zap.String("item", s.name), zap.Error(err))
			continue
		}
		if err := cat.Add(item); err != nil {
			logger.Error("catalog_seed_failed", zap.String("item", s.name), zap.Error(err))
		}
	}
	logger.Info("catalog_seeded", zap.Int("items", len(seed)))
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
