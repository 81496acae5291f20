package main

// GET  /products?q=            - list or filter the catalogue
// GET  /products/barcode/{bc}  - look up one product
// POST /scan                   - barcode or name lookup straight into the cart
// GET  /cart                   - current cart, item count and total
// POST /cart/add|quantity|remove|clear
// POST /checkout/order         - record the cart as a sale
// GET  /sales, /sales/{id}     - sales history
// POST /sales/{id}/receipt, /receipt
// /inventory/...               - product admin and CSV export (X-Admin-Password)

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"point-of-sale/backup"
	"point-of-sale/config"
	"point-of-sale/handler"
	"point-of-sale/service"
	"point-of-sale/store"
	"point-of-sale/telemetry"

	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to the YAML config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		zap.NewExample().Fatal("config", zap.Error(err))
	}

	logger, err := newLogger(cfg.Log)
	if err != nil {
		zap.NewExample().Fatal("logger", zap.Error(err))
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Fatal("point of sale stopped", zap.Error(err))
	}
}

func newLogger(c config.Log) (*zap.Logger, error) {
	zc := zap.NewProductionConfig()
	if c.Development {
		zc = zap.NewDevelopmentConfig()
	}
	level, err := zap.ParseAtomicLevel(c.Level)
	if err != nil {
		return nil, err
	}
	zc.Level = level
	return zc.Build()
}

func run(ctx context.Context, cfg config.Config, logger *zap.Logger) error {
	// --- Telemetry ---
	shutdownTelemetry, err := telemetry.Init(ctx, cfg.Telemetry.OTLPEndpoint, cfg.Telemetry.ServiceName)
	if err != nil {
		return err
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTelemetry(sctx); err != nil {
			logger.Warn("telemetry shutdown", zap.Error(err))
		}
	}()

	// --- Store ---
	dialect := store.Dialect(cfg.Database.Driver)
	source := cfg.Database.Path
	if dialect == store.Postgres {
		source = cfg.Database.DSN
	}
	st, err := store.Open(ctx, dialect, source)
	if err != nil {
		return err
	}
	defer st.Close()
	logger.Info("database ready", zap.String("driver", cfg.Database.Driver))

	// --- Daily backup ---
	if dialect == store.SQLite && cfg.Backup.Enabled {
		path, made, err := backup.Daily(cfg.Database.Path, cfg.Backup.Dir, time.Now())
		switch {
		case err != nil:
			logger.Warn("automatic backup failed", zap.Error(err))
		case made:
			logger.Info("automatic backup written", zap.String("path", path))
		}
	}

	// --- Service ---
	svc := service.NewService(st, logger, service.Options{
		LowStockThreshold: cfg.Cart.LowStockThreshold,
		ReceiptsDir:       cfg.Receipts.Dir,
	})
	if cfg.SeedSampleProducts {
		if _, err := svc.SeedSampleProducts(ctx); err != nil {
			logger.Warn("seeding sample products failed", zap.Error(err))
		}
	}
	var serviceInterface service.ServiceInterface = svc

	// --- Handlers ---
	h := handler.NewHandler(serviceInterface, logger, cfg.Admin.Password)

	// --- Router ---
	r := mux.NewRouter()
	h.RegisterRoutes(r)

	// --- Server ---
	srv := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      r,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  30 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		logger.Info("server running", zap.String("addr", cfg.Server.Addr))
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	sctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(sctx)
}
