package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/annel0/mmo-multipart/internal/app"
	"github.com/annel0/mmo-multipart/internal/cache"
	"github.com/annel0/mmo-multipart/internal/config"
	"github.com/annel0/mmo-multipart/internal/eventbus"
	"github.com/annel0/mmo-multipart/internal/logging"
	"github.com/annel0/mmo-multipart/internal/multipart"
	_ "github.com/annel0/mmo-multipart/internal/multipart/parts"
	"github.com/annel0/mmo-multipart/internal/multipart/slot"
	"github.com/annel0/mmo-multipart/internal/netsync"
	"github.com/annel0/mmo-multipart/internal/observability"
	"github.com/annel0/mmo-multipart/internal/storage"
	"github.com/annel0/mmo-multipart/internal/world"
)

func main() {
	configPath := flag.String("config", "", "Путь к YAML-конфигурации (по умолчанию $MULTIPART_CONFIG)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("❌ Ошибка загрузки конфигурации: %v", err)
	}

	// Инициализируем систему логирования
	logging.SetLogDir(cfg.Logging.Dir)
	if err := logging.InitDefaultLogger(cfg.Logging.Component); err != nil {
		log.Fatalf("❌ Ошибка инициализации логирования: %v", err)
	}
	defer logging.CloseDefaultLogger()
	defer logging.GetLoggerManager().CloseAll()
	level := logging.ParseLevel(cfg.Logging.Level)
	for _, component := range []string{"multipart", "storage", "sync", "server"} {
		logging.GetLoggerManager().SetLogLevel(component, level, logging.DEBUG)
	}

	logging.Info("🧩 Запуск multipart-сервера (source=%s, mirror=%v)", cfg.Sync.Source, cfg.Sync.Mirror)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTelemetry, err := observability.InitTelemetry(ctx, cfg.Telemetry)
	if err != nil {
		logging.Error("❌ Ошибка инициализации телеметрии: %v", err)
		os.Exit(1)
	}
	defer shutdownTelemetry(context.Background())

	// === ШИНА СОБЫТИЙ ===
	bus := newBus(cfg)
	defer bus.Close()
	if _, err := eventbus.StartLoggingListener(bus, logging.GetSyncLogger()); err != nil {
		logging.Warn("LoggingListener не запущен: %v", err)
	}

	compressor := netsync.NewPassthroughCompressor()
	if cfg.Sync.Compression == "zstd" {
		if compressor, err = netsync.NewZstdCompressor(); err != nil {
			logging.Error("❌ %v", err)
			os.Exit(1)
		}
	}

	// === МЕТРИКИ ===
	busMetrics := eventbus.NewMetricsExporter(bus, prometheus.DefaultRegisterer)
	metricsSrv := busMetrics.StartHTTP(cfg.Metrics.GetAddr())
	defer busMetrics.Stop()

	// === ЯДРО ===
	slot.Default.Freeze()
	w := world.NewWorld(cfg.Sync.Mirror)
	opts := multipart.DefaultOptions()
	opts.CollapseEmpty = cfg.Multipart.GetCollapseEmpty()
	opts.MaxQueryDepth = cfg.Multipart.MaxQueryDepth
	opts.Metrics = multipart.NewMetrics(prometheus.DefaultRegisterer)

	deps := app.Deps{World: w, Logger: logging.GetComponentLogger("server")}
	if cfg.Sync.Mirror {
		consumer, err := netsync.NewConsumer(bus, cfg.Sync.Source, compressor, nil)
		if err != nil {
			logging.Error("❌ Ошибка подписки на изменения: %v", err)
			os.Exit(1)
		}
		defer consumer.Stop()
		deps.Consumer = consumer
	} else {
		deps.Notifier = netsync.NewNotifier(bus, cfg.Sync.Source, compressor, nil)
		opts.Notifier = deps.Notifier

		store, closeStore, err := openStore(ctx, cfg)
		if err != nil {
			logging.Error("❌ Ошибка открытия хранилища: %v", err)
			os.Exit(1)
		}
		defer closeStore()
		deps.Store = store
	}
	manager := multipart.NewManager(opts)
	deps.Manager = manager

	server := app.NewServer(deps)
	if _, err := server.Restore(ctx); err != nil {
		logging.Error("❌ %v", err)
		os.Exit(1)
	}
	app.AttachNeighbors(w, manager)

	logging.Info("✅ Сервер запущен: тик %v, метрики http://localhost%s/metrics", cfg.Sync.GetFlushInterval(), cfg.Metrics.GetAddr())
	server.Run(ctx, cfg.Sync.GetFlushInterval())

	// === GRACEFUL SHUTDOWN ===
	logging.Info("📡 Получен сигнал завершения, последний тик...")
	flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Step(flushCtx); err != nil {
		logging.Error("❌ Последний тик: %v", err)
	}
	if err := metricsSrv.Shutdown(flushCtx); err != nil && err != http.ErrServerClosed {
		logging.Warn("Остановка /metrics: %v", err)
	}
	logging.Info("👋 Сервер успешно остановлен")
}

// newBus подключается к JetStream, а без адреса или при ошибке работает в памяти
func newBus(cfg *config.Config) eventbus.EventBus {
	if cfg.EventBus.URL == "" {
		logging.Info("🚌 Шина событий в памяти (capacity=%d)", cfg.EventBus.Capacity)
		return eventbus.NewMemoryBus(cfg.EventBus.Capacity)
	}
	retention := time.Duration(cfg.EventBus.Retention) * time.Hour
	bus, err := eventbus.NewJetStreamBus(cfg.EventBus.URL, cfg.EventBus.Stream, retention)
	if err != nil {
		logging.Warn("JetStream недоступен (%v), шина событий в памяти", err)
		return eventbus.NewMemoryBus(cfg.EventBus.Capacity)
	}
	logging.Info("🚌 JetStream %s, стрим %s", cfg.EventBus.URL, cfg.EventBus.Stream)
	return bus
}

// openStore открывает BadgerDB и, если задан, Redis-кеш перед ним.
// Без Redis используется локальный кеш, согласуемый через NATS.
func openStore(ctx context.Context, cfg *config.Config) (storage.SnapshotRepo, func(), error) {
	badgerStore, err := storage.NewContainerStore(cfg.Storage.GetPath())
	if err != nil {
		return nil, nil, err
	}
	closers := []func(){func() { badgerStore.Close() }}
	closeAll := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	var hot cache.CacheRepo
	var invalidator cache.CacheInvalidator
	if cfg.Storage.RedisURL != "" {
		redisCache, err := cache.NewRedisCache(&cache.CacheConfig{RedisURL: cfg.Storage.RedisURL, DefaultTTL: cfg.Storage.GetCacheTTL()})
		if err != nil {
			logging.Warn("Redis недоступен (%v), используется локальный кеш", err)
		} else {
			hot = redisCache
		}
	}
	if hot == nil {
		hot = cache.NewMemoryCache(cfg.Storage.GetCacheTTL())
		if cfg.EventBus.URL != "" {
			inv, err := cache.NewNATSInvalidator(&cache.InvalidatorConfig{NATSURL: cfg.EventBus.URL}, cfg.Sync.Source, nil)
			if err != nil {
				logging.Warn("NATS-инвалидация недоступна: %v", err)
			} else {
				invalidator = inv
				closers = append(closers, func() { inv.Close() })
			}
		}
	}
	closers = append(closers, func() { hot.Close() })

	cached, err := storage.NewCachedStore(badgerStore, hot, invalidator, cfg.Storage.GetCacheTTL(), nil)
	if err != nil {
		closeAll()
		return nil, nil, err
	}
	closers = append(closers, cached.Close)
	if err := cached.Subscribe(ctx); err != nil {
		logging.Warn("Подписка на инвалидации: %v", err)
	}

	logging.Info("💾 Хранилище %s", badgerStore.Path())
	return cached, closeAll, nil
}
