package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/annel0/mmo-multipart/internal/logging"
)

// NATSInvalidator реализует CacheInvalidator поверх NATS Pub/Sub.
// Узел, сохранивший контейнер, сообщает остальным, что их локальная копия устарела.
type NATSInvalidator struct {
	conn    *nats.Conn
	config  *InvalidatorConfig
	subject string
	nodeID  string
	logger  *logging.Logger

	subscription *nats.Subscription
	handler      InvalidationHandler

	stopCh chan struct{}
	wg     sync.WaitGroup

	// Дедупликация
	recentKeys map[string]time.Time
	keysMutex  sync.Mutex

	publishedCount int64
	receivedCount  int64
	errorsCount    int64
}

// InvalidatorConfig содержит конфигурацию для NATS invalidator.
type InvalidatorConfig struct {
	NATSURL string `yaml:"nats_url"`
	Subject string `yaml:"subject"`

	MaxReconnects int           `yaml:"max_reconnects"`
	ReconnectWait time.Duration `yaml:"reconnect_wait"`

	// Повторная инвалидация того же ключа внутри окна не рассылается
	DedupeWindow time.Duration `yaml:"dedupe_window"`
}

// InvalidationMessage представляет сообщение об инвалидации кеша.
type InvalidationMessage struct {
	Key       string    `json:"key"`
	Timestamp time.Time `json:"timestamp"`
	NodeID    string    `json:"node_id"`
}

func (c *InvalidatorConfig) withDefaults() {
	if c.Subject == "" {
		c.Subject = "multipart.cache.invalidate"
	}
	if c.MaxReconnects == 0 {
		c.MaxReconnects = 10
	}
	if c.ReconnectWait == 0 {
		c.ReconnectWait = 2 * time.Second
	}
	if c.DedupeWindow == 0 {
		c.DedupeWindow = time.Second
	}
}

// NewNATSInvalidator подключается к NATS. nodeID отличает собственные сообщения.
func NewNATSInvalidator(config *InvalidatorConfig, nodeID string, logger *logging.Logger) (*NATSInvalidator, error) {
	config.withDefaults()
	if logger == nil {
		logger = logging.GetStorageLogger()
	}

	opts := []nats.Option{
		nats.Name("multipart-cache-" + nodeID),
		nats.MaxReconnects(config.MaxReconnects),
		nats.ReconnectWait(config.ReconnectWait),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			logger.Warn("NATS disconnected: %v", err)
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logger.Info("NATS reconnected to %s", nc.ConnectedUrl())
		}),
	}

	conn, err := nats.Connect(config.NATSURL, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	inv := newInvalidator(config, nodeID, logger)
	inv.conn = conn
	inv.startDedupeCleanup()

	logger.Info("NATS invalidator initialized: %s (subject: %s)", config.NATSURL, config.Subject)
	return inv, nil
}

func newInvalidator(config *InvalidatorConfig, nodeID string, logger *logging.Logger) *NATSInvalidator {
	return &NATSInvalidator{
		config:     config,
		subject:    config.Subject,
		nodeID:     nodeID,
		logger:     logger,
		stopCh:     make(chan struct{}),
		recentKeys: make(map[string]time.Time),
	}
}

// PublishInvalidation отправляет уведомление об инвалидации ключа.
func (n *NATSInvalidator) PublishInvalidation(_ context.Context, key string) error {
	if n.isDuplicate(key) {
		return nil
	}

	data, err := json.Marshal(&InvalidationMessage{Key: key, Timestamp: time.Now(), NodeID: n.nodeID})
	if err != nil {
		atomic.AddInt64(&n.errorsCount, 1)
		return fmt.Errorf("failed to marshal invalidation message: %w", err)
	}

	if err := n.conn.Publish(n.subject, data); err != nil {
		atomic.AddInt64(&n.errorsCount, 1)
		return fmt.Errorf("failed to publish invalidation for %s: %w", key, err)
	}

	n.recordKey(key)
	atomic.AddInt64(&n.publishedCount, 1)
	return nil
}

// SubscribeInvalidations подписывается на уведомления об инвалидации.
func (n *NATSInvalidator) SubscribeInvalidations(ctx context.Context, handler InvalidationHandler) error {
	if n.subscription != nil {
		return fmt.Errorf("already subscribed to invalidations")
	}
	n.handler = handler

	sub, err := n.conn.Subscribe(n.subject, func(msg *nats.Msg) { n.handleData(msg.Data) })
	if err != nil {
		return fmt.Errorf("failed to subscribe to invalidations: %w", err)
	}
	n.subscription = sub

	n.wg.Add(1)
	go func() {
		defer n.wg.Done()
		select {
		case <-ctx.Done():
		case <-n.stopCh:
		}
		if err := sub.Unsubscribe(); err != nil && err != nats.ErrConnectionClosed {
			n.logger.Warn("Failed to unsubscribe from invalidations: %v", err)
		}
	}()

	n.logger.Info("Subscribed to cache invalidations on subject: %s", n.subject)
	return nil
}

// Close закрывает соединение с NATS.
func (n *NATSInvalidator) Close() error {
	close(n.stopCh)
	n.wg.Wait()
	if n.conn != nil {
		n.conn.Close()
	}
	return nil
}

// Stats возвращает счётчики invalidator.
func (n *NATSInvalidator) Stats() (published, received, errs int64) {
	return atomic.LoadInt64(&n.publishedCount), atomic.LoadInt64(&n.receivedCount), atomic.LoadInt64(&n.errorsCount)
}

// handleData обрабатывает входящее сообщение об инвалидации.
func (n *NATSInvalidator) handleData(data []byte) {
	atomic.AddInt64(&n.receivedCount, 1)

	var msg InvalidationMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		atomic.AddInt64(&n.errorsCount, 1)
		n.logger.Warn("Failed to unmarshal invalidation message: %v", err)
		return
	}
	if msg.NodeID == n.nodeID || n.handler == nil {
		return
	}
	if err := n.handler(msg.Key); err != nil {
		atomic.AddInt64(&n.errorsCount, 1)
		n.logger.Warn("Invalidation handler failed for key %s: %v", msg.Key, err)
	}
}

func (n *NATSInvalidator) isDuplicate(key string) bool {
	n.keysMutex.Lock()
	defer n.keysMutex.Unlock()
	lastSeen, ok := n.recentKeys[key]
	return ok && time.Since(lastSeen) < n.config.DedupeWindow
}

func (n *NATSInvalidator) recordKey(key string) {
	n.keysMutex.Lock()
	n.recentKeys[key] = time.Now()
	n.keysMutex.Unlock()
}

// startDedupeCleanup периодически удаляет устаревшие записи дедупликации.
func (n *NATSInvalidator) startDedupeCleanup() {
	n.wg.Add(1)
	go func() {
		defer n.wg.Done()
		ticker := time.NewTicker(n.config.DedupeWindow)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				n.cleanupDedupe()
			case <-n.stopCh:
				return
			}
		}
	}()
}

func (n *NATSInvalidator) cleanupDedupe() {
	n.keysMutex.Lock()
	defer n.keysMutex.Unlock()
	now := time.Now()
	for key, ts := range n.recentKeys {
		if now.Sub(ts) > n.config.DedupeWindow {
			delete(n.recentKeys, key)
		}
	}
}
