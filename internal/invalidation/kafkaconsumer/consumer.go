// Package kafkaconsumer applies route invalidation events from Kafka to the route cache.
package kafkaconsumer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/IBM/sarama"
	"github.com/rs/zerolog"

	obs "github.com/mohammed-shakir/lkw-route-density/internal/core/observability"
	"github.com/mohammed-shakir/lkw-route-density/internal/invalidation"
	mylog "github.com/mohammed-shakir/lkw-route-density/internal/logger"
)

// RouteInvalidator drops every cached geometry of one route.
type RouteInvalidator interface {
	DeleteRoute(ctx context.Context, name string) (int, error)
}

type Consumer struct {
	cfg    Config
	logger *slog.Logger
	zlog   *zerolog.Logger
	cache  RouteInvalidator
	dedupe *idDedupe
}

func New(cfg Config, logger *slog.Logger, zl *zerolog.Logger, c RouteInvalidator) *Consumer {
	if logger == nil {
		logger = slog.Default()
	}
	if zl == nil {
		nop := zerolog.Nop()
		zl = &nop
	}
	return &Consumer{
		cfg:    cfg,
		logger: logger,
		zlog:   zl,
		cache:  c,
		dedupe: newIDDedupe(cfg.DedupeSize),
	}
}

// Start blocks consuming the invalidation topic until ctx is canceled.
func (c *Consumer) Start(ctx context.Context) error {
	if c.cache == nil {
		return errors.New("kafkaconsumer: missing route cache")
	}
	if len(c.cfg.Brokers) == 0 || c.cfg.Topic == "" || c.cfg.GroupID == "" {
		return errors.New("kafkaconsumer: brokers, topic and group id are required")
	}

	cfg := sarama.NewConfig()
	cfg.Version = sarama.V2_1_0_0
	cfg.Consumer.Group.Session.Timeout = c.cfg.SessionTimeout
	cfg.Consumer.Group.Heartbeat.Interval = c.cfg.Heartbeat
	cfg.Consumer.Group.Rebalance.Timeout = c.cfg.RebalanceTimeout
	if c.cfg.InitialOffsetOldest {
		cfg.Consumer.Offsets.Initial = sarama.OffsetOldest
	} else {
		cfg.Consumer.Offsets.Initial = sarama.OffsetNewest
	}
	cfg.Consumer.Offsets.AutoCommit.Enable = true

	group, err := sarama.NewConsumerGroup(c.cfg.Brokers, c.cfg.GroupID, cfg)
	if err != nil {
		return fmt.Errorf("create consumer group: %w", err)
	}
	defer func() { _ = group.Close() }()

	handler := &groupHandler{process: c.ProcessOne}

	c.logger.Info("kafka invalidation consumer starting",
		"brokers", c.cfg.Brokers, "topic", c.cfg.Topic, "group", c.cfg.GroupID)

	for {
		delay := time.Duration(0)
		if err := group.Consume(ctx, []string{c.cfg.Topic}, handler); err != nil {
			obs.IncKafkaConsumerError("consume")
			c.zlog.Error().Err(err).
				Strs("brokers", c.cfg.Brokers).
				Str("topic", c.cfg.Topic).
				Msg("kafka consumer error")
			delay = 2 * time.Second
		}
		select {
		case <-ctx.Done():
			c.logger.Info("kafka invalidation consumer shutting down")
			return nil
		case <-time.After(delay):
		}
	}
}

// ProcessOne applies one message. Undecodable or invalid events are skipped so
// they do not block the partition; cache failures are returned for redelivery.
func (c *Consumer) ProcessOne(ctx context.Context, msg *sarama.ConsumerMessage) error {
	start := time.Now()
	ctx = mylog.WithComponent(ctx, "kafka_consumer")

	var ev invalidation.Event
	if err := json.Unmarshal(msg.Value, &ev); err != nil {
		obs.IncKafkaConsumerError("decode")
		obs.IncInvalidation("invalid")
		mylog.FromContext(ctx, c.zlog).Error().Err(err).
			Str("kind", "decode").
			Str("topic", msg.Topic).
			Int32("partition", msg.Partition).
			Int64("offset", msg.Offset).
			Msg("kafka error")
		return nil
	}
	if err := ev.Validate(); err != nil {
		obs.IncKafkaConsumerError("validate")
		obs.IncInvalidation("invalid")
		mylog.FromContext(ctx, c.zlog).Warn().Err(err).
			Str("kind", "validate").
			Int64("offset", msg.Offset).
			Msg("invalid invalidation event")
		return nil
	}
	if c.dedupe.seen(ev.ID) {
		obs.IncInvalidation("duplicate")
		c.logger.Debug("duplicate invalidation event", "id", ev.ID)
		return nil
	}

	removed := 0
	for _, name := range ev.Routes {
		n, err := c.cache.DeleteRoute(ctx, name)
		removed += n
		if err != nil {
			obs.IncKafkaConsumerError("cache_delete")
			obs.IncInvalidation("error")
			mylog.FromContext(mylog.WithRoute(ctx, name), c.zlog).Error().Err(err).
				Str("kind", "cache_delete").
				Int32("partition", msg.Partition).
				Int64("offset", msg.Offset).
				Msg("kafka error")
			return fmt.Errorf("delete route %q: %w", name, err)
		}
	}
	c.dedupe.remember(ev.ID)

	obs.IncInvalidation("ok")
	mylog.FromContext(ctx, c.zlog).Info().
		Str("event", "invalidation").
		Strs("routes", ev.Routes).
		Int("keys", removed).
		Dur("took", time.Since(start)).
		Msg("invalidated routes")
	return nil
}
