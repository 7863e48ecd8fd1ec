// Package messaging consumes order events from RabbitMQ and applies them to
// persisted stock. The listener makes exactly one attempt per delivery:
// success acks, any failure nacks without requeue so the broker routes the
// message to the dead-letter queue.
package messaging

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"catalogd/internal/models"
	"catalogd/internal/services"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

type Config struct {
	Host     string `mapstructure:"host"`
	Port     int64  `mapstructure:"port"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`

	Exchange   string `mapstructure:"exchange"`
	Queue      string `mapstructure:"queue"`
	RoutingKey string `mapstructure:"routing_key"`
	DLX        string `mapstructure:"dlx"`
	DLQ        string `mapstructure:"dlq"`
}

func (c *Config) url() string {
	return fmt.Sprintf("amqp://%s:%s@%s:%d/", c.Username, c.Password, c.Host, c.Port)
}

type Consumer struct {
	config    *Config
	conn      *amqp.Connection
	channel   *amqp.Channel
	inventory services.InventoryService
	logger    *zap.Logger
}

func NewConsumer(config *Config, inventory services.InventoryService, logger *zap.Logger) (*Consumer, error) {
	conn, err := amqp.DialConfig(config.url(), amqp.Config{})
	if err != nil {
		return nil, fmt.Errorf("dial AMQP broker: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open AMQP channel: %w", err)
	}

	c := &Consumer{
		config:    config,
		conn:      conn,
		channel:   channel,
		inventory: inventory,
		logger:    logger,
	}
	if err := c.declareTopology(); err != nil {
		c.Close()
		return nil, err
	}
	c.watchClose()
	return c, nil
}

// declareTopology declares the adjustment queue with its dead-letter wiring:
// rejected deliveries leave through the DLX and land on the DLQ for operator
// inspection.
func (c *Consumer) declareTopology() error {
	if err := c.channel.ExchangeDeclare(c.config.Exchange, "topic", true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare exchange %s: %w", c.config.Exchange, err)
	}
	if err := c.channel.ExchangeDeclare(c.config.DLX, "direct", true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare dead-letter exchange %s: %w", c.config.DLX, err)
	}

	if _, err := c.channel.QueueDeclare(c.config.DLQ, true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare dead-letter queue %s: %w", c.config.DLQ, err)
	}
	if err := c.channel.QueueBind(c.config.DLQ, c.config.DLQ, c.config.DLX, false, nil); err != nil {
		return fmt.Errorf("bind dead-letter queue %s: %w", c.config.DLQ, err)
	}

	args := amqp.Table{
		"x-dead-letter-exchange":    c.config.DLX,
		"x-dead-letter-routing-key": c.config.DLQ,
	}
	if _, err := c.channel.QueueDeclare(c.config.Queue, true, false, false, false, args); err != nil {
		return fmt.Errorf("declare queue %s: %w", c.config.Queue, err)
	}
	if err := c.channel.QueueBind(c.config.Queue, c.config.RoutingKey, c.config.Exchange, false, nil); err != nil {
		return fmt.Errorf("bind queue %s: %w", c.config.Queue, err)
	}
	return nil
}

func (c *Consumer) watchClose() {
	connClose := c.conn.NotifyClose(make(chan *amqp.Error, 1))
	chanClose := c.channel.NotifyClose(make(chan *amqp.Error, 1))
	cancel := c.channel.NotifyCancel(make(chan string, 1))

	go func() {
		select {
		case err := <-connClose:
			if err != nil {
				c.logger.Error("AMQP connection terminated", zap.Error(err))
			}
		case err := <-chanClose:
			if err != nil {
				c.logger.Error("AMQP channel terminated", zap.Error(err))
				c.conn.Close()
			}
		case tag := <-cancel:
			c.logger.Error("AMQP basic cancel received, queue may have been deleted",
				zap.String("consumer_tag", tag))
			c.conn.Close()
		}
	}()
}

// Start blocks consuming deliveries until the context is cancelled or the
// delivery stream closes.
func (c *Consumer) Start(ctx context.Context) error {
	deliveries, err := c.channel.Consume(c.config.Queue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("consume from queue %s: %w", c.config.Queue, err)
	}

	c.logger.Info("stock reconciliation listener started", zap.String("queue", c.config.Queue))
	for {
		select {
		case <-ctx.Done():
			c.logger.Info("context done, stopping listener")
			return nil
		case delivery, ok := <-deliveries:
			if !ok {
				c.logger.Info("delivery stream closed, stopping listener")
				return nil
			}
			c.handle(ctx, delivery)
		}
	}
}

// handle runs the single-attempt state machine for one delivery. Rejection
// causes are logged distinctly but all reach the transport the same way: a
// nack without requeue, which dead-letters the message.
func (c *Consumer) handle(ctx context.Context, delivery amqp.Delivery) {
	var adjustment models.StockAdjustment
	if err := json.Unmarshal(delivery.Body, &adjustment); err != nil {
		c.logger.Error("rejecting malformed adjustment event", zap.Error(err))
		c.reject(delivery)
		return
	}

	err := c.inventory.ApplyAdjustment(ctx, &adjustment)
	switch {
	case err == nil:
		if ackErr := delivery.Ack(false); ackErr != nil {
			c.logger.Error("failed to ack delivery", zap.Error(ackErr))
		}
	case errors.Is(err, services.ErrInventoryNotFound):
		c.logger.Error("rejecting adjustment, no inventory for product",
			zap.Int64("product_id", adjustment.ProductID), zap.Error(err))
		c.reject(delivery)
	case errors.Is(err, services.ErrInsufficientStock):
		c.logger.Error("rejecting adjustment, insufficient stock",
			zap.Int64("product_id", adjustment.ProductID),
			zap.Int("amount_ordered", adjustment.AmountOrdered), zap.Error(err))
		c.reject(delivery)
	case errors.Is(err, services.ErrInvalidAdjustment):
		c.logger.Error("rejecting invalid adjustment event",
			zap.Int64("product_id", adjustment.ProductID), zap.Error(err))
		c.reject(delivery)
	default:
		c.logger.Error("rejecting adjustment after store failure",
			zap.Int64("product_id", adjustment.ProductID), zap.Error(err))
		c.reject(delivery)
	}
}

func (c *Consumer) reject(delivery amqp.Delivery) {
	if err := delivery.Nack(false, false); err != nil {
		c.logger.Error("failed to nack delivery", zap.Error(err))
	}
}

func (c *Consumer) Close() error {
	if c.channel != nil {
		c.channel.Close()
	}
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}
