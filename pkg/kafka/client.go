package kafka

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/angelmondragon/settlement-archiver/pkg/config"
	"github.com/angelmondragon/settlement-archiver/pkg/logger"
	"github.com/segmentio/kafka-go"
)

type Message = kafka.Message

const (
	defaultMaxWait     = 500 * time.Millisecond
	defaultDialTimeout = 5 * time.Second
)

// Client owns the consumer-group reader and the writer for the event topic.
type Client struct {
	cfg    config.KafkaConfig
	reader *kafka.Reader
	writer *kafka.Writer
	dialer *kafka.Dialer
}

func NewClient(cfg config.KafkaConfig, logg *logger.Logger) (*Client, error) {
	brokers := cfg.BrokerList()
	if len(brokers) == 0 {
		return nil, errors.New("kafka brokers are required")
	}
	if cfg.Topic == "" {
		return nil, errors.New("kafka topic is required")
	}
	if cfg.GroupID == "" {
		return nil, errors.New("kafka group id is required")
	}

	dialer := &kafka.Dialer{
		ClientID: cfg.ClientID,
		Timeout:  defaultDialTimeout,
	}

	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:     brokers,
		GroupID:     cfg.GroupID,
		Topic:       cfg.Topic,
		Dialer:      dialer,
		StartOffset: kafka.FirstOffset,
		MinBytes:    1,
		MaxBytes:    10e6,
		MaxWait:     defaultMaxWait,
	})

	writer := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        cfg.Topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireAll,
		Async:        false,
	}

	if logg != nil {
		logg.Info(logg.WithFields(context.Background(), map[string]any{
			"topic":    cfg.Topic,
			"group_id": cfg.GroupID,
		}), "kafka client initialized")
	}

	return &Client{cfg: cfg, reader: reader, writer: writer, dialer: dialer}, nil
}

func (c *Client) Reader() *kafka.Reader {
	if c == nil {
		return nil
	}
	return c.reader
}

// Publish writes one keyed message to the event topic and waits for the ack.
func (c *Client) Publish(ctx context.Context, key, value []byte) error {
	if c == nil || c.writer == nil {
		return errors.New("kafka writer not initialized")
	}
	if err := c.writer.WriteMessages(ctx, kafka.Message{Key: key, Value: value}); err != nil {
		return fmt.Errorf("write message to %s: %w", c.cfg.Topic, err)
	}
	return nil
}

// Ping dials the first reachable broker.
func (c *Client) Ping(ctx context.Context) error {
	if c == nil {
		return errors.New("kafka client not initialized")
	}
	var lastErr error
	for _, broker := range c.cfg.BrokerList() {
		conn, err := c.dialer.DialContext(ctx, "tcp", broker)
		if err != nil {
			lastErr = err
			continue
		}
		return conn.Close()
	}
	if lastErr == nil {
		lastErr = errors.New("no brokers configured")
	}
	return fmt.Errorf("dial kafka: %w", lastErr)
}

func (c *Client) Close() error {
	if c == nil {
		return nil
	}
	var errs []error
	if c.reader != nil {
		if err := c.reader.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close reader: %w", err))
		}
	}
	if c.writer != nil {
		if err := c.writer.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close writer: %w", err))
		}
	}
	return errors.Join(errs...)
}
