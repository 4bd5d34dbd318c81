package kafka

import (
	"context"
	"testing"

	"github.com/angelmondragon/settlement-archiver/pkg/config"
)

func TestNewClientValidatesConfig(t *testing.T) {
	cases := []struct {
		name string
		cfg  config.KafkaConfig
	}{
		{name: "no brokers", cfg: config.KafkaConfig{Brokers: " ", Topic: "t", GroupID: "g"}},
		{name: "no topic", cfg: config.KafkaConfig{Brokers: "b:9092", GroupID: "g"}},
		{name: "no group", cfg: config.KafkaConfig{Brokers: "b:9092", Topic: "t"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := NewClient(tc.cfg, nil); err == nil {
				t.Fatalf("expected error for %s", tc.name)
			}
		})
	}
}

func TestNewClientBuildsReaderAndWriter(t *testing.T) {
	c, err := NewClient(config.KafkaConfig{
		Brokers:  "localhost:9092",
		Topic:    "sickpay-events",
		GroupID:  "settlement-archiver",
		ClientID: "archiver",
	}, nil)
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	defer c.Close()

	if c.Reader() == nil {
		t.Fatal("expected reader")
	}
	if got := c.Reader().Config().GroupID; got != "settlement-archiver" {
		t.Fatalf("unexpected group id %q", got)
	}
	if c.writer.Topic != "sickpay-events" {
		t.Fatalf("unexpected writer topic %q", c.writer.Topic)
	}
}

func TestNilClient(t *testing.T) {
	var c *Client
	if c.Reader() != nil {
		t.Fatal("expected nil reader")
	}
	if err := c.Publish(context.Background(), nil, []byte("{}")); err == nil {
		t.Fatal("expected publish error on nil client")
	}
	if err := c.Close(); err != nil {
		t.Fatalf("close nil client: %v", err)
	}
}
