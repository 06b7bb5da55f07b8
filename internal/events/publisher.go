package events

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"
	"github.com/shopspring/decimal"
)

var ErrPublisherClosed = errors.New("publisher closed")

// OrderPlaced событие для кухни: заказ записан и ждёт приготовления
type OrderPlaced struct {
	OrderID       string          `json:"order_id"`
	Items         int             `json:"items"`
	Total         decimal.Decimal `json:"total"`
	PaymentMethod string          `json:"payment_method"`
	PlacedAt      time.Time       `json:"placed_at"`
}

type Publisher interface {
	PublishOrderPlaced(ctx context.Context, e OrderPlaced) error
	Close() error
}

// Nop используется, когда брокер не настроен
type Nop struct{}

func (Nop) PublishOrderPlaced(context.Context, OrderPlaced) error { return nil }
func (Nop) Close() error                                          { return nil }

type KafkaConfig struct {
	Brokers      []string
	Topic        string
	BatchTimeout time.Duration
	MaxAttempts  int
}

// Kafka публикует события синхронно, ключ сообщения = id заказа
type Kafka struct {
	writer *kafka.Writer
	closed atomic.Bool
}

func NewKafka(cfg KafkaConfig, log zerolog.Logger) *Kafka {
	l := log.With().Str("component", "kafka_publisher").Logger()
	w := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        cfg.Topic,
		Balancer:     &kafka.Hash{},
		BatchTimeout: cfg.BatchTimeout,
		RequiredAcks: kafka.RequireAll,
		MaxAttempts:  cfg.MaxAttempts,
		Async:        false,
		Transport: &kafka.Transport{
			Dial: func(ctx context.Context, network string, address string) (net.Conn, error) {
				dialer := &kafka.Dialer{
					Timeout:   10 * time.Second,
					DualStack: true,
					KeepAlive: 30 * time.Second,
				}
				return dialer.DialContext(ctx, network, address)
			},
		},
		ErrorLogger: kafka.LoggerFunc(func(msg string, args ...interface{}) {
			l.Error().Msgf(msg, args...)
		}),
	}
	return &Kafka{writer: w}
}

func (k *Kafka) PublishOrderPlaced(ctx context.Context, e OrderPlaced) error {
	if k.closed.Load() {
		return ErrPublisherClosed
	}
	msg, err := orderPlacedMessage(e)
	if err != nil {
		return err
	}
	return k.writer.WriteMessages(ctx, msg)
}

func (k *Kafka) Close() error {
	if !k.closed.CompareAndSwap(false, true) {
		return nil
	}
	return k.writer.Close()
}

func orderPlacedMessage(e OrderPlaced) (kafka.Message, error) {
	body, err := json.Marshal(e)
	if err != nil {
		return kafka.Message{}, err
	}
	return kafka.Message{
		Key:   []byte(e.OrderID),
		Value: body,
		Time:  e.PlacedAt,
		Headers: []kafka.Header{
			{Key: "event", Value: []byte("order_placed")},
		},
	}, nil
}
