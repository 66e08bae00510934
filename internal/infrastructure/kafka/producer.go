package kafka

import (
	"context"
	"fmt"
	"time"

	"github.com/DRSN-tech/storefront/internal/cfg"
	"github.com/DRSN-tech/storefront/internal/usecase"
	"github.com/DRSN-tech/storefront/pkg/e"
	"github.com/DRSN-tech/storefront/pkg/logger"
	"github.com/google/uuid"
	"github.com/jimlawless/whereami"
	"github.com/segmentio/kafka-go"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"
)

const eventType = "cart.changed"

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Producer публикует снимки корзин в Kafka. Подключается к сторам как наблюдатель,
// пишет асинхронно: ошибки доставки только логируются.
type Producer struct {
	writer messageWriter
	logger logger.Logger
	cfg    *cfg.KafkaCfg
	now    func() time.Time
}

func NewProducer(logger logger.Logger, cfg *cfg.KafkaCfg) *Producer {
	writer := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        cfg.Topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireOne,
		Async:        true,
		BatchSize:    10,
		BatchTimeout: cfg.BatchTimeout,
		WriteTimeout: 10 * time.Second,
		Completion: func(messages []kafka.Message, err error) {
			if err != nil {
				logger.Warnf("Kafka producer error: %s (%d messages)", err.Error(), len(messages))
			}
		},
	}

	return newProducer(writer, logger, cfg)
}

func newProducer(writer messageWriter, logger logger.Logger, cfg *cfg.KafkaCfg) *Producer {
	return &Producer{
		writer: writer,
		logger: logger,
		cfg:    cfg,
		now:    time.Now,
	}
}

// OnCartChange ставит снимок корзины в очередь на отправку, ключ сообщения - ID сессии.
func (p *Producer) OnCartChange(snapshot usecase.CartSnapshot) {
	value, err := p.GetPayloadBytes(snapshot)
	if err != nil {
		p.logger.Errorf(e.Wrap(whereami.WhereAmI(), err), "failed to encode cart event")
		return
	}

	err = p.writer.WriteMessages(context.Background(), kafka.Message{
		Key:   []byte(snapshot.SessionID),
		Value: value,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(eventType)},
			{Key: "content_type", Value: []byte("application/x-protobuf; type=google.protobuf.Struct")},
		},
	})
	if err != nil {
		p.logger.Warnf("failed to enqueue cart event for session %s: %v", snapshot.SessionID, e.Wrap(whereami.WhereAmI(), err))
	}
}

// EnsureTopic создаёт топик событий корзины, если его ещё нет.
func (p *Producer) EnsureTopic(timeout time.Duration) error {
	conn, err := kafka.Dial(p.cfg.NetworkMode, p.cfg.Brokers[0])
	if err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}
	defer conn.Close()

	partitions, err := conn.ReadPartitions(p.cfg.Topic)
	if err == nil && len(partitions) > 0 {
		return nil
	}

	done := make(chan error, 1)
	go func() {
		err := conn.CreateTopics(kafka.TopicConfig{
			Topic:             p.cfg.Topic,
			NumPartitions:     p.cfg.Partitions,
			ReplicationFactor: p.cfg.ReplicationFactor,
		})
		done <- err
	}()

	select {
	case err := <-done:
		if err != nil {
			return e.Wrap(whereami.WhereAmI(), fmt.Errorf("failed to create topic %s: %w", p.cfg.Topic, err))
		}
		return nil
	case <-time.After(timeout):
		_ = conn.Close()
		return e.Wrap(whereami.WhereAmI(), fmt.Errorf("timeout: %v, topic: %s", timeout, p.cfg.Topic))
	}
}

func (p *Producer) Close() error {
	return p.writer.Close()
}

// GetPayloadBytes кодирует снимок как google.protobuf.Struct.
func (p *Producer) GetPayloadBytes(snapshot usecase.CartSnapshot) ([]byte, error) {
	items := make([]any, 0, len(snapshot.Items))
	for _, it := range snapshot.Items {
		items = append(items, map[string]any{
			"product_id": it.ID,
			"title":      it.Title,
			"category":   it.Category,
			"price":      it.Price.String(),
			"quantity":   it.Quantity,
			"subtotal":   it.Subtotal().String(),
		})
	}

	event, err := structpb.NewStruct(map[string]any{
		"event_id":        uuid.NewString(),
		"event_type":      eventType,
		"event_timestamp": p.now().UTC().Format(time.RFC3339Nano),
		"session_id":      snapshot.SessionID,
		"op":              string(snapshot.Op),
		"version":         snapshot.Version,
		"total_items":     snapshot.TotalItems,
		"total_price":     snapshot.TotalPrice.String(),
		"updated_at":      snapshot.UpdatedAt.UTC().Format(time.RFC3339Nano),
		"items":           items,
	})
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return proto.Marshal(event)
}
