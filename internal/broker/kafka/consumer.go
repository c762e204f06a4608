package kafka

import (
	"context"

	"portfolio-gallery/internal/broker"
	"portfolio-gallery/internal/config"
	"portfolio-gallery/internal/domain"

	kafka "github.com/segmentio/kafka-go"
	wbkafka "github.com/wb-go/wbf/kafka"
	"github.com/wb-go/wbf/retry"
)

// Delivery is one message from the regenerate topic. Err is set and Task
// is nil when the payload is not a valid task.
type Delivery struct {
	Task   *domain.RegenerationTask
	Err    error
	Offset int64

	msg kafka.Message
}

// TaskConsumer reads regeneration tasks as part of the worker group.
type TaskConsumer struct {
	consumer *wbkafka.Consumer
	retries  retry.Strategy
}

func NewTaskConsumer(cfg config.KafkaConfig, retries retry.Strategy) *TaskConsumer {
	return &TaskConsumer{
		consumer: wbkafka.NewConsumer(cfg.Brokers, cfg.RegenerateTopic, cfg.GroupID),
		retries:  retries,
	}
}

// Deliveries streams decoded tasks. The channel is closed when ctx is done
// or when fetching fails after all retries.
func (c *TaskConsumer) Deliveries(ctx context.Context, buffer int) <-chan Delivery {
	raw := make(chan kafka.Message, buffer)
	c.consumer.StartConsuming(ctx, raw, c.retries)

	out := make(chan Delivery, buffer)
	go func() {
		defer close(out)
		for msg := range raw {
			task, err := broker.DecodeTask(msg.Value)
			select {
			case out <- Delivery{Task: task, Err: err, Offset: msg.Offset, msg: msg}:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out
}

// Ack commits the delivery's offset for the group.
func (c *TaskConsumer) Ack(ctx context.Context, d Delivery) error {
	return c.consumer.Commit(ctx, d.msg)
}

func (c *TaskConsumer) Close() error {
	return c.consumer.Close()
}
