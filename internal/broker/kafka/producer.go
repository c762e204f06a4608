package kafka

import (
	"context"
	"fmt"

	"portfolio-gallery/internal/broker"
	"portfolio-gallery/internal/domain"

	wbkafka "github.com/wb-go/wbf/kafka"
	"github.com/wb-go/wbf/retry"
)

// Publisher writes regeneration tasks or run reports to a single topic.
type Publisher struct {
	producer *wbkafka.Producer
	retries  retry.Strategy
}

func NewPublisher(brokers []string, topic string, retries retry.Strategy) *Publisher {
	return &Publisher{
		producer: wbkafka.NewProducer(brokers, topic),
		retries:  retries,
	}
}

func (p *Publisher) PublishTask(ctx context.Context, task *domain.RegenerationTask) error {
	key, value, err := broker.EncodeTask(task)
	if err != nil {
		return err
	}
	if err := p.send(ctx, key, value); err != nil {
		return fmt.Errorf("failed to publish task %s: %w", task.ID, err)
	}
	return nil
}

func (p *Publisher) PublishReport(ctx context.Context, report *domain.GenerationReport) error {
	key, value, err := broker.EncodeReport(report)
	if err != nil {
		return err
	}
	if err := p.send(ctx, key, value); err != nil {
		return fmt.Errorf("failed to publish report %s: %w", report.RunID, err)
	}
	return nil
}

// send stops retrying once ctx is done and skips the backoff after the
// last attempt.
func (p *Publisher) send(ctx context.Context, key, value []byte) error {
	var lastErr error
	attempt := 0
	err := retry.DoContext(ctx, p.retries, func() error {
		attempt++
		lastErr = p.producer.Send(ctx, key, value)
		if lastErr != nil && attempt >= p.retries.Attempts {
			return nil
		}
		return lastErr
	})
	if err != nil {
		return err
	}
	return lastErr
}

func (p *Publisher) Close() error {
	return p.producer.Close()
}
