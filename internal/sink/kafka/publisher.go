package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	kafka "github.com/segmentio/kafka-go"

	"github.com/Sh00ty/port-prober/internal/models"
	"github.com/Sh00ty/port-prober/pkg/probe"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Publisher emits one message per result, keyed by endpoint so that the
// history of a single endpoint lands in one partition.
type Publisher struct {
	writer messageWriter
}

func NewPublisher(addr string, topic string) *Publisher {
	return &Publisher{
		writer: &kafka.Writer{
			Addr:                   kafka.TCP(addr),
			Topic:                  topic,
			Balancer:               &kafka.Hash{},
			RequiredAcks:           kafka.RequireOne,
			AllowAutoTopicCreation: true,
		},
	}
}

func (p *Publisher) Name() string {
	return "kafka"
}

func (p *Publisher) Send(ctx context.Context, info models.RunInfo, results []probe.Result, offset int) (int, error) {
	msgs, err := encodeMessages(info, offset, results)
	if err != nil {
		return 0, err
	}
	err = p.writer.WriteMessages(ctx, msgs...)
	if err == nil {
		return len(msgs), nil
	}
	// only the leading run of delivered messages counts, the rest is resent
	var writeErrs kafka.WriteErrors
	if errors.As(err, &writeErrs) {
		done := 0
		for done < len(writeErrs) && writeErrs[done] == nil {
			done++
		}
		return done, fmt.Errorf("failed to publish %d of %d results: %w", writeErrs.Count(), len(msgs), err)
	}
	return 0, fmt.Errorf("failed to publish results of run %s: %w", info.ID, err)
}

func encodeMessages(info models.RunInfo, offset int, results []probe.Result) ([]kafka.Message, error) {
	msgs := make([]kafka.Message, 0, len(results))
	for i, res := range results {
		value, err := json.Marshal(models.NewResultRecord(info, offset+i, res))
		if err != nil {
			return nil, fmt.Errorf("failed to encode result for %s: %w", res.Endpoint, err)
		}
		msgs = append(msgs, kafka.Message{
			Key:   []byte(res.Endpoint.String()),
			Value: value,
		})
	}
	return msgs, nil
}

func (p *Publisher) Close() error {
	return p.writer.Close()
}
