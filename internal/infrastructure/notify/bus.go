// Package notify fans prediction changes out to in-process subscribers
// over a watermill go-channel pub/sub.
package notify

import (
	"context"
	"fmt"
	"sort"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/bytedance/sonic"
	"github.com/riskibarqy/score-predictor/internal/platform/logging"
	"github.com/riskibarqy/score-predictor/internal/usecase"
)

const TopicPredictionChanged = "prediction.changed"

type Bus struct {
	pubsub *gochannel.GoChannel
	logger *logging.Logger
}

func NewBus(buffer int64, logger *logging.Logger) *Bus {
	if logger == nil {
		logger = logging.Default()
	}
	if buffer <= 0 {
		buffer = 64
	}
	logger = logger.Named("notify")
	return &Bus{
		pubsub: gochannel.NewGoChannel(gochannel.Config{OutputChannelBuffer: buffer}, watermillLogger{logger: logger}),
		logger: logger,
	}
}

func (b *Bus) PublishChange(ctx context.Context, change usecase.PredictionChange) error {
	payload, err := sonic.Marshal(change)
	if err != nil {
		return fmt.Errorf("marshal prediction change: %w", err)
	}

	msg := message.NewMessage(watermill.NewUUID(), payload)
	msg.SetContext(ctx)
	msg.Metadata.Set("league_id", change.LeagueID)
	if err := b.pubsub.Publish(TopicPredictionChanged, msg); err != nil {
		return fmt.Errorf("publish prediction change: %w", err)
	}
	return nil
}

// SubscribeChanges acks every message as soon as it is decoded; a slow
// reader only delays its own channel.
func (b *Bus) SubscribeChanges(ctx context.Context) (<-chan usecase.PredictionChange, error) {
	messages, err := b.pubsub.Subscribe(ctx, TopicPredictionChanged)
	if err != nil {
		return nil, fmt.Errorf("subscribe %s: %w", TopicPredictionChanged, err)
	}

	out := make(chan usecase.PredictionChange, 16)
	go func() {
		defer close(out)
		for msg := range messages {
			var change usecase.PredictionChange
			if err := sonic.Unmarshal(msg.Payload, &change); err != nil {
				b.logger.Warn("drop malformed prediction change", "message_uuid", msg.UUID, "error", err)
				msg.Ack()
				continue
			}
			msg.Ack()

			select {
			case out <- change:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, nil
}

func (b *Bus) Close() error {
	return b.pubsub.Close()
}

type watermillLogger struct {
	logger *logging.Logger
}

func (l watermillLogger) Error(msg string, err error, fields watermill.LogFields) {
	l.logger.Error(msg, append(flatten(fields), "error", err)...)
}

func (l watermillLogger) Info(msg string, fields watermill.LogFields) {
	l.logger.Info(msg, flatten(fields)...)
}

func (l watermillLogger) Debug(msg string, fields watermill.LogFields) {
	l.logger.Debug(msg, flatten(fields)...)
}

func (l watermillLogger) Trace(msg string, fields watermill.LogFields) {
	l.logger.Debug(msg, flatten(fields)...)
}

func (l watermillLogger) With(fields watermill.LogFields) watermill.LoggerAdapter {
	return watermillLogger{logger: l.logger.With(flatten(fields)...)}
}

func flatten(fields watermill.LogFields) []any {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make([]any, 0, len(fields)*2)
	for _, k := range keys {
		out = append(out, k, fields[k])
	}
	return out
}
