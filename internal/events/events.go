// Package events carries push-style domain signals over Redis pub/sub.
// A backend (or another casewatch process) publishes a signal name on the
// channel and every subscriber forwards it to its poller.
package events

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/nhle/casewatch/internal/logger"
	"github.com/nhle/casewatch/internal/model"
)

// Notifier receives parsed signals. *sync.Poller satisfies it.
type Notifier interface {
	Notify(sig model.Signal)
}

// Subscriber listens on one Redis channel.
type Subscriber struct {
	client  *redis.Client
	channel string
	log     *zap.Logger
}

// NewSubscriber creates a Subscriber for channel.
func NewSubscriber(client *redis.Client, channel string, log *zap.Logger) *Subscriber {
	return &Subscriber{
		client:  client,
		channel: channel,
		log:     logger.OrNop(log).Named("events"),
	}
}

// Run subscribes and forwards every recognized signal to n until ctx is
// done. Unknown payloads are logged and ignored. Run returns nil on
// cancellation and an error if the subscription cannot be established.
func (s *Subscriber) Run(ctx context.Context, n Notifier) error {
	sub := s.client.Subscribe(ctx, s.channel)
	defer sub.Close()

	// Wait for the subscription confirmation so that publishes issued after
	// Run starts are not lost.
	if _, err := sub.Receive(ctx); err != nil {
		if ctx.Err() != nil {
			return nil
		}
		return fmt.Errorf("subscribing to %s: %w", s.channel, err)
	}
	s.log.Info("listening for signals", zap.String("channel", s.channel))

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			sig, valid := model.ParseSignal(msg.Payload)
			if !valid {
				s.log.Warn("ignoring unknown signal", zap.String("payload", msg.Payload))
				continue
			}
			s.log.Debug("signal received", zap.String("signal", string(sig)))
			n.Notify(sig)
		}
	}
}

// Publish sends sig on channel and returns the number of subscribers that
// received it.
func Publish(ctx context.Context, client *redis.Client, channel string, sig model.Signal) (int64, error) {
	n, err := client.Publish(ctx, channel, string(sig)).Result()
	if err != nil {
		return 0, fmt.Errorf("publishing %s to %s: %w", sig, channel, err)
	}
	return n, nil
}
