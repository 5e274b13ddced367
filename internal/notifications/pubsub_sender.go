package notifications

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	gcppubsub "cloud.google.com/go/pubsub/v2"
)

// PubSubSender hands notifications to the notification service's topic.
type PubSubSender struct {
	publisher *gcppubsub.Publisher
}

func NewPubSubSender(publisher *gcppubsub.Publisher) (*PubSubSender, error) {
	if publisher == nil {
		return nil, errors.New("notification publisher required")
	}
	return &PubSubSender{publisher: publisher}, nil
}

func (s *PubSubSender) Send(ctx context.Context, n Notification) error {
	data, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("encode notification: %w", err)
	}
	result := s.publisher.Publish(ctx, &gcppubsub.Message{
		Data:       data,
		Attributes: map[string]string{"action": string(n.Action)},
	})
	if _, err := result.Get(ctx); err != nil {
		return fmt.Errorf("publish notification: %w", err)
	}
	return nil
}
