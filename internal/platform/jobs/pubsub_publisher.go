package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"cloud.google.com/go/pubsub"
)

// EnquiryEvent is the message published after an enquiry has been accepted.
// Downstream consumers (CRM import, auto-replies) are outside this service.
type EnquiryEvent struct {
	EnquiryID  string `json:"enquiryId"`
	Kind       string `json:"kind"`
	Email      string `json:"email"`
	ProductRef string `json:"productRef,omitempty"`
	ReceivedAt string `json:"receivedAt"`
}

// EnquiryPublisher publishes enquiry events.
type EnquiryPublisher interface {
	PublishEnquiry(ctx context.Context, event EnquiryEvent) (string, error)
}

// PubSubEnquiryPublisher publishes enquiry events to a Pub/Sub topic.
type PubSubEnquiryPublisher struct {
	topic   *pubsub.Topic
	marshal func(any) ([]byte, error)
}

// NewPubSubEnquiryPublisher constructs a publisher bound to the topic.
func NewPubSubEnquiryPublisher(topic *pubsub.Topic) (*PubSubEnquiryPublisher, error) {
	if topic == nil {
		return nil, errors.New("pubsub enquiry publisher: topic is required")
	}
	return &PubSubEnquiryPublisher{topic: topic, marshal: json.Marshal}, nil
}

// PublishEnquiry enqueues the event and returns the server message id.
func (p *PubSubEnquiryPublisher) PublishEnquiry(ctx context.Context, event EnquiryEvent) (string, error) {
	if p == nil || p.topic == nil {
		return "", errors.New("pubsub enquiry publisher: not initialised")
	}

	data, err := p.marshal(event)
	if err != nil {
		return "", fmt.Errorf("marshal enquiry event: %w", err)
	}

	attrs := make(map[string]string)
	setAttr(attrs, "enquiryId", event.EnquiryID)
	setAttr(attrs, "kind", event.Kind)
	setAttr(attrs, "productRef", event.ProductRef)

	result := p.topic.Publish(ctx, &pubsub.Message{Data: data, Attributes: attrs})
	id, err := result.Get(ctx)
	if err != nil {
		return "", fmt.Errorf("publish enquiry event: %w", err)
	}
	return id, nil
}

func setAttr(attrs map[string]string, key, value string) {
	if v := strings.TrimSpace(value); v != "" {
		attrs[key] = v
	}
}
