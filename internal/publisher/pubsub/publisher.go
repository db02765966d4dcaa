// Package pubsub implements a Google Cloud Pub/Sub publisher.
package pubsub

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"cloud.google.com/go/pubsub"

	"github.com/JakeFAU/animal-images/internal/animal"
)

var _ animal.Publisher = (*Publisher)(nil)

// topic is the subset of *pubsub.Topic used by Publisher.
type topic interface {
	Publish(ctx context.Context, msg *pubsub.Message) *pubsub.PublishResult
	Stop()
}

// Publisher wraps a Pub/Sub client and caches topic handles by name.
type Publisher struct {
	client *pubsub.Client

	mu     sync.Mutex
	topics map[string]topic
}

// New connects a Pub/Sub client for projectID.
func New(ctx context.Context, projectID string) (*Publisher, error) {
	if projectID == "" {
		return nil, fmt.Errorf("pubsub.project_id is required")
	}
	client, err := pubsub.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("create pubsub client: %w", err)
	}
	return NewWithClient(client), nil
}

// NewWithClient wraps an existing client (primarily for testing).
func NewWithClient(client *pubsub.Client) *Publisher {
	return &Publisher{client: client, topics: make(map[string]topic)}
}

// Publish marshals the payload to JSON and publishes it to topicName.
// Images additionally carry their category and id as message attributes.
func (p *Publisher) Publish(ctx context.Context, topicName string, payload any) (string, error) {
	if topicName == "" {
		return "", fmt.Errorf("pubsub topic is required")
	}
	t, err := p.topic(topicName)
	if err != nil {
		return "", err
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshal payload: %w", err)
	}

	msg := &pubsub.Message{Data: data, Attributes: attributesFor(payload)}
	id, err := t.Publish(ctx, msg).Get(ctx)
	if err != nil {
		return "", fmt.Errorf("publish message: %w", err)
	}
	return id, nil
}

// Close flushes pending messages and releases the client.
func (p *Publisher) Close() error {
	p.mu.Lock()
	for name, t := range p.topics {
		t.Stop()
		delete(p.topics, name)
	}
	p.mu.Unlock()
	if p.client == nil {
		return nil
	}
	if err := p.client.Close(); err != nil {
		return fmt.Errorf("close pubsub client: %w", err)
	}
	return nil
}

func (p *Publisher) topic(name string) (topic, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if t, ok := p.topics[name]; ok {
		return t, nil
	}
	if p.client == nil {
		return nil, fmt.Errorf("pubsub publisher is not configured")
	}
	t := p.client.Topic(name)
	p.topics[name] = t
	return t, nil
}

func attributesFor(payload any) map[string]string {
	attrs := map[string]string{}
	switch v := payload.(type) {
	case animal.Image:
		attrs["category"] = v.Category.String()
		attrs["image_id"] = v.ID
	case *animal.Image:
		if v != nil {
			attrs["category"] = v.Category.String()
			attrs["image_id"] = v.ID
		}
	}
	return attrs
}
