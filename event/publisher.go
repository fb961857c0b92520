package event

import (
	"fmt"
	"sync"
	"time"

	"github.com/harborgrid/keelson/log"
)

// Publisher includes multiple topics.
type Publisher struct {
	lock   sync.RWMutex
	topics map[string]*Topic // Subscriber information.
}

// NewPublisher creates an empty publisher.
func NewPublisher() *Publisher {
	return &Publisher{
		topics: make(map[string]*Topic),
	}
}

// NewTopic must create a topic before a subscription can be registered.
func (p *Publisher) NewTopic(topicName string, timeout time.Duration) error {
	p.lock.Lock()
	defer p.lock.Unlock()

	_, ok := p.topics[topicName]
	if ok {
		return fmt.Errorf("topic %s already create", topicName)
	}
	topic := &Topic{
		timeout:     timeout,
		subscribers: []Subscriber{},
	}

	p.topics[topicName] = topic
	return nil
}

// RegisterSubscriber registers a subscriber.
func (p *Publisher) RegisterSubscriber(topicName string, fn Subscriber) error {
	p.lock.Lock()
	defer p.lock.Unlock()

	topic, ok := p.topics[topicName]
	if !ok {
		return fmt.Errorf("topic %s not create", topicName)
	}

	topic.subscribers = append(topic.subscribers, fn)
	log.Debug().Str("topic", topicName).
		Int("num", len(topic.subscribers)).Msg("add subscriber")
	return nil
}

// Publish posts a payload to every subscriber of the topic and waits for the
// fan-out to complete.
func (p *Publisher) Publish(topicName string, i any) error {
	p.lock.RLock()
	defer p.lock.RUnlock()

	topic, ok := p.topics[topicName]
	if !ok {
		return fmt.Errorf("topic:%s not create", topicName)
	}

	var wg sync.WaitGroup

	for _, sub := range topic.subscribers {
		sub := sub
		wg.Add(1)
		go func() {
			defer wg.Done()
			sub(i)
		}()
	}

	wg.Wait()

	return nil
}
