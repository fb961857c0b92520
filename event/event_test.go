package event

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNewTopic(t *testing.T) {
	p := NewPublisher()
	topicName := "test-topic"

	err := p.NewTopic(topicName, time.Second)
	assert.NoError(t, err)

	_, ok := p.topics[topicName]
	assert.True(t, ok, "topic should be created")

	err = p.NewTopic(topicName, time.Second)
	assert.Error(t, err, "should return error when topic already exists")
}

func TestRegisterSubscriber(t *testing.T) {
	p := NewPublisher()
	topicName := "test-topic"

	err := p.RegisterSubscriber("non-existent-topic", func(param any) {})
	assert.Error(t, err, "should return error when topic does not exist")

	_ = p.NewTopic(topicName, time.Second)
	err = p.RegisterSubscriber(topicName, func(param any) {})
	assert.NoError(t, err)
	assert.Len(t, p.topics[topicName].subscribers, 1, "subscriber should be added")
}

func TestPublish(t *testing.T) {
	p := NewPublisher()
	topicName := PoolItemDestroyed

	err := p.Publish("non-existent-topic", "payload")
	assert.Error(t, err, "should return error when publishing to a non-existent topic")

	_ = p.NewTopic(topicName, time.Second)

	var mu sync.Mutex
	var got []any
	for i := 0; i < 3; i++ {
		_ = p.RegisterSubscriber(topicName, func(param any) {
			mu.Lock()
			defer mu.Unlock()
			got = append(got, param)
		})
	}

	err = p.Publish(topicName, "conn-7")
	assert.NoError(t, err)

	mu.Lock()
	defer mu.Unlock()
	assert.Len(t, got, 3, "every subscriber should receive the payload")
	for _, g := range got {
		assert.Equal(t, "conn-7", g)
	}
}
