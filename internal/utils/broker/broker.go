package broker

import (
	"sync"
)

// Broker fans events out to per-topic subscribers. Publish never blocks:
// a subscriber whose buffer is full misses the event.
type Broker[T any] struct {
	subscribers map[string][]chan T
	bufferSize  int
	mu          sync.RWMutex
}

func NewBroker[T any](bufferSize int) *Broker[T] {
	if bufferSize <= 0 {
		bufferSize = 1
	}
	return &Broker[T]{
		subscribers: make(map[string][]chan T),
		bufferSize:  bufferSize,
	}
}

func (b *Broker[T]) Subscribe(topic string) <-chan T {
	b.mu.Lock()
	defer b.mu.Unlock()
	ch := make(chan T, b.bufferSize)
	b.subscribers[topic] = append(b.subscribers[topic], ch)
	return ch
}

func (b *Broker[T]) Unsubscribe(topic string, ch <-chan T) {
	b.mu.Lock()
	defer b.mu.Unlock()
	chans, ok := b.subscribers[topic]
	if !ok {
		return
	}
	for i, c := range chans {
		if c == ch {
			b.subscribers[topic] = append(chans[:i], chans[i+1:]...)
			close(c)
			break
		}
	}
	if len(b.subscribers[topic]) == 0 {
		delete(b.subscribers, topic)
	}
}

// Publish delivers msg to every subscriber of topic and reports how many received it.
func (b *Broker[T]) Publish(topic string, msg T) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	delivered := 0
	for _, ch := range b.subscribers[topic] {
		select {
		case ch <- msg:
			delivered++
		default:
		}
	}
	return delivered
}
