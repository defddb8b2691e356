package audit

import (
	"sync"

	"github.com/redisctl/im-redis/pkg/model"
)

const subscriberBuffer = 16

func NewBroker() *Broker {
	return &Broker{
		subscribers: make(map[uint64]chan model.Audit),
	}
}

// Broker fans audits out to the subscribed event streams. A subscriber which doesn't keep up misses
// audits rather than slowing down the caller.
type Broker struct {
	lock        sync.Mutex
	nextID      uint64
	subscribers map[uint64]chan model.Audit
}

// Subscribe returns the id of the subscription and the channel audits are delivered on.
func (b *Broker) Subscribe() (uint64, <-chan model.Audit) {
	b.lock.Lock()
	defer b.lock.Unlock()

	b.nextID++
	channel := make(chan model.Audit, subscriberBuffer)
	b.subscribers[b.nextID] = channel
	return b.nextID, channel
}

// Unsubscribe closes the channel of the subscription. Unsubscribing more than once is allowed.
func (b *Broker) Unsubscribe(id uint64) {
	b.lock.Lock()
	defer b.lock.Unlock()

	if channel, ok := b.subscribers[id]; ok {
		close(channel)
		delete(b.subscribers, id)
	}
}

// Publish returns the number of subscribers the audit was delivered to.
func (b *Broker) Publish(audit model.Audit) int {
	b.lock.Lock()
	defer b.lock.Unlock()

	delivered := 0
	for _, channel := range b.subscribers {
		select {
		case channel <- audit:
			delivered++
		default:
		}
	}
	return delivered
}

func (b *Broker) Subscribers() int {
	b.lock.Lock()
	defer b.lock.Unlock()

	return len(b.subscribers)
}
