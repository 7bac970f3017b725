package memory

import (
	"context"
	"strings"
	"sync"

	appoutbox "rentcore/internal/app/outbox"
)

// Publisher publishes a flushed event record to a broker.
type Publisher interface {
	Publish(ctx context.Context, topic string, key string, payload []byte, headers map[string]string) error
}

// Outbox buffers event records in memory until flushed. When a Publisher is
// attached, Flush forwards each record to it; without one, Flush just
// drains the buffer.
type Outbox struct {
	mu          sync.Mutex
	records     []appoutbox.EventRecord
	publisher   Publisher
	topicPrefix string
}

func NewOutbox() *Outbox {
	return &Outbox{}
}

// WithPublisher attaches a broker publisher to the outbox.
func (o *Outbox) WithPublisher(p Publisher, topicPrefix string) *Outbox {
	o.publisher = p
	o.topicPrefix = topicPrefix
	return o
}

func (o *Outbox) Add(ctx context.Context, record appoutbox.EventRecord) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.records = append(o.records, record)
	return nil
}

func (o *Outbox) Flush(ctx context.Context) error {
	o.mu.Lock()
	pending := o.records
	o.records = nil
	o.mu.Unlock()

	if o.publisher == nil {
		return nil
	}
	for i, rec := range pending {
		if err := o.publisher.Publish(ctx, o.topicFor(rec.Name), rec.Aggregate, rec.Payload, rec.Headers); err != nil {
			// Put the unsent tail back so the next flush retries it.
			o.mu.Lock()
			o.records = append(pending[i:], o.records...)
			o.mu.Unlock()
			return err
		}
	}
	return nil
}

// Pending returns a copy of the buffered records, for tests.
func (o *Outbox) Pending() []appoutbox.EventRecord {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := make([]appoutbox.EventRecord, len(o.records))
	copy(out, o.records)
	return out
}

func (o *Outbox) topicFor(name string) string {
	base := name
	if idx := strings.IndexRune(name, '.'); idx > 0 {
		base = name[:idx]
	}
	topic := base + ".events.v1"
	if o.topicPrefix != "" {
		topic = o.topicPrefix + topic
	}
	return topic
}

var _ appoutbox.Outbox = (*Outbox)(nil)
