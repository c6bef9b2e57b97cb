package events

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/Skotchmaster/storefront/pkg/logging"
)

type Event map[string]any

func New(eventType string, fields Event) Event {
	ev := Event{"type": eventType, "at": time.Now().UTC().Format(time.RFC3339Nano)}
	for k, v := range fields {
		ev[k] = v
	}
	return ev
}

// Emit publishes without failing the caller. The request context may already
// be cancelled, so the publish runs detached from it.
func Emit(ctx context.Context, p Publisher, topic string, key any, ev Event) {
	if p == nil {
		return
	}
	l := logging.FromContext(ctx)
	if err := p.PublishEvent(context.WithoutCancel(ctx), topic, fmt.Sprint(key), ev); err != nil {
		l.Errorw("kafka_publish_error", "topic", topic, "type", ev["type"], "error", err)
	}
}

// Recorder keeps events in memory. Handy in tests and local runs.
type Recorder struct {
	mu     sync.Mutex
	Events []Recorded
}

type Recorded struct {
	Topic string
	Key   string
	Event Event
}

func (r *Recorder) PublishEvent(_ context.Context, topic, key string, event any) error {
	ev, _ := event.(Event)
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Events = append(r.Events, Recorded{Topic: topic, Key: key, Event: ev})
	return nil
}

func (r *Recorder) Types() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.Events))
	for _, e := range r.Events {
		t, _ := e.Event["type"].(string)
		out = append(out, t)
	}
	return out
}

func (r *Recorder) Find(eventType string) (Recorded, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, e := range r.Events {
		if e.Event["type"] == eventType {
			return e, true
		}
	}
	return Recorded{}, false
}
