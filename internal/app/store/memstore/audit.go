package memstore

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/dalemusser/congregationhub/internal/app/store/audit"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// AuditSink collects audit events in memory.
type AuditSink struct {
	mu     sync.Mutex
	events []audit.Event
}

func (s *AuditSink) Log(_ context.Context, e audit.Event) error {
	if e.ID.IsZero() {
		e.ID = primitive.NewObjectID()
	}
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now().UTC()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, e)
	return nil
}

// Events returns a copy of every recorded event, oldest first.
func (s *AuditSink) Events() []audit.Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]audit.Event(nil), s.events...)
}

// ByType returns the recorded events of eventType.
func (s *AuditSink) ByType(eventType string) []audit.Event {
	var out []audit.Event
	for _, e := range s.Events() {
		if e.EventType == eventType {
			out = append(out, e)
		}
	}
	return out
}

// Query returns the events matching filter, newest first.
func (s *AuditSink) Query(_ context.Context, filter audit.QueryFilter) ([]audit.Event, error) {
	all := s.Events()
	out := []audit.Event{}
	for i := len(all) - 1; i >= 0; i-- {
		if filter.Matches(all[i]) {
			out = append(out, all[i])
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Timestamp.After(out[j].Timestamp) })

	limit := filter.Limit
	if limit <= 0 {
		limit = audit.DefaultLimit
	}
	offset := max(filter.Offset, 0)
	if offset >= int64(len(out)) {
		return []audit.Event{}, nil
	}
	out = out[offset:]
	if int64(len(out)) > limit {
		out = out[:limit]
	}
	return out, nil
}
