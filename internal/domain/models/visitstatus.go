// internal/domain/models/visitstatus.go
package models

import (
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/bsontype"
)

// VisitStatus is the lifecycle state of a visit schedule record.
//
//	pending ──DateSet──▶ scheduled ──ReportSubmitted──▶ completed
//	                         ▲                              │
//	                         └────────ReportDeleted─────────┘
//
// The zero value is not a valid status.
type VisitStatus string

const (
	VisitPending   VisitStatus = "pending"
	VisitScheduled VisitStatus = "scheduled"
	VisitCompleted VisitStatus = "completed"
)

// VisitEvent drives VisitStatus transitions.
type VisitEvent int

const (
	EventDateSet VisitEvent = iota + 1
	EventReportSubmitted
	EventReportDeleted
)

func (e VisitEvent) String() string {
	switch e {
	case EventDateSet:
		return "date_set"
	case EventReportSubmitted:
		return "report_submitted"
	case EventReportDeleted:
		return "report_deleted"
	}
	return fmt.Sprintf("visit_event(%d)", int(e))
}

// Valid reports whether s is one of the known statuses.
func (s VisitStatus) Valid() bool {
	switch s {
	case VisitPending, VisitScheduled, VisitCompleted:
		return true
	}
	return false
}

// ParseVisitStatus converts a stored or submitted value into a VisitStatus.
func ParseVisitStatus(v string) (VisitStatus, error) {
	s := VisitStatus(v)
	if !s.Valid() {
		return "", fmt.Errorf("invalid visit status %q", v)
	}
	return s, nil
}

// InvalidTransitionError is returned by Next for a disallowed event.
type InvalidTransitionError struct {
	From  VisitStatus
	Event VisitEvent
}

func (e InvalidTransitionError) Error() string {
	return fmt.Sprintf("cannot apply %s to a %s visit", e.Event, e.From)
}

// Next returns the status after applying ev.
//
// A completed visit keeps its status when its date is re-set (only the
// metadata changes) and falls back to scheduled, never pending, when its
// report is deleted, since the date is retained.
func (s VisitStatus) Next(ev VisitEvent) (VisitStatus, error) {
	switch s {
	case VisitPending:
		switch ev {
		case EventDateSet:
			return VisitScheduled, nil
		case EventReportSubmitted:
			return VisitCompleted, nil
		}
	case VisitScheduled:
		switch ev {
		case EventDateSet:
			return VisitScheduled, nil
		case EventReportSubmitted:
			return VisitCompleted, nil
		case EventReportDeleted:
			return VisitScheduled, nil
		}
	case VisitCompleted:
		switch ev {
		case EventDateSet, EventReportSubmitted:
			return VisitCompleted, nil
		case EventReportDeleted:
			return VisitScheduled, nil
		}
	}
	return s, InvalidTransitionError{From: s, Event: ev}
}

// MarshalBSONValue refuses to write an unknown status.
func (s VisitStatus) MarshalBSONValue() (bsontype.Type, []byte, error) {
	if !s.Valid() {
		return 0, nil, fmt.Errorf("refusing to store invalid visit status %q", string(s))
	}
	return bson.MarshalValue(string(s))
}

// UnmarshalBSONValue rejects unknown stored statuses.
func (s *VisitStatus) UnmarshalBSONValue(t bsontype.Type, data []byte) error {
	var raw string
	if err := bson.UnmarshalValue(t, data, &raw); err != nil {
		return err
	}
	v, err := ParseVisitStatus(raw)
	if err != nil {
		return err
	}
	*s = v
	return nil
}
