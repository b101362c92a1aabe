package models

import (
	"sort"
	"time"
)

// LocationCode is the short identifier of a campus building, e.g. "CSE"
type LocationCode string

// Directory maps building codes to their display names
type Directory map[LocationCode]string

// Clone returns an independent copy of the directory
func (d Directory) Clone() Directory {
	out := make(Directory, len(d))
	for code, name := range d {
		out[code] = name
	}
	return out
}

// Entries returns the directory as a list ordered by display name, then code
func (d Directory) Entries() []DirectoryEntry {
	entries := make([]DirectoryEntry, 0, len(d))
	for code, name := range d {
		entries = append(entries, DirectoryEntry{Code: code, Name: name})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Name != entries[j].Name {
			return entries[i].Name < entries[j].Name
		}
		return entries[i].Code < entries[j].Code
	})
	return entries
}

// DirectoryEntry is a single building in a drop-down list
type DirectoryEntry struct {
	Code LocationCode `json:"code"`
	Name string       `json:"name"`
}

// Selection holds the user's chosen origin and destination.
// An empty code means the slot is unset.
type Selection struct {
	Origin      LocationCode `json:"origin"`
	Destination LocationCode `json:"destination"`
}

// IsEmpty reports whether both slots are unset
func (s Selection) IsEmpty() bool {
	return s.Origin == "" && s.Destination == ""
}

// Point is a pixel position in the background image
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// RouteSegment is one drawable line of a route
type RouteSegment struct {
	Start Point   `json:"start"`
	End   Point   `json:"end"`
	Cost  float64 `json:"cost,omitempty"`
}

// Route is the route currently selected for display.
// The zero value is the empty route: nothing to draw beyond the background.
// A present route may still carry no segments.
type Route struct {
	Present  bool           `json:"present"`
	Start    *Point         `json:"start,omitempty"`
	Cost     float64        `json:"cost"`
	Segments []RouteSegment `json:"segments"`
}

// EmptyRoute returns the "no route" value
func EmptyRoute() Route {
	return Route{}
}

// NewRoute returns a present route with the given segments
func NewRoute(segments []RouteSegment) Route {
	return Route{Present: true, Segments: segments}
}

// IsEmpty reports whether the route has nothing to draw over the background
func (r Route) IsEmpty() bool {
	return !r.Present || len(r.Segments) == 0
}

// Clone returns a copy that shares no memory with r
func (r Route) Clone() Route {
	out := r
	if r.Start != nil {
		start := *r.Start
		out.Start = &start
	}
	if r.Segments != nil {
		out.Segments = make([]RouteSegment, len(r.Segments))
		copy(out.Segments, r.Segments)
	}
	return out
}

// NotificationKind classifies a user-facing notification
type NotificationKind string

const (
	NotificationError NotificationKind = "error"
	NotificationInfo  NotificationKind = "info"
)

// Notification is a message shown to the user, typically a request failure
type Notification struct {
	ID        int64            `json:"id"`
	Kind      NotificationKind `json:"kind"`
	Message   string           `json:"message"`
	CreatedAt time.Time        `json:"created_at"`
}

// QueryOutcome is how a path query finished
type QueryOutcome string

const (
	OutcomeDisplayed  QueryOutcome = "displayed"
	OutcomeFailed     QueryOutcome = "failed"
	OutcomeSuperseded QueryOutcome = "superseded"
)

// QueryRecord is a history row for one issued path query
type QueryRecord struct {
	ID           int64        `json:"id"`
	Sequence     uint64       `json:"sequence"`
	Origin       LocationCode `json:"origin"`
	Destination  LocationCode `json:"destination"`
	Outcome      QueryOutcome `json:"outcome"`
	SegmentCount int          `json:"segment_count"`
	Cost         float64      `json:"cost"`
	Error        string       `json:"error,omitempty"`
	IssuedAt     time.Time    `json:"issued_at"`
	CompletedAt  time.Time    `json:"completed_at"`
}

// Duration returns how long the query took
func (q *QueryRecord) Duration() time.Duration {
	return q.CompletedAt.Sub(q.IssuedAt)
}
