package coordinator

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"campus-paths/internal/database"
	"campus-paths/internal/models"
	"campus-paths/internal/notify"
	"campus-paths/internal/pathservice"
)

// ErrSuperseded is returned when a response arrives after a newer query was
// issued (or the map was cleared). Its route is discarded.
var ErrSuperseded = errors.New("path query superseded by a newer query")

// RouteListener is signalled every time the displayed route is replaced
type RouteListener interface {
	RouteChanged(route models.Route)
}

// State summarizes the query lifecycle
type State string

const (
	StateIdle       State = "idle"
	StateRequesting State = "requesting"
	StateDisplayed  State = "displayed"
)

// Result describes how a FindPath call ended
type Result struct {
	Sequence  uint64              `json:"sequence"`
	Outcome   models.QueryOutcome `json:"outcome"`
	Selection models.Selection    `json:"selection"`
	Route     models.Route        `json:"route"`
}

// Coordinator issues path queries and owns the displayed route. Each query
// gets a sequence number; only the newest issued query may replace the route.
type Coordinator struct {
	client   pathservice.Client
	listener RouteListener
	notifier notify.Notifier
	history  database.HistoryRepository
	now      func() time.Time

	mu       sync.Mutex
	route    models.Route
	issued   uint64
	inFlight int
	// routeGen increases with every route replacement
	routeGen uint64

	// signalMu serializes listener calls; signalled is the newest routeGen delivered
	signalMu  sync.Mutex
	signalled uint64
}

// New creates a coordinator. history may be nil.
func New(client pathservice.Client, listener RouteListener, notifier notify.Notifier, history database.HistoryRepository) *Coordinator {
	return &Coordinator{
		client:   client,
		listener: listener,
		notifier: notifier,
		history:  history,
		now:      time.Now,
	}
}

// FindPath queries the service for the given selection. Values are forwarded
// unchanged; rejecting empty or identical codes is up to the service.
//
// On success the route is replaced and the listener signalled. On failure the
// user is notified and the previous route is kept.
func (c *Coordinator) FindPath(ctx context.Context, sel models.Selection) (*Result, error) {
	c.mu.Lock()
	c.issued++
	seq := c.issued
	c.inFlight++
	c.mu.Unlock()

	if sel.Origin == "" || sel.Destination == "" {
		log.Printf("[COORDINATOR] Query with empty slot forwarded: seq=%d origin=%q destination=%q", seq, sel.Origin, sel.Destination)
	} else if sel.Origin == sel.Destination {
		log.Printf("[COORDINATOR] Query with identical origin and destination forwarded: seq=%d code=%s", seq, sel.Origin)
	}

	issuedAt := c.now()
	route, err := c.client.FindPath(ctx, sel.Origin, sel.Destination)

	record := &models.QueryRecord{
		Sequence:    seq,
		Origin:      sel.Origin,
		Destination: sel.Destination,
		IssuedAt:    issuedAt,
		CompletedAt: c.now(),
	}
	result := &Result{Sequence: seq, Selection: sel}

	c.mu.Lock()
	c.inFlight--
	stale := seq != c.issued

	switch {
	case stale:
		c.mu.Unlock()
		record.Outcome = models.OutcomeSuperseded
		if err != nil {
			record.Error = err.Error()
		}
		log.Printf("[COORDINATOR] Discarding superseded response: seq=%d", seq)
		c.recordHistory(ctx, record)
		result.Outcome = models.OutcomeSuperseded
		return result, ErrSuperseded

	case err != nil:
		c.mu.Unlock()
		record.Outcome = models.OutcomeFailed
		record.Error = err.Error()
		log.Printf("[ERROR] Path query failed, keeping displayed route: seq=%d err=%v", seq, err)
		if c.notifier != nil {
			c.notifier.Notify(ctx, models.NotificationError, "Could not find a path: "+err.Error())
		}
		c.recordHistory(ctx, record)
		result.Outcome = models.OutcomeFailed
		return result, err
	}

	c.route = route.Clone()
	gen, displayed := c.bumpRouteLocked()
	c.mu.Unlock()

	c.signal(gen, displayed)

	record.Outcome = models.OutcomeDisplayed
	record.SegmentCount = len(route.Segments)
	record.Cost = route.Cost
	log.Printf("[COORDINATOR] Route displayed: seq=%d segments=%d", seq, len(route.Segments))
	c.recordHistory(ctx, record)

	result.Outcome = models.OutcomeDisplayed
	result.Route = route
	return result, nil
}

// Clear resets the route to empty and signals the listener. Queries still in
// flight are superseded so they cannot repaint a cleared map.
func (c *Coordinator) Clear() {
	c.mu.Lock()
	c.issued++
	seq := c.issued
	c.route = models.EmptyRoute()
	gen, displayed := c.bumpRouteLocked()
	c.mu.Unlock()

	c.signal(gen, displayed)
	log.Printf("[COORDINATOR] Route cleared: seq=%d", seq)
}

func (c *Coordinator) bumpRouteLocked() (uint64, models.Route) {
	c.routeGen++
	return c.routeGen, c.route.Clone()
}

// signal hands a route to the listener outside c.mu, so a slow repaint never
// blocks readers. A route older than one already delivered is dropped.
func (c *Coordinator) signal(gen uint64, route models.Route) {
	if c.listener == nil {
		return
	}
	c.signalMu.Lock()
	defer c.signalMu.Unlock()
	if gen <= c.signalled {
		return
	}
	c.signalled = gen
	c.listener.RouteChanged(route)
}

// Route returns a copy of the displayed route
func (c *Coordinator) Route() models.Route {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.route.Clone()
}

// State reports whether a query is in flight or a route is displayed
func (c *Coordinator) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	switch {
	case c.inFlight > 0:
		return StateRequesting
	case c.route.Present:
		return StateDisplayed
	default:
		return StateIdle
	}
}

// InFlight returns the number of queries awaiting a response
func (c *Coordinator) InFlight() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.inFlight
}

func (c *Coordinator) recordHistory(ctx context.Context, record *models.QueryRecord) {
	if c.history == nil {
		return
	}
	if err := c.history.Record(context.WithoutCancel(ctx), record); err != nil {
		log.Printf("[ERROR] Failed to record query history: seq=%d err=%v", record.Sequence, err)
	}
}
