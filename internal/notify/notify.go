package notify

import (
	"context"
	"log"
	"sync"
	"time"

	"campus-paths/internal/models"
)

// defaultQueueSize is how many undelivered notifications the queue keeps
const defaultQueueSize = 50

// Notifier surfaces failures and other messages to the user
type Notifier interface {
	Notify(ctx context.Context, kind models.NotificationKind, message string)
}

// Queue holds notifications until the view drains them.
// When full, the oldest notification is dropped.
type Queue struct {
	mu      sync.Mutex
	items   []models.Notification
	nextID  int64
	maxSize int
	now     func() time.Time
}

// NewQueue creates an empty notification queue
func NewQueue() *Queue {
	return &Queue{
		maxSize: defaultQueueSize,
		nextID:  1,
		now:     time.Now,
	}
}

func (q *Queue) Notify(ctx context.Context, kind models.NotificationKind, message string) {
	q.mu.Lock()
	defer q.mu.Unlock()

	log.Printf("[NOTIFY] kind=%s message=%s", kind, message)

	q.items = append(q.items, models.Notification{
		ID:        q.nextID,
		Kind:      kind,
		Message:   message,
		CreatedAt: q.now(),
	})
	q.nextID++

	if len(q.items) > q.maxSize {
		dropped := len(q.items) - q.maxSize
		q.items = append([]models.Notification(nil), q.items[dropped:]...)
	}
}

// Drain returns all pending notifications in arrival order and empties the queue
func (q *Queue) Drain() []models.Notification {
	q.mu.Lock()
	defer q.mu.Unlock()

	items := q.items
	q.items = nil
	if items == nil {
		return []models.Notification{}
	}
	return items
}

// Len returns the number of pending notifications
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}
