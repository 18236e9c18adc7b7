package progression

import (
	"sync"

	"network-leveling/internal/adapters/metrics"
	"network-leveling/internal/core/domain"

	"github.com/google/uuid"
)

// pendingQueue holds notifications for players that could not be reached.
// Entries never expire; they leave the queue only when handed back by Take.
type pendingQueue struct {
	mu    sync.Mutex
	items map[uuid.UUID][]domain.Notification
	total int
}

func newPendingQueue() *pendingQueue {
	return &pendingQueue{items: make(map[uuid.UUID][]domain.Notification)}
}

func (q *pendingQueue) Push(id uuid.UUID, n domain.Notification) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.items[id] = append(q.items[id], n)
	q.total++
	metrics.PendingNotifications.Set(float64(q.total))
}

// Take removes and returns everything queued for id in enqueue order.
func (q *pendingQueue) Take(id uuid.UUID) []domain.Notification {
	q.mu.Lock()
	defer q.mu.Unlock()
	items := q.items[id]
	delete(q.items, id)
	q.total -= len(items)
	metrics.PendingNotifications.Set(float64(q.total))
	return items
}

// Requeue puts undelivered notifications back in front of anything queued
// since they were taken.
func (q *pendingQueue) Requeue(id uuid.UUID, ns []domain.Notification) {
	if len(ns) == 0 {
		return
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	q.items[id] = append(append([]domain.Notification(nil), ns...), q.items[id]...)
	q.total += len(ns)
	metrics.PendingNotifications.Set(float64(q.total))
}

func (q *pendingQueue) Len(id uuid.UUID) int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items[id])
}
