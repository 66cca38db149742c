// Package crawl: BFS queue with deduplication.
// Maintains a visited set so the link source never fetches a page twice.
package crawl

// Queue is a BFS queue with URL deduplication.
type Queue struct {
	items   []string
	visited map[string]bool
	idx     int // current read position
}

// NewQueue creates an empty Queue.
func NewQueue() *Queue {
	return &Queue{
		visited: make(map[string]bool),
	}
}

// Add enqueues a URL if it hasn't been seen before and reports whether it
// was new.
func (q *Queue) Add(url string) bool {
	if q.visited[url] {
		return false
	}
	q.visited[url] = true
	q.items = append(q.items, url)
	return true
}

// HasNext returns true if there are unprocessed URLs.
func (q *Queue) HasNext() bool {
	return q.idx < len(q.items)
}

// Next returns the next unprocessed URL and advances the pointer.
func (q *Queue) Next() string {
	url := q.items[q.idx]
	q.idx++
	return url
}

// Processed returns how many URLs have been handed out by Next.
func (q *Queue) Processed() int {
	return q.idx
}

// All returns all discovered URLs in BFS order.
func (q *Queue) All() []string {
	return q.items
}
