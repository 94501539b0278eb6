// Package history keeps the in-memory log of executed instructions.
//
// The log is newest-first and unbounded for the life of the process. It is
// never persisted.
package history

import (
	"fmt"
	"sync"
	"time"
)

// Record is one completed execution, successful or not.
type Record struct {
	ID          string    `json:"id"`
	Timestamp   time.Time `json:"timestamp"`
	Instruction string    `json:"instruction"`
	Action      string    `json:"action"`
	Success     bool      `json:"success"`
	Outcome     string    `json:"outcome"`
}

// String renders the record as a history line: "[15:04:05] text -> outcome".
func (r Record) String() string {
	return fmt.Sprintf("[%s] %s -> %s", r.Timestamp.Format(time.TimeOnly), r.Instruction, r.Outcome)
}

// Log is an append-only record list with live subscribers.
type Log struct {
	mu      sync.RWMutex
	records []Record // oldest first; List reverses
	subs    map[int]chan Record
	nextSub int
}

// NewLog creates an empty log.
func NewLog() *Log {
	return &Log{subs: make(map[int]chan Record)}
}

// Add records r as the newest entry and fans it out to subscribers.
// Subscribers that are not keeping up miss the record.
func (l *Log) Add(r Record) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.records = append(l.records, r)
	for _, ch := range l.subs {
		select {
		case ch <- r:
		default:
		}
	}
}

// List returns a copy of all records, newest first.
func (l *Log) List() []Record {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make([]Record, len(l.records))
	for i, r := range l.records {
		out[len(l.records)-1-i] = r
	}
	return out
}

// Len returns the number of records.
func (l *Log) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.records)
}

// Subscribe returns a channel receiving every record added from now on, and
// a function that unsubscribes and closes the channel.
func (l *Log) Subscribe(buffer int) (<-chan Record, func()) {
	ch := make(chan Record, buffer)

	l.mu.Lock()
	id := l.nextSub
	l.nextSub++
	l.subs[id] = ch
	l.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			l.mu.Lock()
			delete(l.subs, id)
			l.mu.Unlock()
			close(ch)
		})
	}
}
