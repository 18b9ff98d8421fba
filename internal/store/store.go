// Package store holds the ordered, in-memory exchange log shown by renderers.
package store

import (
	"sort"
	"sync"

	apierrors "github.com/diogo/walrus/internal/errors"
	"github.com/diogo/walrus/internal/models"
)

// ChangeKind identifies the mutation that produced a Change
type ChangeKind int

const (
	ChangeAppend ChangeKind = iota
	ChangeReplace
)

// Change describes one accepted mutation of the log
type Change struct {
	Kind    ChangeKind
	Index   int
	Message models.Message
	Version uint64
}

// MessageStore is an append-mostly log of exchange messages.
// Mutations are serialized: observers are notified synchronously, and the
// next mutation is not accepted until every observer has returned. Observers
// may read the store but must not mutate it.
type MessageStore struct {
	writeMu sync.Mutex

	mu        sync.RWMutex
	messages  []models.Message
	version   uint64
	observers map[int]func(Change)
	nextID    int
}

// New creates an empty MessageStore
func New() *MessageStore {
	return &MessageStore{
		messages:  []models.Message{},
		observers: make(map[int]func(Change)),
	}
}

// Append adds a message at the end of the log and returns its index
func (s *MessageStore) Append(msg models.Message) int {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	s.mu.Lock()
	s.messages = append(s.messages, msg)
	index := len(s.messages) - 1
	s.version++
	change := Change{Kind: ChangeAppend, Index: index, Message: msg, Version: s.version}
	observers := s.observerList()
	s.mu.Unlock()

	notify(observers, change)
	return index
}

// ReplaceAt overwrites the message at index
func (s *MessageStore) ReplaceAt(index int, msg models.Message) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	s.mu.Lock()
	if index < 0 || index >= len(s.messages) {
		length := len(s.messages)
		s.mu.Unlock()
		return apierrors.NewIndexOutOfRangeError(index, length)
	}
	s.messages[index] = msg
	s.version++
	change := Change{Kind: ChangeReplace, Index: index, Message: msg, Version: s.version}
	observers := s.observerList()
	s.mu.Unlock()

	notify(observers, change)
	return nil
}

// Snapshot returns a copy of the log in insertion order
func (s *MessageStore) Snapshot() []models.Message {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.Message, len(s.messages))
	copy(out, s.messages)
	return out
}

// At returns the message at index
func (s *MessageStore) At(index int) (models.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if index < 0 || index >= len(s.messages) {
		return models.Message{}, apierrors.NewIndexOutOfRangeError(index, len(s.messages))
	}
	return s.messages[index], nil
}

// Len returns the number of messages in the log
func (s *MessageStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.messages)
}

// Version increases by one on every accepted mutation.
// Renderers use it to invalidate cached output.
func (s *MessageStore) Version() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.version
}

// Subscribe registers fn to be called after every mutation.
// The returned function removes the subscription.
func (s *MessageStore) Subscribe(fn func(Change)) func() {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.observers[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.observers, id)
		s.mu.Unlock()
	}
}

// observerList must be called with mu held
func (s *MessageStore) observerList() []func(Change) {
	if len(s.observers) == 0 {
		return nil
	}
	ids := make([]int, 0, len(s.observers))
	for id := range s.observers {
		ids = append(ids, id)
	}
	sort.Ints(ids) // registration order
	out := make([]func(Change), len(ids))
	for i, id := range ids {
		out[i] = s.observers[id]
	}
	return out
}

func notify(observers []func(Change), change Change) {
	for _, fn := range observers {
		fn(change)
	}
}
