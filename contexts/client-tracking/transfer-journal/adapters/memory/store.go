package memory

import (
	"context"
	"math/big"
	"sort"
	"strings"
	"sync"
	"time"

	"multisender/contexts/client-tracking/transfer-journal/domain/entities"
	domainerrors "multisender/contexts/client-tracking/transfer-journal/domain/errors"

	"github.com/google/uuid"
)

// Store is the journal's single serialized mutation point. Every operation
// holds the mutex for its full read-modify-write, so concurrent observers and
// user actions never interleave on the same entry.
type Store struct {
	mu      sync.Mutex
	entries map[string]entities.JournalEntry
}

func NewStore() *Store {
	return &Store{
		entries: make(map[string]entities.JournalEntry),
	}
}

func (s *Store) InsertEntry(_ context.Context, entry entities.JournalEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := strings.TrimSpace(entry.ID)
	if id == "" {
		return domainerrors.ErrInvalidEntryInput
	}
	if _, exists := s.entries[id]; exists {
		return domainerrors.ErrEntryExists
	}
	s.entries[id] = cloneEntry(entry)
	return nil
}

func (s *Store) GetEntry(_ context.Context, entryID string) (entities.JournalEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.entries[strings.TrimSpace(entryID)]
	if !ok {
		return entities.JournalEntry{}, domainerrors.ErrEntryNotFound
	}
	return cloneEntry(entry), nil
}

func (s *Store) ListEntries(_ context.Context) ([]entities.JournalEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	items := make([]entities.JournalEntry, 0, len(s.entries))
	for _, entry := range s.entries {
		items = append(items, cloneEntry(entry))
	}
	sort.Slice(items, func(i, j int) bool {
		return items[i].CreatedAt.After(items[j].CreatedAt)
	})
	return items, nil
}

func (s *Store) ResolveEntry(
	_ context.Context,
	entryID string,
	status entities.JournalStatus,
	confirmationID string,
	failureReason string,
	resolvedAt time.Time,
) (entities.JournalEntry, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := strings.TrimSpace(entryID)
	entry, ok := s.entries[id]
	if !ok {
		return entities.JournalEntry{}, false, domainerrors.ErrEntryNotFound
	}
	if entry.Status.Terminal() {
		// Terminal states never change again; racing signals are discarded.
		return cloneEntry(entry), false, nil
	}
	if !status.Terminal() {
		return entities.JournalEntry{}, false, domainerrors.ErrInvalidStatusTransition
	}

	ts := resolvedAt.UTC()
	entry.Status = status
	entry.ConfirmationID = confirmationID
	entry.FailureReason = failureReason
	entry.ResolvedAt = &ts
	s.entries[id] = entry
	return cloneEntry(entry), true, nil
}

func (s *Store) RemoveEntry(_ context.Context, entryID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := strings.TrimSpace(entryID)
	entry, ok := s.entries[id]
	if !ok {
		return domainerrors.ErrEntryNotFound
	}
	if entry.Status == entities.JournalStatusPending {
		return domainerrors.ErrEntryStillPending
	}
	delete(s.entries, id)
	return nil
}

func (s *Store) SweepEntries(_ context.Context, olderThan time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for id, entry := range s.entries {
		if !entry.Status.Terminal() {
			continue
		}
		if entry.CreatedAt.Before(olderThan) {
			delete(s.entries, id)
			removed++
		}
	}
	return removed, nil
}

func (s *Store) Now() time.Time {
	return time.Now().UTC()
}

func (s *Store) NewID(_ context.Context) (string, error) {
	return uuid.NewString(), nil
}

func cloneEntry(entry entities.JournalEntry) entities.JournalEntry {
	out := entry
	out.Recipients = make([]entities.RecipientSnapshot, len(entry.Recipients))
	for i, recipient := range entry.Recipients {
		out.Recipients[i] = entities.RecipientSnapshot{
			Address: recipient.Address,
			Amount:  new(big.Int).Set(recipient.Amount),
		}
	}
	if entry.TotalAmount != nil {
		out.TotalAmount = new(big.Int).Set(entry.TotalAmount)
	}
	if entry.ResolvedAt != nil {
		ts := *entry.ResolvedAt
		out.ResolvedAt = &ts
	}
	return out
}
