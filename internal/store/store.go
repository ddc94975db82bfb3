package store

import (
	"fmt"
	"sync"

	"github.com/pfrederiksen/datebook/internal/event"
	"github.com/pfrederiksen/datebook/internal/logger"
)

// Persister loads and saves the complete calendar. *storage.Storage
// implements it.
type Persister interface {
	Load() (event.Buckets, error)
	Save(event.Buckets) error
}

// Store is the single owner of all event records.
type Store struct {
	mu        sync.RWMutex
	persister Persister
	buckets   event.Buckets
}

// Open loads the calendar through p. Corrupt storage is returned as is so the
// caller can decide whether to abort.
func Open(p Persister) (*Store, error) {
	b, err := p.Load()
	if err != nil {
		return nil, err
	}
	if b == nil {
		b = event.Buckets{}
	}
	s := &Store{persister: p, buckets: b}
	s.recordSize()
	logger.Info("store opened", logger.Fields{"dates": len(b), "records": b.Len()})
	return s, nil
}

// Reload re-reads persisted state, replacing the in-memory calendar. On error
// the current calendar is kept.
func (s *Store) Reload() error {
	b, err := s.persister.Load()
	if err != nil {
		logger.Warn("reload failed, keeping current events", logger.Fields{"error": err.Error()})
		return err
	}
	if b == nil {
		b = event.Buckets{}
	}

	s.mu.Lock()
	s.buckets = b
	s.mu.Unlock()

	s.recordSize()
	logger.Debug("store reloaded", logger.Fields{"records": b.Len()})
	return nil
}

// Add appends a new record to the end of date's bucket and persists. Dates
// outside MinYear..MaxYear are rejected.
func (s *Store) Add(date event.Date, name, detail string) (event.Record, error) {
	if err := date.Validate(); err != nil {
		return event.Record{}, err
	}
	rec, err := event.NewRecord(name, detail)
	if err != nil {
		return event.Record{}, err
	}

	err = s.commit(func(next event.Buckets) error {
		next.Append(date, rec)
		return nil
	})
	if err != nil {
		return event.Record{}, err
	}

	logger.IncrCounter("store.add")
	logger.Info("event added", logger.Fields{"date": date.String(), "name": rec.Name})
	return rec, nil
}

// DeleteAt removes the record at position in date's bucket and persists. The
// date disappears when its last record is removed.
func (s *Store) DeleteAt(date event.Date, position int) error {
	var removed event.Record
	err := s.commit(func(next event.Buckets) error {
		rec, err := next.RemoveAt(date, position)
		removed = rec
		return err
	})
	if err != nil {
		return err
	}

	logger.IncrCounter("store.delete")
	logger.Info("event deleted", logger.Fields{
		"date":     date.String(),
		"position": position,
		"name":     removed.Name,
	})
	return nil
}

// EditAndMove replaces the record at (date, position) with a new record
// appended to newDate's bucket, even when newDate equals date. Both steps are
// persisted with a single save.
func (s *Store) EditAndMove(date event.Date, position int, newName, newDetail string, newDate event.Date) (event.Record, error) {
	rec, err := event.NewRecord(newName, newDetail)
	if err == nil {
		err = newDate.Validate()
	}
	if err != nil {
		// A stale reference is reported ahead of bad input.
		if _, nf := s.Get(date, position); nf != nil {
			return event.Record{}, nf
		}
		return event.Record{}, err
	}

	err = s.commit(func(next event.Buckets) error {
		if _, err := next.RemoveAt(date, position); err != nil {
			return err
		}
		next.Append(newDate, rec)
		return nil
	})
	if err != nil {
		return event.Record{}, err
	}

	logger.IncrCounter("store.edit")
	logger.Info("event edited", logger.Fields{
		"from_date":     date.String(),
		"from_position": position,
		"to_date":       newDate.String(),
		"name":          rec.Name,
	})
	return rec, nil
}

// Import appends every entry to its date's bucket, in order, with one save.
// If any entry has an invalid name nothing is added.
func (s *Store) Import(entries []event.Entry) (int, error) {
	recs := make([]event.Record, len(entries))
	for i, e := range entries {
		if err := e.Date.Validate(); err != nil {
			return 0, fmt.Errorf("entry %d: %w", i+1, err)
		}
		rec, err := event.NewRecord(e.Name, e.Detail)
		if err != nil {
			return 0, fmt.Errorf("entry %d (%s): %w", i+1, e.Date, err)
		}
		recs[i] = rec
	}
	if len(recs) == 0 {
		return 0, nil
	}

	err := s.commit(func(next event.Buckets) error {
		for i, rec := range recs {
			next.Append(entries[i].Date, rec)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	logger.IncrCounter("store.import")
	logger.Info("events imported", logger.Fields{"count": len(recs)})
	return len(recs), nil
}

// Get returns the record at (date, position).
func (s *Store) Get(date event.Date, position int) (event.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.buckets.Get(date, position)
}

// Upcoming returns records dated today through today+horizonDays.
func (s *Store) Upcoming(today event.Date, horizonDays int) []event.Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return event.Upcoming(s.buckets, today, horizonDays)
}

// AllEvents returns every record with its expired flag relative to today.
func (s *Store) AllEvents(today event.Date) []event.Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return event.AllEvents(s.buckets, today)
}

// Len returns the number of stored records.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.buckets.Len()
}

// Dates returns the dates that have at least one record, ascending.
func (s *Store) Dates() []event.Date {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.buckets.Dates()
}

// Buckets returns a deep copy of the calendar.
func (s *Store) Buckets() event.Buckets {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.buckets.Clone()
}

// commit applies mutate to a copy, saves it and swaps it in. Nothing changes
// if mutate or the save fails.
func (s *Store) commit(mutate func(next event.Buckets) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.buckets.Clone()
	if err := mutate(next); err != nil {
		return err
	}
	if err := s.persister.Save(next); err != nil {
		return fmt.Errorf("saving events: %w", err)
	}
	s.buckets = next
	logger.SetGauge("store.events", float64(next.Len()))
	return nil
}

func (s *Store) recordSize() {
	logger.SetGauge("store.events", float64(s.Len()))
}
