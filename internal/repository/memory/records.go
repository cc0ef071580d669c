// Package memory holds in-process stores used by the memory database
// driver and by tests.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"service-portal-backend/internal/domain"
	"service-portal-backend/internal/repository"
)

type record[T any] interface {
	domain.ServiceRecord
	Clone() T
}

// RecordStore keeps records of one service type in a map. Records are
// cloned on the way in and out.
type RecordStore[T record[T]] struct {
	st     domain.ServiceType
	mu     sync.RWMutex
	rows   map[int32]T
	nextID int32
	now    func() time.Time
}

func NewRecordStore[T record[T]](st domain.ServiceType) *RecordStore[T] {
	return &RecordStore[T]{st: st, rows: make(map[int32]T), now: time.Now}
}

func (s *RecordStore[T]) ServiceType() domain.ServiceType { return s.st }

func (s *RecordStore[T]) cast(rec domain.ServiceRecord) (T, error) {
	t, ok := rec.(T)
	if !ok || rec.ServiceType() != s.st {
		var zero T
		return zero, domain.ErrRecordTypeMismatch
	}
	return t, nil
}

func (s *RecordStore[T]) Load(ctx context.Context, id int32) (domain.ServiceRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	row, ok := s.rows[id]
	if !ok {
		return nil, domain.ErrSourceNotFound
	}
	return row.Clone(), nil
}

func (s *RecordStore[T]) Create(ctx context.Context, rec domain.ServiceRecord) error {
	t, err := s.cast(rec)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.insertLocked(t)
	return nil
}

func (s *RecordStore[T]) insertLocked(t T) {
	s.nextID++
	now := s.now().UTC()
	m := t.Meta()
	m.ID = s.nextID
	m.CreatedOn = now
	m.UpdatedOn = now
	s.rows[m.ID] = t.Clone()
}

func (s *RecordStore[T]) Save(ctx context.Context, rec domain.ServiceRecord) error {
	if _, err := s.cast(rec); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saveLocked(rec.Meta())
}

func (s *RecordStore[T]) saveLocked(in *domain.RecordMeta) error {
	row, ok := s.rows[in.ID]
	if !ok {
		return domain.ErrSourceNotFound
	}
	m := row.Meta()
	m.Status = in.Status
	m.ProcessedBy = in.ProcessedBy
	m.AdminComment = in.AdminComment
	m.UpdatedOn = s.now().UTC()
	in.UpdatedOn = m.UpdatedOn
	// Store a private copy of the pointers.
	s.rows[in.ID] = row.Clone()
	return nil
}

func (s *RecordStore[T]) Delete(ctx context.Context, id int32) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.rows[id]; !ok {
		return domain.ErrSourceNotFound
	}
	delete(s.rows, id)
	return nil
}

func (s *RecordStore[T]) ListUpdatedSince(ctx context.Context, since time.Time) ([]int32, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var ids []int32
	for id, row := range s.rows {
		if !row.Meta().UpdatedOn.Before(since) {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

var _ repository.SourceStore = (*RecordStore[*domain.DocumentRequest])(nil)
