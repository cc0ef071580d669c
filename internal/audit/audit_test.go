package audit

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type MockStore struct {
	mock.Mock
}

func (m *MockStore) InsertAudit(ctx context.Context, e Entry) error {
	args := m.Called(ctx, e)
	return args.Error(0)
}

type panicLogger struct{}

func (panicLogger) Log(context.Context, Entry) { panic("sink exploded") }

func TestStoreLogger(t *testing.T) {
	ctx := context.Background()
	fixed := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)

	t.Run("Success", func(t *testing.T) {
		store := new(MockStore)
		l := &storeLogger{store: store, now: func() time.Time { return fixed }}
		store.On("InsertAudit", ctx, mock.MatchedBy(func(e Entry) bool {
			return e.ActionCode == ActionLedgerDecision && e.CreatedAt.Equal(fixed)
		})).Return(nil)

		l.Log(ctx, Entry{ActorName: "clerk", ActionCode: ActionLedgerDecision, SubjectID: "tx-1"})
		store.AssertExpectations(t)
	})

	t.Run("Store error swallowed", func(t *testing.T) {
		store := new(MockStore)
		store.On("InsertAudit", ctx, mock.Anything).Return(errors.New("db down"))
		assert.NotPanics(t, func() {
			NewStoreLogger(store).Log(ctx, Entry{ActionCode: ActionLedgerSynced})
		})
		store.AssertExpectations(t)
	})
}

func TestSafe(t *testing.T) {
	assert.NotPanics(t, func() {
		Safe(panicLogger{}).Log(context.Background(), Entry{ActionCode: ActionLedgerRetired})
	})
	assert.NotPanics(t, func() {
		Safe(nil).Log(context.Background(), Entry{})
	})
}
