package http

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"service-portal-backend/internal/domain"
)

type MockRequestService struct {
	mock.Mock
}

func (m *MockRequestService) Submit(ctx context.Context, rec domain.ServiceRecord) (*domain.Transaction, error) {
	args := m.Called(ctx, rec)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Transaction), args.Error(1)
}

func (m *MockRequestService) Get(ctx context.Context, st domain.ServiceType, id int32) (domain.ServiceRecord, *domain.Transaction, error) {
	args := m.Called(ctx, st, id)
	var rec domain.ServiceRecord
	if args.Get(0) != nil {
		rec = args.Get(0).(domain.ServiceRecord)
	}
	var tx *domain.Transaction
	if args.Get(1) != nil {
		tx = args.Get(1).(*domain.Transaction)
	}
	return rec, tx, args.Error(2)
}

func (m *MockRequestService) ChangeStatus(ctx context.Context, st domain.ServiceType, id int32, status string, comment *string) (*domain.Transaction, error) {
	args := m.Called(ctx, st, id, status, comment)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Transaction), args.Error(1)
}

func (m *MockRequestService) Remove(ctx context.Context, st domain.ServiceType, id int32, comment string) (*domain.Transaction, error) {
	args := m.Called(ctx, st, id, comment)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Transaction), args.Error(1)
}

func (m *MockRequestService) CheckAvailability(ctx context.Context, st domain.ServiceType, resource string, slot domain.Slot) (bool, error) {
	args := m.Called(ctx, st, resource, slot)
	return args.Bool(0), args.Error(1)
}

type MockLedgerService struct {
	mock.Mock
}

func (m *MockLedgerService) Get(ctx context.Context, id uuid.UUID) (*domain.Transaction, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Transaction), args.Error(1)
}

func (m *MockLedgerService) List(ctx context.Context, filter domain.TransactionFilter) ([]domain.Transaction, int32, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]domain.Transaction), args.Get(1).(int32), args.Error(2)
}

func (m *MockLedgerService) Decide(ctx context.Context, id uuid.UUID, status domain.CanonicalStatus, comment *string) (*domain.Transaction, error) {
	args := m.Called(ctx, id, status, comment)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Transaction), args.Error(1)
}

func (m *MockLedgerService) Resync(ctx context.Context, st domain.ServiceType, sourceID int32) (*domain.Transaction, error) {
	args := m.Called(ctx, st, sourceID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Transaction), args.Error(1)
}
