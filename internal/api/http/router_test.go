package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"service-portal-backend/internal/domain"
	"service-portal-backend/internal/metrics"
	"service-portal-backend/internal/security"
)

const testSecret = "0123456789abcdef0123456789abcdef"

type apiFixture struct {
	requests *MockRequestService
	ledger   *MockLedgerService
	tokens   security.TokenManager
	handler  http.Handler
}

type stubPinger struct{ err error }

func (p stubPinger) Ping(context.Context) error { return p.err }

func newAPI(t *testing.T, health Pinger) *apiFixture {
	t.Helper()
	reg := prometheus.NewRegistry()
	f := &apiFixture{
		requests: new(MockRequestService),
		ledger:   new(MockLedgerService),
		tokens:   security.NewTokenManager(testSecret, time.Hour),
	}
	f.handler = NewRouter(RouterDeps{
		Requests:     f.requests,
		Ledger:       f.ledger,
		TokenManager: f.tokens,
		Metrics:      metrics.New(reg),
		Gatherer:     reg,
		Health:       health,
	})
	return f
}

func (f *apiFixture) token(t *testing.T, id int32, roles ...string) string {
	t.Helper()
	tok, err := f.tokens.GenerateAccessToken(id, "user", "user@example.org", roles)
	require.NoError(t, err)
	return "Bearer " + tok
}

func (f *apiFixture) do(method, path, auth, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)
	return rec
}

func actorID(id int32) any {
	return mock.MatchedBy(func(ctx context.Context) bool {
		a, ok := security.ActorFromContext(ctx)
		return ok && a.ID == id
	})
}

func TestHealthz(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		f := newAPI(t, stubPinger{})
		rec := f.do(http.MethodGet, "/healthz", "", "")
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
	})

	t.Run("Unavailable", func(t *testing.T) {
		f := newAPI(t, stubPinger{err: errors.New("connection refused")})
		rec := f.do(http.MethodGet, "/healthz", "", "")
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	})
}

func TestMetricsEndpoint(t *testing.T) {
	f := newAPI(t, nil)
	f.do(http.MethodGet, "/healthz", "", "")

	rec := f.do(http.MethodGet, "/metrics", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "/healthz")
}

func TestAuth(t *testing.T) {
	f := newAPI(t, nil)

	t.Run("MissingToken", func(t *testing.T) {
		rec := f.do(http.MethodGet, "/api/v1/transactions", "", "")
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("BadToken", func(t *testing.T) {
		rec := f.do(http.MethodGet, "/api/v1/transactions", "Bearer nope", "")
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("ResidentOnStaffRoute", func(t *testing.T) {
		rec := f.do(http.MethodPost, "/api/v1/transactions/sync", f.token(t, 11, security.RoleResident),
			`{"service_type":"court","source_record_id":1}`)
		assert.Equal(t, http.StatusForbidden, rec.Code)
		f.ledger.AssertNotCalled(t, "Resync", mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestSubmit(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		f := newAPI(t, nil)
		tx := &domain.Transaction{ID: uuid.New(), ServiceType: domain.ServiceTypeCourt, Status: domain.StatusPending, SourceRecordID: 7}
		f.requests.On("Submit", actorID(11), mock.MatchedBy(func(rec domain.ServiceRecord) bool {
			c, ok := rec.(*domain.CourtBooking)
			return ok && c.CourtID == "court-a" && c.Date == "2026-05-02" && c.DurationHours == 2
		})).Return(tx, nil).Once()

		rec := f.do(http.MethodPost, "/api/v1/requests/court", f.token(t, 11, security.RoleResident),
			`{"court_id":"court-a","purpose":"league","date":"2026-05-02","start_time":"10:00","duration_hours":2}`)
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

		var body struct {
			Transaction domain.Transaction `json:"transaction"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, tx.ID, body.Transaction.ID)
		assert.Equal(t, domain.StatusPending, body.Transaction.Status)
		f.requests.AssertExpectations(t)
	})

	t.Run("Conflict", func(t *testing.T) {
		f := newAPI(t, nil)
		f.requests.On("Submit", mock.Anything, mock.Anything).Return(nil, domain.ErrReservationConflict).Once()

		rec := f.do(http.MethodPost, "/api/v1/requests/court", f.token(t, 11),
			`{"court_id":"court-a","date":"2026-05-02","start_time":"10:00","duration_hours":2}`)
		assert.Equal(t, http.StatusConflict, rec.Code)
		assert.Empty(t, rec.Header().Get("Retry-After"))
	})

	t.Run("ConcurrentConflict", func(t *testing.T) {
		f := newAPI(t, nil)
		f.requests.On("Submit", mock.Anything, mock.Anything).
			Return(nil, fmt.Errorf("reserve: %w", domain.ErrConcurrentConflict)).Once()

		rec := f.do(http.MethodPost, "/api/v1/requests/dispatch", f.token(t, 11),
			`{"vehicle_id":"amb-1","date":"2026-05-02","start_time":"10:00","duration_hours":2}`)
		assert.Equal(t, http.StatusConflict, rec.Code)
		assert.Equal(t, "1", rec.Header().Get("Retry-After"))
	})

	t.Run("UnknownType", func(t *testing.T) {
		f := newAPI(t, nil)
		rec := f.do(http.MethodPost, "/api/v1/requests/bakery", f.token(t, 11), `{}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("MalformedBody", func(t *testing.T) {
		f := newAPI(t, nil)
		rec := f.do(http.MethodPost, "/api/v1/requests/document", f.token(t, 11), `{"copies":`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		f.requests.AssertNotCalled(t, "Submit", mock.Anything, mock.Anything)
	})

	t.Run("InvalidWindow", func(t *testing.T) {
		f := newAPI(t, nil)
		f.requests.On("Submit", mock.Anything, mock.Anything).Return(nil, domain.ErrInvalidWindow).Once()
		rec := f.do(http.MethodPost, "/api/v1/requests/court", f.token(t, 11),
			`{"court_id":"court-a","date":"2026-05-02","start_time":"10:00","duration_hours":0}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestGetRequest(t *testing.T) {
	f := newAPI(t, nil)
	doc := &domain.DocumentRequest{RecordMeta: domain.RecordMeta{ID: 3, OwnerID: 11, Status: "pending"}, DocumentType: "cedula"}
	f.requests.On("Get", mock.Anything, domain.ServiceTypeDocument, int32(3)).Return(doc, nil, nil).Once()
	f.requests.On("Get", mock.Anything, domain.ServiceTypeDocument, int32(4)).Return(nil, nil, domain.ErrForbidden).Once()
	f.requests.On("Get", mock.Anything, domain.ServiceTypeDocument, int32(5)).Return(nil, nil, domain.ErrSourceNotFound).Once()

	rec := f.do(http.MethodGet, "/api/v1/requests/document/3", f.token(t, 11), "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"document_type":"cedula"`)

	assert.Equal(t, http.StatusForbidden, f.do(http.MethodGet, "/api/v1/requests/document/4", f.token(t, 11), "").Code)
	assert.Equal(t, http.StatusNotFound, f.do(http.MethodGet, "/api/v1/requests/document/5", f.token(t, 11), "").Code)
	assert.Equal(t, http.StatusBadRequest, f.do(http.MethodGet, "/api/v1/requests/document/abc", f.token(t, 11), "").Code)
}

func TestChangeStatus(t *testing.T) {
	f := newAPI(t, nil)
	tx := &domain.Transaction{ID: uuid.New(), Status: domain.StatusCompleted}
	f.requests.On("ChangeStatus", actorID(90), domain.ServiceTypeReport, int32(2), "Resolved",
		mock.MatchedBy(func(c *string) bool { return c != nil && *c == "fixed" })).Return(tx, nil).Once()

	rec := f.do(http.MethodPut, "/api/v1/requests/report/2/status", f.token(t, 90, security.RoleStaff),
		`{"status":"Resolved","comment":"fixed"}`)
	assert.Equal(t, http.StatusOK, rec.Code)
	f.requests.AssertExpectations(t)

	rec = f.do(http.MethodPut, "/api/v1/requests/report/2/status", f.token(t, 11, security.RoleResident),
		`{"status":"Resolved"}`)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestRemove(t *testing.T) {
	f := newAPI(t, nil)
	tx := &domain.Transaction{ID: uuid.New(), Status: domain.StatusCancelled}
	f.requests.On("Remove", mock.Anything, domain.ServiceTypeProposal, int32(4), "duplicate").Return(tx, nil).Once()
	f.requests.On("Remove", mock.Anything, domain.ServiceTypeProposal, int32(5), "record removed").Return(tx, nil).Once()

	staff := f.token(t, 90, security.RoleAdmin)
	assert.Equal(t, http.StatusOK, f.do(http.MethodDelete, "/api/v1/requests/proposal/4", staff, `{"comment":"duplicate"}`).Code)
	assert.Equal(t, http.StatusOK, f.do(http.MethodDelete, "/api/v1/requests/proposal/5", staff, "").Code)
	f.requests.AssertExpectations(t)
}

func TestAvailability(t *testing.T) {
	f := newAPI(t, nil)
	slot := domain.Slot{Date: "2026-05-02", StartTime: "11:00", DurationHours: 1.5}
	f.requests.On("CheckAvailability", mock.Anything, domain.ServiceTypeCourt, "court-a", slot).Return(false, nil).Once()

	rec := f.do(http.MethodGet, "/api/v1/availability/court?resource=court-a&date=2026-05-02&start_time=11:00&duration_hours=1.5",
		f.token(t, 11), "")
	require.Equal(t, http.StatusOK, rec.Code)

	var body availabilityResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.False(t, body.Available)

	rec = f.do(http.MethodGet, "/api/v1/availability/court?date=2026-05-02&start_time=11:00&duration_hours=1", f.token(t, 11), "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = f.do(http.MethodGet, "/api/v1/availability/court?resource=court-a&date=2026-05-02&start_time=11:00&duration_hours=x", f.token(t, 11), "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestListTransactions(t *testing.T) {
	f := newAPI(t, nil)
	txs := []domain.Transaction{{ID: uuid.New(), ServiceType: domain.ServiceTypeCourt, Status: domain.StatusApproved}}
	f.ledger.On("List", mock.Anything, mock.MatchedBy(func(fl domain.TransactionFilter) bool {
		return fl.ServiceType == domain.ServiceTypeCourt && fl.Status == domain.StatusApproved &&
			fl.Page == 2 && fl.PageSize == 10 && fl.OwnerID == nil
	})).Return(txs, int32(11), nil).Once()

	rec := f.do(http.MethodGet, "/api/v1/transactions?service_type=court&status=approved&page=2&page_size=10",
		f.token(t, 90, security.RoleStaff), "")
	require.Equal(t, http.StatusOK, rec.Code)

	var body listResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, int32(11), body.TotalCount)
	assert.Equal(t, int32(2), body.Page)
	assert.Equal(t, int32(10), body.PageSize)
	assert.Len(t, body.Transactions, 1)

	rec = f.do(http.MethodGet, "/api/v1/transactions?status=booked", f.token(t, 90, security.RoleStaff), "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDecide(t *testing.T) {
	id := uuid.New()

	t.Run("Success", func(t *testing.T) {
		f := newAPI(t, nil)
		tx := &domain.Transaction{ID: id, Status: domain.StatusApproved}
		f.ledger.On("Decide", actorID(90), id, domain.StatusApproved, (*string)(nil)).Return(tx, nil).Once()

		rec := f.do(http.MethodPost, "/api/v1/transactions/"+id.String()+"/decision", f.token(t, 90, security.RoleStaff),
			`{"status":"approved"}`)
		require.Equal(t, http.StatusOK, rec.Code)

		var body domain.Transaction
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, id, body.ID)
		assert.Equal(t, domain.StatusApproved, body.Status)
	})

	t.Run("SlotTakenAgain", func(t *testing.T) {
		f := newAPI(t, nil)
		f.ledger.On("Decide", mock.Anything, id, domain.StatusApproved, (*string)(nil)).
			Return(nil, fmt.Errorf("push approved to court record 1: %w", domain.ErrReservationConflict)).Once()

		rec := f.do(http.MethodPost, "/api/v1/transactions/"+id.String()+"/decision", f.token(t, 90, security.RoleStaff),
			`{"status":"approved"}`)
		assert.Equal(t, http.StatusConflict, rec.Code)
		assert.Empty(t, rec.Header().Get("Retry-After"))
	})

	t.Run("NoEquivalentStatus", func(t *testing.T) {
		f := newAPI(t, nil)
		f.ledger.On("Decide", mock.Anything, id, domain.StatusRejected, (*string)(nil)).
			Return(nil, fmt.Errorf("%w: \"rejected\" has no court equivalent", domain.ErrInvalidStatus)).Once()

		rec := f.do(http.MethodPost, "/api/v1/transactions/"+id.String()+"/decision", f.token(t, 90, security.RoleStaff),
			`{"status":"rejected"}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("NotFound", func(t *testing.T) {
		f := newAPI(t, nil)
		f.ledger.On("Decide", mock.Anything, id, domain.StatusCancelled, mock.Anything).Return(nil, domain.ErrLedgerNotFound).Once()

		rec := f.do(http.MethodPost, "/api/v1/transactions/"+id.String()+"/decision", f.token(t, 90, security.RoleStaff),
			`{"status":"cancelled","comment":"no show"}`)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("BadID", func(t *testing.T) {
		f := newAPI(t, nil)
		rec := f.do(http.MethodPost, "/api/v1/transactions/42/decision", f.token(t, 90, security.RoleStaff), `{"status":"approved"}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestGetTransactionAndSync(t *testing.T) {
	f := newAPI(t, nil)
	id := uuid.New()
	tx := &domain.Transaction{ID: id, ServiceType: domain.ServiceTypeDocument, SourceRecordID: 8}
	f.ledger.On("Get", actorID(11), id).Return(tx, nil).Once()
	f.ledger.On("Resync", actorID(90), domain.ServiceTypeDocument, int32(8)).Return(tx, nil).Once()

	rec := f.do(http.MethodGet, "/api/v1/transactions/"+id.String(), f.token(t, 11), "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = f.do(http.MethodPost, "/api/v1/transactions/sync", f.token(t, 90, security.RoleStaff),
		`{"service_type":"document","source_record_id":8}`)
	assert.Equal(t, http.StatusOK, rec.Code)
	f.ledger.AssertExpectations(t)
}

func TestStatusFor(t *testing.T) {
	assert.Equal(t, http.StatusInternalServerError, statusFor(errors.New("boom")))
	assert.Equal(t, http.StatusBadRequest, statusFor(fmt.Errorf("x: %w", domain.ErrUnknownServiceType)))
	assert.Equal(t, http.StatusNotFound, statusFor(fmt.Errorf("x: %w", domain.ErrSourceNotFound)))
}
