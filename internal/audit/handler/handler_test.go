package handler

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"clubroster/internal/audit"
	"clubroster/internal/audit/handler/mocks"
	"clubroster/internal/status"
)

type AuditHandlerSuite struct {
	suite.Suite
	ctx context.Context
}

func (s *AuditHandlerSuite) SetupSuite() {
	s.ctx = context.Background()
}

func TestAuditHandlerSuite(t *testing.T) {
	suite.Run(t, new(AuditHandlerSuite))
}

func newTestRouter(t *testing.T) (chi.Router, *mocks.MockLog, *mocks.MockDashboardReader) {
	t.Helper()
	ctrl := gomock.NewController(t)
	t.Cleanup(ctrl.Finish)
	mockLog := mocks.NewMockLog(ctrl)
	mockDashboard := mocks.NewMockDashboardReader(ctrl)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	r := chi.NewRouter()
	New(mockLog, mockDashboard, logger).Register(r)
	return r, mockLog, mockDashboard
}

func (s *AuditHandlerSuite) TestListRecentDefaultsLimit() {
	router, mockLog, _ := newTestRouter(s.T())
	entry := audit.Entry{
		ID:             uuid.New(),
		AdminCallSign:  "K6ADM",
		Action:         "Added new member",
		TargetCallSign: "W6ABC",
		CreatedAt:      time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC),
	}
	mockLog.EXPECT().ListRecent(gomock.Any(), 100).Return([]audit.Entry{entry}, nil)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/audit", nil))

	assert.Equal(s.T(), http.StatusOK, w.Code)
	var resp map[string][]audit.Entry
	require.NoError(s.T(), json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(s.T(), resp["entries"], 1)
	assert.Equal(s.T(), "Added new member", resp["entries"][0].Action)
	assert.Equal(s.T(), "K6ADM", resp["entries"][0].AdminCallSign)
}

func (s *AuditHandlerSuite) TestListRecentRejectsBadLimit() {
	router, _, _ := newTestRouter(s.T())

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/audit?limit=zero", nil))

	assert.Equal(s.T(), http.StatusBadRequest, w.Code)
	var resp map[string]string
	require.NoError(s.T(), json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(s.T(), "bad_request", resp["error"])
}

func (s *AuditHandlerSuite) TestListByTarget() {
	router, mockLog, _ := newTestRouter(s.T())
	mockLog.EXPECT().ListByTarget(gomock.Any(), "W6ABC").Return([]audit.Entry{
		{ID: uuid.New(), AdminCallSign: "K6ADM", Action: "Reset password", TargetCallSign: "W6ABC"},
	}, nil)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/audit/member/W6ABC", nil))

	assert.Equal(s.T(), http.StatusOK, w.Code)
	var resp map[string][]audit.Entry
	require.NoError(s.T(), json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(s.T(), resp["entries"], 1)
	assert.Equal(s.T(), "W6ABC", resp["entries"][0].TargetCallSign)
}

func (s *AuditHandlerSuite) TestDashboard() {
	router, _, mockDashboard := newTestRouter(s.T())
	mockDashboard.EXPECT().Dashboard(gomock.Any()).Return(&status.Dashboard{
		TotalMembers:     42,
		DuesCurrentCount: 30,
		TrulyActiveCount: 25,
	}, nil)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/dashboard", nil))

	assert.Equal(s.T(), http.StatusOK, w.Code)
	var resp status.Dashboard
	require.NoError(s.T(), json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(s.T(), 42, resp.TotalMembers)
	assert.Equal(s.T(), 30, resp.DuesCurrentCount)
}
