package service

//go:generate mockgen -source=ports.go -destination=mocks/mocks.go -package=mocks ProfileLister,LedgerReader,RoleChecker

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"vaultspark/internal/analytics/service/mocks"
	ledgermodels "vaultspark/internal/ledger/models"
	profilemodels "vaultspark/internal/profile/models"
	id "vaultspark/pkg/domain"
	dErrors "vaultspark/pkg/domain-errors"
	"vaultspark/pkg/platform/audit"
	auditstore "vaultspark/pkg/platform/audit/store/memory"
	"vaultspark/pkg/platform/sentinel"
	"vaultspark/pkg/requestcontext"
)

type ServiceSuite struct {
	suite.Suite
	ctx      context.Context
	ctrl     *gomock.Controller
	profiles *mocks.MockProfileLister
	ledger   *mocks.MockLedgerReader
	roles    *mocks.MockRoleChecker
	audit    *auditstore.InMemoryStore
	metrics  *Metrics
	service  *Service
	userID   id.UserID
	now      time.Time
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.profiles = mocks.NewMockProfileLister(s.ctrl)
	s.ledger = mocks.NewMockLedgerReader(s.ctrl)
	s.roles = mocks.NewMockRoleChecker(s.ctrl)
	s.audit = auditstore.NewInMemoryStore()
	s.metrics = NewMetrics(prometheus.NewRegistry())
	s.userID = id.NewUserID()
	s.now = time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	s.ctx = requestcontext.WithTime(context.Background(), s.now)

	s.service = New(s.profiles, s.ledger, s.roles,
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		WithMetrics(s.metrics),
		WithAuditEmitter(emitter{s.audit}),
		WithLocation(time.UTC),
	)
}

func (s *ServiceSuite) TearDownTest() {
	s.ctrl.Finish()
}

type emitter struct {
	store audit.Store
}

func (e emitter) Emit(ctx context.Context, event audit.Event) error {
	return e.store.Append(ctx, event)
}

func completed(user id.UserID, typ string, amount int64, at time.Time) ledgermodels.Transaction {
	return ledgermodels.Transaction{
		ID:              id.NewTransactionID(),
		UserID:          user,
		TransactionType: typ,
		Amount:          decimal.NewNullDecimal(decimal.NewFromInt(amount)),
		Status:          ledgermodels.StatusCompleted,
		CreatedAt:       at,
	}
}

func (s *ServiceSuite) TestPortfolio() {
	s.Run("aggregates the caller's rows", func() {
		s.ledger.EXPECT().
			ListTransactions(gomock.Any(), ledgermodels.Filter{UserID: s.userID}, ledgermodels.OrderNone, 0).
			Return([]ledgermodels.Transaction{
				completed(s.userID, "buy", 100, s.now),
				completed(s.userID, "sell", 30, s.now),
			}, nil)

		stats, err := s.service.Portfolio(s.ctx, s.userID)
		s.Require().NoError(err)
		s.True(stats.TotalBalance.Equal(decimal.NewFromInt(70)))
		s.Equal(2, stats.TotalTransactions)
	})

	s.Run("anonymous caller is unauthorized", func() {
		_, err := s.service.Portfolio(s.ctx, id.UserID{})
		s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})

	s.Run("unavailable store is transient", func() {
		s.ledger.EXPECT().ListTransactions(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
			Return(nil, fmt.Errorf("query: %w", sentinel.ErrUnavailable))

		_, err := s.service.Portfolio(s.ctx, s.userID)
		s.True(dErrors.HasCode(err, dErrors.CodePersistenceTransient))
	})
}

func (s *ServiceSuite) TestRecentTransactions() {
	s.ledger.EXPECT().
		ListTransactions(gomock.Any(), ledgermodels.Filter{UserID: s.userID}, ledgermodels.OrderNewestFirst, DefaultRecentTransactions).
		Return([]ledgermodels.Transaction{completed(s.userID, "buy", 1, s.now)}, nil)

	txs, err := s.service.RecentTransactions(s.ctx, s.userID, 0)
	s.Require().NoError(err)
	s.Len(txs, 1)
}

func (s *ServiceSuite) TestPlatform() {
	s.Run("non-admin is forbidden and audited", func() {
		s.roles.EXPECT().HasRole(gomock.Any(), s.userID, DefaultAdminRole).Return(false, nil)

		_, err := s.service.Platform(s.ctx, s.userID)
		s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
		s.Equal(float64(1), testutil.ToFloat64(s.metrics.AdminDenied))

		events, _ := s.audit.ListByUser(s.ctx, s.userID)
		s.Require().Len(events, 1)
		s.Equal(string(audit.EventAdminAccessDenied), events[0].Action)
	})

	s.Run("admin gets the platform view", func() {
		s.audit.Clear()
		other := id.NewUserID()
		s.roles.EXPECT().HasRole(gomock.Any(), s.userID, DefaultAdminRole).Return(true, nil)
		s.profiles.EXPECT().ListProfiles(gomock.Any()).Return([]profilemodels.Profile{
			{UserID: s.userID, WalletAddress: "0x1111111111111111111111111111111111111111", CreatedAt: s.now},
			{UserID: other, Username: "bob", CreatedAt: s.now.Add(-time.Hour)},
		}, nil)
		s.ledger.EXPECT().
			ListTransactions(gomock.Any(), ledgermodels.Filter{Status: ledgermodels.StatusCompleted}, ledgermodels.OrderNone, 0).
			Return([]ledgermodels.Transaction{
				completed(s.userID, "buy", 100, s.now),
				completed(other, "sell", 30, s.now.Add(-48*time.Hour)),
			}, nil)

		stats, err := s.service.Platform(s.ctx, s.userID)
		s.Require().NoError(err)
		s.Equal(2, stats.TotalUsers)
		s.Equal(1, stats.ConnectedWallets)
		s.Equal(2, stats.TotalTransactions)
		s.True(stats.TotalVolume.Equal(decimal.NewFromInt(130)))
		s.Require().Len(stats.VolumeByDay, 7)
		s.Equal("2025-03-10", stats.VolumeByDay[6].Date)
		s.True(stats.VolumeByDay[6].Volume.Equal(decimal.NewFromInt(100)))
		s.True(stats.VolumeByDay[4].Volume.Equal(decimal.NewFromInt(30)))
		s.Require().Len(stats.RecentUsers, 2)
		s.Equal("Anonymous", stats.RecentUsers[0].Username)
		s.Equal("bob", stats.RecentUsers[1].Username)

		events, _ := s.audit.ListByUser(s.ctx, s.userID)
		s.Require().Len(events, 1)
		s.Equal(string(audit.EventAdminAnalyticsViewed), events[0].Action)
	})

	s.Run("a failed fetch fails the view", func() {
		s.roles.EXPECT().HasRole(gomock.Any(), s.userID, DefaultAdminRole).Return(true, nil)
		s.profiles.EXPECT().ListProfiles(gomock.Any()).Return(nil, errors.New("boom"))
		s.ledger.EXPECT().ListTransactions(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
			Return(nil, nil).AnyTimes()

		_, err := s.service.Platform(s.ctx, s.userID)
		s.True(dErrors.HasCode(err, dErrors.CodeInternal))
	})

	s.Run("role lookup failure is surfaced", func() {
		s.roles.EXPECT().HasRole(gomock.Any(), s.userID, DefaultAdminRole).
			Return(false, sentinel.ErrUnavailable)

		_, err := s.service.Platform(s.ctx, s.userID)
		s.True(dErrors.HasCode(err, dErrors.CodePersistenceTransient))
	})
}
