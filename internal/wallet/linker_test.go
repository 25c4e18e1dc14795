package wallet_test

//go:generate mockgen -source=ports.go -destination=mocks/mocks.go -package=mocks Provider,ProfileWriter,SessionView,Notifier

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"vaultspark/internal/notify"
	profilemodels "vaultspark/internal/profile/models"
	sessionmodels "vaultspark/internal/session/models"
	"vaultspark/internal/wallet"
	"vaultspark/internal/wallet/mocks"
	id "vaultspark/pkg/domain"
	dErrors "vaultspark/pkg/domain-errors"
	"vaultspark/pkg/platform/sentinel"
)

const (
	checksummed = "0x52908400098527886E0F7030069857D2E4169EE7"
	lowered     = "0x52908400098527886e0f7030069857d2e4169ee7"
)

type LinkerSuite struct {
	suite.Suite
	ctrl     *gomock.Controller
	provider *mocks.MockProvider
	profiles *mocks.MockProfileWriter
	session  *mocks.MockSessionView
	notifier *mocks.MockNotifier
	metrics  *wallet.Metrics
	linker   *wallet.Linker
	userID   id.UserID
}

func TestLinkerSuite(t *testing.T) {
	suite.Run(t, new(LinkerSuite))
}

func (s *LinkerSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.provider = mocks.NewMockProvider(s.ctrl)
	s.profiles = mocks.NewMockProfileWriter(s.ctrl)
	s.session = mocks.NewMockSessionView(s.ctrl)
	s.notifier = mocks.NewMockNotifier(s.ctrl)
	s.metrics = wallet.NewMetrics(prometheus.NewRegistry())
	s.userID = id.NewUserID()
	s.linker = wallet.New(s.provider, s.profiles, s.session,
		wallet.WithNotifier(s.notifier),
		wallet.WithMetrics(s.metrics),
	)
}

func (s *LinkerSuite) signedIn() {
	s.session.EXPECT().State().Return(sessionmodels.Snapshot{
		Seq:    3,
		Status: sessionmodels.StatusAuthenticated,
		Session: &sessionmodels.Session{
			AccessToken: "token-1",
			Identity:    sessionmodels.Identity{UserID: s.userID, Email: "alice@example.com"},
		},
	}).AnyTimes()
}

func (s *LinkerSuite) signedOut() {
	s.session.EXPECT().State().Return(sessionmodels.Snapshot{Status: sessionmodels.StatusUnauthenticated}).AnyTimes()
}

func (s *LinkerSuite) expectNotice(level notify.Level, code dErrors.Code) {
	s.notifier.EXPECT().Notify(gomock.Any(), gomock.Any()).Do(func(_ context.Context, n notify.Notice) {
		s.Equal(level, n.Level)
		s.Equal(code, n.Code)
	})
}

func (s *LinkerSuite) TestProviderAbsent() {
	s.Run("nil provider", func() {
		s.signedIn()
		s.expectNotice(notify.LevelError, dErrors.CodeWalletProviderAbsent)
		linker := wallet.New(nil, s.profiles, s.session, wallet.WithNotifier(s.notifier))

		_, err := linker.ConnectWallet(context.Background())
		s.True(dErrors.HasCode(err, dErrors.CodeWalletProviderAbsent))
		s.False(linker.Connection().Connected)
	})

	s.Run("provider unavailable", func() {
		s.provider.EXPECT().IsAvailable().Return(false)
		s.expectNotice(notify.LevelError, dErrors.CodeWalletProviderAbsent)

		_, err := s.linker.ConnectWallet(context.Background())
		s.True(dErrors.HasCode(err, dErrors.CodeWalletProviderAbsent))
		s.Equal(wallet.Connection{}, s.linker.Connection())
	})
}

func (s *LinkerSuite) TestRequestRejected() {
	cases := []struct {
		name     string
		accounts []string
		err      error
	}{
		{"provider error", nil, errors.New("user rejected the request")},
		{"empty account list", []string{}, nil},
		{"malformed address", []string{"0xnothex"}, nil},
	}
	for _, tc := range cases {
		s.Run(tc.name, func() {
			s.SetupTest()
			s.signedIn()
			s.provider.EXPECT().IsAvailable().Return(true)
			s.provider.EXPECT().RequestAccounts(gomock.Any()).Return(tc.accounts, tc.err)
			s.expectNotice(notify.LevelError, dErrors.CodeWalletRequestRejected)

			_, err := s.linker.ConnectWallet(context.Background())
			s.True(dErrors.HasCode(err, dErrors.CodeWalletRequestRejected), "got %v", err)
			s.False(s.linker.Connection().Connected)
		})
	}
}

func (s *LinkerSuite) TestConnectPersistsLowercasedAddress() {
	s.signedIn()
	s.provider.EXPECT().IsAvailable().Return(true).Times(2)
	s.provider.EXPECT().RequestAccounts(gomock.Any()).Return([]string{checksummed, "0xother"}, nil).Times(2)
	s.profiles.EXPECT().UpdateProfile(gomock.Any(), s.userID, gomock.Any()).DoAndReturn(
		func(_ context.Context, _ id.UserID, u profilemodels.Update) (*profilemodels.Profile, error) {
			s.Require().NotNil(u.WalletAddress)
			s.Equal(lowered, *u.WalletAddress)
			s.Nil(u.Username)
			return &profilemodels.Profile{UserID: s.userID, WalletAddress: lowered}, nil
		}).Times(1)
	s.notifier.EXPECT().Notify(gomock.Any(), notify.Success(wallet.MsgConnected)).Times(2)

	conn, err := s.linker.ConnectWallet(context.Background())
	s.Require().NoError(err)
	s.Equal(lowered, conn.Address)
	s.True(conn.Connected)
	s.True(conn.Persisted)

	// Same address again: re-confirmed without a second write.
	again, err := s.linker.ConnectWallet(context.Background())
	s.Require().NoError(err)
	s.Equal(conn, again)
	s.Equal(float64(1), testutil.ToFloat64(s.metrics.Connects.WithLabelValues("unchanged")))
}

func (s *LinkerSuite) TestConnectWithoutIdentityDoesNotPersist() {
	s.signedOut()
	s.provider.EXPECT().IsAvailable().Return(true)
	s.provider.EXPECT().RequestAccounts(gomock.Any()).Return([]string{lowered}, nil)
	s.notifier.EXPECT().Notify(gomock.Any(), notify.Success(wallet.MsgConnected))

	conn, err := s.linker.ConnectWallet(context.Background())
	s.Require().NoError(err)
	s.True(conn.Connected)
	s.False(conn.Persisted)
}

func (s *LinkerSuite) TestPersistenceFailures() {
	s.Run("transient failure keeps local connection and retry persists", func() {
		s.signedIn()
		s.provider.EXPECT().IsAvailable().Return(true).Times(2)
		s.provider.EXPECT().RequestAccounts(gomock.Any()).Return([]string{lowered}, nil).Times(2)
		gomock.InOrder(
			s.profiles.EXPECT().UpdateProfile(gomock.Any(), s.userID, gomock.Any()).
				Return(nil, fmt.Errorf("update profile: %w", sentinel.ErrUnavailable)),
			s.profiles.EXPECT().UpdateProfile(gomock.Any(), s.userID, gomock.Any()).
				Return(&profilemodels.Profile{UserID: s.userID, WalletAddress: lowered}, nil),
		)
		s.expectNotice(notify.LevelError, dErrors.CodePersistenceTransient)
		s.notifier.EXPECT().Notify(gomock.Any(), notify.Success(wallet.MsgConnected))

		conn, err := s.linker.ConnectWallet(context.Background())
		s.True(dErrors.HasCode(err, dErrors.CodePersistenceTransient), "got %v", err)
		s.True(conn.Connected)
		s.False(conn.Persisted)
		s.True(s.linker.Connection().Connected)

		conn, err = s.linker.ConnectWallet(context.Background())
		s.Require().NoError(err)
		s.True(conn.Persisted)
	})

	s.Run("missing profile is permanent", func() {
		s.SetupTest()
		s.signedIn()
		s.provider.EXPECT().IsAvailable().Return(true)
		s.provider.EXPECT().RequestAccounts(gomock.Any()).Return([]string{lowered}, nil)
		s.profiles.EXPECT().UpdateProfile(gomock.Any(), s.userID, gomock.Any()).Return(nil, sentinel.ErrNotFound)
		s.expectNotice(notify.LevelError, dErrors.CodePersistencePermanent)

		_, err := s.linker.ConnectWallet(context.Background())
		s.True(dErrors.HasCode(err, dErrors.CodePersistencePermanent))
		s.True(s.linker.Connection().Connected)
	})
}

func (s *LinkerSuite) TestConcurrentConnectsShareOneRequest() {
	s.signedIn()
	release := make(chan struct{})
	s.provider.EXPECT().IsAvailable().Return(true).Times(1)
	s.provider.EXPECT().RequestAccounts(gomock.Any()).DoAndReturn(func(context.Context) ([]string, error) {
		<-release
		return []string{lowered}, nil
	}).Times(1)
	s.profiles.EXPECT().UpdateProfile(gomock.Any(), s.userID, gomock.Any()).
		Return(&profilemodels.Profile{UserID: s.userID, WalletAddress: lowered}, nil).Times(1)
	s.notifier.EXPECT().Notify(gomock.Any(), notify.Success(wallet.MsgConnected)).Times(1)

	const callers = 5
	var wg sync.WaitGroup
	results := make([]wallet.Connection, callers)
	errs := make([]error, callers)
	for i := range callers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i], errs[i] = s.linker.ConnectWallet(context.Background())
		}()
	}
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	for i := range callers {
		s.Require().NoError(errs[i])
		s.Equal(results[0], results[i])
	}
	s.Equal(float64(callers), testutil.ToFloat64(s.metrics.SharedCalls))
}

func (s *LinkerSuite) TestResetDuringConnectDiscardsResult() {
	s.signedIn()
	requested := make(chan struct{})
	release := make(chan struct{})
	s.provider.EXPECT().IsAvailable().Return(true)
	s.provider.EXPECT().RequestAccounts(gomock.Any()).DoAndReturn(func(context.Context) ([]string, error) {
		close(requested)
		<-release
		return []string{lowered}, nil
	})
	// No UpdateProfile expectation: nothing may be persisted.

	done := make(chan error, 1)
	go func() {
		_, err := s.linker.ConnectWallet(context.Background())
		done <- err
	}()

	<-requested
	s.linker.Reset()
	close(release)

	err := <-done
	s.True(dErrors.HasCode(err, dErrors.CodeConflict), "got %v", err)
	s.Equal(wallet.Connection{}, s.linker.Connection())
}

func (s *LinkerSuite) TestCallerCancellationDoesNotAbortSharedRequest() {
	s.signedIn()
	s.provider.EXPECT().IsAvailable().Return(true)
	s.provider.EXPECT().RequestAccounts(gomock.Any()).DoAndReturn(func(ctx context.Context) ([]string, error) {
		s.NoError(ctx.Err())
		return []string{lowered}, nil
	})
	s.profiles.EXPECT().UpdateProfile(gomock.Any(), s.userID, gomock.Any()).
		Return(&profilemodels.Profile{UserID: s.userID, WalletAddress: lowered}, nil)
	s.notifier.EXPECT().Notify(gomock.Any(), gomock.Any())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	conn, err := s.linker.ConnectWallet(ctx)
	s.Require().NoError(err)
	s.True(conn.Persisted)
}

func (s *LinkerSuite) TestRestoreAndReset() {
	s.Equal(lowered, s.linker.Restore(s.userID, checksummed))
	conn := s.linker.Connection()
	s.Equal(lowered, conn.Address)
	s.True(conn.Connected)
	s.True(conn.Persisted)

	s.linker.Reset()
	s.Equal(wallet.Connection{}, s.linker.Connection())

	s.Empty(s.linker.Restore(s.userID, "garbage"))
	s.False(s.linker.Connection().Connected)
	s.Empty(s.linker.Restore(s.userID, ""))
}

func (s *LinkerSuite) TestRestoreKeepsNewerLink() {
	const stale = "0x1111111111111111111111111111111111111111"
	s.signedIn()
	s.provider.EXPECT().IsAvailable().Return(true)
	s.provider.EXPECT().RequestAccounts(gomock.Any()).Return([]string{checksummed}, nil)
	s.profiles.EXPECT().UpdateProfile(gomock.Any(), s.userID, gomock.Any()).
		Return(&profilemodels.Profile{UserID: s.userID, WalletAddress: lowered}, nil)
	s.notifier.EXPECT().Notify(gomock.Any(), gomock.Any())

	_, err := s.linker.ConnectWallet(context.Background())
	s.Require().NoError(err)

	s.Equal(lowered, s.linker.Restore(s.userID, stale))
	conn := s.linker.Connection()
	s.Equal(lowered, conn.Address)
	s.True(conn.Persisted)

	s.Run("another user's stored address replaces it", func() {
		other := id.NewUserID()
		s.Equal(stale, s.linker.Restore(other, stale))
		s.Equal(other, s.linker.Connection().UserID)
	})
}
