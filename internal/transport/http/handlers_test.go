package httptransport

//go:generate mockgen -source=ports.go -destination=mocks/mocks.go -package=mocks SessionService,EmailConfirmer,WalletService,ProfileService,AnalyticsService,NoticeFeed

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"vaultspark/internal/analytics"
	ledgermodels "vaultspark/internal/ledger/models"
	"vaultspark/internal/notify"
	"vaultspark/internal/platform/metrics"
	profilemodels "vaultspark/internal/profile/models"
	profileservice "vaultspark/internal/profile/service"
	"vaultspark/internal/session/models"
	"vaultspark/internal/transport/http/mocks"
	"vaultspark/internal/wallet"
	id "vaultspark/pkg/domain"
	dErrors "vaultspark/pkg/domain-errors"
	"vaultspark/pkg/testutil"
)

type HandlerSuite struct {
	suite.Suite
	ctrl      *gomock.Controller
	sessions  *mocks.MockSessionService
	confirmer *mocks.MockEmailConfirmer
	wallet    *mocks.MockWalletService
	profiles  *mocks.MockProfileService
	analytics *mocks.MockAnalyticsService
	notices   *mocks.MockNoticeFeed
	router    http.Handler
	userID    id.UserID
	authed    models.Snapshot
}

func TestHandlerSuite(t *testing.T) {
	suite.Run(t, new(HandlerSuite))
}

func (s *HandlerSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.sessions = mocks.NewMockSessionService(s.ctrl)
	s.confirmer = mocks.NewMockEmailConfirmer(s.ctrl)
	s.wallet = mocks.NewMockWalletService(s.ctrl)
	s.profiles = mocks.NewMockProfileService(s.ctrl)
	s.analytics = mocks.NewMockAnalyticsService(s.ctrl)
	s.notices = mocks.NewMockNoticeFeed(s.ctrl)
	s.userID = id.NewUserID()
	s.authed = models.Snapshot{
		Seq:    3,
		Status: models.StatusAuthenticated,
		Session: &models.Session{
			AccessToken: "access",
			ExpiresAt:   time.Date(2024, 6, 1, 11, 0, 0, 0, time.UTC),
			Identity:    models.Identity{UserID: s.userID, Email: "ada@example.com"},
		},
	}
	s.router = s.newHandler().Router()
}

func (s *HandlerSuite) newHandler(opts ...Option) *Handler {
	base := []Option{
		WithLogger(slog.New(slog.DiscardHandler)),
		WithEmailConfirmer(s.confirmer),
	}
	return New(s.sessions, s.wallet, s.profiles, s.analytics, s.notices, append(base, opts...)...)
}

func (s *HandlerSuite) do(method, path, body string) *httptest.ResponseRecorder {
	return testutil.DoRequest(s.router, testutil.NewRequestWithBody(s.T(), method, path, body))
}

func (s *HandlerSuite) decode(rec *httptest.ResponseRecorder, dst any) {
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), dst))
}

func (s *HandlerSuite) errorCode(rec *httptest.ResponseRecorder) string {
	var body struct {
		Error string `json:"error"`
	}
	s.decode(rec, &body)
	return body.Error
}

func (s *HandlerSuite) TestSignIn() {
	s.Run("success returns the session", func() {
		s.sessions.EXPECT().SignIn(gomock.Any(), "ada@example.com", "secret-pass").Return(nil)
		s.sessions.EXPECT().State().Return(s.authed)
		s.sessions.EXPECT().Profile().Return(&profilemodels.Profile{UserID: s.userID, Username: "ada"})

		rec := s.do(http.MethodPost, "/auth/sign-in", `{"email":"ada@example.com","password":"secret-pass"}`)
		s.Equal(http.StatusOK, rec.Code)

		body := testutil.UnmarshalResponse[sessionResponse](s.T(), rec)
		s.Equal(models.StatusAuthenticated, body.Status)
		s.Require().NotNil(body.Identity)
		s.Equal("ada@example.com", body.Identity.Email)
		s.Require().NotNil(body.Profile)
		s.Equal("ada", body.Profile.Username)
	})

	s.Run("invalid credentials", func() {
		s.sessions.EXPECT().SignIn(gomock.Any(), "ada@example.com", "nope").
			Return(dErrors.New(dErrors.CodeInvalidCredentials, "invalid email or password"))

		rec := s.do(http.MethodPost, "/auth/sign-in", `{"email":"ada@example.com","password":"nope"}`)
		testutil.AssertStatusAndError(s.T(), rec, http.StatusUnauthorized, string(dErrors.CodeInvalidCredentials))
	})

	s.Run("missing password is rejected before the session manager", func() {
		rec := s.do(http.MethodPost, "/auth/sign-in", `{"email":"ada@example.com"}`)
		s.Equal(http.StatusBadRequest, rec.Code)
		s.Equal(string(dErrors.CodeValidation), s.errorCode(rec))
	})

	s.Run("unknown field", func() {
		rec := s.do(http.MethodPost, "/auth/sign-in", `{"email":"a@b.co","password":"x","remember":true}`)
		s.Equal(http.StatusBadRequest, rec.Code)
		s.Equal(string(dErrors.CodeBadRequest), s.errorCode(rec))
	})
}

func (s *HandlerSuite) TestSignUp() {
	s.Run("confirmation pending", func() {
		s.sessions.EXPECT().SignUp(gomock.Any(), "new@example.com", "secret-pass").
			Return(models.SignUpResult{ConfirmationPending: true}, nil)
		s.sessions.EXPECT().State().Return(models.Snapshot{
			Status:       models.StatusAwaitingConfirmation,
			PendingEmail: "new@example.com",
		})
		s.sessions.EXPECT().Profile().Return(nil)

		rec := s.do(http.MethodPost, "/auth/sign-up", `{"email":"new@example.com","password":"secret-pass"}`)
		s.Equal(http.StatusAccepted, rec.Code)

		var body signUpResponse
		s.decode(rec, &body)
		s.True(body.ConfirmationPending)
		s.Equal(models.StatusAwaitingConfirmation, body.Session.Status)
		s.Equal("new@example.com", body.Session.PendingEmail)
		s.Nil(body.Session.Identity)
	})

	s.Run("signed in immediately", func() {
		s.sessions.EXPECT().SignUp(gomock.Any(), "ada@example.com", "secret-pass").
			Return(models.SignUpResult{Session: s.authed.Session}, nil)
		s.sessions.EXPECT().State().Return(s.authed)
		s.sessions.EXPECT().Profile().Return(nil)

		rec := s.do(http.MethodPost, "/auth/sign-up", `{"email":"ada@example.com","password":"secret-pass"}`)
		s.Equal(http.StatusCreated, rec.Code)
	})

	s.Run("network failure", func() {
		s.sessions.EXPECT().SignUp(gomock.Any(), gomock.Any(), gomock.Any()).
			Return(models.SignUpResult{}, dErrors.New(dErrors.CodeNetworkFailure, "identity provider unreachable"))

		rec := s.do(http.MethodPost, "/auth/sign-up", `{"email":"ada@example.com","password":"secret-pass"}`)
		s.Equal(http.StatusBadGateway, rec.Code)
	})
}

func (s *HandlerSuite) TestSignOutAlwaysSucceeds() {
	s.sessions.EXPECT().SignOut(gomock.Any()).Return(errors.New("provider unreachable"))
	rec := s.do(http.MethodPost, "/auth/sign-out", "")
	s.Equal(http.StatusNoContent, rec.Code)
}

func (s *HandlerSuite) TestConfirm() {
	s.Run("consumes the token", func() {
		s.confirmer.EXPECT().ConfirmEmail(gomock.Any(), "tok-1").Return(nil)
		rec := s.do(http.MethodPost, "/auth/confirm", `{"token":"tok-1"}`)
		s.Equal(http.StatusNoContent, rec.Code)
	})

	s.Run("unknown token", func() {
		s.confirmer.EXPECT().ConfirmEmail(gomock.Any(), "used").
			Return(dErrors.New(dErrors.CodeNotFound, "confirmation token not found"))
		rec := s.do(http.MethodPost, "/auth/confirm", `{"token":"used"}`)
		s.Equal(http.StatusNotFound, rec.Code)
	})

	s.Run("disabled without a confirmer", func() {
		s.router = New(s.sessions, s.wallet, s.profiles, s.analytics, s.notices,
			WithLogger(slog.New(slog.DiscardHandler))).Router()
		rec := s.do(http.MethodPost, "/auth/confirm", `{"token":"tok-1"}`)
		s.Equal(http.StatusNotFound, rec.Code)
	})
}

func (s *HandlerSuite) TestSessionRoute() {
	s.sessions.EXPECT().State().Return(models.Snapshot{Status: models.StatusError, Cause: dErrors.CodeNetworkFailure})
	s.sessions.EXPECT().Profile().Return(nil)

	rec := s.do(http.MethodGet, "/session", "")
	s.Equal(http.StatusOK, rec.Code)

	var body sessionResponse
	s.decode(rec, &body)
	s.Equal(models.StatusError, body.Status)
	s.Equal(dErrors.CodeNetworkFailure, body.Cause)
}

func (s *HandlerSuite) TestProtectedRoutesRequireSession() {
	for _, path := range []string{"/profile", "/portfolio", "/transactions/recent", "/admin/analytics"} {
		s.Run(path, func() {
			s.sessions.EXPECT().State().Return(models.Snapshot{Status: models.StatusUnauthenticated})
			rec := s.do(http.MethodGet, path, "")
			s.Equal(http.StatusUnauthorized, rec.Code)
		})
	}
}

func (s *HandlerSuite) TestProfile() {
	profile := &profilemodels.Profile{UserID: s.userID, Username: "ada"}

	s.Run("get", func() {
		s.sessions.EXPECT().State().Return(s.authed)
		s.profiles.EXPECT().Get(gomock.Any(), s.userID).Return(profile, nil)

		rec := s.do(http.MethodGet, "/profile", "")
		s.Equal(http.StatusOK, rec.Code)

		var body map[string]any
		s.decode(rec, &body)
		s.Equal("ada", body["username"])
		s.Equal("ada@example.com", body["email"])
		s.Equal("A", body["display_initial"])
	})

	s.Run("patch passes only the sent fields", func() {
		s.sessions.EXPECT().State().Return(s.authed)
		s.profiles.EXPECT().Update(gomock.Any(), s.userID, gomock.Any()).
			DoAndReturn(func(_ context.Context, _ id.UserID, req profileservice.UpdateRequest) (*profilemodels.Profile, error) {
				s.Require().NotNil(req.Username)
				s.Equal("lovelace", *req.Username)
				s.Nil(req.AvatarURL)
				return &profilemodels.Profile{UserID: s.userID, Username: "lovelace"}, nil
			})

		rec := s.do(http.MethodPatch, "/profile", `{"username":"lovelace"}`)
		s.Equal(http.StatusOK, rec.Code)
	})

	s.Run("patch validation failure", func() {
		s.sessions.EXPECT().State().Return(s.authed)
		s.profiles.EXPECT().Update(gomock.Any(), s.userID, gomock.Any()).
			Return(nil, dErrors.New(dErrors.CodeValidation, "avatar url must be a valid url"))

		rec := s.do(http.MethodPatch, "/profile", `{"avatar_url":"not a url"}`)
		s.Equal(http.StatusBadRequest, rec.Code)
	})
}

func (s *HandlerSuite) TestWallet() {
	addr := "0x52908400098527886e0f7030069857d2e4169ee7"

	s.Run("connect", func() {
		s.wallet.EXPECT().ConnectWallet(gomock.Any()).
			Return(wallet.Connection{Address: addr, Connected: true, Persisted: true}, nil)

		rec := s.do(http.MethodPost, "/wallet/connect", "")
		s.Equal(http.StatusOK, rec.Code)

		var body walletResponse
		s.decode(rec, &body)
		s.Equal(addr, body.Address)
		s.Equal(wallet.ShortAddress(addr), body.ShortAddress)
		s.True(body.Persisted)
	})

	s.Run("no provider", func() {
		s.wallet.EXPECT().ConnectWallet(gomock.Any()).
			Return(wallet.Connection{}, dErrors.New(dErrors.CodeWalletProviderAbsent, "no wallet provider available"))

		rec := s.do(http.MethodPost, "/wallet/connect", "")
		testutil.AssertStatusAndError(s.T(), rec, http.StatusUnprocessableEntity, string(dErrors.CodeWalletProviderAbsent))
	})

	s.Run("persistence failure keeps the local connection", func() {
		s.wallet.EXPECT().ConnectWallet(gomock.Any()).
			Return(wallet.Connection{Address: addr, Connected: true},
				dErrors.New(dErrors.CodePersistenceTransient, "failed to save wallet address, try again"))

		rec := s.do(http.MethodPost, "/wallet/connect", "")
		s.Equal(http.StatusServiceUnavailable, rec.Code)

		var body struct {
			Error  string         `json:"error"`
			Wallet walletResponse `json:"wallet"`
		}
		s.decode(rec, &body)
		s.Equal(string(dErrors.CodePersistenceTransient), body.Error)
		s.True(body.Wallet.Connected)
		s.False(body.Wallet.Persisted)
	})

	s.Run("get", func() {
		s.wallet.EXPECT().Connection().Return(wallet.Connection{})
		rec := s.do(http.MethodGet, "/wallet", "")
		s.Equal(http.StatusOK, rec.Code)
		s.JSONEq(`{"connected":false,"persisted":false}`, rec.Body.String())
	})
}

func (s *HandlerSuite) TestAnalytics() {
	s.Run("portfolio", func() {
		s.sessions.EXPECT().State().Return(s.authed)
		s.analytics.EXPECT().Portfolio(gomock.Any(), s.userID).Return(analytics.PortfolioStats{
			TotalBalance:      decimal.NewFromInt(100),
			TotalTransactions: 2,
			ProfitLoss:        decimal.NewFromInt(15),
			ActivePositions:   1,
		}, nil)

		rec := s.do(http.MethodGet, "/portfolio", "")
		s.Equal(http.StatusOK, rec.Code)
		s.JSONEq(`{"total_balance":"100","total_transactions":2,"profit_loss":"15","active_positions":1}`, rec.Body.String())
	})

	s.Run("recent transactions default limit", func() {
		s.sessions.EXPECT().State().Return(s.authed)
		s.analytics.EXPECT().RecentTransactions(gomock.Any(), s.userID, 0).Return(nil, nil)

		rec := s.do(http.MethodGet, "/transactions/recent", "")
		s.Equal(http.StatusOK, rec.Code)
		s.JSONEq(`{"transactions":[]}`, rec.Body.String())
	})

	s.Run("recent transactions explicit limit", func() {
		s.sessions.EXPECT().State().Return(s.authed)
		s.analytics.EXPECT().RecentTransactions(gomock.Any(), s.userID, 5).
			Return([]ledgermodels.Transaction{{UserID: s.userID, TransactionType: ledgermodels.TypeBuy}}, nil)

		rec := s.do(http.MethodGet, "/transactions/recent?limit=5", "")
		s.Equal(http.StatusOK, rec.Code)
	})

	s.Run("bad limit", func() {
		s.sessions.EXPECT().State().Return(s.authed)
		rec := s.do(http.MethodGet, "/transactions/recent?limit=0", "")
		s.Equal(http.StatusBadRequest, rec.Code)
	})

	s.Run("admin analytics forbidden", func() {
		s.sessions.EXPECT().State().Return(s.authed)
		s.analytics.EXPECT().Platform(gomock.Any(), s.userID).
			Return(analytics.PlatformStats{}, dErrors.New(dErrors.CodeForbidden, "admin role required"))

		rec := s.do(http.MethodGet, "/admin/analytics", "")
		s.Equal(http.StatusForbidden, rec.Code)
	})
}

func (s *HandlerSuite) TestNotifications() {
	s.Run("after cursor", func() {
		s.notices.EXPECT().List(uint64(4)).Return([]notify.Notice{{ID: 5, Level: notify.LevelSuccess, Message: "Wallet connected successfully!"}})

		rec := s.do(http.MethodGet, "/notifications?after=4", "")
		s.Equal(http.StatusOK, rec.Code)

		var body struct {
			Notices []notify.Notice `json:"notices"`
		}
		s.decode(rec, &body)
		s.Require().Len(body.Notices, 1)
		s.Equal(uint64(5), body.Notices[0].ID)
	})

	s.Run("malformed cursor", func() {
		rec := s.do(http.MethodGet, "/notifications?after=abc", "")
		s.Equal(http.StatusBadRequest, rec.Code)
	})
}

func (s *HandlerSuite) TestHealth() {
	s.Run("all healthy", func() {
		s.router = s.newHandler(WithHealthCheck("postgres", func(context.Context) error { return nil })).Router()
		rec := s.do(http.MethodGet, "/health", "")
		s.Equal(http.StatusOK, rec.Code)
		s.JSONEq(`{"status":"ok","checks":{"postgres":"ok"}}`, rec.Body.String())
	})

	s.Run("degraded", func() {
		s.router = s.newHandler(
			WithHealthCheck("postgres", func(context.Context) error { return nil }),
			WithHealthCheck("redis", func(context.Context) error { return errors.New("connection refused") }),
		).Router()
		rec := s.do(http.MethodGet, "/health", "")
		s.Equal(http.StatusServiceUnavailable, rec.Code)
		s.JSONEq(`{"status":"degraded","checks":{"postgres":"ok","redis":"unavailable"}}`, rec.Body.String())
	})
}

func (s *HandlerSuite) TestMetricsEndpoint() {
	m := metrics.New()
	s.router = s.newHandler(WithMetrics(m)).Router()
	s.sessions.EXPECT().State().Return(models.Snapshot{Status: models.StatusUnauthenticated})
	s.sessions.EXPECT().Profile().Return(nil)

	s.Equal(http.StatusOK, s.do(http.MethodGet, "/session", "").Code)
	rec := s.do(http.MethodGet, "/metrics", "")
	s.Equal(http.StatusOK, rec.Code)
	s.Contains(rec.Body.String(), "http_request_duration_seconds")
}

func (s *HandlerSuite) TestSessionStream() {
	unsubscribed := make(chan struct{})
	s.sessions.EXPECT().Profile().Return(nil).AnyTimes()
	s.sessions.EXPECT().OnSessionChange(gomock.Any()).DoAndReturn(func(handler func(models.Snapshot)) func() {
		go func() {
			handler(models.Snapshot{Seq: 1, Status: models.StatusUnauthenticated})
			handler(s.authed)
		}()
		return func() { close(unsubscribed) }
	})

	srv := httptest.NewServer(s.router)
	defer srv.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http")+"/session/stream", nil)
	s.Require().NoError(err)

	var msgs []streamMessage
	for len(msgs) == 0 || msgs[len(msgs)-1].Seq != s.authed.Seq {
		var msg streamMessage
		s.Require().NoError(conn.SetReadDeadline(time.Now().Add(5 * time.Second)))
		s.Require().NoError(conn.ReadJSON(&msg))
		msgs = append(msgs, msg)
	}
	last := msgs[len(msgs)-1]
	s.Equal(models.StatusAuthenticated, last.Status)
	s.Require().NotNil(last.Identity)
	s.Equal(s.userID, last.Identity.UserID)

	s.Require().NoError(conn.Close())
	select {
	case <-unsubscribed:
	case <-time.After(5 * time.Second):
		s.Fail("stream did not unsubscribe after the client left")
	}
}

func (s *HandlerSuite) TestCheckOrigin() {
	h := s.newHandler(WithAllowedOrigins([]string{"http://localhost:5173"}))

	req := httptest.NewRequest(http.MethodGet, "http://127.0.0.1:8080/session/stream", nil)
	s.True(h.checkOrigin(req))

	req.Header.Set("Origin", "http://localhost:5173")
	s.True(h.checkOrigin(req))

	req.Header.Set("Origin", "http://127.0.0.1:8080")
	s.True(h.checkOrigin(req))

	req.Header.Set("Origin", "https://evil.example")
	s.False(h.checkOrigin(req))
}

func (s *HandlerSuite) TestProfileReadsIdentityFromContext() {
	h := s.newHandler()
	s.profiles.EXPECT().Get(gomock.Any(), s.userID).Return(nil, nil)

	req := testutil.NewRequestWithBody(s.T(), http.MethodGet, "/profile", "")
	req = testutil.WithIdentity(req, s.userID, "zoe@example.com")
	req = testutil.WithTime(req, time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC))
	rec := testutil.DoRequest(http.HandlerFunc(h.handleGetProfile), req)

	s.Equal(http.StatusOK, rec.Code)
	body := testutil.UnmarshalResponse[map[string]any](s.T(), rec)
	s.Equal("zoe@example.com", (*body)["email"])
	s.Equal("Z", (*body)["display_initial"])
}
