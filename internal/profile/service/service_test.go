package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"

	"vaultspark/internal/notify"
	"vaultspark/internal/profile/models"
	"vaultspark/internal/profile/store"
	id "vaultspark/pkg/domain"
	dErrors "vaultspark/pkg/domain-errors"
	"vaultspark/pkg/platform/sentinel"
)

type recordingNotifier struct {
	mu      sync.Mutex
	notices []notify.Notice
}

func (r *recordingNotifier) Notify(_ context.Context, n notify.Notice) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notices = append(r.notices, n)
}

// countingStore counts writes and can be made to fail them.
type countingStore struct {
	*store.InMemoryStore
	writes   int
	writeErr error
}

func (c *countingStore) UpdateProfile(ctx context.Context, userID id.UserID, u models.Update) (*models.Profile, error) {
	c.writes++
	if c.writeErr != nil {
		return nil, c.writeErr
	}
	return c.InMemoryStore.UpdateProfile(ctx, userID, u)
}

type ServiceSuite struct {
	suite.Suite
	store    *countingStore
	notifier *recordingNotifier
	service  *Service
	userID   id.UserID
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.store = &countingStore{InMemoryStore: store.NewInMemory()}
	s.notifier = &recordingNotifier{}
	s.service = New(s.store, WithNotifier(s.notifier))
	s.userID = id.NewUserID()
	s.Require().NoError(s.store.CreateProfile(context.Background(), models.Profile{
		UserID:        s.userID,
		Username:      "alice",
		WalletAddress: "0x00000000000000000000000000000000000000aa",
		CreatedAt:     time.Now(),
	}))
}

func ptr(v string) *string { return &v }

func (s *ServiceSuite) TestGet() {
	ctx := context.Background()

	p, err := s.service.Get(ctx, s.userID)
	s.Require().NoError(err)
	s.Equal("alice", p.Username)

	_, err = s.service.Get(ctx, id.NewUserID())
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))

	_, err = s.service.Get(ctx, id.UserID{})
	s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
}

func (s *ServiceSuite) TestUpdateKeepsWallet() {
	ctx := context.Background()
	p, err := s.service.Update(ctx, s.userID, UpdateRequest{
		Username:  ptr("  bob "),
		AvatarURL: ptr("https://example.com/bob.png"),
	})
	s.Require().NoError(err)
	s.Equal("bob", p.Username)
	s.Equal("https://example.com/bob.png", p.AvatarURL)
	s.Equal("0x00000000000000000000000000000000000000aa", p.WalletAddress)
	s.Equal([]notify.Notice{notify.Success(MsgUpdated)}, s.notifier.notices)
}

func (s *ServiceSuite) TestUpdateClearsAvatar() {
	ctx := context.Background()
	_, err := s.service.Update(ctx, s.userID, UpdateRequest{AvatarURL: ptr("https://example.com/a.png")})
	s.Require().NoError(err)

	p, err := s.service.Update(ctx, s.userID, UpdateRequest{AvatarURL: ptr("")})
	s.Require().NoError(err)
	s.Empty(p.AvatarURL)
	s.Equal("alice", p.Username)
}

func (s *ServiceSuite) TestUpdateValidation() {
	ctx := context.Background()

	_, err := s.service.Update(ctx, s.userID, UpdateRequest{AvatarURL: ptr("not a url")})
	s.True(dErrors.HasCode(err, dErrors.CodeValidation))

	long := make([]byte, 51)
	for i := range long {
		long[i] = 'x'
	}
	_, err = s.service.Update(ctx, s.userID, UpdateRequest{Username: ptr(string(long))})
	s.True(dErrors.HasCode(err, dErrors.CodeValidation))

	s.Zero(s.store.writes)
}

func (s *ServiceSuite) TestEmptyUpdateDoesNotWrite() {
	p, err := s.service.Update(context.Background(), s.userID, UpdateRequest{})
	s.Require().NoError(err)
	s.Equal("alice", p.Username)
	s.Zero(s.store.writes)
	s.Empty(s.notifier.notices)
}

func (s *ServiceSuite) TestUpdateStoreFailure() {
	s.store.writeErr = errors.Join(errors.New("connection reset"), sentinel.ErrUnavailable)
	_, err := s.service.Update(context.Background(), s.userID, UpdateRequest{Username: ptr("carol")})
	s.True(dErrors.HasCode(err, dErrors.CodePersistenceTransient))
	s.Require().Len(s.notifier.notices, 1)
	s.Equal(notify.LevelError, s.notifier.notices[0].Level)
}

func TestDisplayInitial(t *testing.T) {
	assert.Equal(t, "A", DisplayInitial(&models.Profile{Username: "alice"}, "zed@example.com"))
	assert.Equal(t, "Z", DisplayInitial(&models.Profile{}, "zed@example.com"))
	assert.Equal(t, "Z", DisplayInitial(nil, " zed@example.com"))
	assert.Equal(t, "É", DisplayInitial(&models.Profile{Username: "élodie"}, ""))
	assert.Equal(t, "U", DisplayInitial(nil, ""))
}
