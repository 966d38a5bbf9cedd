package sqlite_test

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"user-hub/internal/domain"
	"user-hub/internal/repository"
	"user-hub/internal/repository/sqlite"
)

func newTestRepo(t *testing.T) repository.UserRepository {
	t.Helper()

	db, err := sqlite.Open(filepath.Join(t.TempDir(), "users.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	repo := sqlite.NewUserRepository(db)
	require.NoError(t, repo.Init(context.Background()))
	return repo
}

func newUser(email string) *domain.User {
	return &domain.User{
		ID:           uuid.NewString(),
		FullName:     "Test User",
		Email:        domain.NormalizeEmail(email),
		PasswordHash: "$2a$10$fakehashfakehashfakehash",
		Role:         domain.RoleUser,
		Status:       domain.StatusActive,
	}
}

func TestCreateAndGet(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	user := newUser("a@x.com")
	require.NoError(t, repo.Create(ctx, user))
	assert.False(t, user.CreatedAt.IsZero())

	byEmail, err := repo.GetByEmail(ctx, "a@x.com")
	require.NoError(t, err)
	assert.Equal(t, user.ID, byEmail.ID)
	assert.Equal(t, domain.RoleUser, byEmail.Role)
	assert.Equal(t, domain.StatusActive, byEmail.Status)
	assert.Nil(t, byEmail.LastLogin)

	byID, err := repo.GetByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, user.Email, byID.Email)

	_, err = repo.GetByID(ctx, "no-such-id")
	assert.ErrorIs(t, err, repository.ErrNotFound)

	_, err = repo.GetByEmail(ctx, "nobody@x.com")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestCreateDuplicateEmail(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, newUser("a@x.com")))

	err := repo.Create(ctx, newUser("a@x.com"))
	assert.ErrorIs(t, err, repository.ErrDuplicateEmail)

	count, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, count)
}

func TestCount(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	count, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 0, count)

	require.NoError(t, repo.Create(ctx, newUser("a@x.com")))
	require.NoError(t, repo.Create(ctx, newUser("b@x.com")))

	count, err = repo.Count(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 2, count)
}

func TestUpdate(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	user := newUser("a@x.com")
	require.NoError(t, repo.Create(ctx, user))

	user.FullName = "Renamed"
	user.Status = domain.StatusInactive
	require.NoError(t, repo.Update(ctx, user))

	stored, err := repo.GetByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "Renamed", stored.FullName)
	assert.Equal(t, domain.StatusInactive, stored.Status)

	missing := newUser("ghost@x.com")
	assert.ErrorIs(t, repo.Update(ctx, missing), repository.ErrNotFound)
}

func TestUpdateDuplicateEmail(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, newUser("a@x.com")))
	user := newUser("b@x.com")
	require.NoError(t, repo.Create(ctx, user))

	user.Email = "a@x.com"
	assert.ErrorIs(t, repo.Update(ctx, user), repository.ErrDuplicateEmail)
}

func TestUpdateLastLoginLeavesOtherFields(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	user := newUser("a@x.com")
	require.NoError(t, repo.Create(ctx, user))

	at := time.Now().UTC().Truncate(time.Second)
	require.NoError(t, repo.UpdateLastLogin(ctx, user.ID, at))

	stored, err := repo.GetByID(ctx, user.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.LastLogin)
	assert.WithinDuration(t, at, *stored.LastLogin, time.Second)
	// the stored hash must be untouched by a login
	assert.Equal(t, user.PasswordHash, stored.PasswordHash)

	assert.ErrorIs(t, repo.UpdateLastLogin(ctx, "no-such-id", at), repository.ErrNotFound)
}

func TestListNewestFirst(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	var emails []string
	for i := 0; i < 5; i++ {
		email := fmt.Sprintf("user%d@x.com", i)
		emails = append(emails, email)
		require.NoError(t, repo.Create(ctx, newUser(email)))
		time.Sleep(2 * time.Millisecond)
	}

	users, err := repo.List(ctx, 0, 10)
	require.NoError(t, err)
	require.Len(t, users, 5)
	assert.Equal(t, emails[4], users[0].Email)
	assert.Equal(t, emails[0], users[4].Email)

	page, err := repo.List(ctx, 3, 2)
	require.NoError(t, err)
	require.Len(t, page, 2)
	assert.Equal(t, emails[1], page[0].Email)

	empty, err := repo.List(ctx, 10, 10)
	require.NoError(t, err)
	assert.Empty(t, empty)
}
