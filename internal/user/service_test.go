package user_test

import (
	"context"
	"net/http"
	"testing"

	"github.com/alexedwards/argon2id"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/backend-rateio/internal/common"
	"github.com/noah-isme/backend-rateio/internal/user"
)

type memUsers struct {
	byID map[uuid.UUID]user.User
}

func newMemUsers() *memUsers {
	return &memUsers{byID: map[uuid.UUID]user.User{}}
}

func (m *memUsers) CreateUser(_ context.Context, u user.User) (user.User, error) {
	for _, existing := range m.byID {
		if existing.Username == u.Username || existing.Email == u.Email {
			return user.User{}, user.ErrDuplicate
		}
	}
	m.byID[u.ID] = u
	return u, nil
}

func (m *memUsers) GetUser(_ context.Context, id uuid.UUID) (user.User, error) {
	u, ok := m.byID[id]
	if !ok {
		return user.User{}, user.ErrNotFound
	}
	return u, nil
}

func (m *memUsers) GetUserByUsername(_ context.Context, username string) (user.User, error) {
	for _, u := range m.byID {
		if u.Username == username {
			return u, nil
		}
	}
	return user.User{}, user.ErrNotFound
}

func (m *memUsers) ListUsers(_ context.Context) ([]user.User, error) {
	out := make([]user.User, 0, len(m.byID))
	for _, u := range m.byID {
		out = append(out, u)
	}
	return out, nil
}

func (m *memUsers) UpdateUser(_ context.Context, u user.User) (user.User, error) {
	if _, ok := m.byID[u.ID]; !ok {
		return user.User{}, user.ErrNotFound
	}
	for id, existing := range m.byID {
		if id != u.ID && (existing.Username == u.Username || existing.Email == u.Email) {
			return user.User{}, user.ErrDuplicate
		}
	}
	m.byID[u.ID] = u
	return u, nil
}

func (m *memUsers) DeleteUser(_ context.Context, id uuid.UUID) error {
	if _, ok := m.byID[id]; !ok {
		return user.ErrNotFound
	}
	delete(m.byID, id)
	return nil
}

func selfPrincipal(id uuid.UUID) common.Principal {
	return common.Principal{ID: id.String(), Role: string(user.RoleMember)}
}

func TestRegister(t *testing.T) {
	store := newMemUsers()
	svc := user.NewService(store)

	created, err := svc.Register(context.Background(), user.RegisterInput{
		Name:     "Ana Souza",
		Username: "anasouza",
		Email:    "ana@example.com",
		Password: "s3cret-pass",
	})
	require.NoError(t, err)
	require.Equal(t, user.RoleMember, created.Role)
	require.NotEqual(t, "s3cret-pass", created.PasswordHash)

	match, err := argon2id.ComparePasswordAndHash("s3cret-pass", created.PasswordHash)
	require.NoError(t, err)
	require.True(t, match)

	t.Run("duplicate username conflicts", func(t *testing.T) {
		_, err := svc.Register(context.Background(), user.RegisterInput{
			Name:     "Other Ana",
			Username: "anasouza",
			Email:    "other@example.com",
			Password: "s3cret-pass",
		})
		var appErr *common.AppError
		require.ErrorAs(t, err, &appErr)
		require.Equal(t, http.StatusConflict, appErr.HTTPStatus)
	})

	t.Run("validation failures", func(t *testing.T) {
		cases := []user.RegisterInput{
			{Name: "A", Username: "validuser", Email: "a@example.com", Password: "s3cret-pass"},
			{Name: "Ana", Username: "abcd", Email: "a@example.com", Password: "s3cret-pass"},
			{Name: "Ana", Username: "validuser", Email: "not-an-email", Password: "s3cret-pass"},
			{Name: "Ana", Username: "validuser", Email: "a@example.com", Password: "short"},
		}
		for _, input := range cases {
			_, err := svc.Register(context.Background(), input)
			var appErr *common.AppError
			require.ErrorAs(t, err, &appErr)
			require.Equal(t, http.StatusBadRequest, appErr.HTTPStatus)
		}
	})
}

func TestSelfOrAdminGate(t *testing.T) {
	store := newMemUsers()
	svc := user.NewService(store)

	created, err := svc.Register(context.Background(), user.RegisterInput{
		Name:     "Ana Souza",
		Username: "anasouza",
		Email:    "ana@example.com",
		Password: "s3cret-pass",
	})
	require.NoError(t, err)

	t.Run("self can read", func(t *testing.T) {
		got, err := svc.GetByID(context.Background(), selfPrincipal(created.ID), created.ID)
		require.NoError(t, err)
		require.Equal(t, created.ID, got.ID)
	})

	t.Run("admin can read", func(t *testing.T) {
		admin := common.Principal{ID: uuid.NewString(), Role: string(user.RoleAdmin)}
		_, err := svc.GetByID(context.Background(), admin, created.ID)
		require.NoError(t, err)
	})

	t.Run("stranger is forbidden", func(t *testing.T) {
		_, err := svc.GetByID(context.Background(), selfPrincipal(uuid.New()), created.ID)
		var appErr *common.AppError
		require.ErrorAs(t, err, &appErr)
		require.Equal(t, http.StatusForbidden, appErr.HTTPStatus)
	})
}

func TestUpdateAndDelete(t *testing.T) {
	store := newMemUsers()
	svc := user.NewService(store)

	created, err := svc.Register(context.Background(), user.RegisterInput{
		Name:     "Ana Souza",
		Username: "anasouza",
		Email:    "ana@example.com",
		Password: "s3cret-pass",
	})
	require.NoError(t, err)

	updated, err := svc.Update(context.Background(), selfPrincipal(created.ID), created.ID, user.UpdateInput{
		Name:     "Ana S.",
		Username: "ana-souza",
		Email:    "ana.souza@example.com",
	})
	require.NoError(t, err)
	require.Equal(t, "Ana S.", updated.Name)
	require.Equal(t, created.PasswordHash, updated.PasswordHash)

	require.NoError(t, svc.Delete(context.Background(), selfPrincipal(created.ID), created.ID))
	_, err = svc.GetByID(context.Background(), selfPrincipal(created.ID), created.ID)
	require.ErrorIs(t, err, user.ErrNotFound)
}
