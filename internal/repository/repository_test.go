package repository

import (
	"context"
	"database/sql/driver"
	"errors"
	"testing"
	"time"

	"github.com/waw-schedule/backend/internal/db"
	"github.com/waw-schedule/backend/internal/domain"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-sql-driver/mysql"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockDB(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	t.Helper()
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		_ = mockDB.Close()
	})
	return sqlx.NewDb(mockDB, "mysql"), mock
}

var userRowColumns = []string{"id", "name", "email", "password_hash", "role", "last_logout_at", "created_at", "updated_at"}

func userRow(id uuid.UUID, email string, lastLogout driver.Value) []driver.Value {
	now := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	return []driver.Value{id[:], "Cristiano Ronaldo", email, "$2a$10$hash", []byte(`["user"]`), lastLogout, now, now}
}

func TestUserRepository_ExistsByEmail(t *testing.T) {
	sqlxDB, mock := newMockDB(t)
	repo := newUserRepository(sqlxDB)

	mock.ExpectQuery(`SELECT EXISTS\(SELECT 1 FROM user WHERE email = \?\)`).
		WithArgs("ronaldo@mail.com").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	exists, err := repo.ExistsByEmail(context.Background(), "ronaldo@mail.com")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestUserRepository_Create(t *testing.T) {
	sqlxDB, mock := newMockDB(t)
	repo := newUserRepository(sqlxDB)

	id := uuid.New()
	expires := time.Now().Add(time.Minute)
	user := &domain.User{ID: id, Name: "Cristiano Ronaldo", Email: "ronaldo@mail.com", PasswordHash: "hash", Role: domain.RoleList{domain.RoleUser}}
	verification := &domain.EmailVerification{UserID: id, Code: "AB12CD", ExpiresAt: expires}

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO user \(id, name, email, password_hash, role\)`).
		WithArgs(id, "Cristiano Ronaldo", "ronaldo@mail.com", "hash", domain.RoleList{domain.RoleUser}).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO email_verification`).
		WithArgs(id, "AB12CD", expires).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, repo.Create(context.Background(), user, verification))
}

func TestUserRepository_CreateDuplicate(t *testing.T) {
	sqlxDB, mock := newMockDB(t)
	repo := newUserRepository(sqlxDB)

	id := uuid.New()

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO user`).
		WillReturnError(&mysql.MySQLError{Number: db.DuplicateEntry, Message: "Duplicate entry"})
	mock.ExpectRollback()

	err := repo.Create(context.Background(),
		&domain.User{ID: id, Email: "ronaldo@mail.com", Role: domain.RoleList{domain.RoleUser}},
		&domain.EmailVerification{UserID: id})
	assert.ErrorIs(t, err, domain.ErrDuplicateEntry)
}

func TestUserRepository_GetByEmail(t *testing.T) {
	sqlxDB, mock := newMockDB(t)
	repo := newUserRepository(sqlxDB)
	id := uuid.New()

	mock.ExpectQuery(`SELECT .+ FROM user WHERE email = \?`).
		WithArgs("ronaldo@mail.com").
		WillReturnRows(sqlmock.NewRows(userRowColumns).AddRow(userRow(id, "ronaldo@mail.com", nil)...))

	user, err := repo.GetByEmail(context.Background(), "ronaldo@mail.com")
	require.NoError(t, err)
	assert.Equal(t, id, user.ID)
	assert.Equal(t, domain.RoleList{domain.RoleUser}, user.Role)
	assert.Nil(t, user.LastLogoutAt)
}

func TestUserRepository_GetByEmailNotFound(t *testing.T) {
	sqlxDB, mock := newMockDB(t)
	repo := newUserRepository(sqlxDB)

	mock.ExpectQuery(`SELECT .+ FROM user WHERE email = \?`).
		WithArgs("ghost@mail.com").
		WillReturnRows(sqlmock.NewRows(userRowColumns))

	_, err := repo.GetByEmail(context.Background(), "ghost@mail.com")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestUserRepository_GetOneByIDError(t *testing.T) {
	sqlxDB, mock := newMockDB(t)
	repo := newUserRepository(sqlxDB)

	mock.ExpectQuery(`SELECT .+ FROM user WHERE id = uuid_to_bin\(\?\)`).
		WillReturnError(errors.New("db down"))

	_, err := repo.GetOneByID(context.Background(), uuid.New())
	require.Error(t, err)
	assert.NotErrorIs(t, err, domain.ErrNotFound)
	assert.Contains(t, err.Error(), "db down")
}

func TestUserRepository_GetAll(t *testing.T) {
	sqlxDB, mock := newMockDB(t)
	repo := newUserRepository(sqlxDB)
	logout := time.Date(2024, 5, 2, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery(`SELECT .+ FROM user ORDER BY created_at`).
		WillReturnRows(sqlmock.NewRows(userRowColumns).
			AddRow(userRow(uuid.New(), "a@mail.com", nil)...).
			AddRow(userRow(uuid.New(), "b@mail.com", logout)...))

	users, err := repo.GetAll(context.Background())
	require.NoError(t, err)
	require.Len(t, users, 2)
	require.NotNil(t, users[1].LastLogoutAt)
	assert.True(t, logout.Equal(*users[1].LastLogoutAt))
}

func TestUserRepository_SetLastLogout(t *testing.T) {
	sqlxDB, mock := newMockDB(t)
	repo := newUserRepository(sqlxDB)
	id := uuid.New()
	at := time.Now()

	mock.ExpectExec(`UPDATE user SET last_logout_at = \? WHERE id = uuid_to_bin\(\?\)`).
		WithArgs(at, id).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`UPDATE user SET last_logout_at`).
		WithArgs(at, id).
		WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, repo.SetLastLogout(context.Background(), id, at))
	assert.ErrorIs(t, repo.SetLastLogout(context.Background(), id, at), domain.ErrNoRowsAffected)
}

func TestUserRepository_UpdateBasic(t *testing.T) {
	sqlxDB, mock := newMockDB(t)
	repo := newUserRepository(sqlxDB)
	id := uuid.New()
	name := "CR7"

	mock.ExpectExec(`UPDATE user SET name = \?, updated_at = \? WHERE id = uuid_to_bin\(\?\)`).
		WithArgs(name, sqlmock.AnyArg(), id).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(`SELECT .+ FROM user WHERE id = uuid_to_bin\(\?\)`).
		WithArgs(id).
		WillReturnRows(sqlmock.NewRows(userRowColumns).AddRow(userRow(id, "ronaldo@mail.com", nil)...))

	user, err := repo.UpdateBasic(context.Background(), id, domain.UserPatch{Name: &name})
	require.NoError(t, err)
	assert.Equal(t, id, user.ID)
}

func TestUserRepository_UpdateBasicNameAndRole(t *testing.T) {
	sqlxDB, mock := newMockDB(t)
	repo := newUserRepository(sqlxDB)
	id := uuid.New()
	name := "CR7"
	roles := domain.RoleList{domain.RoleUser, domain.RoleAdmin}

	mock.ExpectExec(`UPDATE user SET name = \?, role = \?, updated_at = \? WHERE`).
		WithArgs(name, roles, sqlmock.AnyArg(), id).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(`SELECT .+ FROM user WHERE id`).
		WillReturnRows(sqlmock.NewRows(userRowColumns).AddRow(userRow(id, "ronaldo@mail.com", nil)...))

	_, err := repo.UpdateBasic(context.Background(), id, domain.UserPatch{Name: &name, Role: roles})
	require.NoError(t, err)
}

func TestUserRepository_UpdateBasicEmpty(t *testing.T) {
	sqlxDB, _ := newMockDB(t)
	repo := newUserRepository(sqlxDB)

	_, err := repo.UpdateBasic(context.Background(), uuid.New(), domain.UserPatch{})
	assert.ErrorIs(t, err, domain.ErrEmptyPatch)
}

func TestUserRepository_UpdatePassword(t *testing.T) {
	sqlxDB, mock := newMockDB(t)
	repo := newUserRepository(sqlxDB)
	id := uuid.New()

	mock.ExpectExec(`UPDATE user SET password_hash = \?, updated_at = \? WHERE id = uuid_to_bin\(\?\)`).
		WithArgs("new-hash", sqlmock.AnyArg(), id).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.UpdatePassword(context.Background(), id, "new-hash"))
}
