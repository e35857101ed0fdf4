package service_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saadjs/nutri-cli/internal/model"
	"github.com/saadjs/nutri-cli/internal/service"
)

func TestLoginAndSession(t *testing.T) {
	t.Parallel()
	db := newTestDB(t)
	defer db.Close()

	id, err := service.CreateUser(db, service.UserInput{Email: "admin@nutri.com", Password: "admin123", Name: "Dr. Nutri", Role: model.RoleAdmin})
	require.NoError(t, err)

	_, err = service.Login(db, "admin@nutri.com", "wrong")
	assert.ErrorIs(t, err, service.ErrInvalidCredentials)
	_, err = service.Login(db, "nobody@nutri.com", "admin123")
	assert.ErrorIs(t, err, service.ErrInvalidCredentials)

	u, err := service.Login(db, " ADMIN@nutri.com ", "admin123")
	require.NoError(t, err)
	assert.Equal(t, id, u.ID)
	assert.Empty(t, u.PasswordHash)

	current, err := service.CurrentSession(db)
	require.NoError(t, err)
	assert.Nil(t, current)

	require.NoError(t, service.SetSession(db, u.ID))
	current, err = service.CurrentSession(db)
	require.NoError(t, err)
	require.NotNil(t, current)
	assert.Equal(t, model.RoleAdmin, current.Role)

	require.NoError(t, service.DeleteUser(db, id))
	current, err = service.CurrentSession(db)
	require.NoError(t, err)
	assert.Nil(t, current, "a session for a deleted user is ignored")

	require.NoError(t, service.ClearSession(db))
}

func TestCreateUserRules(t *testing.T) {
	t.Parallel()
	db := newTestDB(t)
	defer db.Close()
	pid := addTestPatient(t, db, service.PatientInput{})

	_, err := service.CreateUser(db, service.UserInput{Email: "p@x.com", Password: "x", Role: model.RolePatient})
	assert.ErrorIs(t, err, service.ErrValidation, "patient users need a patient")
	_, err = service.CreateUser(db, service.UserInput{Email: "p@x.com", Password: "x", Role: model.RolePatient, PatientID: "missing"})
	assert.ErrorIs(t, err, service.ErrNotFound)
	_, err = service.CreateUser(db, service.UserInput{Email: "p@x.com", Password: "x", Role: "owner"})
	assert.ErrorIs(t, err, service.ErrValidation)
	_, err = service.CreateUser(db, service.UserInput{Email: "p@x.com", Role: model.RoleAdmin})
	assert.ErrorIs(t, err, service.ErrValidation)

	_, err = service.CreateUser(db, service.UserInput{Email: "p@x.com", Password: "x", Role: model.RolePatient, PatientID: pid})
	require.NoError(t, err)
	_, err = service.CreateUser(db, service.UserInput{Email: "P@X.com", Password: "y", Role: model.RoleAdmin})
	assert.ErrorIs(t, err, service.ErrValidation, "emails are unique regardless of case")

	users, err := service.ListUsers(db)
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, pid, users[0].PatientID)
	assert.Empty(t, users[0].PasswordHash)
}

func TestRoleGating(t *testing.T) {
	t.Parallel()
	admin := &model.User{ID: "u1", Role: model.RoleAdmin}
	ana := &model.User{ID: "u2", Role: model.RolePatient, PatientID: "p1"}

	assert.NoError(t, service.RequireAdmin(admin))
	assert.ErrorIs(t, service.RequireAdmin(ana), service.ErrForbidden)
	assert.ErrorIs(t, service.RequireAdmin(nil), service.ErrForbidden)

	assert.NoError(t, service.CanAccessPatient(admin, "p2"))
	assert.NoError(t, service.CanAccessPatient(ana, "p1"))
	assert.ErrorIs(t, service.CanAccessPatient(ana, "p2"), service.ErrForbidden)
	assert.ErrorIs(t, service.CanAccessPatient(&model.User{Role: model.RolePatient}, ""), service.ErrForbidden)
}

func TestSessionTokens(t *testing.T) {
	t.Parallel()
	secret := []byte("test-secret")
	now := time.Now()

	token, err := service.IssueToken(secret, "u1", time.Hour, now)
	require.NoError(t, err)
	userID, err := service.ParseToken(secret, token)
	require.NoError(t, err)
	assert.Equal(t, "u1", userID)

	_, err = service.ParseToken([]byte("other"), token)
	assert.Error(t, err)

	expired, err := service.IssueToken(secret, "u1", time.Minute, now.Add(-time.Hour))
	require.NoError(t, err)
	_, err = service.ParseToken(secret, expired)
	assert.Error(t, err)

	_, err = service.IssueToken(nil, "u1", time.Hour, now)
	assert.Error(t, err)
}
