package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"spendwise/internal/logger"
	"spendwise/internal/services"
	"spendwise/internal/testutil"
)

func init() {
	logger.Init("test")
}

func testOpener(t *testing.T) func() (services.UserServicer, func(), error) {
	db := testutil.SetupTestDB(t)
	t.Cleanup(func() { testutil.TeardownTestDB(t, db) })
	svc := services.NewUserService(db)
	return func() (services.UserServicer, func(), error) {
		return svc, func() {}, nil
	}
}

func TestRun_Success(t *testing.T) {
	stdout := new(bytes.Buffer)
	stderr := new(bytes.Buffer)

	args := []string{"-email", "New@Example.com", "-name", "New User", "-password", "password123"}
	err := run(args, new(bytes.Buffer), stdout, stderr, testOpener(t))

	require.NoError(t, err)
	assert.Contains(t, stdout.String(), "User new@example.com created successfully")
}

func TestRun_PromptsForPassword(t *testing.T) {
	stdout := new(bytes.Buffer)

	err := run([]string{"-email", "piped@example.com"}, strings.NewReader("password123\n"), stdout, new(bytes.Buffer), testOpener(t))

	require.NoError(t, err)
	assert.Contains(t, stdout.String(), "Password: ")
	assert.Contains(t, stdout.String(), "created successfully")
}

func TestRun_DuplicateUser(t *testing.T) {
	open := testOpener(t)
	args := []string{"-email", "dup@example.com", "-password", "password123"}

	require.NoError(t, run(args, new(bytes.Buffer), new(bytes.Buffer), new(bytes.Buffer), open))

	err := run(args, new(bytes.Buffer), new(bytes.Buffer), new(bytes.Buffer), open)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already exists")
}

func TestRun_Rejections(t *testing.T) {
	neverOpen := func() (services.UserServicer, func(), error) {
		t.Fatal("database must not be opened")
		return nil, nil, nil
	}

	t.Run("missing email", func(t *testing.T) {
		stdout := new(bytes.Buffer)
		err := run([]string{"-password", "password123"}, new(bytes.Buffer), stdout, new(bytes.Buffer), neverOpen)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "missing required flags: email")
		assert.Contains(t, stdout.String(), "Usage: adduser")
	})

	t.Run("short password", func(t *testing.T) {
		err := run([]string{"-email", "a@b.com", "-password", "short"}, new(bytes.Buffer), new(bytes.Buffer), new(bytes.Buffer), neverOpen)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "at least 8 characters")
	})

	t.Run("no password on stdin", func(t *testing.T) {
		err := run([]string{"-email", "a@b.com"}, new(bytes.Buffer), new(bytes.Buffer), new(bytes.Buffer), neverOpen)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to read password")
	})
}
