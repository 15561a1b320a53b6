// Copyright (c) 2025-2026 Serranito Society contributors
// SPDX-License-Identifier: GPL-3.0-or-later

package service_test

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/serranito-society/serranito/internal/service"
	"github.com/serranito-society/serranito/internal/store"
	"github.com/serranito-society/serranito/internal/testutil"
)

func TestAccountService_Login(t *testing.T) {
	db := testutil.TestDB(t)
	ctx := context.Background()
	svc := service.NewAccountService(store.New(db), service.NewEventService(store.New(db)))

	u, err := svc.Login(ctx, " Pepe@X.com ", testutil.CommonPassword)
	require.NoError(t, err)
	assert.Equal(t, "pepe@x.com", u.Email)
	assert.Equal(t, "pepe", u.DisplayName)
	assert.False(t, u.IsAdmin)
	assert.True(t, u.LastLogin.Valid)

	again, err := svc.Login(ctx, "pepe@x.com", testutil.CommonPassword)
	require.NoError(t, err)
	assert.Equal(t, u.ID, again.ID)

	_, err = svc.Login(ctx, "pepe@x.com", "wrong")
	assert.ErrorIs(t, err, service.ErrBadCredentials)

	_, err = svc.Login(ctx, "", testutil.CommonPassword)
	assert.Equal(t, service.KindValidation, service.KindOf(err))
}

func TestAccountService_LoginKeepsPrivilege(t *testing.T) {
	db := testutil.TestDB(t)
	admin := testutil.CreateUser(t, db, "admin@x.com", true)
	svc := service.NewAccountService(store.New(db), nil)

	u, err := svc.Login(context.Background(), "admin@x.com", testutil.CommonPassword)
	require.NoError(t, err)
	assert.Equal(t, admin.ID, u.ID)
	assert.True(t, u.IsAdmin)
}

func TestAccountService_LoginWithoutSharedPassword(t *testing.T) {
	db, err := store.NewDB(store.DriverSQLite, t.TempDir()+"/bare.db")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, store.Migrate(db))

	svc := service.NewAccountService(store.New(db), nil)
	_, err = svc.Login(context.Background(), "pepe@x.com", "anything")
	assert.ErrorIs(t, err, service.ErrMisconfigured)
}

func TestAccountService_UpdateDisplayName(t *testing.T) {
	db := testutil.TestDB(t)
	member := testutil.CreateUser(t, db, "user@x.com", false)
	svc := service.NewAccountService(store.New(db), nil)
	id := service.Identity{AccountID: member.ID, Email: member.Email}

	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{"trimmed", "  Manoli  ", "Manoli", false},
		{"accented", "María José", "María José", false},
		{"fifty runes", strings.Repeat("ñ", 50), strings.Repeat("ñ", 50), false},
		{"too long", strings.Repeat("a", 51), "", true},
		{"blank", "   ", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u, err := svc.UpdateDisplayName(context.Background(), id, tt.input)
			if tt.wantErr {
				assert.Equal(t, service.KindValidation, service.KindOf(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, u.DisplayName)
		})
	}
}

func TestListAccounts(t *testing.T) {
	db := testutil.TestDB(t)
	admin := testutil.CreateUser(t, db, "admin@x.com", true)
	member := testutil.CreateUser(t, db, "user@x.com", false)
	ctx := context.Background()

	users, err := service.ListAccounts(ctx, adminIdentity(admin), store.New(db))
	require.NoError(t, err)
	assert.Len(t, users, 2)

	_, err = service.ListAccounts(ctx, adminIdentity(member), store.New(db))
	assert.ErrorIs(t, err, service.ErrForbidden)
}
