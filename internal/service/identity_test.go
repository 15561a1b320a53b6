// Copyright (c) 2025-2026 Serranito Society contributors
// SPDX-License-Identifier: GPL-3.0-or-later

package service_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/serranito-society/serranito/internal/service"
	"github.com/serranito-society/serranito/internal/store"
	"github.com/serranito-society/serranito/internal/testutil"
)

type failingAccounts struct{ err error }

func (f failingAccounts) GetUserByEmail(context.Context, string) (store.User, error) {
	return store.User{}, f.err
}

func TestIdentityResolver_Resolve(t *testing.T) {
	db := testutil.TestDB(t)
	admin := testutil.CreateUser(t, db, "admin@x.com", true)
	member := testutil.CreateUser(t, db, "user@x.com", false)
	r := service.NewIdentityResolver(store.New(db))

	tests := []struct {
		name    string
		claimed string
		want    service.Identity
		wantErr error
	}{
		{"admin", "admin@x.com", service.Identity{AccountID: admin.ID, Email: "admin@x.com", IsPrivileged: true}, nil},
		{"member", "user@x.com", service.Identity{AccountID: member.ID, Email: "user@x.com"}, nil},
		{"case and whitespace", "  ADMIN@X.com\t", service.Identity{AccountID: admin.ID, Email: "admin@x.com", IsPrivileged: true}, nil},
		{"empty", "", service.Identity{}, service.ErrMissingIdentity},
		{"blank", "   ", service.Identity{}, service.ErrMissingIdentity},
		{"unknown", "nobody@x.com", service.Identity{}, service.ErrUnknownAccount},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := r.Resolve(context.Background(), tt.claimed)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestIdentityResolver_RevocationIsImmediate(t *testing.T) {
	db := testutil.TestDB(t)
	ctx := context.Background()
	testutil.CreateUser(t, db, "admin@x.com", true)
	r := service.NewIdentityResolver(store.New(db))

	id, err := r.Resolve(ctx, "admin@x.com")
	require.NoError(t, err)
	require.True(t, id.IsPrivileged)

	_, err = store.NewProvisioning(db).SetUserAdmin(ctx, "admin@x.com", false)
	require.NoError(t, err)

	id, err = r.Resolve(ctx, "admin@x.com")
	require.NoError(t, err)
	assert.False(t, id.IsPrivileged)
}

func TestIdentityResolver_StoreFailure(t *testing.T) {
	r := service.NewIdentityResolver(failingAccounts{err: errors.New("connection reset")})

	_, err := r.Resolve(context.Background(), "admin@x.com")
	assert.Equal(t, service.KindStore, service.KindOf(err))
	assert.EqualError(t, err, "connection reset")
}

func TestNormalizeIdentity(t *testing.T) {
	assert.Equal(t, "admin@x.com", service.NormalizeIdentity(" Admin@X.COM "))
	assert.Equal(t, "", service.NormalizeIdentity("\n"))
}
