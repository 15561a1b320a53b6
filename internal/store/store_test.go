// Copyright (c) 2025-2026 Serranito Society contributors
// SPDX-License-Identifier: GPL-3.0-or-later

package store_test

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/serranito-society/serranito/internal/store"
	"github.com/serranito-society/serranito/internal/testutil"
)

func TestElevate(t *testing.T) {
	db := testutil.TestDB(t)
	ctx := context.Background()

	q, err := store.Elevate(ctx, db, testutil.ServiceRoleKey)
	require.NoError(t, err)
	assert.True(t, q.IsElevated())

	_, err = store.Elevate(ctx, db, "wrong-key")
	assert.ErrorIs(t, err, store.ErrInvalidCredential)

	_, err = store.Elevate(ctx, db, "")
	assert.ErrorIs(t, err, store.ErrInvalidCredential)

	assert.False(t, store.New(db).IsElevated())
}

func TestElevate_NoRegisteredKey(t *testing.T) {
	db, err := store.NewDB(store.DriverSQLite, t.TempDir()+"/bare.db")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, store.Migrate(db))

	_, err = store.Elevate(context.Background(), db, testutil.ServiceRoleKey)
	assert.ErrorIs(t, err, store.ErrInvalidCredential)
}

func TestRowPolicy_RestrictedHandle(t *testing.T) {
	db := testutil.TestDB(t)
	ctx := context.Background()
	admin := testutil.CreateUser(t, db, "admin@x.com", true)
	post := testutil.CreatePost(t, db, admin.ID, "Hola")

	q := store.New(db)
	now := time.Now().UTC()

	_, err := q.CreatePost(ctx, store.CreatePostParams{ID: uuid.NewString(), Title: "t", Content: "c", AuthorID: admin.ID, CreatedAt: now})
	assert.ErrorIs(t, err, store.ErrRowPolicy)

	_, err = q.UpdatePost(ctx, store.UpdatePostParams{ID: post.ID, Title: "t", Content: "c", UpdatedAt: now})
	assert.ErrorIs(t, err, store.ErrRowPolicy)

	assert.ErrorIs(t, q.DeletePost(ctx, post.ID), store.ErrRowPolicy)

	_, err = q.SetUserAdmin(ctx, "admin@x.com", false)
	assert.ErrorIs(t, err, store.ErrRowPolicy)

	assert.ErrorIs(t, q.SetConfig(ctx, store.ConfigKeyServiceRoleKey, "x"), store.ErrRowPolicy)

	_, err = q.DeleteEventsBefore(ctx, now)
	assert.ErrorIs(t, err, store.ErrRowPolicy)

	stored, err := q.GetPost(ctx, post.ID)
	require.NoError(t, err)
	assert.Equal(t, "Hola", stored.Title, "restricted writes must leave the row untouched")
}

func TestUpdatePost_ReplacesEveryField(t *testing.T) {
	db := testutil.TestDB(t)
	ctx := context.Background()
	admin := testutil.CreateUser(t, db, "admin@x.com", true)
	q := store.NewProvisioning(db)

	start := time.Date(2026, 5, 1, 20, 0, 0, 0, time.UTC)
	created, err := q.CreatePost(ctx, store.CreatePostParams{
		ID:       uuid.NewString(),
		Title:    "Quedada",
		Content:  "<p>Serranitos</p>",
		AuthorID: admin.ID,
		EventFields: store.EventFields{
			IsEvent:       true,
			EventDate:     sql.NullTime{Time: start, Valid: true},
			EventLocation: sql.NullString{String: "Bar Manolo", Valid: true},
		},
		CreatedAt: start.Add(-time.Hour),
	})
	require.NoError(t, err)
	assert.True(t, created.IsEvent)
	assert.True(t, created.EventDate.Time.Equal(start))

	updated, err := q.UpdatePost(ctx, store.UpdatePostParams{
		ID:        created.ID,
		Title:     "Quedada (cambio)",
		Content:   "<p>Nuevo</p>",
		UpdatedAt: start,
	})
	require.NoError(t, err)

	assert.Equal(t, "Quedada (cambio)", updated.Title)
	assert.False(t, updated.IsEvent)
	assert.False(t, updated.EventDate.Valid)
	assert.False(t, updated.EventLocation.Valid)
	assert.Equal(t, admin.ID, updated.AuthorID)
	assert.True(t, updated.CreatedAt.Equal(created.CreatedAt))
	assert.True(t, updated.UpdatedAt.Equal(start))
}

func TestUpdatePost_Missing(t *testing.T) {
	db := testutil.TestDB(t)
	q := store.NewProvisioning(db)

	_, err := q.UpdatePost(context.Background(), store.UpdatePostParams{
		ID: uuid.NewString(), Title: "t", Content: "c", UpdatedAt: time.Now().UTC(),
	})
	assert.ErrorIs(t, err, sql.ErrNoRows)
}

func TestDeletePost_Cascades(t *testing.T) {
	db := testutil.TestDB(t)
	ctx := context.Background()
	admin := testutil.CreateUser(t, db, "admin@x.com", true)
	member := testutil.CreateUser(t, db, "user@x.com", false)
	post := testutil.CreatePost(t, db, admin.ID, "Borrar")

	q := store.New(db)
	now := time.Now().UTC()
	parent, err := q.CreateComment(ctx, store.CreateCommentParams{
		ID: uuid.NewString(), PostID: post.ID, UserID: member.ID, Content: "primero", CreatedAt: now,
	})
	require.NoError(t, err)
	_, err = q.CreateComment(ctx, store.CreateCommentParams{
		ID: uuid.NewString(), PostID: post.ID, UserID: admin.ID, Content: "respuesta",
		ParentID: sql.NullString{String: parent.ID, Valid: true}, CreatedAt: now.Add(time.Second),
	})
	require.NoError(t, err)
	require.NoError(t, q.CreatePostReaction(ctx, store.CreateReactionParams{
		ID: uuid.NewString(), UserID: member.ID, PostID: post.ID, Emoji: "👍", CreatedAt: now,
	}))
	require.NoError(t, q.CreateCommentReaction(ctx, store.CreateReactionParams{
		ID: uuid.NewString(), UserID: member.ID, CommentID: parent.ID, Emoji: "❤️", CreatedAt: now,
	}))

	require.NoError(t, store.NewProvisioning(db).DeletePost(ctx, post.ID))

	_, err = q.GetPost(ctx, post.ID)
	assert.ErrorIs(t, err, sql.ErrNoRows)
	comments, err := q.ListCommentsForPost(ctx, post.ID)
	require.NoError(t, err)
	assert.Empty(t, comments)
	counts, err := q.CountPostReactions(ctx, post.ID)
	require.NoError(t, err)
	assert.Empty(t, counts)
	counts, err = q.CountCommentReactions(ctx, parent.ID)
	require.NoError(t, err)
	assert.Empty(t, counts)

	assert.ErrorIs(t, store.NewProvisioning(db).DeletePost(ctx, post.ID), sql.ErrNoRows)
}

func TestUpsertLogin_KeepsPrivilegeFlag(t *testing.T) {
	db := testutil.TestDB(t)
	ctx := context.Background()
	admin := testutil.CreateUser(t, db, "admin@x.com", true)
	q := store.New(db)

	loginAt := time.Now().UTC()
	u, err := q.UpsertLogin(ctx, store.UpsertLoginParams{
		ID: uuid.NewString(), Email: "admin@x.com", DisplayName: "admin", LoginAt: loginAt,
	})
	require.NoError(t, err)
	assert.Equal(t, admin.ID, u.ID, "existing account keeps its id")
	assert.True(t, u.IsAdmin)
	assert.True(t, u.LastLogin.Valid)

	fresh, err := q.UpsertLogin(ctx, store.UpsertLoginParams{
		ID: uuid.NewString(), Email: "new@x.com", DisplayName: "new", LoginAt: loginAt,
	})
	require.NoError(t, err)
	assert.False(t, fresh.IsAdmin)
	assert.Equal(t, "new", fresh.DisplayName)
}

func TestSetUserAdmin(t *testing.T) {
	db := testutil.TestDB(t)
	ctx := context.Background()
	testutil.CreateUser(t, db, "user@x.com", false)
	q := store.NewProvisioning(db)

	u, err := q.SetUserAdmin(ctx, "user@x.com", true)
	require.NoError(t, err)
	assert.True(t, u.IsAdmin)

	_, err = q.SetUserAdmin(ctx, "nobody@x.com", true)
	assert.True(t, errors.Is(err, sql.ErrNoRows))
}

func TestPostReactions_Unique(t *testing.T) {
	db := testutil.TestDB(t)
	ctx := context.Background()
	admin := testutil.CreateUser(t, db, "admin@x.com", true)
	post := testutil.CreatePost(t, db, admin.ID, "Reacciones")
	q := store.New(db)
	now := time.Now().UTC()

	require.NoError(t, q.CreatePostReaction(ctx, store.CreateReactionParams{
		ID: uuid.NewString(), UserID: admin.ID, PostID: post.ID, Emoji: "❤️", CreatedAt: now,
	}))
	err := q.CreatePostReaction(ctx, store.CreateReactionParams{
		ID: uuid.NewString(), UserID: admin.ID, PostID: post.ID, Emoji: "❤️", CreatedAt: now,
	})
	assert.Error(t, err, "duplicate reaction must violate the unique index")

	r, err := q.FindPostReaction(ctx, admin.ID, post.ID, "❤️")
	require.NoError(t, err)
	assert.ErrorIs(t, q.DeleteReaction(ctx, r.ID, uuid.NewString()), sql.ErrNoRows, "only the owner may delete")
	require.NoError(t, q.DeleteReaction(ctx, r.ID, admin.ID))
}

func TestCommentReactions_Unique(t *testing.T) {
	db := testutil.TestDB(t)
	ctx := context.Background()
	admin := testutil.CreateUser(t, db, "admin@x.com", true)
	post := testutil.CreatePost(t, db, admin.ID, "Reacciones")
	q := store.New(db)
	now := time.Now().UTC()
	comment, err := q.CreateComment(ctx, store.CreateCommentParams{
		ID: uuid.NewString(), PostID: post.ID, UserID: admin.ID, Content: "hola", CreatedAt: now,
	})
	require.NoError(t, err)

	require.NoError(t, q.CreateCommentReaction(ctx, store.CreateReactionParams{
		ID: uuid.NewString(), UserID: admin.ID, CommentID: comment.ID, Emoji: "❤️", CreatedAt: now,
	}))
	err = q.CreateCommentReaction(ctx, store.CreateReactionParams{
		ID: uuid.NewString(), UserID: admin.ID, CommentID: comment.ID, Emoji: "❤️", CreatedAt: now,
	})
	assert.Error(t, err, "duplicate reaction must violate the unique index")

	// Comment reactions never count toward the post.
	postCounts, err := q.CountPostReactions(ctx, post.ID)
	require.NoError(t, err)
	assert.Empty(t, postCounts)

	counts, err := q.CountCommentReactions(ctx, comment.ID)
	require.NoError(t, err)
	require.Len(t, counts, 1)
	assert.EqualValues(t, 1, counts[0].Count)

	emojis, err := q.ListUserCommentEmojis(ctx, admin.ID, comment.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"❤️"}, emojis)

	r, err := q.FindCommentReaction(ctx, admin.ID, comment.ID, "❤️")
	require.NoError(t, err)
	require.NoError(t, q.DeleteReaction(ctx, r.ID, admin.ID))
}

func TestDeleteEventsBefore(t *testing.T) {
	db := testutil.TestDB(t)
	ctx := context.Background()
	q := store.NewProvisioning(db)
	now := time.Now().UTC()

	for _, age := range []time.Duration{100 * 24 * time.Hour, time.Hour} {
		require.NoError(t, q.CreateEvent(ctx, store.CreateEventParams{
			ID: uuid.NewString(), Level: "warning", Category: "auth", Message: "m", Metadata: "{}",
			CreatedAt: now.Add(-age),
		}))
	}

	n, err := q.DeleteEventsBefore(ctx, now.Add(-90*24*time.Hour))
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	events, err := q.ListEvents(ctx, 10)
	require.NoError(t, err)
	assert.Len(t, events, 1)
}
