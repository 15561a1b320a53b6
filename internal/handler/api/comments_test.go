// Copyright (c) 2025-2026 Serranito Society contributors
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"net/http"
	"testing"

	"github.com/serranito-society/serranito/internal/testutil"
)

func TestComments(t *testing.T) {
	env := testSetup(t)
	post := testutil.CreatePost(t, env.db, env.admin.ID, "Hello")
	other := testutil.CreatePost(t, env.db, env.admin.ID, "Other")
	params := map[string]string{"id": post.ID}
	path := "/api/posts/" + post.ID + "/comments"

	w := executeHandler(t, env.handler.CreateComment,
		newJSONRequest(t, http.MethodPost, path, memberEmail, `{"content":"  <b>Nice</b> post  "}`, params))
	assertStatus(t, w, http.StatusCreated)
	first := unmarshalData[CommentResponse](t, w)
	if first.Content != "Nice post" {
		t.Errorf("content = %q; want %q", first.Content, "Nice post")
	}
	if first.UserID != env.member.ID {
		t.Errorf("user_id = %q; want %q", first.UserID, env.member.ID)
	}
	if first.ParentID != nil {
		t.Errorf("parent_id = %q; want null", *first.ParentID)
	}

	w = executeHandler(t, env.handler.CreateComment,
		newJSONRequest(t, http.MethodPost, path, adminEmail, `{"content":"Thanks","parent_id":"`+first.ID+`"}`, params))
	assertStatus(t, w, http.StatusCreated)
	reply := unmarshalData[CommentResponse](t, w)
	if reply.ParentID == nil || *reply.ParentID != first.ID {
		t.Errorf("parent_id = %v; want %q", reply.ParentID, first.ID)
	}

	w = executeHandler(t, env.handler.ListComments, newGetRequest(t, path, "", params))
	assertStatus(t, w, http.StatusOK)
	list := unmarshalData[[]CommentResponse](t, w)
	if len(list) != 2 {
		t.Fatalf("len = %d; want 2", len(list))
	}
	if list[0].ID != first.ID {
		t.Error("comments not ordered oldest first")
	}
	if list[0].UserDisplayName != memberEmail {
		t.Errorf("user_display_name = %q; want %q", list[0].UserDisplayName, memberEmail)
	}

	t.Run("parent from another post", func(t *testing.T) {
		otherParams := map[string]string{"id": other.ID}
		w := executeHandler(t, env.handler.CreateComment,
			newJSONRequest(t, http.MethodPost, "/api/posts/"+other.ID+"/comments", memberEmail,
				`{"content":"Hi","parent_id":"`+first.ID+`"}`, otherParams))
		assertStatus(t, w, http.StatusBadRequest)
	})
}

func TestCreateComment_Refusals(t *testing.T) {
	env := testSetup(t)
	post := testutil.CreatePost(t, env.db, env.admin.ID, "Hello")

	tests := []struct {
		name     string
		postID   string
		identity string
		body     string
		wantCode int
	}{
		{"no identity", post.ID, "", `{"content":"Hi"}`, http.StatusUnauthorized},
		{"unknown account", post.ID, "ghost@x.com", `{"content":"Hi"}`, http.StatusNotFound},
		{"blank content", post.ID, memberEmail, `{"content":"   "}`, http.StatusBadRequest},
		{"markup only", post.ID, memberEmail, `{"content":"<script>x</script>"}`, http.StatusBadRequest},
		{"unknown post", "nope", memberEmail, `{"content":"Hi"}`, http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := newJSONRequest(t, http.MethodPost, "/api/posts/"+tt.postID+"/comments", tt.identity, tt.body,
				map[string]string{"id": tt.postID})
			w := executeHandler(t, env.handler.CreateComment, req)
			assertStatus(t, w, tt.wantCode)
		})
	}
}
