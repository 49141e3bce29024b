package service

import (
	"context"
	"testing"

	"connectrpc.com/connect"

	"github.com/mmynk/ebills/pkg/api"
)

func memberIDs(g api.Group) map[string]string {
	out := make(map[string]string, len(g.Members))
	for _, m := range g.Members {
		out[m.UserID] = m.DisplayName
	}
	return out
}

func TestCreateGroup(t *testing.T) {
	env := newTestEnv(t)
	owner, alice, bob := env.user(t, "owner"), env.user(t, "alice"), env.user(t, "bob")

	resp, err := env.groups.CreateGroup(context.Background(), as(env, owner, &api.CreateGroupRequest{
		Name:      "Roommates",
		MemberIDs: []string{alice, bob, alice},
	}))
	if err != nil {
		t.Fatalf("CreateGroup failed: %v", err)
	}

	group := resp.Msg.Group
	if group.ID == "" {
		t.Error("expected group ID to be generated")
	}
	if group.Name != "Roommates" {
		t.Errorf("expected name 'Roommates', got '%s'", group.Name)
	}
	if group.OwnerID != owner {
		t.Errorf("expected owner %s, got %s", owner, group.OwnerID)
	}
	if group.CreatedAt == 0 {
		t.Error("expected CreatedAt to be set")
	}

	members := memberIDs(group)
	if len(members) != 3 {
		t.Fatalf("expected owner and 2 members, got %+v", group.Members)
	}
	if members[alice] != "alice" {
		t.Errorf("expected alice's display name, got %q", members[alice])
	}
	if _, ok := members[owner]; !ok {
		t.Error("expected the owner to be a member")
	}
}

func TestCreateGroupValidation(t *testing.T) {
	env := newTestEnv(t)
	owner := env.user(t, "owner")

	tests := []struct {
		name string
		req  *api.CreateGroupRequest
	}{
		{"empty name", &api.CreateGroupRequest{Name: "   "}},
		{"unknown member", &api.CreateGroupRequest{Name: "Trip", MemberIDs: []string{"ghost"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.groups.CreateGroup(context.Background(), as(env, owner, tt.req))
			expectCode(t, err, connect.CodeInvalidArgument)
		})
	}
}

func TestGetGroup(t *testing.T) {
	env := newTestEnv(t)
	owner, alice, eve := env.user(t, "owner"), env.user(t, "alice"), env.user(t, "eve")

	created, err := env.groups.CreateGroup(context.Background(), as(env, owner, &api.CreateGroupRequest{
		Name:      "Friends",
		MemberIDs: []string{alice},
	}))
	if err != nil {
		t.Fatalf("CreateGroup failed: %v", err)
	}

	resp, err := env.groups.GetGroup(context.Background(), as(env, alice, &api.GetGroupRequest{GroupID: created.Msg.Group.ID}))
	if err != nil {
		t.Fatalf("GetGroup failed: %v", err)
	}
	if resp.Msg.Group.Name != "Friends" {
		t.Errorf("expected name 'Friends', got '%s'", resp.Msg.Group.Name)
	}

	_, err = env.groups.GetGroup(context.Background(), as(env, eve, &api.GetGroupRequest{GroupID: created.Msg.Group.ID}))
	expectCode(t, err, connect.CodeNotFound)

	_, err = env.groups.GetGroup(context.Background(), as(env, owner, &api.GetGroupRequest{GroupID: "non-existent-id"}))
	expectCode(t, err, connect.CodeNotFound)
}

func TestListGroups(t *testing.T) {
	env := newTestEnv(t)
	owner, alice, bob := env.user(t, "owner"), env.user(t, "alice"), env.user(t, "bob")

	for _, g := range []struct {
		name    string
		members []string
	}{
		{"Group 1", []string{alice}},
		{"Group 2", []string{bob}},
		{"Group 3", []string{alice, bob}},
	} {
		if _, err := env.groups.CreateGroup(context.Background(), as(env, owner, &api.CreateGroupRequest{
			Name:      g.name,
			MemberIDs: g.members,
		})); err != nil {
			t.Fatalf("CreateGroup %s failed: %v", g.name, err)
		}
	}

	tests := []struct {
		user string
		want int
	}{
		{owner, 3},
		{alice, 2},
		{bob, 2},
	}
	for _, tt := range tests {
		resp, err := env.groups.ListGroups(context.Background(), as(env, tt.user, &api.ListGroupsRequest{}))
		if err != nil {
			t.Fatalf("ListGroups failed: %v", err)
		}
		if len(resp.Msg.Groups) != tt.want {
			t.Errorf("user %s: expected %d groups, got %d", tt.user, tt.want, len(resp.Msg.Groups))
		}
	}
}

func TestAddGroupMembers(t *testing.T) {
	env := newTestEnv(t)
	owner, alice, bob := env.user(t, "owner"), env.user(t, "alice"), env.user(t, "bob")

	created, err := env.groups.CreateGroup(context.Background(), as(env, owner, &api.CreateGroupRequest{
		Name:      "Trip",
		MemberIDs: []string{alice},
	}))
	if err != nil {
		t.Fatalf("CreateGroup failed: %v", err)
	}
	groupID := created.Msg.Group.ID

	_, err = env.groups.AddGroupMembers(context.Background(), as(env, alice, &api.AddGroupMembersRequest{
		GroupID: groupID,
		UserIDs: []string{bob},
	}))
	expectCode(t, err, connect.CodePermissionDenied)

	resp, err := env.groups.AddGroupMembers(context.Background(), as(env, owner, &api.AddGroupMembersRequest{
		GroupID: groupID,
		UserIDs: []string{bob},
	}))
	if err != nil {
		t.Fatalf("AddGroupMembers failed: %v", err)
	}
	if _, ok := memberIDs(resp.Msg.Group)[bob]; !ok {
		t.Errorf("expected bob to be a member, got %+v", resp.Msg.Group.Members)
	}

	_, err = env.groups.AddGroupMembers(context.Background(), as(env, owner, &api.AddGroupMembersRequest{GroupID: groupID}))
	expectCode(t, err, connect.CodeInvalidArgument)
}
