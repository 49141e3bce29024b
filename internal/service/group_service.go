package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"connectrpc.com/connect"

	"github.com/mmynk/ebills/internal/models"
	"github.com/mmynk/ebills/internal/storage"
	"github.com/mmynk/ebills/pkg/api"
	"github.com/mmynk/ebills/pkg/api/apiconnect"
)

var _ apiconnect.GroupServiceHandler = (*GroupService)(nil)

// GroupService implements the Connect GroupService
type GroupService struct {
	store storage.Store
}

// NewGroupService creates a new GroupService with the given storage backend.
func NewGroupService(store storage.Store) *GroupService {
	return &GroupService{store: store}
}

// CreateGroup creates a new group owned by the caller.
func (s *GroupService) CreateGroup(ctx context.Context, req *connect.Request[api.CreateGroupRequest]) (*connect.Response[api.CreateGroupResponse], error) {
	session, err := callerSession(ctx)
	if err != nil {
		return nil, err
	}
	slog.Info("CreateGroup request received",
		"name", req.Msg.Name,
		"members_count", len(req.Msg.MemberIDs),
	)

	name := strings.TrimSpace(req.Msg.Name)
	if name == "" {
		return nil, invalidArgument("group name is required")
	}
	if err := requireUsers(ctx, s.store, req.Msg.MemberIDs); err != nil {
		return nil, toConnectError(err)
	}

	group := &models.Group{
		Name:    name,
		OwnerID: session.UserID,
		Members: dedupe(req.Msg.MemberIDs),
	}

	// Save to storage (generates ID and CreatedAt, adds the owner)
	if err := s.store.CreateGroup(ctx, group); err != nil {
		slog.Error("CreateGroup failed", "error", err)
		return nil, toConnectError(err)
	}

	slog.Info("Group created", "group_id", group.ID)

	return connect.NewResponse(&api.CreateGroupResponse{
		Group: s.toAPIGroup(ctx, group),
	}), nil
}

// GetGroup retrieves a group the caller belongs to.
func (s *GroupService) GetGroup(ctx context.Context, req *connect.Request[api.GetGroupRequest]) (*connect.Response[api.GetGroupResponse], error) {
	session, err := callerSession(ctx)
	if err != nil {
		return nil, err
	}
	slog.Info("GetGroup request received", "group_id", req.Msg.GroupID)

	group, err := s.memberGroup(ctx, req.Msg.GroupID, session.UserID)
	if err != nil {
		slog.Warn("GetGroup failed", "group_id", req.Msg.GroupID, "error", err)
		return nil, err
	}

	return connect.NewResponse(&api.GetGroupResponse{
		Group: s.toAPIGroup(ctx, group),
	}), nil
}

// ListGroups retrieves the caller's groups.
func (s *GroupService) ListGroups(ctx context.Context, req *connect.Request[api.ListGroupsRequest]) (*connect.Response[api.ListGroupsResponse], error) {
	session, err := callerSession(ctx)
	if err != nil {
		return nil, err
	}
	slog.Info("ListGroups request received")

	groups, err := s.store.ListGroupsForUser(ctx, session.UserID)
	if err != nil {
		slog.Error("ListGroups failed", "error", err)
		return nil, toConnectError(err)
	}

	out := make([]api.Group, len(groups))
	for i, group := range groups {
		out[i] = s.toAPIGroup(ctx, group)
	}

	slog.Info("ListGroups successful", "count", len(groups))

	return connect.NewResponse(&api.ListGroupsResponse{Groups: out}), nil
}

// AddGroupMembers lets the owner add users to a group.
func (s *GroupService) AddGroupMembers(ctx context.Context, req *connect.Request[api.AddGroupMembersRequest]) (*connect.Response[api.AddGroupMembersResponse], error) {
	session, err := callerSession(ctx)
	if err != nil {
		return nil, err
	}
	slog.Info("AddGroupMembers request received",
		"group_id", req.Msg.GroupID,
		"members_count", len(req.Msg.UserIDs),
	)

	group, err := s.memberGroup(ctx, req.Msg.GroupID, session.UserID)
	if err != nil {
		return nil, err
	}
	if group.OwnerID != session.UserID {
		return nil, connect.NewError(connect.CodePermissionDenied, errors.New("only the group owner can add members"))
	}
	if len(req.Msg.UserIDs) == 0 {
		return nil, invalidArgument("userIds is required")
	}
	if err := requireUsers(ctx, s.store, req.Msg.UserIDs); err != nil {
		return nil, toConnectError(err)
	}

	if err := s.store.AddGroupMembers(ctx, group.ID, dedupe(req.Msg.UserIDs)); err != nil {
		slog.Error("AddGroupMembers failed", "error", err)
		return nil, toConnectError(err)
	}

	// Fetch updated group to get the full member list
	updated, err := s.store.GetGroup(ctx, group.ID)
	if err != nil {
		slog.Error("Failed to fetch updated group", "error", err)
		return nil, toConnectError(err)
	}

	slog.Info("Group members added", "group_id", group.ID, "members_count", len(updated.Members))

	return connect.NewResponse(&api.AddGroupMembersResponse{
		Group: s.toAPIGroup(ctx, updated),
	}), nil
}

func (s *GroupService) memberGroup(ctx context.Context, groupID, userID string) (*models.Group, error) {
	if groupID == "" {
		return nil, invalidArgument("groupId is required")
	}
	group, err := s.store.GetGroup(ctx, groupID)
	if err != nil {
		return nil, toConnectError(err)
	}
	if !group.HasMember(userID) {
		// Hide groups the caller is not part of.
		return nil, toConnectError(storage.ErrNotFound)
	}
	return group, nil
}

func (s *GroupService) toAPIGroup(ctx context.Context, group *models.Group) api.Group {
	names, err := s.store.ResolveDisplayNames(ctx, group.Members)
	if err != nil {
		slog.Warn("Failed to resolve display names", "group_id", group.ID, "error", err)
	}
	members := make([]api.GroupMember, len(group.Members))
	for i, id := range group.Members {
		members[i] = api.GroupMember{UserID: id, DisplayName: names[id]}
	}
	return api.Group{
		ID:        group.ID,
		Name:      group.Name,
		OwnerID:   group.OwnerID,
		Members:   members,
		CreatedAt: group.CreatedAt,
	}
}

// dedupe drops blank and repeated ids, keeping the first occurrence.
func dedupe(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}
