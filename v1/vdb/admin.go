package vdb

import (
	"context"
	"encoding/base64"
	"fmt"

	"github.com/milvus-io/milvus-proto/go-api/v2/commonpb"
	"github.com/milvus-io/milvus-proto/go-api/v2/milvuspb"
)

// Passwords travel base64 encoded; the server decodes them before hashing.
func encodePassword(password string) string {
	return base64.StdEncoding.EncodeToString([]byte(password))
}

// CreateCredential creates a user.
func (c *Client) CreateCredential(ctx context.Context, username, password string) (err error) {
	if username == "" {
		return fmt.Errorf("%w: username is required", ErrInvalidArgument)
	}
	op := c.begin("CreateCredential", username, "")
	defer op.end(&err)

	status, err := c.api.CreateCredential(ctx, &milvuspb.CreateCredentialRequest{
		Base:     msgBase(commonpb.MsgType_CreateCredential),
		Username: username,
		Password: encodePassword(password),
	})
	if err != nil {
		return fmt.Errorf("[VDB] create credential %q: %w", username, err)
	}
	return checkStatus(status)
}

// UpdateCredential changes a user's password.
func (c *Client) UpdateCredential(ctx context.Context, username, oldPassword, newPassword string) (err error) {
	if username == "" {
		return fmt.Errorf("%w: username is required", ErrInvalidArgument)
	}
	op := c.begin("UpdateCredential", username, "")
	defer op.end(&err)

	status, err := c.api.UpdateCredential(ctx, &milvuspb.UpdateCredentialRequest{
		Base:        msgBase(commonpb.MsgType_UpdateCredential),
		Username:    username,
		OldPassword: encodePassword(oldPassword),
		NewPassword: encodePassword(newPassword),
	})
	if err != nil {
		return fmt.Errorf("[VDB] update credential %q: %w", username, err)
	}
	return checkStatus(status)
}

// DeleteCredential removes a user.
func (c *Client) DeleteCredential(ctx context.Context, username string) (err error) {
	if username == "" {
		return fmt.Errorf("%w: username is required", ErrInvalidArgument)
	}
	op := c.begin("DeleteCredential", username, "")
	defer op.end(&err)

	status, err := c.api.DeleteCredential(ctx, &milvuspb.DeleteCredentialRequest{
		Base:     msgBase(commonpb.MsgType_DeleteCredential),
		Username: username,
	})
	if err != nil {
		return fmt.Errorf("[VDB] delete credential %q: %w", username, err)
	}
	return checkStatus(status)
}

// ListCredentialUsers lists all users.
func (c *Client) ListCredentialUsers(ctx context.Context) (users []string, err error) {
	op := c.begin("ListCredentialUsers", "", "")
	defer op.end(&err)

	resp, err := c.api.ListCredUsers(ctx, &milvuspb.ListCredUsersRequest{})
	if err := checkResponse(resp, err); err != nil {
		return nil, fmt.Errorf("[VDB] list users: %w", err)
	}
	return resp.GetUsernames(), nil
}

// CreateRole creates an RBAC role.
func (c *Client) CreateRole(ctx context.Context, role string) (err error) {
	if role == "" {
		return fmt.Errorf("%w: role is required", ErrInvalidArgument)
	}
	op := c.begin("CreateRole", role, "")
	defer op.end(&err)

	status, err := c.api.CreateRole(ctx, &milvuspb.CreateRoleRequest{Entity: &milvuspb.RoleEntity{Name: role}})
	if err != nil {
		return fmt.Errorf("[VDB] create role %q: %w", role, err)
	}
	return checkStatus(status)
}

// DropRole deletes an RBAC role.
func (c *Client) DropRole(ctx context.Context, role string) (err error) {
	if role == "" {
		return fmt.Errorf("%w: role is required", ErrInvalidArgument)
	}
	op := c.begin("DropRole", role, "")
	defer op.end(&err)

	status, err := c.api.DropRole(ctx, &milvuspb.DropRoleRequest{RoleName: role})
	if err != nil {
		return fmt.Errorf("[VDB] drop role %q: %w", role, err)
	}
	return checkStatus(status)
}

// AddUserToRole grants a role to a user.
func (c *Client) AddUserToRole(ctx context.Context, username, role string) error {
	return c.operateUserRole(ctx, "AddUserToRole", username, role, milvuspb.OperateUserRoleType_AddUserToRole)
}

// RemoveUserFromRole revokes a role from a user.
func (c *Client) RemoveUserFromRole(ctx context.Context, username, role string) error {
	return c.operateUserRole(ctx, "RemoveUserFromRole", username, role, milvuspb.OperateUserRoleType_RemoveUserFromRole)
}

func (c *Client) operateUserRole(ctx context.Context, name, username, role string, kind milvuspb.OperateUserRoleType) (err error) {
	if username == "" || role == "" {
		return fmt.Errorf("%w: username and role are required", ErrInvalidArgument)
	}
	op := c.begin(name, role, username)
	defer op.end(&err)

	status, err := c.api.OperateUserRole(ctx, &milvuspb.OperateUserRoleRequest{
		Username: username,
		RoleName: role,
		Type:     kind,
	})
	if err != nil {
		return fmt.Errorf("[VDB] %s %q/%q: %w", name, username, role, err)
	}
	return checkStatus(status)
}

// GrantPrivilege gives g.Role the privilege g.Privilege on g.ObjectName.
// An empty g.Database means the client's database.
func (c *Client) GrantPrivilege(ctx context.Context, g Grant) error {
	return c.operatePrivilege(ctx, "GrantPrivilege", g, milvuspb.OperatePrivilegeType_Grant)
}

// RevokePrivilege takes a privilege granted with GrantPrivilege back.
func (c *Client) RevokePrivilege(ctx context.Context, g Grant) error {
	return c.operatePrivilege(ctx, "RevokePrivilege", g, milvuspb.OperatePrivilegeType_Revoke)
}

func (c *Client) operatePrivilege(ctx context.Context, name string, g Grant, kind milvuspb.OperatePrivilegeType) (err error) {
	if g.Role == "" || g.Object == "" || g.ObjectName == "" || g.Privilege == "" {
		return fmt.Errorf("%w: role, object, object name and privilege are required", ErrInvalidArgument)
	}
	op := c.begin(name, g.Role, g.Privilege)
	defer op.end(&err)

	status, err := c.api.OperatePrivilege(ctx, &milvuspb.OperatePrivilegeRequest{
		Base:   msgBase(commonpb.MsgType_OperatePrivilege),
		Entity: c.grantEntity(g),
		Type:   kind,
	})
	if err != nil {
		return fmt.Errorf("[VDB] %s %q on %s %q: %w", name, g.Role, g.Object, g.ObjectName, err)
	}
	return checkStatus(status)
}

func (c *Client) grantEntity(g Grant) *milvuspb.GrantEntity {
	db := g.Database
	if db == "" {
		db = c.cfg.Database
	}
	e := &milvuspb.GrantEntity{
		Role:       &milvuspb.RoleEntity{Name: g.Role},
		ObjectName: g.ObjectName,
		DbName:     db,
	}
	if g.Object != "" {
		e.Object = &milvuspb.ObjectEntity{Name: g.Object}
	}
	if g.Privilege != "" {
		e.Grantor = &milvuspb.GrantorEntity{Privilege: &milvuspb.PrivilegeEntity{Name: g.Privilege}}
	}
	return e
}

// SelectGrant lists the privileges of role. object and objectName narrow the
// result when set.
func (c *Client) SelectGrant(ctx context.Context, role, object, objectName string) (grants []Grant, err error) {
	if role == "" {
		return nil, fmt.Errorf("%w: role is required", ErrInvalidArgument)
	}
	op := c.begin("SelectGrant", role, "")
	defer op.end(&err)

	resp, err := c.api.SelectGrant(ctx, &milvuspb.SelectGrantRequest{
		Base:   msgBase(commonpb.MsgType_SelectGrant),
		Entity: c.grantEntity(Grant{Role: role, Object: object, ObjectName: objectName}),
	})
	if err := checkResponse(resp, err); err != nil {
		return nil, fmt.Errorf("[VDB] select grant %q: %w", role, err)
	}
	for _, e := range resp.GetEntities() {
		grants = append(grants, Grant{
			Role:       e.GetRole().GetName(),
			Object:     e.GetObject().GetName(),
			ObjectName: e.GetObjectName(),
			Privilege:  e.GetGrantor().GetPrivilege().GetName(),
			Grantor:    e.GetGrantor().GetUser().GetName(),
			Database:   e.GetDbName(),
		})
	}
	op.size = int64(len(grants))
	return grants, nil
}

// SelectRole describes role, or every role when role is empty.
func (c *Client) SelectRole(ctx context.Context, role string, includeUsers bool) (roles []RoleResult, err error) {
	op := c.begin("SelectRole", role, "")
	defer op.end(&err)

	req := &milvuspb.SelectRoleRequest{
		Base:            msgBase(commonpb.MsgType_SelectRole),
		IncludeUserInfo: includeUsers,
	}
	if role != "" {
		req.Role = &milvuspb.RoleEntity{Name: role}
	}
	resp, err := c.api.SelectRole(ctx, req)
	if err := checkResponse(resp, err); err != nil {
		return nil, fmt.Errorf("[VDB] select role %q: %w", role, err)
	}
	for _, r := range resp.GetResults() {
		res := RoleResult{Role: r.GetRole().GetName()}
		for _, u := range r.GetUsers() {
			res.Users = append(res.Users, u.GetName())
		}
		roles = append(roles, res)
	}
	op.size = int64(len(roles))
	return roles, nil
}

// SelectUser describes user, or every user when user is empty.
func (c *Client) SelectUser(ctx context.Context, user string, includeRoles bool) (users []UserResult, err error) {
	op := c.begin("SelectUser", user, "")
	defer op.end(&err)

	req := &milvuspb.SelectUserRequest{
		Base:            msgBase(commonpb.MsgType_SelectUser),
		IncludeRoleInfo: includeRoles,
	}
	if user != "" {
		req.User = &milvuspb.UserEntity{Name: user}
	}
	resp, err := c.api.SelectUser(ctx, req)
	if err := checkResponse(resp, err); err != nil {
		return nil, fmt.Errorf("[VDB] select user %q: %w", user, err)
	}
	for _, u := range resp.GetResults() {
		res := UserResult{User: u.GetUser().GetName()}
		for _, r := range u.GetRoles() {
			res.Roles = append(res.Roles, r.GetName())
		}
		users = append(users, res)
	}
	op.size = int64(len(users))
	return users, nil
}

// GetVersion returns the server version string.
func (c *Client) GetVersion(ctx context.Context) (version string, err error) {
	op := c.begin("GetVersion", "", "")
	defer op.end(&err)

	resp, err := c.api.GetVersion(ctx, &milvuspb.GetVersionRequest{})
	if err := checkResponse(resp, err); err != nil {
		return "", fmt.Errorf("[VDB] get version: %w", err)
	}
	return resp.GetVersion(), nil
}

// CheckHealth asks the server for its health. An unhealthy server is not an
// error; inspect Health.IsHealthy.
func (c *Client) CheckHealth(ctx context.Context) (health *Health, err error) {
	op := c.begin("CheckHealth", "", "")
	defer op.end(&err)

	resp, err := c.api.CheckHealth(ctx, &milvuspb.CheckHealthRequest{})
	if err := checkResponse(resp, err); err != nil {
		return nil, fmt.Errorf("[VDB] check health: %w", err)
	}
	return &Health{IsHealthy: resp.GetIsHealthy(), Reasons: resp.GetReasons()}, nil
}

// GetMetrics runs a metrics request, e.g. `{"metric_type": "system_info"}`.
func (c *Client) GetMetrics(ctx context.Context, request string) (metrics *ServerMetrics, err error) {
	if request == "" {
		return nil, fmt.Errorf("%w: metrics request is required", ErrInvalidArgument)
	}
	op := c.begin("GetMetrics", "", "")
	defer op.end(&err)

	resp, err := c.api.GetMetrics(ctx, &milvuspb.GetMetricsRequest{Request: request})
	if err := checkResponse(resp, err); err != nil {
		return nil, fmt.Errorf("[VDB] get metrics: %w", err)
	}
	return &ServerMetrics{ComponentName: resp.GetComponentName(), Response: resp.GetResponse()}, nil
}

// ManualCompaction starts a compaction of the collection and returns its id.
func (c *Client) ManualCompaction(ctx context.Context, collection string) (compactionID int64, err error) {
	if collection == "" {
		return 0, ErrEmptyCollectionName
	}
	op := c.begin("ManualCompaction", collection, "")
	defer op.end(&err)

	meta, err := c.DescribeCollection(ctx, collection)
	if err != nil {
		return 0, err
	}

	resp, err := c.api.ManualCompaction(ctx, &milvuspb.ManualCompactionRequest{CollectionID: meta.CollectionID})
	if err := checkResponse(resp, err); err != nil {
		return 0, fmt.Errorf("[VDB] compact %q: %w", collection, err)
	}
	return resp.GetCompactionID(), nil
}

// GetCompactionState reports the progress of a compaction.
func (c *Client) GetCompactionState(ctx context.Context, compactionID int64) (state *CompactionState, err error) {
	op := c.begin("GetCompactionState", "", "")
	defer op.end(&err)

	resp, err := c.api.GetCompactionState(ctx, &milvuspb.GetCompactionStateRequest{CompactionID: compactionID})
	if err := checkResponse(resp, err); err != nil {
		return nil, fmt.Errorf("[VDB] compaction state: %w", err)
	}
	return &CompactionState{
		State:     resp.GetState().String(),
		Executing: resp.GetExecutingPlanNo(),
		Completed: resp.GetCompletedPlanNo(),
		Failed:    resp.GetFailedPlanNo(),
		TimedOut:  resp.GetTimeoutPlanNo(),
	}, nil
}

// GetCompactionPlans lists the segment merges of a compaction.
func (c *Client) GetCompactionPlans(ctx context.Context, compactionID int64) (plan *CompactionPlan, err error) {
	op := c.begin("GetCompactionPlans", "", "")
	defer op.end(&err)

	resp, err := c.api.GetCompactionStateWithPlans(ctx, &milvuspb.GetCompactionPlansRequest{CompactionID: compactionID})
	if err := checkResponse(resp, err); err != nil {
		return nil, fmt.Errorf("[VDB] compaction plans: %w", err)
	}
	plan = &CompactionPlan{State: resp.GetState().String()}
	for _, m := range resp.GetMergeInfos() {
		plan.MergeInfos = append(plan.MergeInfos, CompactionMergeInfo{Sources: m.GetSources(), Target: m.GetTarget()})
	}
	return plan, nil
}
