package service

import (
	"fmt"

	"github.com/casbin/casbin/v2"
	casbinmodel "github.com/casbin/casbin/v2/model"

	"github.com/qs3c/hms_go_server/internal/model"
)

// 能力：资源 + 动作
const (
	CapManageBookings     = "booking:manage"
	CapRecordPayments     = "payment:record"
	CapManageEvents       = "event:manage"
	CapManageHousekeeping = "housekeeping:manage"
	CapManageSubscription = "subscription:manage"
)

const policyModel = `
[request_definition]
r = sub, obj

[policy_definition]
p = sub, obj

[role_definition]
g = _, _

[policy_effect]
e = some(where (p.eft == allow))

[matchers]
m = g(r.sub, p.sub) && r.obj == p.obj
`

// 角色继承：左侧角色拥有右侧角色的全部能力
var roleInheritance = [][]string{
	{model.RoleAdmin, model.RoleManager},
	{model.RoleManager, model.RoleReceptionist},
	{model.RoleManager, model.RoleEventManager},
	{model.RoleManager, model.RoleCleaner},
}

var rolePolicies = [][]string{
	{model.RoleAdmin, CapManageSubscription},
	{model.RoleReceptionist, CapManageBookings},
	{model.RoleReceptionist, CapRecordPayments},
	{model.RoleReceptionist, CapManageHousekeeping},
	{model.RoleEventManager, CapManageEvents},
	{model.RoleStaff, CapManageHousekeeping},
	{model.RoleCleaner, CapManageHousekeeping},
}

// Policy 租户内角色到能力的集中判定
type Policy struct {
	enforcer *casbin.Enforcer
}

func NewPolicy() (*Policy, error) {
	m, err := casbinmodel.NewModelFromString(policyModel)
	if err != nil {
		return nil, fmt.Errorf("failed to load policy model: %w", err)
	}

	e, err := casbin.NewEnforcer(m)
	if err != nil {
		return nil, fmt.Errorf("failed to create casbin enforcer: %w", err)
	}

	for _, p := range rolePolicies {
		if _, err := e.AddPolicy(p); err != nil {
			return nil, fmt.Errorf("failed to add policy [%s, %s]: %w", p[0], p[1], err)
		}
	}
	for _, g := range roleInheritance {
		if _, err := e.AddGroupingPolicy(g); err != nil {
			return nil, fmt.Errorf("failed to add role [%s > %s]: %w", g[0], g[1], err)
		}
	}

	return &Policy{enforcer: e}, nil
}

// Can 超级管理员放行；否则要求在职成员且角色具备该能力
func (p *Policy) Can(user *model.User, membership *model.Membership, capability string) bool {
	if user != nil && user.IsSuperuser {
		return true
	}
	if membership == nil || !membership.IsActive {
		return false
	}
	if user != nil && membership.UserID != user.ID {
		return false
	}

	ok, err := p.enforcer.Enforce(membership.Role, capability)
	return err == nil && ok
}
