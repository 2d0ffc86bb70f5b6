package authz

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/waw-schedule/backend/internal/domain"

	"github.com/casbin/casbin/v3"
	"github.com/casbin/casbin/v3/model"
	"github.com/casbin/casbin/v3/util"
)

const (
	// ObjectAnyAvailability lets a role manage availability of other users.
	ObjectAnyAvailability = "availability:any"
	// ObjectUserRole lets a role change user roles.
	ObjectUserRole = "user:role"
)

const rbacModel = `
[request_definition]
r = sub, obj, act

[policy_definition]
p = sub, obj, act

[role_definition]
g = _, _

[policy_effect]
e = some(where (p.eft == allow))

[matchers]
m = g(r.sub, p.sub) && keyMatch2(r.obj, p.obj) && (r.act == p.act || p.act == "*")
`

// Policy is one sub/obj/act rule.
type Policy struct {
	Subject string
	Object  string
	Action  string
}

var defaultPolicies = []Policy{
	{domain.RoleUser, "/users", http.MethodGet},
	{domain.RoleUser, "/logout", http.MethodPost},
	{domain.RoleUser, "/userBasicUpdate", http.MethodPatch},
	{domain.RoleUser, "/userPasswordUpdate", http.MethodPatch},
	{domain.RoleUser, "/userEmailUpdateInit", http.MethodPost},
	{domain.RoleUser, "/userEmailUpdateVerify", http.MethodPatch},
	{domain.RoleUser, "/user/:userId/availability", "*"},
	{domain.RoleAdmin, ObjectAnyAvailability, "*"},
	{domain.RoleAdmin, ObjectUserRole, "*"},
}

type Enforcer struct {
	enforcer *casbin.SyncedEnforcer
}

// New builds an in-memory enforcer loaded with the default policy.
// admin inherits everything user may do.
func New() (*Enforcer, error) {
	m, err := model.NewModelFromString(rbacModel)
	if err != nil {
		return nil, fmt.Errorf("load authz model failed: %w", err)
	}

	enforcer, err := casbin.NewSyncedEnforcer(m)
	if err != nil {
		return nil, fmt.Errorf("init authz enforcer failed: %w", err)
	}
	enforcer.AddFunction("keyMatch2", util.KeyMatch2Func)

	for _, p := range defaultPolicies {
		if _, err := enforcer.AddPolicy(p.Subject, p.Object, p.Action); err != nil {
			return nil, fmt.Errorf("add policy %s %s %s failed: %w", p.Subject, p.Object, p.Action, err)
		}
	}

	if _, err := enforcer.AddGroupingPolicy(domain.RoleAdmin, domain.RoleUser); err != nil {
		return nil, fmt.Errorf("add role inheritance failed: %w", err)
	}

	return &Enforcer{enforcer: enforcer}, nil
}

// Allowed reports whether any of roles grants act on obj.
func (e *Enforcer) Allowed(roles []string, obj, act string) (bool, error) {
	if e == nil || e.enforcer == nil {
		return false, fmt.Errorf("authz enforcer unavailable")
	}

	for _, role := range roles {
		ok, err := e.enforcer.Enforce(strings.TrimSpace(role), obj, strings.ToUpper(act))
		if err != nil {
			return false, fmt.Errorf("enforce failed: %w", err)
		}
		if ok {
			return true, nil
		}
	}

	return false, nil
}
