package authz

import (
	"fmt"
	"strings"

	"github.com/casbin/casbin/v3"
	"github.com/casbin/casbin/v3/model"
	"github.com/casbin/casbin/v3/util"
	gormadapter "github.com/casbin/gorm-adapter/v3"
	"gorm.io/gorm"
)

const (
	casbinTableName = "casbin_rule"
	userSubjectFmt  = "user:%d"
	rolePrefix      = "role:"
)

const defaultRBACModel = `
[request_definition]
r = sub, obj, act

[policy_definition]
p = sub, obj, act

[role_definition]
g = _, _

[policy_effect]
e = some(where (p.eft == allow))

[matchers]
m = (g(r.sub, p.sub) || r.sub == p.sub) && keyMatch2(r.obj, p.obj) && (r.act == p.act || p.act == "*")
`

// Service role-based authorization backed by Casbin.
type Service struct {
	enforcer *casbin.SyncedEnforcer
}

// NewService creates the authorization service.
func NewService(db *gorm.DB) (*Service, error) {
	if db == nil {
		return nil, fmt.Errorf("authz db is nil")
	}

	adapter, err := gormadapter.NewAdapterByDBUseTableName(db, "", casbinTableName)
	if err != nil {
		return nil, fmt.Errorf("create authz adapter failed: %w", err)
	}

	m, err := model.NewModelFromString(defaultRBACModel)
	if err != nil {
		return nil, fmt.Errorf("load authz model failed: %w", err)
	}

	enforcer, err := casbin.NewSyncedEnforcer(m, adapter)
	if err != nil {
		return nil, fmt.Errorf("init authz enforcer failed: %w", err)
	}
	enforcer.AddFunction("keyMatch2", util.KeyMatch2Func)
	enforcer.EnableAutoSave(true)

	if err := enforcer.LoadPolicy(); err != nil {
		return nil, fmt.Errorf("load authz policy failed: %w", err)
	}

	return &Service{enforcer: enforcer}, nil
}

// BootstrapBuiltinRoles seeds the built-in role policies.
func (s *Service) BootstrapBuiltinRoles() error {
	if s == nil || s.enforcer == nil {
		return fmt.Errorf("authz service unavailable")
	}
	seeds := [][]string{
		{RoleSubject("admin"), "/api/v1/admin/*", "*"},
		{RoleSubject("admin"), "/api/v1/*", "*"},
		{RoleSubject("user"), "/api/v1/*", "*"},
	}
	for _, seed := range seeds {
		has, err := s.enforcer.HasPolicy(seed[0], seed[1], seed[2])
		if err != nil {
			return err
		}
		if has {
			continue
		}
		if _, err := s.enforcer.AddPolicy(seed[0], seed[1], seed[2]); err != nil {
			return err
		}
	}
	return nil
}

// Enforce runs one authorization check.
func (s *Service) Enforce(sub, obj, act string) (bool, error) {
	if s == nil || s.enforcer == nil {
		return false, fmt.Errorf("authz service unavailable")
	}
	return s.enforcer.Enforce(strings.TrimSpace(sub), strings.TrimSpace(obj), strings.ToUpper(strings.TrimSpace(act)))
}

// EnforceUser checks one user subject against an object and action.
func (s *Service) EnforceUser(userID uint, obj, act string) (bool, error) {
	return s.Enforce(SubjectForUser(userID), obj, act)
}

// AssignRole binds a user subject to a role.
func (s *Service) AssignRole(userID uint, role string) error {
	if s == nil || s.enforcer == nil {
		return fmt.Errorf("authz service unavailable")
	}
	_, err := s.enforcer.AddGroupingPolicy(SubjectForUser(userID), RoleSubject(role))
	return err
}

// RevokeRole removes a user's role binding.
func (s *Service) RevokeRole(userID uint, role string) error {
	if s == nil || s.enforcer == nil {
		return fmt.Errorf("authz service unavailable")
	}
	_, err := s.enforcer.RemoveGroupingPolicy(SubjectForUser(userID), RoleSubject(role))
	return err
}

// SubjectForUser builds the casbin subject for a user id.
func SubjectForUser(userID uint) string {
	return fmt.Sprintf(userSubjectFmt, userID)
}

// RoleSubject builds the casbin subject for a role name.
func RoleSubject(role string) string {
	role = strings.ToLower(strings.TrimSpace(role))
	if strings.HasPrefix(role, rolePrefix) {
		return role
	}
	return rolePrefix + role
}
