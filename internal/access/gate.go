package access

import (
	"errors"
	"fmt"
	"sort"

	"github.com/spec-kit/maintenance-service/internal/domain"
)

// ErrUnknownAction matches any UnknownActionError via errors.Is.
var ErrUnknownAction = errors.New("unknown action")

// UnknownActionError is returned when the gate is asked about an action it
// has no rule for. It signals a configuration defect, not a denial.
type UnknownActionError struct {
	Action Action
}

func (e *UnknownActionError) Error() string {
	return fmt.Sprintf("unknown action %q", string(e.Action))
}

func (e *UnknownActionError) Is(target error) bool {
	return target == ErrUnknownAction
}

// Resource carries the attributes some rules inspect.
type Resource struct {
	TechnicianID string
}

type compiledRule struct {
	roles map[domain.Role]struct{}
	scope Scope
}

// Gate answers allow/deny questions against an immutable permission table.
type Gate struct {
	rules map[Action]compiledRule
}

// NewGate copies table into a read-only gate.
func NewGate(table Table) *Gate {
	rules := make(map[Action]compiledRule, len(table))
	for action, rule := range table {
		roles := make(map[domain.Role]struct{}, len(rule.Roles))
		for _, role := range rule.Roles {
			roles[role] = struct{}{}
		}
		rules[action] = compiledRule{roles: roles, scope: rule.Scope}
	}
	return &Gate{rules: rules}
}

// CanPerform decides whether principal may attempt action on resource.
// Unknown actions are denied and reported through an *UnknownActionError.
func (g *Gate) CanPerform(principal domain.Principal, action Action, resource *Resource) (bool, error) {
	rule, ok := g.rules[action]
	if !ok {
		return false, &UnknownActionError{Action: action}
	}
	if _, ok := rule.roles[principal.Role]; !ok {
		return false, nil
	}
	if rule.scope == ScopeOwnAssignment && resource != nil && principal.Role == domain.RoleTechnician {
		return resource.TechnicianID == principal.ID, nil
	}
	return true, nil
}

// Allowed is CanPerform with the configuration error folded into a denial.
func (g *Gate) Allowed(principal domain.Principal, action Action, resource *Resource) bool {
	ok, err := g.CanPerform(principal, action, resource)
	return ok && err == nil
}

// Actions returns every action the gate knows, sorted by name.
func (g *Gate) Actions() []Action {
	actions := make([]Action, 0, len(g.rules))
	for action := range g.rules {
		actions = append(actions, action)
	}
	sort.Slice(actions, func(i, j int) bool { return actions[i] < actions[j] })
	return actions
}

// RolesFor lists the roles allowed to attempt action, in privilege order.
func (g *Gate) RolesFor(action Action) []domain.Role {
	rule, ok := g.rules[action]
	if !ok {
		return nil
	}
	var roles []domain.Role
	for _, role := range domain.Roles {
		if _, ok := rule.roles[role]; ok {
			roles = append(roles, role)
		}
	}
	return roles
}
