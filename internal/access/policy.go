package access

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/spec-kit/maintenance-service/internal/domain"
)

type policyFile struct {
	Actions map[string]policyRule `yaml:"actions"`
}

type policyRule struct {
	Roles []string `yaml:"roles"`
	Scope string   `yaml:"scope"`
}

// LoadTable reads a YAML policy file and applies its rules over the default
// table. Entries in the file replace the default rule for that action.
//
//	actions:
//	  approveResolution:
//	    roles: [admin]
//	  viewAssignment:
//	    roles: [technician, lead, admin]
//	    scope: own-assignment
func LoadTable(path string) (Table, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read policy %s: %w", path, err)
	}
	return ParseTable(raw)
}

// ParseTable applies YAML policy content over the default table.
func ParseTable(raw []byte) (Table, error) {
	var file policyFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("decode policy: %w", err)
	}
	table := DefaultTable()
	for name, entry := range file.Actions {
		if name == "" {
			return nil, errors.New("policy: empty action name")
		}
		rule := Rule{Roles: make([]domain.Role, 0, len(entry.Roles))}
		for _, rawRole := range entry.Roles {
			role, ok := domain.ParseRole(rawRole)
			if !ok {
				return nil, fmt.Errorf("policy: action %s: unknown role %q", name, rawRole)
			}
			rule.Roles = append(rule.Roles, role)
		}
		switch Scope(entry.Scope) {
		case ScopeNone, ScopeOwnAssignment:
			rule.Scope = Scope(entry.Scope)
		default:
			return nil, fmt.Errorf("policy: action %s: unknown scope %q", name, entry.Scope)
		}
		table[Action(name)] = rule
	}
	return table, nil
}
