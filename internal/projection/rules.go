package projection

import (
	"crypto/sha256"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/stratahq/strata/internal/core/storage"
	"gopkg.in/yaml.v3"
)

// Rule actions.
const (
	ActionCreate = "create"
	ActionUpdate = "update"
	ActionDelete = "delete"
)

// Rule maps one event type onto a writer operation for one document kind.
// Rules are loaded at startup from YAML files and fingerprinted so a changed rule
// set is visible in logs.
type Rule struct {
	EventType   string   `yaml:"event_type"`
	Kind        string   `yaml:"kind"`
	Action      string   `yaml:"action"`
	Fields      []string `yaml:"fields"` // payload keys copied into the document; empty copies all
	Unset       []string `yaml:"unset"`  // document keys removed on update
	Fingerprint string   `yaml:"-"`      // SHA-256 of the raw YAML file; computed at load time
}

// ValidAction reports whether action names a writer operation.
func ValidAction(action string) bool {
	switch action {
	case ActionCreate, ActionUpdate, ActionDelete:
		return true
	}
	return false
}

// Mutator builds the document mutation this rule applies for an event payload.
func (r Rule) Mutator(data map[string]interface{}) Mutator {
	return func(doc *storage.Document) error {
		if r.Action == ActionDelete {
			doc.Deleted = true
			return nil
		}

		if len(r.Fields) == 0 {
			for k, v := range data {
				doc.Data[k] = v
			}
		} else {
			for _, f := range r.Fields {
				v, ok := data[f]
				if !ok {
					continue
				}
				doc.Data[f] = v
			}
		}

		for _, f := range r.Unset {
			delete(doc.Data, f)
		}
		return nil
	}
}

func (r Rule) validate() error {
	if r.EventType == "" {
		return fmt.Errorf("event_type must not be empty")
	}
	if r.Kind == "" {
		return fmt.Errorf("rule %q: kind must not be empty", r.EventType)
	}
	if !ValidAction(r.Action) {
		return fmt.Errorf("rule %q: unsupported action %q", r.EventType, r.Action)
	}
	if r.Action == ActionCreate && len(r.Unset) > 0 {
		return fmt.Errorf("rule %q: unset is only valid on update rules", r.EventType)
	}
	return nil
}

// RuleSet is an immutable set of rules keyed by event type.
type RuleSet struct {
	rules map[string]Rule
}

// NewRuleSet validates rules and indexes them by event type.
func NewRuleSet(rules []Rule) (*RuleSet, error) {
	set := &RuleSet{rules: make(map[string]Rule, len(rules))}
	for _, rule := range rules {
		if err := set.add(rule); err != nil {
			return nil, err
		}
	}
	return set, nil
}

// LoadRules reads every *.yaml / *.yml file in dir, one rule per file.
// A missing directory yields an empty rule set.
func LoadRules(dir string) (*RuleSet, error) {
	set := &RuleSet{rules: make(map[string]Rule)}

	info, err := os.Stat(dir)
	if os.IsNotExist(err) {
		return set, nil
	}
	if err != nil {
		return nil, fmt.Errorf("projection rule dir: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("projection rule path %q is not a directory", dir)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading projection rule dir: %w", err)
	}

	for _, e := range entries {
		if e.IsDir() || (!strings.HasSuffix(e.Name(), ".yaml") && !strings.HasSuffix(e.Name(), ".yml")) {
			continue
		}

		path := filepath.Join(dir, e.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading rule file %s: %w", path, err)
		}

		var rule Rule
		if err := yaml.Unmarshal(data, &rule); err != nil {
			return nil, fmt.Errorf("parsing rule file %s: %w", path, err)
		}
		if rule.EventType == "" && rule.Kind == "" && rule.Action == "" {
			continue // empty / comment-only file
		}

		rule.Fingerprint = fmt.Sprintf("%x", sha256.Sum256(data))
		if err := set.add(rule); err != nil {
			return nil, fmt.Errorf("rule file %s: %w", path, err)
		}
	}
	return set, nil
}

func (s *RuleSet) add(rule Rule) error {
	if err := rule.validate(); err != nil {
		return err
	}
	if _, exists := s.rules[rule.EventType]; exists {
		return fmt.Errorf("rule %q: duplicate event type (check multiple YAML files)", rule.EventType)
	}
	s.rules[rule.EventType] = rule
	return nil
}

// Get returns the rule for eventType.
func (s *RuleSet) Get(eventType string) (Rule, bool) {
	rule, ok := s.rules[eventType]
	return rule, ok
}

// List returns all rules ordered by event type.
func (s *RuleSet) List() []Rule {
	out := make([]Rule, 0, len(s.rules))
	for _, rule := range s.rules {
		out = append(out, rule)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].EventType < out[j].EventType })
	return out
}

// Len returns the number of loaded rules.
func (s *RuleSet) Len() int {
	return len(s.rules)
}
