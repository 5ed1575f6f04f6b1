package model

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Validate rejects processes that cannot participate in matching. Callers
// are expected to drop the offending process with a warning rather than
// abort the batch.
func (p *Process) Validate() error {
	if p == nil {
		return errors.New("nil process")
	}
	if strings.TrimSpace(p.Name) == "" {
		return errors.New("process name required")
	}
	if strings.TrimSpace(p.System) == "" {
		return fmt.Errorf("process %s: system tag required", p.Name)
	}
	for i, comp := range p.Components {
		if comp.Ordinal != i {
			return fmt.Errorf("process %s: component %q ordinal %d at position %d", p.Name, comp.Name, comp.Ordinal, i)
		}
	}
	return nil
}

// FilterValid returns the processes that pass validation plus the names of
// those rejected, preserving order and requiring unique names within the
// set. Duplicates keep the first occurrence.
func FilterValid(processes []Process) (valid []Process, rejected []string) {
	seen := make(map[string]bool, len(processes))
	for i := range processes {
		p := processes[i]
		if err := p.Validate(); err != nil {
			rejected = append(rejected, describeInvalid(p, err))
			continue
		}
		if seen[p.Name] {
			rejected = append(rejected, fmt.Sprintf("%s: duplicate process name", p.Name))
			continue
		}
		seen[p.Name] = true
		valid = append(valid, p)
	}
	return valid, rejected
}

func describeInvalid(p Process, err error) string {
	name := strings.TrimSpace(p.Name)
	if name == "" {
		name = strings.TrimSpace(p.SourcePath)
	}
	if name == "" {
		name = "(unnamed)"
	}
	return fmt.Sprintf("%s: %v", name, err)
}

// NormalizeTable canonicalizes a dataset name for cross-system comparison:
// case folding plus stripping a leading schema qualifier.
func NormalizeTable(name string) string {
	trimmed := strings.ToLower(strings.TrimSpace(name))
	if idx := strings.LastIndex(trimmed, "."); idx >= 0 {
		trimmed = trimmed[idx+1:]
	}
	return trimmed
}

// NormalizeTableSet folds a table list into a deduplicated, normalized set.
func NormalizeTableSet(tables []string) map[string]bool {
	set := make(map[string]bool, len(tables))
	for _, t := range tables {
		if norm := NormalizeTable(t); norm != "" {
			set[norm] = true
		}
	}
	return set
}

// SortedKeys returns the keys of a string set in lexicographic order.
func SortedKeys(set map[string]bool) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
