package tui

import (
	"fmt"
	"strconv"
	"strings"
)

// State collects submitted values keyed by dotted paths. Inline rows live
// under "<fieldset>.<position>.<field>".
type State struct {
	values map[string]any
}

// NewState returns an empty state.
func NewState() *State {
	return &State{values: make(map[string]any)}
}

// Values returns a copy of the collected values.
func (s *State) Values() map[string]any {
	if s == nil {
		return nil
	}
	return cloneValues(s.values)
}

// GetValue resolves a dotted path into the values map.
func (s *State) GetValue(path string) (any, bool) {
	if s == nil {
		return nil, false
	}
	return getPath(s.values, path)
}

// SetValue writes a value using a dotted path, creating intermediate maps/slices
// as needed.
func (s *State) SetValue(path string, value any) error {
	if s == nil {
		return fmt.Errorf("tui: state is nil")
	}
	if s.values == nil {
		s.values = make(map[string]any)
	}
	return setPath(s.values, path, value)
}

func cloneValues(src map[string]any) map[string]any {
	if len(src) == 0 {
		return make(map[string]any)
	}
	out := make(map[string]any, len(src))
	for k, v := range src {
		out[k] = deepCopy(v)
	}
	return out
}

func deepCopy(value any) any {
	switch typed := value.(type) {
	case map[string]any:
		clone := make(map[string]any, len(typed))
		for k, v := range typed {
			clone[k] = deepCopy(v)
		}
		return clone
	case []any:
		clone := make([]any, len(typed))
		for i, v := range typed {
			clone[i] = deepCopy(v)
		}
		return clone
	default:
		return typed
	}
}

func getPath(root map[string]any, path string) (any, bool) {
	if root == nil || path == "" {
		return nil, false
	}
	var current any = root
	for _, segment := range strings.Split(path, ".") {
		switch node := current.(type) {
		case map[string]any:
			next, ok := node[segment]
			if !ok {
				return nil, false
			}
			current = next
		case []any:
			idx, err := strconv.Atoi(segment)
			if err != nil || idx < 0 || idx >= len(node) {
				return nil, false
			}
			current = node[idx]
		default:
			return nil, false
		}
	}
	return current, true
}

// setPath writes value at path. Numeric segments address slice positions and
// grow the slice with empty maps as needed.
func setPath(root map[string]any, path string, value any) error {
	if root == nil {
		return fmt.Errorf("tui: root map is nil")
	}
	if path == "" {
		return fmt.Errorf("tui: empty path")
	}
	_, err := assign(root, strings.Split(path, "."), value)
	return err
}

// assign returns the possibly reallocated container so parents can store it.
func assign(container any, segments []string, value any) (any, error) {
	head, rest := segments[0], segments[1:]

	switch node := container.(type) {
	case map[string]any:
		if len(rest) == 0 {
			node[head] = value
			return node, nil
		}
		child, err := assign(childFor(node[head], rest[0]), rest, value)
		if err != nil {
			return nil, err
		}
		node[head] = child
		return node, nil

	case []any:
		idx, err := strconv.Atoi(head)
		if err != nil || idx < 0 {
			return nil, fmt.Errorf("tui: expected slice index, got %q", head)
		}
		for len(node) <= idx {
			node = append(node, nil)
		}
		if len(rest) == 0 {
			node[idx] = value
			return node, nil
		}
		child, err := assign(childFor(node[idx], rest[0]), rest, value)
		if err != nil {
			return nil, err
		}
		node[idx] = child
		return node, nil

	default:
		return nil, fmt.Errorf("tui: unexpected container for segment %q", head)
	}
}

// childFor reuses existing when it has the container type the next segment
// needs, otherwise it starts a fresh one.
func childFor(existing any, next string) any {
	if _, err := strconv.Atoi(next); err == nil {
		if slice, ok := existing.([]any); ok {
			return slice
		}
		return []any{}
	}
	if m, ok := existing.(map[string]any); ok {
		return m
	}
	return make(map[string]any)
}
