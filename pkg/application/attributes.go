// Package application writes applications through the orchestration API,
// and holds runtime state of an application (its executions).
package application

import (
	"fmt"
	"strings"

	apitasks "github.com/opst/pipedeck/pkg/api/types/tasks"
)

// Attributes of an application, as users give.
//
// It should have "name". Other fields are passed to the orchestration API as they are.
type Attributes map[string]any

func (a Attributes) Name() string {
	n, _ := a["name"].(string)
	return n
}

// CloudProviders returns "cloudProviders" as a list, or nil if it is not a list of strings.
func (a Attributes) CloudProviders() []string {
	switch cp := a["cloudProviders"].(type) {
	case []string:
		return cp
	case []any:
		ret := make([]string, 0, len(cp))
		for _, v := range cp {
			s, ok := v.(string)
			if !ok {
				return nil
			}
			ret = append(ret, s)
		}
		return ret
	default:
		return nil
	}
}

// Transformer builds a base of command payload from attributes.
type Transformer func(Attributes) map[string]any

// CloneDeep copies all attributes, including nested maps and slices.
func CloneDeep(a Attributes) map[string]any {
	return deepcopy(map[string]any(a)).(map[string]any)
}

// NameOnly projects attributes to {name}.
func NameOnly(a Attributes) map[string]any {
	return map[string]any{"name": a["name"]}
}

func deepcopy(v any) any {
	switch vv := v.(type) {
	case map[string]any:
		ret := make(map[string]any, len(vv))
		for k, e := range vv {
			ret[k] = deepcopy(e)
		}
		return ret
	case Attributes:
		return deepcopy(map[string]any(vv))
	case []any:
		ret := make([]any, len(vv))
		for i, e := range vv {
			ret[i] = deepcopy(e)
		}
		return ret
	case []string:
		return append([]string{}, vv...)
	case map[string]string:
		ret := make(map[string]string, len(vv))
		for k, e := range vv {
			ret[k] = e
		}
		return ret
	default:
		return v
	}
}

// BuildJobs builds jobs to write an application.
//
// The command payload is built as:
//
//  1. transform attributes into the base of the payload
//  2. if "cloudProviders" of attrs is a list, it is joined with "," and set to the payload
//     (an empty list gets ""), whatever the transform keeps
//  3. "accounts" is removed
//
// Attributes which do not fit these rules are passed as they are.
func BuildJobs(attrs Attributes, jobType string, transform Transformer) []apitasks.Job {
	command := transform(attrs)

	if joined, ok := joinList(attrs["cloudProviders"]); ok {
		command["cloudProviders"] = joined
	}
	delete(command, "accounts")

	return []apitasks.Job{
		apitasks.NewJob(jobType, map[string]any{"application": command}),
	}
}

func joinList(v any) (string, bool) {
	switch l := v.(type) {
	case []string:
		return strings.Join(l, ","), true
	case []any:
		elems := make([]string, len(l))
		for i, e := range l {
			elems[i] = fmt.Sprintf("%v", e)
		}
		return strings.Join(elems, ","), true
	default:
		return "", false
	}
}
