// Package flag provides flag.Value types for repeatable or optional flags.
package flag

import (
	"fmt"
	"strconv"
	"strings"
)

// Argslice collects values of a repeatable flag.
//
// Each value can also be a comma separated list: "--status a,b" equals "--status a --status b".
type Argslice []string

func (s *Argslice) String() string {
	if s == nil {
		return ""
	}
	return strings.Join(*s, ",")
}

func (s *Argslice) Set(v string) error {
	for _, item := range strings.Split(v, ",") {
		if item = strings.TrimSpace(item); item != "" {
			*s = append(*s, item)
		}
	}
	return nil
}

func (s *Argslice) Values() []string {
	if s == nil {
		return []string{}
	}
	return append([]string{}, *s...)
}

// Attrs collects "key=value" pairs of a repeatable flag.
//
// Values "true" and "false" are booleans, others are strings.
type Attrs map[string]any

func (a *Attrs) String() string {
	if a == nil || len(*a) == 0 {
		return ""
	}
	pairs := make([]string, 0, len(*a))
	for k, v := range *a {
		pairs = append(pairs, fmt.Sprintf("%s=%v", k, v))
	}
	return strings.Join(pairs, " ")
}

func (a *Attrs) Set(v string) error {
	key, value, ok := strings.Cut(v, "=")
	key = strings.TrimSpace(key)
	if !ok || key == "" {
		return fmt.Errorf("attribute should be KEY=VALUE: %q", v)
	}
	if *a == nil {
		*a = Attrs{}
	}
	if b, err := strconv.ParseBool(value); err == nil && (value == "true" || value == "false") {
		(*a)[key] = b
	} else {
		(*a)[key] = value
	}
	return nil
}

// OptionalInt is an int flag which tells whether it is set.
type OptionalInt struct {
	v     int
	isSet bool
}

func (i *OptionalInt) String() string {
	if i == nil || !i.isSet {
		return ""
	}
	return strconv.Itoa(i.v)
}

func (i *OptionalInt) Set(v string) error {
	n, err := strconv.Atoi(v)
	if err != nil {
		return err
	}
	i.v = n
	i.isSet = true
	return nil
}

// Int returns the value, or nil when it is not set.
func (i *OptionalInt) Int() *int {
	if i == nil || !i.isSet {
		return nil
	}
	v := i.v
	return &v
}
