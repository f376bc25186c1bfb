// Package manifest deletes Kubernetes manifests through the orchestration API.
package manifest

import (
	"errors"
	"fmt"
	"strings"

	"k8s.io/apimachinery/pkg/util/validation"
)

var ErrInvalidCoordinates = errors.New("invalid manifest coordinates")

// Coordinates locates a manifest.
type Coordinates struct {
	// Name is "<kind> <name>", like "deployment nginx".
	Name      string
	Namespace string
	Account   string
}

// Kind returns the kind part of Name.
func (c Coordinates) Kind() string {
	kind, _, _ := strings.Cut(c.Name, " ")
	return kind
}

// ParseCoordinates builds Coordinates from user inputs, validating them.
//
// namespace should be a DNS-1123 label, and name should be a DNS-1123 subdomain.
func ParseCoordinates(account, namespace, kind, name string) (Coordinates, error) {
	problems := []string{}
	if account == "" {
		problems = append(problems, "account is empty")
	}
	if kind == "" || strings.ContainsAny(kind, " \t") {
		problems = append(problems, fmt.Sprintf("kind %q is not valid", kind))
	}
	for _, msg := range validation.IsDNS1123Label(namespace) {
		problems = append(problems, fmt.Sprintf("namespace %q: %s", namespace, msg))
	}
	for _, msg := range validation.IsDNS1123Subdomain(name) {
		problems = append(problems, fmt.Sprintf("name %q: %s", name, msg))
	}
	if len(problems) != 0 {
		return Coordinates{}, fmt.Errorf("%w: %s", ErrInvalidCoordinates, strings.Join(problems, "; "))
	}

	return Coordinates{
		Name:      strings.ToLower(kind) + " " + name,
		Namespace: namespace,
		Account:   account,
	}, nil
}
