// Package agentkind defines the closed enumerations and the image-reference
// value type shared across the resolver, registry and sandbox packages.
package agentkind

import (
	"fmt"
	"regexp"
	"strings"
)

// Kind is one of the five fixed coding-agent identities. It is used as a
// lookup key for Dockerfile paths, default image tags and registry
// repository names.
type Kind string

const (
	A1 Kind = "a1"
	A2 Kind = "a2"
	A3 Kind = "a3"
	A4 Kind = "a4"
	A5 Kind = "a5"
)

// All is the closed set of agent kinds, fixed at design time.
var All = []Kind{A1, A2, A3, A4, A5}

// Valid reports whether k is a member of the closed enumeration.
func (k Kind) Valid() bool {
	switch k {
	case A1, A2, A3, A4, A5:
		return true
	}
	return false
}

// Repository returns the canonical repository name for this agent kind,
// e.g. "vibekit-a1".
func (k Kind) Repository() string {
	return "vibekit-" + string(k)
}

// DockerfileName returns the relative path of the Dockerfile used to build
// the image for this agent kind.
func (k Kind) DockerfileName() string {
	return fmt.Sprintf("assets/dockerfiles/Dockerfile.%s", string(k))
}

// ParseKind validates a free-form string against the closed enumeration.
func ParseKind(s string) (Kind, error) {
	k := Kind(strings.ToLower(strings.TrimSpace(s)))
	if !k.Valid() {
		return "", fmt.Errorf("agentkind: %q is not a recognized agent kind", s)
	}
	return k, nil
}

// RegistryKind is the closed enumeration of supported registries.
type RegistryKind string

const (
	Hub   RegistryKind = "hub"
	Forge RegistryKind = "forge"
	Cloud RegistryKind = "cloud"
)

func (r RegistryKind) Valid() bool {
	switch r {
	case Hub, Forge, Cloud:
		return true
	}
	return false
}

func ParseRegistryKind(s string) (RegistryKind, error) {
	r := RegistryKind(strings.ToLower(strings.TrimSpace(s)))
	if !r.Valid() {
		return "", fmt.Errorf("agentkind: %q is not a recognized registry kind", s)
	}
	return r, nil
}

// referencePattern matches well-formed image references:
// `^[a-zA-Z0-9][a-zA-Z0-9._\-\/:]*$`.
var referencePattern = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9._\-/:]*$`)

// ImageRef is a structured container image reference:
// `registry_host/namespace/repository:tag`. Host is optional for the
// default hub registry.
type ImageRef struct {
	Host       string
	Namespace  string
	Repository string
	Tag        string
}

// String renders the canonical textual form of the reference.
func (r ImageRef) String() string {
	tag := r.Tag
	if tag == "" {
		tag = "latest"
	}
	var b strings.Builder
	if r.Host != "" {
		b.WriteString(r.Host)
		b.WriteByte('/')
	}
	if r.Namespace != "" {
		b.WriteString(r.Namespace)
		b.WriteByte('/')
	}
	b.WriteString(r.Repository)
	b.WriteByte(':')
	b.WriteString(tag)
	return b.String()
}

// IsZero reports whether r is the empty reference.
func (r ImageRef) IsZero() bool {
	return r == ImageRef{}
}

// ForAgentKind builds the canonical reference for an agent kind in a given
// namespace, optionally rooted at a registry host.
func ForAgentKind(host, namespace string, kind Kind) ImageRef {
	return ImageRef{
		Host:       host,
		Namespace:  namespace,
		Repository: kind.Repository(),
		Tag:        "latest",
	}
}

// LocalTag is the bare `vibekit-<agent-kind>:latest` tag the resolver
// uses to probe and populate the local image cache.
func LocalTag(kind Kind) string {
	return ImageRef{Repository: kind.Repository(), Tag: "latest"}.String()
}

// ValidateReference rejects values that don't look like an image
// reference.
func ValidateReference(ref string) error {
	if ref == "" {
		return fmt.Errorf("agentkind: empty image reference")
	}
	if !referencePattern.MatchString(ref) {
		return fmt.Errorf("agentkind: %q is not a valid image reference", ref)
	}
	return nil
}

// ParseImageRef parses the canonical textual form back into an ImageRef.
// Host detection goes by segment count alone: one segment is a bare
// repository, two are namespace/repository, and with three or more the
// first segment is the registry host and the middle ones the namespace.
// A two-segment reference such as "ghcr.io/repo" therefore parses with
// "ghcr.io" as its Namespace; String renders it back unchanged.
func ParseImageRef(s string) (ImageRef, error) {
	if err := ValidateReference(s); err != nil {
		return ImageRef{}, err
	}
	name, tag := s, "latest"
	if idx := strings.LastIndex(s, ":"); idx > strings.LastIndex(s, "/") {
		name, tag = s[:idx], s[idx+1:]
	}
	parts := strings.Split(name, "/")
	switch len(parts) {
	case 1:
		return ImageRef{Repository: parts[0], Tag: tag}, nil
	case 2:
		return ImageRef{Namespace: parts[0], Repository: parts[1], Tag: tag}, nil
	default:
		host := parts[0]
		repo := parts[len(parts)-1]
		namespace := strings.Join(parts[1:len(parts)-1], "/")
		return ImageRef{Host: host, Namespace: namespace, Repository: repo, Tag: tag}, nil
	}
}
