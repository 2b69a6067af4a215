// Package host resolves host aliases to their base URL and protocol,
// merging user-defined hosts from foreman.toml on top of three builtins.
package host

import (
	"fmt"

	foremanErrors "github.com/foreman-rs/foreman/internal/errors"
)

// Protocol identifies the provider API family a host speaks.
type Protocol string

const (
	ProtocolGitHub      Protocol = "github"
	ProtocolGitLab      Protocol = "gitlab"
	ProtocolArtifactory Protocol = "artifactory"
)

// Host is a (base URL, protocol) pair identified by a short name.
type Host struct {
	BaseURL  string
	Protocol Protocol
}

// Name of the legacy alias that always resolves to the github builtin.
const LegacySourceName = "source"

// Builtins returns the three hosts foreman knows without configuration.
// "source" is kept as an alias for "github" for backward compatibility
// with configs written against the original tool.
func Builtins() map[string]Host {
	return map[string]Host{
		"github":         {BaseURL: "https://api.github.com", Protocol: ProtocolGitHub},
		"gitlab":         {BaseURL: "https://gitlab.com", Protocol: ProtocolGitLab},
		LegacySourceName: {BaseURL: "https://api.github.com", Protocol: ProtocolGitHub},
	}
}

// Registry is the resolved set of hosts available to a given merged
// config: the three builtins overlaid with user-defined entries.
type Registry struct {
	hosts map[string]Host
}

// NewRegistry builds a Registry from user-defined hosts, which take
// precedence over builtins of the same name.
func NewRegistry(userHosts map[string]Host) *Registry {
	merged := Builtins()
	for name, h := range userHosts {
		merged[name] = h
	}
	return &Registry{hosts: merged}
}

// Resolve looks up a host by name. Returns a configuration error naming
// the missing host if it isn't registered.
func (r *Registry) Resolve(name string) (Host, error) {
	h, ok := r.hosts[name]
	if !ok {
		return Host{}, &foremanErrors.Error{
			Category: foremanErrors.CategoryConfig,
			Code:     foremanErrors.CodeConfigMissingHost,
			Message:  fmt.Sprintf("host %q is not registered", name),
			Hint:     "declare it under [hosts] in foreman.toml, or use one of: github, gitlab, source",
		}
	}
	return h, nil
}
