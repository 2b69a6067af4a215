package config

import (
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"

	foremanErrors "github.com/foreman-rs/foreman/internal/errors"
	"github.com/foreman-rs/foreman/internal/host"
)

type rawHostEntry struct {
	Source   string `toml:"source"`
	Protocol string `toml:"protocol"`
}

type rawConfigFile struct {
	Tools map[string]map[string]string `toml:"tools"`
	Hosts map[string]rawHostEntry      `toml:"hosts"`
}

// ParseFile reads and parses a single foreman.toml, converting its
// legacy and host-keyed tool shapes into the single ToolRef
// representation.
func ParseFile(path string) (*ConfigFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	var raw rawConfigFile
	if err := toml.Unmarshal(data, &raw); err != nil {
		return nil, &foremanErrors.Error{
			Category: foremanErrors.CategoryConfig,
			Code:     foremanErrors.CodeConfigParse,
			Message:  fmt.Sprintf("failed to parse %s", path),
			Cause:    err,
		}
	}

	tools := make(map[string]ToolRef, len(raw.Tools))
	for alias, fields := range raw.Tools {
		ref, err := parseToolRef(path, alias, fields)
		if err != nil {
			return nil, err
		}
		tools[alias] = ref
	}

	hosts := make(map[string]host.Host, len(raw.Hosts))
	for name, entry := range raw.Hosts {
		protocol := host.Protocol(entry.Protocol)
		switch protocol {
		case host.ProtocolGitHub, host.ProtocolGitLab, host.ProtocolArtifactory:
		default:
			return nil, &foremanErrors.Error{
				Category: foremanErrors.CategoryConfig,
				Code:     foremanErrors.CodeConfigParse,
				Message:  fmt.Sprintf("%s: host %q names unknown protocol %q", path, name, entry.Protocol),
				Hint:     "protocol must be one of: github, gitlab, artifactory",
			}
		}
		hosts[name] = host.Host{BaseURL: entry.Source, Protocol: protocol}
	}

	return &ConfigFile{Path: path, Tools: tools, Hosts: hosts}, nil
}

// parseToolRef converts the raw per-alias table into a ToolRef,
// rejecting entries with zero or multiple host keys per the data
// model's ToolRef invariant.
func parseToolRef(path, alias string, fields map[string]string) (ToolRef, error) {
	version, hasVersion := fields["version"]
	if !hasVersion || version == "" {
		return ToolRef{}, &foremanErrors.Error{
			Category: foremanErrors.CategoryConfig,
			Code:     foremanErrors.CodeConfigBadVersion,
			Message:  fmt.Sprintf("%s: tool %q has no version", path, alias),
			Alias:    alias,
		}
	}

	var hostKey, repo string
	count := 0
	for key, value := range fields {
		if key == "version" {
			continue
		}
		hostKey, repo = key, value
		count++
	}

	if count != 1 {
		return ToolRef{}, &foremanErrors.Error{
			Category: foremanErrors.CategoryConfig,
			Code:     foremanErrors.CodeConfigDuplicateHost,
			Message:  fmt.Sprintf("%s: tool %q must name exactly one host, found %d", path, alias, count),
			Alias:    alias,
		}
	}

	return ToolRef{Host: hostKey, Repo: repo, Version: version}, nil
}

// Load folds a discovered chain of foreman.toml paths (deepest first,
// system config last) into a MergedConfig. For both tools and hosts
// the first occurrence of a key wins; no deep merging is performed.
// Every tool's host must resolve against the merged host registry, or
// Load fails naming the offending alias and host.
func Load(paths []string) (*MergedConfig, error) {
	tools := make(map[string]ToolRef)
	hosts := make(map[string]host.Host)

	for _, path := range paths {
		cf, err := ParseFile(path)
		if err != nil {
			return nil, err
		}
		for alias, ref := range cf.Tools {
			if _, exists := tools[alias]; !exists {
				tools[alias] = ref
			}
		}
		for name, h := range cf.Hosts {
			if _, exists := hosts[name]; !exists {
				hosts[name] = h
			}
		}
	}

	registry := host.NewRegistry(hosts)

	for alias, ref := range tools {
		if _, err := registry.Resolve(ref.Host); err != nil {
			return nil, foremanErrors.WithAlias(err, alias)
		}
	}

	return &MergedConfig{Tools: tools, Hosts: registry}, nil
}
