// Package versionspec parses a tool's version constraint and matches it
// against a provider's release listing.
package versionspec

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/Masterminds/semver/v3"

	foremanErrors "github.com/foreman-rs/foreman/internal/errors"
)

// Req is a parsed version constraint. The bare string "X.Y.Z" is
// interpreted as the Cargo-style caret constraint (>=X.Y.Z, <next-major);
// a leading "=" forces an exact match.
type Req struct {
	raw        string
	constraint *semver.Constraints
	exact      bool
}

// Parse parses a version requirement string from a ToolRef.
func Parse(raw string) (*Req, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return nil, &foremanErrors.Error{
			Category: foremanErrors.CategoryConfig,
			Code:     foremanErrors.CodeConfigBadVersion,
			Message:  "version requirement must not be empty",
		}
	}

	if exact, ok := strings.CutPrefix(trimmed, "="); ok {
		exact = strings.TrimSpace(exact)
		v, err := semver.NewVersion(exact)
		if err != nil {
			return nil, badVersion(raw, err)
		}
		c, err := semver.NewConstraint("=" + v.String())
		if err != nil {
			return nil, badVersion(raw, err)
		}
		return &Req{raw: raw, constraint: c, exact: true}, nil
	}

	// A bare "X.Y.Z" with no comparison operator is given Cargo-style caret
	// semantics (>=X.Y.Z, <next-major) by prefixing "^"; Masterminds/semver/v3
	// otherwise treats an unprefixed version as an exact match. Any
	// constraint that already carries an operator (">=1.2, <2.0", "^1.2",
	// "~1.2", ...) is passed through unchanged.
	toParse := trimmed
	if isBareVersion(trimmed) {
		toParse = "^" + trimmed
	}
	c, err := semver.NewConstraint(toParse)
	if err != nil {
		return nil, badVersion(raw, err)
	}
	return &Req{raw: raw, constraint: c}, nil
}

// isBareVersion reports whether s carries no leading comparison or range
// operator, meaning it's a plain "X.Y.Z" (or "X.Y"/"X") requirement.
func isBareVersion(s string) bool {
	if s == "" {
		return false
	}
	switch s[0] {
	case '<', '>', '=', '^', '~', '!':
		return false
	}
	return true
}

func badVersion(raw string, cause error) *foremanErrors.Error {
	return &foremanErrors.Error{
		Category: foremanErrors.CategoryConfig,
		Code:     foremanErrors.CodeConfigBadVersion,
		Message:  fmt.Sprintf("invalid version requirement %q", raw),
		Cause:    cause,
	}
}

// String returns the original requirement text.
func (r *Req) String() string {
	return r.raw
}

// AllowsPrerelease reports whether the constraint explicitly names a
// prerelease component (e.g. "=1.2.0-alpha.1"), per SemVer Cargo
// semantics: prereleases are matched only when asked for by name.
func (r *Req) AllowsPrerelease() bool {
	return strings.Contains(r.raw, "-")
}

// Satisfies reports whether v meets this requirement.
func (r *Req) Satisfies(v *semver.Version) bool {
	if v.Prerelease() != "" && !r.AllowsPrerelease() {
		return false
	}
	return r.constraint.Check(v)
}

// Release is the subset of provider release metadata versionspec needs
// to pick a match: its tag and assets, with the tag's parsed SemVer
// filled in by SelectRelease.
type Release[A any] struct {
	Tag     string
	Version *semver.Version
	Assets  A
}

// SelectRelease scans releases newest-first (the order providers return
// them in) and returns the first whose tag parses as SemVer and satisfies
// req. Tags that don't parse as SemVer are skipped with an INFO log.
func SelectRelease[A any](req *Req, repo string, releases []Release[A]) (*Release[A], error) {
	anyParsed := false

	for i := range releases {
		rel := &releases[i]
		tag := strings.TrimPrefix(rel.Tag, "v")
		v, err := semver.NewVersion(tag)
		if err != nil {
			slog.Info("skipping release with non-semver tag", "repo", repo, "tag", rel.Tag)
			continue
		}
		anyParsed = true
		rel.Version = v

		if req.Satisfies(v) {
			return rel, nil
		}
	}

	if !anyParsed && len(releases) > 0 {
		return nil, &foremanErrors.Error{
			Category: foremanErrors.CategoryResolution,
			Code:     foremanErrors.CodeAllTagsInvalid,
			Message:  fmt.Sprintf("no release tag for %s parses as a semantic version", repo),
			Details:  map[string]any{"repo": repo},
		}
	}

	return nil, &foremanErrors.Error{
		Category: foremanErrors.CategoryResolution,
		Code:     foremanErrors.CodeNoMatchingRelease,
		Message:  fmt.Sprintf("no release of %s matches %s", repo, req.String()),
		Details:  map[string]any{"repo": repo, "constraint": req.String()},
	}
}
