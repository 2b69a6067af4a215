// Package selector picks the single best release asset for the host's
// OS and architecture, the way a human skimming a release's asset list
// by filename would: gate on OS, gate on arch (an asset naming no
// architecture stays eligible at a lower score, except on aarch64 macOS,
// where it is taken for an old Intel-only build), then break ties by
// archive format and name length.
package selector

import (
	"fmt"
	"sort"
	"strings"

	foremanErrors "github.com/foreman-rs/foreman/internal/errors"
	"github.com/foreman-rs/foreman/internal/provider"
)

// OS identifies one of the three operating systems foreman installs to.
type OS string

const (
	OSWindows OS = "windows"
	OSMacOS   OS = "macos"
	OSLinux   OS = "linux"
)

// Arch identifies one of the three CPU architectures foreman recognizes.
type Arch string

const (
	ArchX86_64  Arch = "x86_64"
	ArchAArch64 Arch = "aarch64"
	ArchI686    Arch = "i686"
)

// Target is the (os, arch) pair a host installs for.
type Target struct {
	OS   OS
	Arch Arch
}

// HostTarget derives a Target from Go's runtime.GOOS/GOARCH names.
func HostTarget(goos, goarch string) (Target, error) {
	var t Target
	switch goos {
	case "windows":
		t.OS = OSWindows
	case "darwin":
		t.OS = OSMacOS
	case "linux":
		t.OS = OSLinux
	default:
		return Target{}, fmt.Errorf("unsupported operating system: %s", goos)
	}
	switch goarch {
	case "amd64":
		t.Arch = ArchX86_64
	case "arm64":
		t.Arch = ArchAArch64
	case "386":
		t.Arch = ArchI686
	default:
		return Target{}, fmt.Errorf("unsupported architecture: %s", goarch)
	}
	return t, nil
}

const (
	scoreIneligible = 0
	scoreTentative  = 1
	scoreStrict     = 2
)

// Select picks the best asset in assets for target, per the scoring
// algorithm: OS gate, arch gate, score, then tie-break by extension and
// name. alias is used only to label the error when nothing qualifies.
func Select(target Target, assets []provider.Asset, alias string) (provider.Asset, error) {
	type scored struct {
		asset provider.Asset
		score int
	}

	var candidates []scored
	for _, a := range assets {
		s := score(target, a.Name)
		if s > scoreIneligible {
			candidates = append(candidates, scored{asset: a, score: s})
		}
	}

	if len(candidates) == 0 {
		names := make([]string, len(assets))
		for i, a := range assets {
			names[i] = a.Name
		}
		return provider.Asset{}, &foremanErrors.Error{
			Category: foremanErrors.CategoryArtifact,
			Code:     foremanErrors.CodeNoCompatibleAsset,
			Message:  fmt.Sprintf("no compatible asset for %s/%s", target.OS, target.Arch),
			Alias:    alias,
			Details:  map[string]any{"candidates": names},
		}
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].score != candidates[j].score {
			return candidates[i].score > candidates[j].score
		}
		ri, rj := formatRank(candidates[i].asset.Name), formatRank(candidates[j].asset.Name)
		if ri != rj {
			return ri < rj
		}
		if len(candidates[i].asset.Name) != len(candidates[j].asset.Name) {
			return len(candidates[i].asset.Name) < len(candidates[j].asset.Name)
		}
		return candidates[i].asset.Name < candidates[j].asset.Name
	})

	return candidates[0].asset, nil
}

// score returns scoreIneligible/scoreTentative/scoreStrict for name
// against target, per the OS and arch gates in the component design.
func score(target Target, name string) int {
	lower := strings.ToLower(name)

	if !osMatches(target.OS, lower) {
		return scoreIneligible
	}

	switch target.OS {
	case OSMacOS:
		return scoreMacArch(target.Arch, lower)
	case OSWindows, OSLinux:
		return scoreStrictArch(target.Arch, lower)
	default:
		return scoreIneligible
	}
}

func osMatches(os OS, lower string) bool {
	switch os {
	case OSWindows:
		return strings.Contains(lower, "win") || strings.Contains(lower, "windows")
	case OSMacOS:
		return strings.Contains(lower, "mac") || strings.Contains(lower, "darwin") || strings.Contains(lower, "osx")
	case OSLinux:
		return strings.Contains(lower, "linux")
	default:
		return false
	}
}

// scoreMacArch implements the macOS arch gate, including the tentative-
// eligibility exception for old single-Intel-build releases: an asset
// with neither arch token present is still usable on an x86_64 host,
// just ranked below a strictly-matching one.
func scoreMacArch(arch Arch, lower string) int {
	hasARM := strings.Contains(lower, "arm64") || strings.Contains(lower, "aarch64")
	hasIntel := strings.Contains(lower, "x86_64") || strings.Contains(lower, "x64") || strings.Contains(lower, "amd64")

	switch arch {
	case ArchAArch64:
		if hasARM {
			return scoreStrict
		}
		return scoreIneligible
	case ArchX86_64:
		if hasIntel {
			return scoreStrict
		}
		if !hasARM {
			return scoreTentative
		}
		return scoreIneligible
	default:
		return scoreIneligible
	}
}

// scoreStrictArch implements the windows/linux arch gate: an asset
// naming the other architecture is ineligible outright, never
// tentatively eligible, to avoid selecting a foreign-arch binary (the
// historical HoloLens aarch64-on-x86_64 bug).
func scoreStrictArch(arch Arch, lower string) int {
	hasARM := strings.Contains(lower, "aarch64") || strings.Contains(lower, "arm64")
	hasIntel := strings.Contains(lower, "x86_64") || strings.Contains(lower, "x64") || strings.Contains(lower, "amd64")
	hasI686 := strings.Contains(lower, "i686") || strings.Contains(lower, "i386") || strings.Contains(lower, "x86") && !hasIntel

	switch arch {
	case ArchAArch64:
		if hasARM {
			return scoreStrict
		}
		if hasIntel || hasI686 {
			return scoreIneligible
		}
		return scoreTentative
	case ArchX86_64:
		if hasIntel {
			return scoreStrict
		}
		if hasARM || hasI686 {
			return scoreIneligible
		}
		return scoreTentative
	case ArchI686:
		if hasI686 {
			return scoreStrict
		}
		if hasARM || hasIntel {
			return scoreIneligible
		}
		return scoreTentative
	default:
		return scoreIneligible
	}
}

// formatRank orders archive formats for tie-break: .zip, then .tar.gz,
// then .tgz, then bare executables (no recognized extension).
func formatRank(name string) int {
	lower := strings.ToLower(name)
	switch {
	case strings.HasSuffix(lower, ".zip"):
		return 0
	case strings.HasSuffix(lower, ".tar.gz"):
		return 1
	case strings.HasSuffix(lower, ".tgz"):
		return 2
	default:
		return 3
	}
}
