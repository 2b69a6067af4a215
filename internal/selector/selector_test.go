package selector

import (
	"testing"

	"github.com/foreman-rs/foreman/internal/provider"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func asset(name string) provider.Asset {
	return provider.Asset{Name: name, DownloadURL: "https://example.com/" + name}
}

func TestSelect_SimpleLinuxInstall(t *testing.T) {
	target := Target{OS: OSLinux, Arch: ArchX86_64}
	assets := []provider.Asset{
		asset("rojo-7.3.0-windows-x86_64.zip"),
		asset("rojo-7.3.0-linux-x86_64.zip"),
		asset("rojo-7.3.0-macos-x86_64.zip"),
	}

	got, err := Select(target, assets, "rojo")
	require.NoError(t, err)
	assert.Equal(t, "rojo-7.3.0-linux-x86_64.zip", got.Name)
}

func TestSelect_WindowsArchDiscrimination(t *testing.T) {
	assets := []provider.Asset{
		asset("tool-windows-x86_64.zip"),
		asset("tool-windows-aarch64.zip"),
	}

	x64, err := Select(Target{OS: OSWindows, Arch: ArchX86_64}, assets, "tool")
	require.NoError(t, err)
	assert.Equal(t, "tool-windows-x86_64.zip", x64.Name)

	arm, err := Select(Target{OS: OSWindows, Arch: ArchAArch64}, assets, "tool")
	require.NoError(t, err)
	assert.Equal(t, "tool-windows-aarch64.zip", arm.Name)
}

func TestSelect_LinuxArchDiscriminationNeverTentative(t *testing.T) {
	assets := []provider.Asset{
		asset("tool-linux-aarch64.tar.gz"),
	}

	_, err := Select(Target{OS: OSLinux, Arch: ArchX86_64}, assets, "tool")
	require.Error(t, err)
}

func TestSelect_MacIntelTentativeEligibility(t *testing.T) {
	// Old release with a single bare "macos" build, no arch token.
	assets := []provider.Asset{asset("tool-macos.zip")}

	got, err := Select(Target{OS: OSMacOS, Arch: ArchX86_64}, assets, "tool")
	require.NoError(t, err)
	assert.Equal(t, "tool-macos.zip", got.Name)

	_, err = Select(Target{OS: OSMacOS, Arch: ArchAArch64}, assets, "tool")
	require.Error(t, err)
}

func TestSelect_MacStrictBeatsTentative(t *testing.T) {
	assets := []provider.Asset{
		asset("tool-macos.zip"),
		asset("tool-macos-x86_64.zip"),
	}

	got, err := Select(Target{OS: OSMacOS, Arch: ArchX86_64}, assets, "tool")
	require.NoError(t, err)
	assert.Equal(t, "tool-macos-x86_64.zip", got.Name)
}

func TestSelect_TieBreakByExtensionThenName(t *testing.T) {
	assets := []provider.Asset{
		asset("tool-linux-x86_64.tgz"),
		asset("tool-linux-x86_64.tar.gz"),
		asset("tool-linux-x86_64.zip"),
	}

	got, err := Select(Target{OS: OSLinux, Arch: ArchX86_64}, assets, "tool")
	require.NoError(t, err)
	assert.Equal(t, "tool-linux-x86_64.zip", got.Name)
}

func TestSelect_NoCompatibleAssetListsCandidates(t *testing.T) {
	assets := []provider.Asset{asset("tool-windows-x86_64.zip")}

	_, err := Select(Target{OS: OSLinux, Arch: ArchX86_64}, assets, "tool")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "tool")
}

func TestHostTarget(t *testing.T) {
	t1, err := HostTarget("linux", "amd64")
	require.NoError(t, err)
	assert.Equal(t, Target{OS: OSLinux, Arch: ArchX86_64}, t1)

	t2, err := HostTarget("darwin", "arm64")
	require.NoError(t, err)
	assert.Equal(t, Target{OS: OSMacOS, Arch: ArchAArch64}, t2)

	_, err = HostTarget("plan9", "amd64")
	require.Error(t, err)
}
