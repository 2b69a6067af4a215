package extract

import (
	"archive/tar"
	"archive/zip"
	"bytes"
	"compress/gzip"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ulikunitz/xz"
)

func TestNormalizeArchiveType(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name  string
		input string
		want  ArchiveType
	}{
		{name: "tar.gz", input: "tar.gz", want: ArchiveTypeTarGz},
		{name: "tgz alias", input: "tgz", want: ArchiveTypeTarGz},
		{name: "uppercase", input: "TGZ", want: ArchiveTypeTarGz},
		{name: "tar.xz", input: "tar.xz", want: ArchiveTypeTarXz},
		{name: "txz alias", input: "txz", want: ArchiveTypeTarXz},
		{name: "zip", input: "zip", want: ArchiveTypeZip},
		{name: "raw", input: "raw", want: ArchiveTypeRaw},
		{name: "unrecognized passes through", input: "rpm", want: ArchiveType("rpm")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, NormalizeArchiveType(tt.input))
		})
	}
}

func TestDetectArchiveType(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name     string
		input    string
		expected ArchiveType
	}{
		{
			name:     "github release tarball",
			input:    "https://github.com/rojo-rbx/rojo/releases/download/v7.3.0/rojo-7.3.0-linux-x86_64.tar.gz",
			expected: ArchiveTypeTarGz,
		},
		{
			name:     "tgz shorthand",
			input:    "tool-v1.0.0-darwin-arm64.tgz",
			expected: ArchiveTypeTarGz,
		},
		{
			name:     "windows zip asset",
			input:    "https://example.com/releases/download/v1.0.0/tool_windows_amd64.zip",
			expected: ArchiveTypeZip,
		},
		{
			name:     "xz compressed tarball",
			input:    "https://ziglang.org/download/0.14.0/zig-x86_64-linux-0.14.0.tar.xz",
			expected: ArchiveTypeTarXz,
		},
		{
			name:     "txz shorthand",
			input:    "tool.txz",
			expected: ArchiveTypeTarXz,
		},
		{
			name:     "bare binary asset has no archive extension",
			input:    "jq-linux-amd64",
			expected: "",
		},
		{
			name:     "empty string",
			input:    "",
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.expected, DetectArchiveType(tt.input))
		})
	}
}

func TestDetectArchiveTypeFromMagic(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name   string
		header []byte
		want   ArchiveType
	}{
		{name: "zip local file header", header: []byte{'P', 'K', 0x03, 0x04}, want: ArchiveTypeZip},
		{name: "gzip magic", header: []byte{0x1f, 0x8b, 0x08, 0x00}, want: ArchiveTypeTarGz},
		{name: "elf binary falls back to raw", header: []byte{0x7f, 'E', 'L', 'F'}, want: ArchiveTypeRaw},
		{name: "short header falls back to raw", header: []byte{0x1f}, want: ArchiveTypeRaw},
		{name: "empty header falls back to raw", header: nil, want: ArchiveTypeRaw},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, DetectArchiveTypeFromMagic(tt.header))
		})
	}
}

func TestNewExtractor(t *testing.T) {
	t.Parallel()
	for _, archiveType := range []ArchiveType{ArchiveTypeTarGz, ArchiveTypeTarXz, ArchiveTypeZip, ArchiveTypeRaw} {
		t.Run(string(archiveType), func(t *testing.T) {
			t.Parallel()
			extractor, err := NewExtractor(archiveType)
			require.NoError(t, err)
			assert.NotNil(t, extractor)
		})
	}

	t.Run("unsupported archive type", func(t *testing.T) {
		t.Parallel()
		extractor, err := NewExtractor(ArchiveType("rpm"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "unsupported archive type")
		assert.Nil(t, extractor)
	})
}

// A release archive rarely drops files straight into the archive root:
// most tools ship a single top-level directory (go-tool-1.0.0-linux/...)
// wrapping the binary and license/readme files. These fixtures mirror
// that shape rather than a flat bag of files.

func buildTarGz(t *testing.T, files map[string]os.FileMode, contents map[string]string) io.Reader {
	t.Helper()

	var buf bytes.Buffer
	gw := gzip.NewWriter(&buf)
	tw := tar.NewWriter(gw)

	for name, mode := range files {
		content := contents[name]
		require.NoError(t, tw.WriteHeader(&tar.Header{
			Name: name,
			Mode: int64(mode),
			Size: int64(len(content)),
		}))
		_, err := tw.Write([]byte(content))
		require.NoError(t, err)
	}

	require.NoError(t, tw.Close())
	require.NoError(t, gw.Close())
	return &buf
}

func buildTarXz(t *testing.T, files map[string]os.FileMode, contents map[string]string) io.Reader {
	t.Helper()

	var buf bytes.Buffer
	xw, err := xz.NewWriter(&buf)
	require.NoError(t, err)
	tw := tar.NewWriter(xw)

	for name, mode := range files {
		content := contents[name]
		require.NoError(t, tw.WriteHeader(&tar.Header{
			Name: name,
			Mode: int64(mode),
			Size: int64(len(content)),
		}))
		_, err := tw.Write([]byte(content))
		require.NoError(t, err)
	}

	require.NoError(t, tw.Close())
	require.NoError(t, xw.Close())
	return &buf
}

func buildZip(t *testing.T, archivePath string, files map[string]string) {
	t.Helper()

	f, err := os.Create(archivePath)
	require.NoError(t, err)
	defer f.Close()

	zw := zip.NewWriter(f)
	defer zw.Close()

	for name, content := range files {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write([]byte(content))
		require.NoError(t, err)
	}
}

func TestExtractor_TarGz_ReleaseShape(t *testing.T) {
	t.Parallel()

	contents := map[string]string{
		"rojo-7.3.0-linux-x86_64/rojo":       "#!/bin/sh\necho rojo\n",
		"rojo-7.3.0-linux-x86_64/LICENSE":    "MIT",
		"rojo-7.3.0-linux-x86_64/README.md":  "# rojo",
	}
	files := map[string]os.FileMode{
		"rojo-7.3.0-linux-x86_64/rojo":      0755,
		"rojo-7.3.0-linux-x86_64/LICENSE":   0644,
		"rojo-7.3.0-linux-x86_64/README.md": 0644,
	}

	destDir := filepath.Join(t.TempDir(), "dest")
	extractor, err := NewExtractor(ArchiveTypeTarGz)
	require.NoError(t, err)
	require.NoError(t, extractor.Extract(buildTarGz(t, files, contents), destDir))

	for name, wantContent := range contents {
		got, err := os.ReadFile(filepath.Join(destDir, name))
		require.NoError(t, err)
		assert.Equal(t, wantContent, string(got))
	}

	info, err := os.Stat(filepath.Join(destDir, "rojo-7.3.0-linux-x86_64/rojo"))
	require.NoError(t, err)
	assert.NotZero(t, info.Mode()&0o111, "binary entry must keep its executable bit")
}

func TestExtractor_TarGz_InvalidStream(t *testing.T) {
	t.Parallel()
	destDir := filepath.Join(t.TempDir(), "dest")

	extractor, err := NewExtractor(ArchiveTypeTarGz)
	require.NoError(t, err)

	err = extractor.Extract(bytes.NewReader([]byte("not gzip data")), destDir)
	require.Error(t, err)
}

func TestExtractor_TarXz_ReleaseShape(t *testing.T) {
	t.Parallel()

	contents := map[string]string{
		"zig-x86_64-linux-0.14.0/zig": "zig binary bytes",
	}
	files := map[string]os.FileMode{
		"zig-x86_64-linux-0.14.0/zig": 0755,
	}

	destDir := filepath.Join(t.TempDir(), "dest")
	extractor, err := NewExtractor(ArchiveTypeTarXz)
	require.NoError(t, err)
	require.NoError(t, extractor.Extract(buildTarXz(t, files, contents), destDir))

	got, err := os.ReadFile(filepath.Join(destDir, "zig-x86_64-linux-0.14.0/zig"))
	require.NoError(t, err)
	assert.Equal(t, contents["zig-x86_64-linux-0.14.0/zig"], string(got))

	info, err := os.Stat(filepath.Join(destDir, "zig-x86_64-linux-0.14.0/zig"))
	require.NoError(t, err)
	assert.NotZero(t, info.Mode()&0o111)
}

func TestExtractor_TarXz_InvalidStream(t *testing.T) {
	t.Parallel()
	destDir := filepath.Join(t.TempDir(), "dest")

	extractor, err := NewExtractor(ArchiveTypeTarXz)
	require.NoError(t, err)

	err = extractor.Extract(bytes.NewReader([]byte("not xz data")), destDir)
	require.Error(t, err)
}

func TestExtractTar_RejectsPathTraversal(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		header     tar.Header
		errContain string
	}{
		{
			name:       "regular file escapes destDir",
			header:     tar.Header{Name: "../../etc/passwd", Typeflag: tar.TypeReg, Mode: 0644},
			errContain: "would escape the extraction directory",
		},
		{
			name:       "symlink target escapes destDir",
			header:     tar.Header{Name: "link", Typeflag: tar.TypeSymlink, Linkname: "../../../etc/passwd"},
			errContain: "would escape the extraction directory",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var buf bytes.Buffer
			gw := gzip.NewWriter(&buf)
			tw := tar.NewWriter(gw)
			require.NoError(t, tw.WriteHeader(&tt.header))
			require.NoError(t, tw.Close())
			require.NoError(t, gw.Close())

			destDir := filepath.Join(t.TempDir(), "dest")
			extractor, err := NewExtractor(ArchiveTypeTarGz)
			require.NoError(t, err)

			err = extractor.Extract(&buf, destDir)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errContain)
		})
	}
}

func TestExtractor_Zip_ReleaseShape(t *testing.T) {
	t.Parallel()

	archivePath := filepath.Join(t.TempDir(), "widget-windows-amd64.zip")
	destDir := filepath.Join(t.TempDir(), "dest")

	files := map[string]string{
		"widget.exe":    "windows binary bytes",
		"LICENSE.txt":   "MIT",
		"docs/usage.md": "usage",
	}
	buildZip(t, archivePath, files)

	f, err := os.Open(archivePath)
	require.NoError(t, err)
	defer f.Close()

	extractor, err := NewExtractor(ArchiveTypeZip)
	require.NoError(t, err)
	require.NoError(t, extractor.Extract(f, destDir))

	for name, wantContent := range files {
		got, err := os.ReadFile(filepath.Join(destDir, name))
		require.NoError(t, err)
		assert.Equal(t, wantContent, string(got))
	}
}

func TestExtractor_Zip_SkipsMacOSMetadata(t *testing.T) {
	t.Parallel()

	archivePath := filepath.Join(t.TempDir(), "archive.zip")
	destDir := filepath.Join(t.TempDir(), "dest")

	buildZip(t, archivePath, map[string]string{
		"mydir/binary":      "binary content",
		"__MACOSX/._binary": "resource fork junk",
	})

	f, err := os.Open(archivePath)
	require.NoError(t, err)
	defer f.Close()

	extractor, err := NewExtractor(ArchiveTypeZip)
	require.NoError(t, err)
	require.NoError(t, extractor.Extract(f, destDir))

	content, err := os.ReadFile(filepath.Join(destDir, "mydir", "binary"))
	require.NoError(t, err)
	assert.Equal(t, "binary content", string(content))

	_, err = os.Stat(filepath.Join(destDir, "__MACOSX"))
	assert.True(t, os.IsNotExist(err), "__MACOSX must never be extracted")
}

func TestExtractor_Zip_RejectsPathTraversal(t *testing.T) {
	t.Parallel()

	archivePath := filepath.Join(t.TempDir(), "archive.zip")
	destDir := filepath.Join(t.TempDir(), "dest")
	buildZip(t, archivePath, map[string]string{"../../etc/passwd": "pwned"})

	f, err := os.Open(archivePath)
	require.NoError(t, err)
	defer f.Close()

	extractor, err := NewExtractor(ArchiveTypeZip)
	require.NoError(t, err)

	err = extractor.Extract(f, destDir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "would escape the extraction directory")
}

// pureReader wraps an io.Reader without implementing io.ReaderAt, the
// way a streamed HTTP response body would before being spooled to disk.
type pureReader struct {
	r io.Reader
}

func (p *pureReader) Read(b []byte) (int, error) {
	return p.r.Read(b)
}

func TestExtractor_Zip_RequiresReaderAt(t *testing.T) {
	t.Parallel()
	destDir := filepath.Join(t.TempDir(), "dest")

	extractor, err := NewExtractor(ArchiveTypeZip)
	require.NoError(t, err)

	err = extractor.Extract(&pureReader{r: bytes.NewReader([]byte("dummy"))}, destDir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ReaderAt")
}

func TestIsOSMetadataPath(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
		want  bool
	}{
		{name: "bare directory", input: "__MACOSX", want: true},
		{name: "directory with trailing slash", input: "__MACOSX/", want: true},
		{name: "nested resource fork", input: "__MACOSX/._binary", want: true},
		{name: "regular path", input: "mydir/binary", want: false},
		{name: "lowercase is not recognized", input: "__macosx/", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, isOSMetadataPath(tt.input))
		})
	}
}

func TestExtractor_Raw_NamesBinaryAfterDestDir(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		alias   string
		content string
	}{
		{name: "single binary asset", alias: "jq", content: "jq binary bytes"},
		{name: "shell-script style asset", alias: "mytool", content: "#!/bin/sh\necho hello\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			destDir := filepath.Join(t.TempDir(), tt.alias)

			extractor, err := NewExtractor(ArchiveTypeRaw)
			require.NoError(t, err)
			require.NoError(t, extractor.Extract(bytes.NewReader([]byte(tt.content)), destDir))

			binaryPath := filepath.Join(destDir, tt.alias)
			content, err := os.ReadFile(binaryPath)
			require.NoError(t, err)
			assert.Equal(t, tt.content, string(content))

			info, err := os.Stat(binaryPath)
			require.NoError(t, err)
			assert.NotEqual(t, fs.FileMode(0), info.Mode()&0o111, "raw asset must be made executable")
		})
	}
}

func TestExtractor_Raw_CreatesParentDirectory(t *testing.T) {
	t.Parallel()
	destDir := filepath.Join(t.TempDir(), "nested", "path", "toolname")

	extractor, err := NewExtractor(ArchiveTypeRaw)
	require.NoError(t, err)
	require.NoError(t, extractor.Extract(bytes.NewReader([]byte("binary content")), destDir))

	_, err = os.Stat(filepath.Join(destDir, "toolname"))
	require.NoError(t, err)
}
