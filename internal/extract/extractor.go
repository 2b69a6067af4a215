// Package extract unpacks a downloaded release asset into a tool's
// directory under tools/. The archive format is usually inferred from
// the asset's filename and, failing that, from its leading bytes, so
// an Installer never needs to know ahead of time what a provider will
// hand it.
package extract

import (
	"archive/tar"
	"archive/zip"
	"compress/gzip"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/ulikunitz/xz"

	foremanErrors "github.com/foreman-rs/foreman/internal/errors"
)

// ArchiveType identifies how a release asset is packaged.
type ArchiveType string

const (
	// ArchiveTypeTarGz is a gzipped tar archive (.tar.gz, .tgz).
	ArchiveTypeTarGz ArchiveType = "tar.gz"

	// ArchiveTypeZip is a ZIP archive (.zip).
	ArchiveTypeZip ArchiveType = "zip"

	// ArchiveTypeTarXz is an xz-compressed tar archive (.tar.xz).
	ArchiveTypeTarXz ArchiveType = "tar.xz"

	// ArchiveTypeRaw is an asset with no archive wrapper at all: the
	// downloaded bytes ARE the tool's executable (e.g. jq-linux-amd64).
	ArchiveTypeRaw ArchiveType = "raw"
)

// NormalizeArchiveType maps common spellings (tgz, txz, ...) onto the
// canonical ArchiveType constants. Anything it doesn't recognize is
// passed through unchanged so NewExtractor can reject it by name.
func NormalizeArchiveType(raw string) ArchiveType {
	switch strings.ToLower(raw) {
	case "tar.gz", "tgz":
		return ArchiveTypeTarGz
	case "tar.xz", "txz":
		return ArchiveTypeTarXz
	case "zip":
		return ArchiveTypeZip
	case "raw":
		return ArchiveTypeRaw
	default:
		return ArchiveType(raw)
	}
}

// DetectArchiveType guesses an asset's archive type from its name,
// trying compound extensions before simple ones. Returns "" when the
// name carries no recognizable extension, leaving the caller to fall
// back to DetectArchiveTypeFromMagic.
func DetectArchiveType(assetName string) ArchiveType {
	name := filepath.Base(assetName)

	switch {
	case hasSuffixFold(name, ".tar.gz"), hasSuffixFold(name, ".tgz"):
		return ArchiveTypeTarGz
	case hasSuffixFold(name, ".tar.xz"), hasSuffixFold(name, ".txz"):
		return ArchiveTypeTarXz
	case hasSuffixFold(name, ".zip"):
		return ArchiveTypeZip
	default:
		return ""
	}
}

// DetectArchiveTypeFromMagic sniffs the leading bytes of a downloaded
// asset for releases whose filename carries no extension at all
// (common for single-binary GitHub releases). Recognizes the zip
// local-file-header signature ("PK\x03\x04") and the gzip magic number
// ("\x1f\x8b"); anything else is assumed to be a bare executable.
func DetectArchiveTypeFromMagic(header []byte) ArchiveType {
	switch {
	case len(header) >= 4 && header[0] == 'P' && header[1] == 'K' && header[2] == 0x03 && header[3] == 0x04:
		return ArchiveTypeZip
	case len(header) >= 2 && header[0] == 0x1f && header[1] == 0x8b:
		return ArchiveTypeTarGz
	default:
		return ArchiveTypeRaw
	}
}

func hasSuffixFold(s, suffix string) bool {
	if len(s) < len(suffix) {
		return false
	}
	return strings.EqualFold(s[len(s)-len(suffix):], suffix)
}

// Extractor unpacks one archive format into a destination directory.
type Extractor interface {
	// Extract reads an archive from r and writes its contents under
	// destDir. zipExtractor additionally requires r to implement
	// io.ReaderAt, since the zip central directory sits at the end of
	// the stream; every other implementation reads r straight through.
	Extract(r io.Reader, destDir string) error
}

// NewExtractor returns the Extractor for archiveType.
func NewExtractor(archiveType ArchiveType) (Extractor, error) {
	switch archiveType {
	case ArchiveTypeTarGz:
		return &tarGzExtractor{}, nil
	case ArchiveTypeTarXz:
		return &tarXzExtractor{}, nil
	case ArchiveTypeZip:
		return &zipExtractor{}, nil
	case ArchiveTypeRaw:
		return &rawExtractor{}, nil
	default:
		return nil, fmt.Errorf("unsupported archive type: %s", archiveType)
	}
}

var (
	_ Extractor = (*tarGzExtractor)(nil)
	_ Extractor = (*tarXzExtractor)(nil)
	_ Extractor = (*zipExtractor)(nil)
	_ Extractor = (*rawExtractor)(nil)
)

type tarGzExtractor struct{}

func (e *tarGzExtractor) Extract(r io.Reader, destDir string) error {
	slog.Debug("extracting tar.gz asset", "dest", destDir)

	gr, err := gzip.NewReader(r)
	if err != nil {
		return fmt.Errorf("failed to create gzip reader: %w", err)
	}
	defer gr.Close()

	return extractTar(gr, destDir)
}

type tarXzExtractor struct{}

func (e *tarXzExtractor) Extract(r io.Reader, destDir string) error {
	slog.Debug("extracting tar.xz asset", "dest", destDir)

	xr, err := xz.NewReader(r)
	if err != nil {
		return fmt.Errorf("failed to create xz reader: %w", err)
	}

	return extractTar(xr, destDir)
}

// extractTar walks a decompressed tar stream, writing regular files and
// symlinks under destDir and refusing any entry whose resolved path (or
// symlink target) would escape it.
func extractTar(r io.Reader, destDir string) error {
	tr := tar.NewReader(r)

	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("failed to read tar header: %w", err)
		}

		target := filepath.Join(destDir, hdr.Name)
		if !pathInsideDir(destDir, target) {
			return pathTraversalError(hdr.Name)
		}

		switch hdr.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(target, os.FileMode(hdr.Mode)); err != nil {
				return fmt.Errorf("failed to create directory: %w", err)
			}
		case tar.TypeReg:
			if err := writeEntry(tr, target, os.FileMode(hdr.Mode)); err != nil {
				return err
			}
		case tar.TypeSymlink:
			linkTarget := filepath.Join(filepath.Dir(target), hdr.Linkname)
			if filepath.IsAbs(hdr.Linkname) || !pathInsideDir(destDir, linkTarget) {
				return pathTraversalError(hdr.Name + " -> " + hdr.Linkname)
			}
			if err := os.Symlink(hdr.Linkname, target); err != nil {
				return fmt.Errorf("failed to create symlink: %w", err)
			}
		}
	}

	return nil
}

type zipExtractor struct{}

// Extract unpacks a zip asset. r must additionally implement
// io.ReaderAt (the downloader always hands it an *os.File).
func (e *zipExtractor) Extract(r io.Reader, destDir string) error {
	slog.Debug("extracting zip asset", "dest", destDir)

	ra, ok := r.(io.ReaderAt)
	if !ok {
		return fmt.Errorf("zip extraction requires io.ReaderAt, got %T", r)
	}

	size, err := readerSize(r)
	if err != nil {
		return fmt.Errorf("failed to get reader size: %w", err)
	}

	zr, err := zip.NewReader(ra, size)
	if err != nil {
		return fmt.Errorf("failed to create zip reader: %w", err)
	}

	for _, f := range zr.File {
		if isOSMetadataPath(f.Name) {
			continue
		}

		target := filepath.Join(destDir, f.Name)
		if !pathInsideDir(destDir, target) {
			return pathTraversalError(f.Name)
		}

		if f.FileInfo().IsDir() {
			if err := os.MkdirAll(target, f.Mode()); err != nil {
				return fmt.Errorf("failed to create directory: %w", err)
			}
			continue
		}

		rc, err := f.Open()
		if err != nil {
			return fmt.Errorf("failed to open asset entry: %w", err)
		}

		err = writeEntry(rc, target, f.Mode())
		rc.Close()
		if err != nil {
			return err
		}
	}

	slog.Debug("zip asset extracted", "dest", destDir)
	return nil
}

// readerSize reports r's total size, needed because zip.NewReader
// requires random access rather than a plain streaming read.
func readerSize(r io.Reader) (int64, error) {
	switch v := r.(type) {
	case *os.File:
		info, err := v.Stat()
		if err != nil {
			return 0, err
		}
		return info.Size(), nil
	case interface{ Len() int }:
		return int64(v.Len()), nil
	case io.Seeker:
		current, err := v.Seek(0, io.SeekCurrent)
		if err != nil {
			return 0, err
		}
		size, err := v.Seek(0, io.SeekEnd)
		if err != nil {
			return 0, err
		}
		if _, err := v.Seek(current, io.SeekStart); err != nil {
			return 0, err
		}
		return size, nil
	default:
		return 0, fmt.Errorf("cannot determine size for %T", r)
	}
}

// writeEntry copies one archive entry's contents to target, creating
// parent directories as needed and applying mode to the new file.
func writeEntry(r io.Reader, target string, mode os.FileMode) error {
	if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	f, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, mode)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer f.Close()

	if _, err := io.Copy(f, r); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}

	return nil
}

// isOSMetadataPath reports whether name belongs to a metadata tree a
// packaging tool injected rather than real asset content. Currently
// only __MACOSX/, which macOS's zip/ditto inject.
func isOSMetadataPath(name string) bool {
	return name == "__MACOSX" || name == "__MACOSX/" || strings.HasPrefix(name, "__MACOSX/")
}

// pathInsideDir reports whether target resolves to a path strictly
// inside baseDir, rejecting ".." escapes and absolute overrides
// embedded in an archive entry's name or symlink target.
func pathInsideDir(baseDir, target string) bool {
	rel, err := filepath.Rel(baseDir, target)
	if err != nil {
		return false
	}
	return rel != "." && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)) && !filepath.IsAbs(rel)
}

// pathTraversalError reports an archive entry whose path would have
// written outside the extraction directory.
func pathTraversalError(entry string) error {
	return &foremanErrors.Error{
		Category: foremanErrors.CategoryExtraction,
		Code:     foremanErrors.CodePathTraversal,
		Message:  fmt.Sprintf("archive entry %q would escape the extraction directory", entry),
	}
}

type rawExtractor struct{}

// Extract writes r's bytes directly as the tool's executable, named
// after destDir's base name (the per-tuple cache directory is always
// named for the tool, not the archive).
func (e *rawExtractor) Extract(r io.Reader, destDir string) error {
	slog.Debug("placing raw asset", "dest", destDir)

	if err := os.MkdirAll(destDir, 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	binName := filepath.Base(destDir)
	target := filepath.Join(destDir, binName)

	f, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0755)
	if err != nil {
		return fmt.Errorf("failed to create binary file: %w", err)
	}
	defer f.Close()

	if _, err := io.Copy(f, r); err != nil {
		return fmt.Errorf("failed to write binary file: %w", err)
	}

	slog.Debug("raw asset placed", "target", target)
	return nil
}
