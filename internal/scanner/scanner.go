package scanner

import (
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"golang.org/x/text/encoding"

	"github.com/ca-srg/kwsearch/internal/types"
)

// FileScanner lists candidate text files and checks them for keywords
type FileScanner struct {
	extensions map[string]struct{}
	encoding   encoding.Encoding
}

// NewFileScanner creates a FileScanner accepting the given extensions
// (compared case-insensitively, with leading dot) and decoding file content
// with the named encoding
func NewFileScanner(extensions []string, encodingName string) (*FileScanner, error) {
	enc, err := LookupEncoding(encodingName)
	if err != nil {
		return nil, err
	}

	exts := make(map[string]struct{}, len(extensions))
	for _, ext := range extensions {
		exts[strings.ToLower(ext)] = struct{}{}
	}

	return &FileScanner{
		extensions: exts,
		encoding:   enc,
	}, nil
}

// ScanDirectory walks dirPath recursively and returns the absolute paths of
// supported files in sorted order. Unreadable subdirectories are logged and
// skipped. A symlink is listed when it resolves to a regular file; symlinked
// directories are not descended into.
func (s *FileScanner) ScanDirectory(dirPath string) ([]string, error) {
	if err := s.ValidateDirectory(dirPath); err != nil {
		return nil, fmt.Errorf("directory validation failed: %w", err)
	}

	root, err := filepath.Abs(dirPath)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve absolute path for %s: %w", dirPath, err)
	}

	var files []string

	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			// Skip entries with permission errors but continue processing
			log.Printf("Skipping %s: %v", path, err)
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		if d.IsDir() {
			if d.Name() == ".git" {
				return filepath.SkipDir
			}
			return nil
		}

		if !s.IsSupportedFile(path) {
			return nil
		}
		if d.Type()&fs.ModeSymlink != 0 {
			info, err := os.Stat(path)
			if err != nil || !info.Mode().IsRegular() {
				return nil
			}
		} else if !d.Type().IsRegular() {
			return nil
		}

		files = append(files, path)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan directory %s: %w", dirPath, err)
	}

	sort.Strings(files)
	return files, nil
}

// ListFiles is ScanDirectory for callers that treat an inaccessible root as
// "no files": the error is logged and an empty list returned
func (s *FileScanner) ListFiles(dirPath string) []string {
	files, err := s.ScanDirectory(dirPath)
	if err != nil {
		log.Printf("Failed to list files: %v", err)
		return []string{}
	}
	return files
}

// ValidateDirectory checks if the directory exists and is readable
func (s *FileScanner) ValidateDirectory(dirPath string) error {
	info, err := os.Stat(dirPath)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("directory does not exist: %s", dirPath)
		}
		return fmt.Errorf("cannot access directory %s: %w", dirPath, err)
	}

	if !info.IsDir() {
		return fmt.Errorf("path is not a directory: %s", dirPath)
	}

	file, err := os.Open(dirPath)
	if err != nil {
		return fmt.Errorf("directory is not readable: %s (%w)", dirPath, err)
	}
	if err := file.Close(); err != nil {
		return fmt.Errorf("failed to close directory: %w", err)
	}

	return nil
}

// IsSupportedFile reports whether the file extension is in the accepted set
func (s *FileScanner) IsSupportedFile(filePath string) bool {
	_, ok := s.extensions[strings.ToLower(filepath.Ext(filePath))]
	return ok
}

// ReadText reads and decodes the content of a file
func (s *FileScanner) ReadText(filePath string) (string, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return "", fmt.Errorf("failed to read file %s: %w", filePath, err)
	}

	content, err := decode(data, s.encoding)
	if err != nil {
		return "", fmt.Errorf("failed to decode file %s: %w", filePath, err)
	}

	return content, nil
}

// Scan returns the keywords whose lowercased form occurs in the file's
// lowercased content, each mapped to filePath exactly once, even when
// keywords repeats an entry. A file that cannot be read is logged and yields
// an empty result.
func (s *FileScanner) Scan(filePath string, keywords types.Keywords) types.Result {
	result := types.Result{}

	content, err := s.ReadText(filePath)
	if err != nil {
		log.Printf("%s: %v", readFailureKind(err), err)
		return result
	}

	content = strings.ToLower(content)
	seen := make(map[string]struct{}, len(keywords))
	for _, keyword := range keywords {
		if _, dup := seen[keyword]; dup {
			continue
		}
		seen[keyword] = struct{}{}
		if strings.Contains(content, strings.ToLower(keyword)) {
			result.Add(keyword, filePath)
		}
	}

	return result
}

func readFailureKind(err error) string {
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return "File not found"
	case errors.Is(err, fs.ErrPermission):
		return "Permission denied"
	case errors.Is(err, ErrDecode):
		return "Decode error"
	default:
		return "Unexpected error reading file"
	}
}
