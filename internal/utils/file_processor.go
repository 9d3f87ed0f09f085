package utils

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// FileProcessor provides utilities for common file processing operations
type FileProcessor struct {
	skipDirs map[string]bool
}

// DefaultSkipDirs are never descended into
var DefaultSkipDirs = []string{
	"vendor",
	"node_modules",
	"testdata",
	".git",
	".svn",
	".hg",
}

// NewFileProcessor creates a new file processor with the default skip list
func NewFileProcessor() *FileProcessor {
	return NewFileProcessorWithSkips(nil)
}

// NewFileProcessorWithSkips creates a file processor that also skips the
// given directory names
func NewFileProcessorWithSkips(extra []string) *FileProcessor {
	skip := make(map[string]bool, len(DefaultSkipDirs)+len(extra))
	for _, name := range DefaultSkipDirs {
		skip[name] = true
	}
	for _, name := range extra {
		skip[name] = true
	}
	return &FileProcessor{skipDirs: skip}
}

// FileFilter defines a function that determines whether a file should be processed
type FileFilter func(path string, info os.DirEntry) bool

// DirectoryFilter defines a function that determines whether a directory should be processed
type DirectoryFilter func(path string, info os.DirEntry) bool

// FileWalkOptions configures file walking behavior
type FileWalkOptions struct {
	FileFilter      FileFilter
	DirectoryFilter DirectoryFilter
	SkipErrors      bool
}

// DefaultGoFileFilter filters for .go files, excluding tests
func DefaultGoFileFilter() FileFilter {
	return func(path string, info os.DirEntry) bool {
		if info.IsDir() {
			return false
		}

		name := info.Name()
		return strings.HasSuffix(name, ".go") &&
			!strings.HasSuffix(name, "_test.go") &&
			!strings.HasPrefix(name, ".")
	}
}

// DirectoryFilter skips hidden directories and the configured skip list
func (fp *FileProcessor) DirectoryFilter() DirectoryFilter {
	return func(path string, info os.DirEntry) bool {
		if !info.IsDir() {
			return true
		}

		name := info.Name()

		// Skip hidden directories
		if strings.HasPrefix(name, ".") && name != "." && name != ".." {
			return false
		}

		return !fp.skipDirs[name]
	}
}

// WalkFiles walks through files in a directory tree with filtering
func (fp *FileProcessor) WalkFiles(rootDir string, options FileWalkOptions) ([]string, error) {
	var matchedFiles []string

	err := filepath.WalkDir(rootDir, func(path string, entry os.DirEntry, err error) error {
		if err != nil {
			if options.SkipErrors {
				return nil
			}
			return err
		}

		// the root itself is always entered
		if entry.IsDir() && path != rootDir && options.DirectoryFilter != nil {
			if !options.DirectoryFilter(path, entry) {
				return filepath.SkipDir
			}
			return nil
		}

		if !entry.IsDir() && options.FileFilter != nil && options.FileFilter(path, entry) {
			matchedFiles = append(matchedFiles, path)
		}

		return nil
	})

	return matchedFiles, err
}

// ScanDirectoriesWithGoFiles scans directories recursively and returns those
// containing Go files, sorted and de-duplicated
func (fp *FileProcessor) ScanDirectoriesWithGoFiles(rootDirs []string) ([]string, error) {
	seen := make(map[string]bool)
	var packageDirs []string

	for _, rootDir := range rootDirs {
		files, err := fp.WalkFiles(rootDir, FileWalkOptions{
			FileFilter:      DefaultGoFileFilter(),
			DirectoryFilter: fp.DirectoryFilter(),
		})
		if err != nil {
			return nil, fmt.Errorf("failed to scan %s: %w", rootDir, err)
		}
		for _, file := range files {
			dir := filepath.Dir(file)
			if !seen[dir] {
				seen[dir] = true
				packageDirs = append(packageDirs, dir)
			}
		}
	}

	sort.Strings(packageDirs)
	return packageDirs, nil
}

// GoFilesInDir lists the non-test Go files directly inside dir, sorted
func (fp *FileProcessor) GoFilesInDir(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read directory %s: %w", dir, err)
	}

	filter := DefaultGoFileFilter()
	var files []string
	for _, entry := range entries {
		path := filepath.Join(dir, entry.Name())
		if filter(path, entry) {
			files = append(files, path)
		}
	}
	sort.Strings(files)
	return files, nil
}

// HasGoFiles checks if a directory contains any non-test .go files
func (fp *FileProcessor) HasGoFiles(dir string) (bool, error) {
	files, err := fp.GoFilesInDir(dir)
	if err != nil {
		return false, err
	}
	return len(files) > 0, nil
}
