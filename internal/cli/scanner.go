package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	autologerrors "github.com/toyz/autolog/internal/errors"
	"github.com/toyz/autolog/internal/models"
	"github.com/toyz/autolog/internal/parser"
	"github.com/toyz/autolog/internal/utils"
)

// Scanner turns root arguments into package directories and their types
type Scanner struct {
	fileProcessor *utils.FileProcessor
	parser        parser.TypeParser
	diagnostics   *utils.DiagnosticSystem
}

// NewScanner creates a scanner that also skips the given directory names
func NewScanner(skipDirs []string, diagnostics *utils.DiagnosticSystem) *Scanner {
	return &Scanner{
		fileProcessor: utils.NewFileProcessorWithSkips(skipDirs),
		parser:        parser.NewParser(),
		diagnostics:   diagnostics,
	}
}

// BaseDir strips a Go-style "/..." suffix from a root argument
func BaseDir(root string) string {
	if root == "..." {
		return "."
	}
	if strings.HasSuffix(root, "/...") {
		base := strings.TrimSuffix(root, "/...")
		if base == "" {
			return "/"
		}
		return base
	}
	return root
}

// PackageDirs resolves the roots and returns every directory below them that
// holds non-test Go files. A root that does not exist is reported and skipped.
func (s *Scanner) PackageDirs(roots []string) ([]string, error) {
	var cleanDirs []string

	for _, root := range roots {
		cleanPath, err := filepath.Abs(BaseDir(root))
		if err != nil {
			return nil, autologerrors.WrapWithOperation("process", fmt.Sprintf("path resolution %s", root), err)
		}

		info, err := os.Stat(cleanPath)
		if errors.Is(err, os.ErrNotExist) {
			s.diagnostics.Warn("Directory %s does not exist, skipping", root)
			continue
		}
		if err != nil {
			return nil, autologerrors.WrapFileSystemError("stat", cleanPath, err)
		}
		if !info.IsDir() {
			s.diagnostics.Warn("%s is not a directory, skipping", root)
			continue
		}

		cleanDirs = append(cleanDirs, cleanPath)
	}

	if len(cleanDirs) == 0 {
		return nil, nil
	}
	return s.fileProcessor.ScanDirectoriesWithGoFiles(cleanDirs)
}

// ParsePackage returns the types of one package directory
func (s *Scanner) ParsePackage(dir string) ([]*models.CompiledType, error) {
	s.diagnostics.Debug("Parsing package %s", dir)
	return s.parser.ParseDirectory(dir)
}

// Discover returns every type found below the roots. The first package that
// fails to parse ends the scan.
func (s *Scanner) Discover(roots []string) ([]*models.CompiledType, error) {
	dirs, err := s.PackageDirs(roots)
	if err != nil {
		return nil, err
	}

	var types []*models.CompiledType
	for _, dir := range dirs {
		found, err := s.ParsePackage(dir)
		if err != nil {
			return nil, err
		}
		types = append(types, found...)
	}
	return types, nil
}
