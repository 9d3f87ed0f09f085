package parser

import "github.com/toyz/autolog/internal/models"

// TypeParser defines the interface for extracting type metadata from Go
// source directories
type TypeParser interface {
	ParseDirectory(path string) ([]*models.CompiledType, error)
	ParseSource(filename, source string) ([]*models.CompiledType, error)
}
