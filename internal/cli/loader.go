package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"cuelang.org/go/cue/token"

	"github.com/roach88/microstore/internal/compiler"
	"github.com/roach88/microstore/internal/ir"
)

// LoadError represents an error that occurred while loading a schema or
// payload file.
type LoadError struct {
	Code    string
	Message string
	Pos     token.Pos // CUE position if available
}

func (e *LoadError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s", e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(), e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Error code constants - unified across all CLI commands.
const (
	ErrCodeGeneric     = "E001" // Generic/unknown error
	ErrCodeUnsupported = "E002" // Unsupported file extension
	ErrCodeLoadFailed  = "E004" // Schema or payload parse failed
	ErrCodeNotFound    = "E005" // Path not found

	// Schema errors
	ErrCodeSchemaMissing   = "E100" // No schema section
	ErrCodeSchemaInvalid   = "E101" // Field-level schema error
	ErrCodeNoPrimaryKey    = "E102" // No usable primary key
	ErrCodeMultiplePrimary = "E103" // More than one primary key

	// Push errors
	ErrCodePushFailed = "E200" // Payload could not be interpreted or written
	ErrCodeTestFailed = "E300" // One or more scenarios failed
)

// LoadSchemas loads a schema configuration from a .cue file, a .yaml/.yml
// file, or a directory holding a CUE package.
func LoadSchemas(path string) (*compiler.Config, error) {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return nil, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("schema not found: %s", path)}
	}
	if err != nil {
		return nil, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("error accessing schema: %v", err)}
	}

	var cfg *compiler.Config
	switch ext := strings.ToLower(filepath.Ext(path)); {
	case info.IsDir(), ext == ".cue":
		cfg, err = compiler.LoadCUE(path)
	case ext == ".yaml", ext == ".yml":
		cfg, err = compiler.LoadYAML(path)
	default:
		return nil, &LoadError{Code: ErrCodeUnsupported, Message: fmt.Sprintf("unsupported schema file %s: want .cue, .yaml or a directory", path)}
	}
	if err != nil {
		return nil, convertCompileError(err, ErrCodeLoadFailed)
	}
	return cfg, nil
}

// CompileSchemas loads and compiles a schema file.
func CompileSchemas(path string) (*compiler.Config, *compiler.Compiled, error) {
	cfg, err := LoadSchemas(path)
	if err != nil {
		return nil, nil, err
	}
	compiled, err := compiler.Compile(cfg.Schemas)
	if err != nil {
		return nil, nil, convertCompileError(err, ErrCodeSchemaInvalid)
	}
	return cfg, compiled, nil
}

// LoadPayload reads a JSON payload file, keeping its top-level key order.
func LoadPayload(path string) (*ir.Payload, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("payload not found: %s", path)}
	}
	if err != nil {
		return nil, &LoadError{Code: ErrCodeLoadFailed, Message: fmt.Sprintf("reading payload: %v", err)}
	}

	p, err := ir.ParsePayload(data)
	if err != nil {
		var syntaxErr *json.SyntaxError
		if errors.As(err, &syntaxErr) {
			return nil, &LoadError{Code: ErrCodeLoadFailed, Message: fmt.Sprintf("%s: offset %d: %v", path, syntaxErr.Offset, syntaxErr)}
		}
		return nil, &LoadError{Code: ErrCodeLoadFailed, Message: fmt.Sprintf("%s: %v", path, err)}
	}
	return p, nil
}

// asLoadError returns err as a LoadError plus the exit code it maps to: a
// missing or unsupported file is a command error, anything else means the
// input is invalid.
func asLoadError(err error) (*LoadError, int) {
	loadErr := &LoadError{Code: ErrCodeGeneric, Message: err.Error()}
	errors.As(err, &loadErr)

	if loadErr.Code == ErrCodeNotFound || loadErr.Code == ErrCodeUnsupported {
		return loadErr, ExitCommandError
	}
	return loadErr, ExitFailure
}

// convertCompileError converts a compiler error to a LoadError with position info.
func convertCompileError(err error, fallback string) *LoadError {
	var loadErr *LoadError
	if errors.As(err, &loadErr) {
		return loadErr
	}
	var compileErr *compiler.CompileError
	if errors.As(err, &compileErr) {
		return &LoadError{
			Code:    MapCompileErrorToCode(compileErr),
			Message: compileErrorMessage(compileErr),
			Pos:     compileErr.Pos,
		}
	}
	return &LoadError{Code: fallback, Message: err.Error()}
}

// compileErrorMessage is the error text without the position prefix, which
// LoadError renders itself.
func compileErrorMessage(e *compiler.CompileError) string {
	switch {
	case e.Type != "" && e.Field != "":
		return fmt.Sprintf("%s.%s: %s", e.Type, e.Field, e.Message)
	case e.Type != "":
		return fmt.Sprintf("%s: %s", e.Type, e.Message)
	default:
		return e.Message
	}
}

// MapCompileErrorToCode maps a compiler error to an error code.
func MapCompileErrorToCode(e *compiler.CompileError) string {
	switch {
	case e.Field == "schema" && e.Type == "":
		return ErrCodeSchemaMissing
	case strings.HasPrefix(e.Message, "no primary key"):
		return ErrCodeNoPrimaryKey
	case strings.HasPrefix(e.Message, "more than one primary key"):
		return ErrCodeMultiplePrimary
	case e.Type != "" || e.Field != "":
		return ErrCodeSchemaInvalid
	default:
		return ErrCodeLoadFailed
	}
}
