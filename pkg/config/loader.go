package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"slices"

	"github.com/bmatcuk/doublestar/v4"
	"gopkg.in/yaml.v3"
)

// Common errors for configuration loading.
var (
	ErrFileNotFound     = errors.New("configuration file not found")
	ErrPermissionDenied = errors.New("permission denied")
	ErrInvalidYAML      = errors.New("invalid YAML syntax")
	ErrEmptyFile        = errors.New("configuration file is empty")
	ErrBadInclude       = errors.New("invalid include")
)

// EnvConfigPath names the environment variable holding the default
// configuration path.
const EnvConfigPath = "SUNSETD_CONFIG"

// Load reads the configuration file at path. JSON files are accepted as
// well, since JSON is valid YAML.
//
// Environment variables are expanded, the document is checked against the
// JSON Schema, included endpoint files are appended, and the result is
// validated. A *ValidationResult is returned when validation fails.
func Load(path string) (*File, error) {
	data, err := readFile(path)
	if err != nil {
		return nil, err
	}

	f, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	f.Sources = []string{path}

	if err := f.resolveIncludes(filepath.Dir(path)); err != nil {
		return nil, err
	}

	result := Validate(f)
	if !result.IsValid() {
		return nil, result
	}
	f.Warnings = result.Warnings
	return f, nil
}

// Parse decodes a configuration document without resolving includes or
// running semantic validation.
func Parse(data []byte) (*File, error) {
	var f File
	if err := decodeStrict(data, &f); err != nil {
		return nil, err
	}
	return &f, nil
}

// endpointsFile is the shape of an included file.
type endpointsFile struct {
	Endpoints []EndpointConfig `yaml:"endpoints"`
}

func (f *File) resolveIncludes(baseDir string) error {
	seen := map[string]bool{}
	for _, src := range f.Sources {
		if abs, err := filepath.Abs(src); err == nil {
			seen[abs] = true
		}
	}

	for _, pattern := range f.Include {
		if !filepath.IsAbs(pattern) {
			pattern = filepath.Join(baseDir, pattern)
		}
		matches, err := doublestar.FilepathGlob(pattern, doublestar.WithFilesOnly())
		if err != nil {
			return fmt.Errorf("%w: %q: %v", ErrBadInclude, pattern, err)
		}
		slices.Sort(matches)

		for _, path := range matches {
			abs, err := filepath.Abs(path)
			if err != nil {
				return fmt.Errorf("%w: %s: %v", ErrBadInclude, path, err)
			}
			if seen[abs] {
				continue
			}
			seen[abs] = true

			data, err := readFile(path)
			if err != nil {
				return err
			}
			var inc endpointsFile
			if err := decodeStrict(data, &inc); err != nil {
				return fmt.Errorf("%s: %w", path, err)
			}
			f.Endpoints = append(f.Endpoints, inc.Endpoints...)
			f.Sources = append(f.Sources, path)
		}
	}
	return nil
}

// decodeStrict expands environment variables, checks the document against
// the schema and decodes it into out, rejecting unknown fields.
func decodeStrict(data []byte, out any) error {
	expanded := []byte(ExpandEnvVars(string(data)))

	var raw any
	if err := yaml.Unmarshal(expanded, &raw); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidYAML, err)
	}
	if raw == nil {
		return ErrEmptyFile
	}
	if result := ValidateSchema(raw); !result.IsValid() {
		return result
	}

	dec := yaml.NewDecoder(bytes.NewReader(expanded))
	dec.KnownFields(true)
	if err := dec.Decode(out); err != nil {
		if errors.Is(err, io.EOF) {
			return ErrEmptyFile
		}
		return fmt.Errorf("%w: %v", ErrInvalidYAML, err)
	}
	return nil
}

func readFile(path string) ([]byte, error) {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrFileNotFound, path)
		}
		if os.IsPermission(err) {
			return nil, fmt.Errorf("%w: %s", ErrPermissionDenied, path)
		}
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("path is a directory, not a file: %s", path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsPermission(err) {
			return nil, fmt.Errorf("%w: %s", ErrPermissionDenied, path)
		}
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrEmptyFile, path)
	}
	return data, nil
}

// ToYAML marshals a configuration to YAML.
func ToYAML(f *File) ([]byte, error) {
	if f == nil {
		return nil, errors.New("config cannot be nil")
	}
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(f); err != nil {
		return nil, fmt.Errorf("failed to marshal to YAML: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("failed to marshal to YAML: %w", err)
	}
	return buf.Bytes(), nil
}

// envVarPattern matches ${VAR_NAME} or ${VAR_NAME:-default}
var envVarPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)(?::-([^}]*))?\}`)

// ExpandEnvVars expands environment variables in the input string.
// Supports ${VAR_NAME} and ${VAR_NAME:-default} syntax. Unset variables
// without a default expand to the empty string.
func ExpandEnvVars(input string) string {
	return envVarPattern.ReplaceAllStringFunc(input, func(match string) string {
		submatch := envVarPattern.FindStringSubmatch(match)
		if val := os.Getenv(submatch[1]); val != "" {
			return val
		}
		return submatch[2]
	})
}

// ResolvePath returns path, or the value of SUNSETD_CONFIG when path is empty.
func ResolvePath(path string) (string, error) {
	if path != "" {
		return path, nil
	}
	if env := os.Getenv(EnvConfigPath); env != "" {
		return env, nil
	}
	return "", fmt.Errorf("no configuration file given: use --config or set %s", EnvConfigPath)
}
