package provider

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	sdk "github.com/modelkit-ai/sdk"
)

// Load reads and parses a provider descriptor from the given path.
//
// If the path is a directory, it looks for <dirname>.yaml or <dirname>.yml
// in that directory, matching the on-disk layout where each provider lives
// in a directory named after it. The descriptor is validated before it is
// returned.
func Load(path string) (*Descriptor, error) {
	const op = "provider.Load"

	info, err := os.Stat(path)
	if err != nil {
		return nil, sdk.NewNotFoundError(op, fmt.Errorf("failed to stat path: %w", err))
	}

	configPath := path
	if info.IsDir() {
		name := filepath.Base(path)
		yamlPath := filepath.Join(path, name+".yaml")
		if _, err := os.Stat(yamlPath); err == nil {
			configPath = yamlPath
		} else {
			ymlPath := filepath.Join(path, name+".yml")
			if _, err := os.Stat(ymlPath); err == nil {
				configPath = ymlPath
			} else {
				return nil, sdk.NewNotFoundError(op,
					fmt.Errorf("no %s.yaml or %s.yml found in %s", name, name, path))
			}
		}
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, sdk.NewInternalError(op, fmt.Errorf("failed to read descriptor: %w", err))
	}

	return Parse(data)
}

// Parse unmarshals a descriptor document and validates it.
func Parse(data []byte) (*Descriptor, error) {
	const op = "provider.Parse"

	var desc Descriptor
	if err := yaml.Unmarshal(data, &desc); err != nil {
		return nil, sdk.NewValidationError(op, fmt.Errorf("failed to parse descriptor: %w", err))
	}

	if err := desc.Validate(); err != nil {
		return nil, err
	}

	return &desc, nil
}

// LoadDir loads every descriptor found directly under dir.
//
// Each provider is expected in its own subdirectory containing
// <provider>.yaml, with loose *.yaml files at the top level also accepted.
// Descriptors are returned sorted by provider name. Duplicate provider
// names are an error.
func LoadDir(dir string) ([]*Descriptor, error) {
	const op = "provider.LoadDir"

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, sdk.NewNotFoundError(op, fmt.Errorf("failed to read directory: %w", err))
	}

	byName := make(map[string]*Descriptor)
	for _, entry := range entries {
		path := filepath.Join(dir, entry.Name())

		if !entry.IsDir() {
			ext := strings.ToLower(filepath.Ext(entry.Name()))
			if ext != ".yaml" && ext != ".yml" {
				continue
			}
		}

		desc, err := Load(path)
		if err != nil {
			// Subdirectories without a descriptor file are skipped; anything
			// that parses but fails validation is surfaced.
			if entry.IsDir() && isNotFound(err) {
				continue
			}
			return nil, err
		}

		if _, exists := byName[desc.Provider]; exists {
			return nil, sdk.NewValidationError(op,
				fmt.Errorf("%w: duplicate provider %q", sdk.ErrInvalidDescriptor, desc.Provider))
		}
		byName[desc.Provider] = desc
	}

	names := make([]string, 0, len(byName))
	for name := range byName {
		names = append(names, name)
	}
	sort.Strings(names)

	out := make([]*Descriptor, 0, len(names))
	for _, name := range names {
		out = append(out, byName[name])
	}
	return out, nil
}

// Marshal serializes the descriptor back to YAML. Field and option order is
// preserved, so a load/marshal cycle yields a document with the same
// rendering semantics as the source.
func Marshal(d *Descriptor) ([]byte, error) {
	data, err := yaml.Marshal(d)
	if err != nil {
		return nil, sdk.NewInternalError("provider.Marshal", err)
	}
	return data, nil
}

func isNotFound(err error) bool {
	return errors.Is(err, &sdk.SDKError{Kind: sdk.KindNotFound})
}
