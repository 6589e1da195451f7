package edam

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// descriptorSuffix is the on-disk descriptor file suffix.
const descriptorSuffix = ".eda.yml"

// DescriptorPath returns where a design's descriptor lives under dir.
func DescriptorPath(dir, name string) string {
	return filepath.Join(dir, name+descriptorSuffix)
}

// Save writes the descriptor into dir and returns the file path.
func (e *EDAM) Save(dir string) (string, error) {
	data, err := yaml.Marshal(e)
	if err != nil {
		return "", fmt.Errorf("encoding descriptor: %w", err)
	}
	path := DescriptorPath(dir, e.Name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("writing descriptor: %w", err)
	}
	return path, nil
}

// Load reads a descriptor back from disk. A missing file is an error: the
// descriptor is the contract between pipeline stages, and running a build
// stage without it means the configure stage never ran in this work root.
func Load(path string) (*EDAM, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading descriptor: %w", err)
	}
	var e EDAM
	if err := yaml.Unmarshal(data, &e); err != nil {
		return nil, fmt.Errorf("decoding descriptor %s: %w", path, err)
	}
	if e.Name == "" {
		return nil, fmt.Errorf("descriptor %s: %w", path, ErrMissingName)
	}
	return &e, nil
}

// Find locates the single descriptor file in dir, for stages that know the
// work root but not the design name.
func Find(dir string) (string, error) {
	matches, err := filepath.Glob(filepath.Join(dir, "*"+descriptorSuffix))
	if err != nil {
		return "", err
	}
	switch len(matches) {
	case 0:
		return "", fmt.Errorf("no descriptor found in %s", dir)
	case 1:
		return matches[0], nil
	default:
		return "", fmt.Errorf("multiple descriptors found in %s", dir)
	}
}
