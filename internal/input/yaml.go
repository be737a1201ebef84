package input

import (
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

// yamlManifest is the on-disk shape of a YAML backup plan.
type yamlManifest struct {
	Output  string   `yaml:"output"`
	Paths   []string `yaml:"paths"`
	Exclude []string `yaml:"exclude"`
}

// parseYAML parses a YAML backup manifest. Exclusions are listed under their
// own key rather than carrying a '!' prefix; they are folded back into the
// plan's line list so downstream processing sees one uniform shape.
func parseYAML(r io.Reader) (*Plan, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read yaml plan: %w", err)
	}

	var manifest yamlManifest
	if err := yaml.Unmarshal(data, &manifest); err != nil {
		return nil, fmt.Errorf("failed to parse yaml plan: %w", err)
	}
	if len(manifest.Paths) == 0 {
		return nil, fmt.Errorf("yaml plan declares no paths")
	}

	plan := &Plan{Output: manifest.Output}
	for _, pattern := range manifest.Exclude {
		plan.Lines = append(plan.Lines, "!"+pattern)
	}
	plan.Lines = append(plan.Lines, manifest.Paths...)
	return plan, nil
}
