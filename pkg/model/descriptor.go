package model

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// Descriptor identifies a model or metric to resolve: a registry name plus
// optional constructor arguments (e.g. EmbeddingSimilarity takes the name of
// the embedding model to use).
//
// In YAML configuration a descriptor may be written either as a bare scalar:
//
//	- WER
//
// or as a mapping:
//
//	- name: EmbeddingSimilarity
//	  args: [All_MiniLM_L6_V2]
type Descriptor struct {
	Name string   `yaml:"name"`
	Args []string `yaml:"args"`
}

// String returns the canonical form of the descriptor: the bare name, or
// "Name(arg1,arg2)" when constructor arguments are present. This string is
// the cache key in the registries and the metric key in the score table, so
// the scorer and the analysis driver agree on it by construction.
func (d Descriptor) String() string {
	if len(d.Args) == 0 {
		return d.Name
	}
	return d.Name + "(" + strings.Join(d.Args, ",") + ")"
}

// UnmarshalYAML accepts both the scalar and the mapping form.
func (d *Descriptor) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case yaml.ScalarNode:
		d.Name = value.Value
		d.Args = nil
		return nil
	case yaml.MappingNode:
		var raw struct {
			Name string   `yaml:"name"`
			Args []string `yaml:"args"`
		}
		if err := value.Decode(&raw); err != nil {
			return err
		}
		if raw.Name == "" {
			return fmt.Errorf("model: descriptor mapping requires a name")
		}
		d.Name = raw.Name
		d.Args = raw.Args
		return nil
	default:
		return fmt.Errorf("model: descriptor must be a string or a mapping, got yaml kind %d", value.Kind)
	}
}

// MarshalYAML emits the scalar form when there are no arguments.
func (d Descriptor) MarshalYAML() (any, error) {
	if len(d.Args) == 0 {
		return d.Name, nil
	}
	return struct {
		Name string   `yaml:"name"`
		Args []string `yaml:"args"`
	}{d.Name, d.Args}, nil
}
