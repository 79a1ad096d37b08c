package config

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// Load reads and validates a configuration file. Unknown keys anywhere in
// the document are tolerated except inside a ready plugin's runtime block,
// which is decoded strictly — a typo in window_length_samples there should
// fail loudly rather than silently default to zero. Environment overrides
// are applied only after the parsed document itself validates, so they can
// never mask an otherwise-invalid configuration.
func Load(path string) (RunConfig, error) {
	f, err := os.Open(path)
	if err != nil {
		return RunConfig{}, fmt.Errorf("config: open %q: %w", path, err)
	}
	defer f.Close()
	return decode(f)
}

func decode(r io.Reader) (RunConfig, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return RunConfig{}, fmt.Errorf("config: read: %w", err)
	}

	var cfg RunConfig
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return RunConfig{}, fmt.Errorf("config: parse yaml: %w", err)
	}

	if err := checkReadyRuntimeStrict(raw, cfg); err != nil {
		return RunConfig{}, err
	}

	if err := cfg.Validate(); err != nil {
		return RunConfig{}, err
	}

	applyEnvOverrides(&cfg)

	return cfg, nil
}

// checkReadyRuntimeStrict re-decodes each ready plugin's runtime node with
// unknown-field rejection enabled, using the parsed plugin list only to
// know which indices are ready.
func checkReadyRuntimeStrict(raw []byte, cfg RunConfig) error {
	var doc struct {
		Plugins []yaml.Node `yaml:"plugins"`
	}
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return fmt.Errorf("config: parse yaml: %w", err)
	}

	for i, node := range doc.Plugins {
		if i >= len(cfg.Plugins) || !cfg.Plugins[i].Ready() {
			continue
		}
		runtimeNode, ok := mappingValue(node, "runtime")
		if !ok {
			continue
		}
		marshaled, err := yaml.Marshal(runtimeNode)
		if err != nil {
			return fmt.Errorf("config: re-marshal plugins[%d].runtime: %w", i, err)
		}
		dec := yaml.NewDecoder(bytes.NewReader(marshaled))
		dec.KnownFields(true)
		var strict PluginRuntime
		if err := dec.Decode(&strict); err != nil {
			return fmt.Errorf("config: plugins[%d].runtime has an unknown key: %w", i, err)
		}
	}
	return nil
}

// mappingValue looks up key in a yaml mapping node.
func mappingValue(node yaml.Node, key string) (yaml.Node, bool) {
	if node.Kind != yaml.MappingNode {
		return yaml.Node{}, false
	}
	for i := 0; i+1 < len(node.Content); i += 2 {
		if node.Content[i].Value == key {
			return *node.Content[i+1], true
		}
	}
	return yaml.Node{}, false
}
