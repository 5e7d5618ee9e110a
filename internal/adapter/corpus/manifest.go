package corpus

import (
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"
)

// Manifest maps form numbers to the official source URL each document
// was downloaded from. It is the authority on which forms belong to the
// corpus; a duplicate form entry means two files would claim the same
// citation label, so loading fails instead of silently keeping one.
type Manifest struct {
	sources map[string]string
}

func LoadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest %s: %w", path, err)
	}
	return ParseManifest(data)
}

func ParseManifest(data []byte) (*Manifest, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, fmt.Errorf("failed to parse manifest: %w", err)
	}

	m := &Manifest{sources: make(map[string]string)}
	if root.Kind == 0 || len(root.Content) == 0 {
		return m, nil
	}

	doc := root.Content[0]
	if doc.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("manifest must be a mapping of form number to source URL")
	}

	// Walk the raw mapping nodes so duplicate keys are visible;
	// unmarshalling into a map would keep the last one.
	for i := 0; i+1 < len(doc.Content); i += 2 {
		key := doc.Content[i].Value
		value := doc.Content[i+1].Value
		if _, exists := m.sources[key]; exists {
			return nil, fmt.Errorf("duplicate manifest entry for form %s (line %d)", key, doc.Content[i].Line)
		}
		m.sources[key] = value
	}
	return m, nil
}

// URL returns the recorded source URL for a form number.
func (m *Manifest) URL(formNumber string) (string, bool) {
	url, ok := m.sources[formNumber]
	return url, ok
}

// Forms returns the known form numbers in sorted order.
func (m *Manifest) Forms() []string {
	forms := make([]string, 0, len(m.sources))
	for f := range m.sources {
		forms = append(forms, f)
	}
	sort.Strings(forms)
	return forms
}

func (m *Manifest) Len() int {
	return len(m.sources)
}
