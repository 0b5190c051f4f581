package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/custodia-labs/policyrag/internal/core/domain"
)

// policyManifest lists the customer's policy documents:
//
//	policies:
//	  - name: Home cover 2024
//	    kind: home
//	    path: ./home.pdf
type policyManifest struct {
	Policies []domain.PolicyDocument `yaml:"policies"`
}

// loadManifest reads a policy manifest. Relative paths are resolved against
// the manifest's directory.
func loadManifest(path string) ([]domain.PolicyDocument, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}

	var m policyManifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse manifest %s: %w", path, err)
	}

	base := filepath.Dir(path)
	for i := range m.Policies {
		p := &m.Policies[i]
		if p.StoredPath == "" {
			return nil, fmt.Errorf("%w: manifest entry %d has no path", domain.ErrInvalidInput, i+1)
		}
		if !filepath.IsAbs(p.StoredPath) {
			p.StoredPath = filepath.Join(base, p.StoredPath)
		}
		if p.Name == "" {
			p.Name = filepath.Base(p.StoredPath)
		}
		p.Kind = domain.PolicyKind(strings.ToLower(strings.TrimSpace(string(p.Kind))))
	}
	return m.Policies, nil
}
