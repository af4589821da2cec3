package isa

import (
	_ "embed"

	"gopkg.in/yaml.v3"
)

//go:embed profiles.yaml
var profilesYAML []byte

// profileFile mirrors the shape of profiles.yaml.
type profileFile struct {
	Tiers []string `yaml:"tiers"`
}

// loadedProfiles is populated once at package init from profiles.yaml; it is consulted before
// the Go-literal `profile` fallback map in lookupProfile.
var loadedProfiles = map[string][]Tier{}

func init() {
	raw := map[string]profileFile{}
	if err := yaml.Unmarshal(profilesYAML, &raw); err != nil {
		// profiles.yaml is a build-time asset; a parse failure here is a packaging bug, not a
		// user error. Fall back to the literal `profile` table rather than panicking at
		// package-init time.
		return
	}
	for name, pf := range raw {
		tiers := make([]Tier, 0, len(pf.Tiers))
		for _, tok := range pf.Tiers {
			if t, ok := aliases[tok]; ok {
				tiers = append(tiers, t)
			}
		}
		if len(tiers) > 0 {
			loadedProfiles[name] = tiers
		}
	}
}
