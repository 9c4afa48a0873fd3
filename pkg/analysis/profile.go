package analysis

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"sync"

	"github.com/agilewatch/agilewatch/pkg/log"
	"github.com/levenlabs/go-lflag"
	"gopkg.in/yaml.v3"
)

// DefaultProfile is used when an unknown profile is requested.
const DefaultProfile = "working_family"

// Profile holds a household's relative usage weight for each hour of the
// day. Weights are relative, not normalized; consumers normalize when
// apportioning energy.
type Profile struct {
	Name    string      `json:"name"`
	Weights [24]float64 `json:"weights"`
}

// builtinProfiles are typical UK household usage patterns.
func builtinProfiles() map[string]Profile {
	flat := Profile{Name: "flat"}
	for h := range flat.Weights {
		flat.Weights[h] = 1.0
	}
	return map[string]Profile{
		"working_family": {
			Name: "working_family",
			Weights: [24]float64{
				0.3, 0.2, 0.2, 0.2, 0.2, 0.3,
				0.8, 1.2, 1.0, 0.5, 0.4, 0.4,
				0.5, 0.4, 0.4, 0.5, 0.8, 1.2,
				1.5, 1.4, 1.3, 1.2, 0.8, 0.5,
			},
		},
		"home_worker": {
			Name: "home_worker",
			Weights: [24]float64{
				0.3, 0.2, 0.2, 0.2, 0.2, 0.3,
				0.6, 0.9, 1.0, 1.2, 1.2, 1.1,
				1.0, 1.1, 1.1, 1.0, 0.9, 1.0,
				1.2, 1.1, 1.0, 0.9, 0.6, 0.4,
			},
		},
		"retired": {
			Name: "retired",
			Weights: [24]float64{
				0.2, 0.2, 0.2, 0.2, 0.2, 0.3,
				0.5, 0.8, 1.0, 1.1, 1.2, 1.1,
				1.0, 0.9, 0.8, 0.9, 1.0, 1.2,
				1.3, 1.2, 1.0, 0.8, 0.5, 0.3,
			},
		},
		// assumes overnight charging
		"ev_owner": {
			Name: "ev_owner",
			Weights: [24]float64{
				1.5, 1.5, 1.5, 1.5, 1.5, 1.2,
				0.8, 1.0, 0.8, 0.5, 0.4, 0.4,
				0.5, 0.4, 0.4, 0.5, 0.7, 1.0,
				1.3, 1.2, 1.1, 1.0, 0.8, 1.2,
			},
		},
		"flat": flat,
	}
}

// Profiles is the registry of usage profiles: the built-ins plus any
// custom profiles and learned per-hour multipliers from the profiles
// file.
type Profiles struct {
	mu          sync.RWMutex
	profiles    map[string]Profile
	adjustments map[string]map[int]float64
}

// profilesFile is the YAML shape of the optional profiles file.
type profilesFile struct {
	Profiles    map[string]map[int]float64 `yaml:"profiles"`
	Adjustments map[string]map[int]float64 `yaml:"adjustments"`
}

// Configured sets up flags for the profile registry and returns it.
// It uses lflag to register command-line flags for configuration.
func Configured() *Profiles {
	p := NewProfiles()
	file := lflag.String("usage-profiles-file", "", "Path to a YAML file with custom usage profiles and learned adjustments")

	lflag.Do(func() {
		if *file == "" {
			return
		}
		if err := p.LoadFile(*file); err != nil {
			log.Ctx(context.Background()).Error("failed to load usage profiles file", slog.String("path", *file), slog.Any("error", err))
			os.Exit(1)
		}
	})

	return p
}

// NewProfiles returns a registry with only the built-in profiles.
func NewProfiles() *Profiles {
	return &Profiles{
		profiles:    builtinProfiles(),
		adjustments: map[string]map[int]float64{},
	}
}

// LoadFile merges a YAML profiles file into the registry. The file is
// validated as a whole before anything is merged, so an invalid file
// leaves the registry untouched.
func (p *Profiles) LoadFile(path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read profiles file: %w", err)
	}
	var f profilesFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return fmt.Errorf("failed to parse profiles file: %w", err)
	}

	custom := make(map[string]Profile, len(f.Profiles))
	for name, weights := range f.Profiles {
		if name == "" {
			return fmt.Errorf("profiles file contains a profile with no name")
		}
		prof := Profile{Name: name}
		positive := false
		for hour, w := range weights {
			if hour < 0 || hour > 23 {
				return fmt.Errorf("profile %s: hour %d out of range", name, hour)
			}
			if w < 0 {
				return fmt.Errorf("profile %s: negative weight for hour %d", name, hour)
			}
			prof.Weights[hour] = w
			if w > 0 {
				positive = true
			}
		}
		if !positive {
			return fmt.Errorf("profile %s has no positive weights", name)
		}
		custom[name] = prof
	}
	for name, adj := range f.Adjustments {
		for hour, m := range adj {
			if hour < 0 || hour > 23 {
				return fmt.Errorf("adjustments for %s: hour %d out of range", name, hour)
			}
			if m < 0 {
				return fmt.Errorf("adjustments for %s: negative multiplier for hour %d", name, hour)
			}
		}
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	for name, prof := range custom {
		p.profiles[name] = prof
	}
	for name, adj := range f.Adjustments {
		p.adjustments[name] = adj
	}
	return nil
}

// Get returns the named profile with any learned adjustments applied.
// Unknown names fall back to the default profile with a warning.
func (p *Profiles) Get(ctx context.Context, name string) Profile {
	p.mu.RLock()
	defer p.mu.RUnlock()

	prof, ok := p.profiles[name]
	if !ok {
		log.Ctx(ctx).WarnContext(
			ctx,
			"unknown usage profile, falling back",
			slog.String("profile", name),
			slog.String("fallback", DefaultProfile),
		)
		prof = p.profiles[DefaultProfile]
	}
	// Profile is a value type so the multiplication stays local
	if adj, ok := p.adjustments[prof.Name]; ok {
		for hour, m := range adj {
			prof.Weights[hour] *= m
		}
	}
	return prof
}

// Names returns the registered profile names, sorted.
func (p *Profiles) Names() []string {
	p.mu.RLock()
	defer p.mu.RUnlock()

	names := make([]string, 0, len(p.profiles))
	for n := range p.profiles {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
