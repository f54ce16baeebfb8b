package loader

import (
	"fmt"
	"io/fs"
	"os"
	"path"
	"strings"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"

	"github.com/mimic-fi/v3-subgraph/internal/modules/core"
	"github.com/mimic-fi/v3-subgraph/manifests"
)

// ManifestLoader handles loading and parsing module manifests
type ManifestLoader struct {
	fsys   fs.FS
	logger zerolog.Logger
}

// NewManifestLoader reads manifests from the ones embedded in the binary.
func NewManifestLoader(logger zerolog.Logger) *ManifestLoader {
	return NewFSLoader(manifests.FS, logger)
}

// NewFSLoader reads manifests from fsys.
func NewFSLoader(fsys fs.FS, logger zerolog.Logger) *ManifestLoader {
	return &ManifestLoader{
		fsys:   fsys,
		logger: logger.With().Str("component", "manifest_loader").Logger(),
	}
}

// Load returns the manifest stored as <name>.yaml.
func (l *ManifestLoader) Load(name string) (*core.Manifest, error) {
	return l.loadFile(name + ".yaml")
}

func (l *ManifestLoader) loadFile(file string) (*core.Manifest, error) {
	l.logger.Debug().Str("file", file).Msg("Loading manifest")

	data, err := fs.ReadFile(l.fsys, file)
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest %s: %w", file, err)
	}

	manifest, err := l.ParseManifest(data)
	if err != nil {
		return nil, fmt.Errorf("manifest %s: %w", file, err)
	}
	return manifest, nil
}

// LoadFromFile loads a single manifest from a file on disk
func (l *ManifestLoader) LoadFromFile(file string) (*core.Manifest, error) {
	data, err := os.ReadFile(file)
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest file %s: %w", file, err)
	}
	return l.ParseManifest(data)
}

// LoadAll loads every manifest and rejects duplicate module names.
func (l *ManifestLoader) LoadAll() ([]*core.Manifest, error) {
	entries, err := fs.ReadDir(l.fsys, ".")
	if err != nil {
		return nil, fmt.Errorf("failed to list manifests: %w", err)
	}

	var out []*core.Manifest
	seen := make(map[string]string)
	for _, entry := range entries {
		if entry.IsDir() || !isManifestFile(entry.Name()) {
			continue
		}
		manifest, err := l.loadFile(entry.Name())
		if err != nil {
			return nil, err
		}
		if existing, ok := seen[manifest.Name]; ok {
			return nil, fmt.Errorf("duplicate module name '%s' in %s (conflicts with %s)", manifest.Name, entry.Name(), existing)
		}
		seen[manifest.Name] = entry.Name()
		out = append(out, manifest)
	}

	l.logger.Info().Int("count", len(out)).Msg("Loaded manifests")
	return out, nil
}

// ParseManifest parses a YAML manifest from bytes
func (l *ManifestLoader) ParseManifest(data []byte) (*core.Manifest, error) {
	var manifest core.Manifest

	if err := yaml.Unmarshal(data, &manifest); err != nil {
		return nil, fmt.Errorf("failed to parse YAML manifest: %w", err)
	}

	setDefaults(&manifest)

	if err := manifest.ValidateManifest(); err != nil {
		return nil, fmt.Errorf("invalid manifest: %w", err)
	}

	// Signatures are checked here so a typo fails at startup.
	for _, ds := range manifest.AllSources() {
		for _, h := range ds.Mapping.EventHandlers {
			if _, err := core.ParseEventSignature(h.Event); err != nil {
				return nil, fmt.Errorf("invalid manifest: data source %s: %w", ds.Name, err)
			}
		}
	}

	return &manifest, nil
}

// SerializeManifest converts a manifest to YAML bytes
func (l *ManifestLoader) SerializeManifest(manifest *core.Manifest) ([]byte, error) {
	data, err := yaml.Marshal(manifest)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize manifest: %w", err)
	}
	return data, nil
}

func setDefaults(manifest *core.Manifest) {
	defaults := func(sources []core.DataSource) {
		for i := range sources {
			ds := &sources[i]
			if ds.Kind == "" {
				ds.Kind = "ethereum/contract"
			}
			if ds.Mapping.Kind == "" {
				ds.Mapping.Kind = "ethereum/events"
			}
			if ds.Source.ABI == "" {
				ds.Source.ABI = ds.Name
			}
		}
	}
	defaults(manifest.DataSources)
	defaults(manifest.Templates)
}

// isManifestFile checks if a filename appears to be a manifest file
func isManifestFile(filename string) bool {
	ext := strings.ToLower(path.Ext(filename))
	return ext == ".yaml" || ext == ".yml"
}
