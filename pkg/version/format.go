package version

import (
	"embed"
	"fmt"
	"sort"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed formats/*.yaml
var formatFS embed.FS

// FormatManifest describes a known DMX format tag.
type FormatManifest struct {
	Format      string          `yaml:"format"`
	Description string          `yaml:"description"`
	Versions    []FormatVersion `yaml:"versions"`
}

// FormatVersion describes one version of a format and its default encoding.
type FormatVersion struct {
	Version         int    `yaml:"version"`
	Encoding        string `yaml:"encoding"`
	EncodingVersion int    `yaml:"encoding_version"`
}

// ---------------------------------------------------------------------------
// Cache
// ---------------------------------------------------------------------------

var (
	cacheMu sync.RWMutex
	cache   = make(map[string]*FormatManifest)
)

// LoadFormat loads a format manifest by tag (e.g. "model").
func LoadFormat(tag string) (*FormatManifest, error) {
	cacheMu.RLock()
	if m, ok := cache[tag]; ok {
		cacheMu.RUnlock()
		return m, nil
	}
	cacheMu.RUnlock()

	data, err := formatFS.ReadFile("formats/" + tag + ".yaml")
	if err != nil {
		return nil, fmt.Errorf("format %q not found: %w", tag, err)
	}

	var m FormatManifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parsing format %q: %w", tag, err)
	}

	cacheMu.Lock()
	cache[tag] = &m
	cacheMu.Unlock()

	return &m, nil
}

// AvailableFormats returns the tags of all embedded format manifests.
func AvailableFormats() ([]string, error) {
	entries, err := formatFS.ReadDir("formats")
	if err != nil {
		return nil, fmt.Errorf("reading formats directory: %w", err)
	}

	var tags []string
	for _, e := range entries {
		name := e.Name()
		if strings.HasSuffix(name, ".yaml") {
			tags = append(tags, strings.TrimSuffix(name, ".yaml"))
		}
	}
	sort.Strings(tags)
	return tags, nil
}

// DefaultEncoding returns the default (encoding, encoding-version) pair for
// a format version. The third result is false when the manifest does not
// list that version.
func (m *FormatManifest) DefaultEncoding(formatVersion int) (string, int, bool) {
	for _, v := range m.Versions {
		if v.Version == formatVersion {
			return v.Encoding, v.EncodingVersion, true
		}
	}
	return "", 0, false
}

// LatestVersion returns the highest format version in the manifest, or 0
// for an empty manifest.
func (m *FormatManifest) LatestVersion() int {
	latest := 0
	for _, v := range m.Versions {
		if v.Version > latest {
			latest = v.Version
		}
	}
	return latest
}
