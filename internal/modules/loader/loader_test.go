package loader

import (
	"fmt"
	"testing"
	"testing/fstest"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const minimal = `
name: %s
version: 1.0.0
dataSources:
  - name: Thing
    source:
      address: "0x0000000000000000000000000000000000000001"
    mapping:
      eventHandlers:
        - event: Touched(indexed address who)
          handler: handleTouched
`

func TestLoadAll_Embedded(t *testing.T) {
	manifests, err := NewManifestLoader(zerolog.Nop()).LoadAll()
	require.NoError(t, err)

	names := make([]string, 0, len(manifests))
	for _, m := range manifests {
		names = append(names, m.Name)
	}
	assert.ElementsMatch(t, []string{
		"authorizer", "deployer", "feecontroller", "priceoracle",
		"registry", "relayer", "smartvault", "task",
	}, names)
}

func TestParseManifest_Defaults(t *testing.T) {
	l := NewFSLoader(fstest.MapFS{}, zerolog.Nop())
	m, err := l.ParseManifest([]byte(fmt.Sprintf(minimal, "thing")))
	require.NoError(t, err)

	ds := m.DataSources[0]
	assert.Equal(t, "ethereum/contract", ds.Kind)
	assert.Equal(t, "ethereum/events", ds.Mapping.Kind)
	assert.Equal(t, "Thing", ds.Source.ABI)
}

func TestParseManifest_RejectsBadSignature(t *testing.T) {
	l := NewFSLoader(fstest.MapFS{}, zerolog.Nop())
	_, err := l.ParseManifest([]byte(`
name: broken
version: 1.0.0
dataSources:
  - name: Thing
    mapping:
      eventHandlers:
        - event: Touched(indexed address who
          handler: handleTouched
`))
	assert.ErrorContains(t, err, "invalid manifest")
}

func TestLoadAll_DuplicateNames(t *testing.T) {
	fsys := fstest.MapFS{
		"a.yaml":    {Data: []byte(fmt.Sprintf(minimal, "same"))},
		"b.yml":     {Data: []byte(fmt.Sprintf(minimal, "same"))},
		"notes.txt": {Data: []byte("ignored")},
	}
	_, err := NewFSLoader(fsys, zerolog.Nop()).LoadAll()
	assert.ErrorContains(t, err, "duplicate module name 'same'")
}

func TestLoad_MissingManifest(t *testing.T) {
	_, err := NewFSLoader(fstest.MapFS{}, zerolog.Nop()).Load("absent")
	assert.ErrorContains(t, err, "failed to read manifest absent.yaml")
}

func TestSerializeManifest_RoundTrip(t *testing.T) {
	l := NewFSLoader(fstest.MapFS{}, zerolog.Nop())
	parsed, err := l.ParseManifest([]byte(fmt.Sprintf(minimal, "thing")))
	require.NoError(t, err)
	data, err := l.SerializeManifest(parsed)
	require.NoError(t, err)
	again, err := l.ParseManifest(data)
	require.NoError(t, err)
	assert.Equal(t, parsed.DataSources[0].Mapping.EventHandlers, again.DataSources[0].Mapping.EventHandlers)
}
