package core

import "strconv"

// Manifest describes the contracts a module watches and the handler bound
// to each of their events.
type Manifest struct {
	Name        string       `yaml:"name"`
	Version     string       `yaml:"version"`
	Description string       `yaml:"description,omitempty"`
	DataSources []DataSource `yaml:"dataSources,omitempty"`
	// Templates are instantiated at runtime for addresses announced by
	// other contracts.
	Templates []DataSource `yaml:"templates,omitempty"`
}

// DataSource defines a contract or set of contracts to watch
type DataSource struct {
	Kind    string            `yaml:"kind"` // "ethereum/contract"
	Name    string            `yaml:"name"`
	Source  DataSourceSource  `yaml:"source"`
	Mapping DataSourceMapping `yaml:"mapping"`
}

// DataSourceSource defines the contract source information. Static sources
// get their address from configuration when the manifest leaves it empty.
type DataSourceSource struct {
	Address    *string `yaml:"address,omitempty"`
	ABI        string  `yaml:"abi"`
	StartBlock *uint64 `yaml:"startBlock,omitempty"`
}

// DataSourceMapping defines how to handle events from this data source
type DataSourceMapping struct {
	Kind          string         `yaml:"kind"` // "ethereum/events"
	Entities      []string       `yaml:"entities"`
	EventHandlers []EventHandler `yaml:"eventHandlers"`
}

// EventHandler binds an event signature, e.g.
// "Deployed(indexed address implementation, address instance, string namespace, string name)",
// to a handler name.
type EventHandler struct {
	Event   string `yaml:"event"`
	Handler string `yaml:"handler"`
}

// AllSources returns the static sources followed by the templates.
func (m *Manifest) AllSources() []DataSource {
	out := make([]DataSource, 0, len(m.DataSources)+len(m.Templates))
	out = append(out, m.DataSources...)
	return append(out, m.Templates...)
}

// ValidateManifest validates a manifest structure
func (m *Manifest) ValidateManifest() error {
	if m.Name == "" {
		return ErrInvalidManifest{Field: "name", Reason: "name is required"}
	}

	if m.Version == "" {
		return ErrInvalidManifest{Field: "version", Reason: "version is required"}
	}

	if len(m.DataSources) == 0 && len(m.Templates) == 0 {
		return ErrInvalidManifest{Field: "dataSources", Reason: "at least one data source or template is required"}
	}

	for i, ds := range m.DataSources {
		if err := ds.validate(); err != nil {
			return ErrInvalidManifest{Field: "dataSources[" + strconv.Itoa(i) + "]", Reason: err.Error()}
		}
	}
	for i, ds := range m.Templates {
		if err := ds.validate(); err != nil {
			return ErrInvalidManifest{Field: "templates[" + strconv.Itoa(i) + "]", Reason: err.Error()}
		}
		if ds.Source.Address != nil {
			return ErrInvalidManifest{Field: "templates[" + strconv.Itoa(i) + "].source.address", Reason: "templates have no fixed address"}
		}
	}

	return nil
}

func (ds *DataSource) validate() error {
	if ds.Kind == "" {
		return ErrInvalidManifest{Field: "kind", Reason: "kind is required"}
	}

	if ds.Name == "" {
		return ErrInvalidManifest{Field: "name", Reason: "name is required"}
	}

	if ds.Source.ABI == "" {
		return ErrInvalidManifest{Field: "source.abi", Reason: "ABI is required"}
	}

	if len(ds.Mapping.EventHandlers) == 0 {
		return ErrInvalidManifest{Field: "mapping.eventHandlers", Reason: "at least one event handler is required"}
	}

	for _, h := range ds.Mapping.EventHandlers {
		if h.Event == "" || h.Handler == "" {
			return ErrInvalidManifest{Field: "mapping.eventHandlers", Reason: "event and handler are required"}
		}
	}

	return nil
}

// ErrInvalidManifest is returned when a manifest is invalid
type ErrInvalidManifest struct {
	Field  string
	Reason string
}

func (e ErrInvalidManifest) Error() string {
	return "invalid manifest field " + e.Field + ": " + e.Reason
}
