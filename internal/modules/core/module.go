package core

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
)

// Module materializes the events of one or more data sources.
type Module interface {
	// Name returns the unique name of the module
	Name() string

	// Version returns the module version
	Version() string

	// Manifest returns the module's manifest configuration
	Manifest() *Manifest

	// Topics returns the topic0 hashes the module handles.
	Topics() []common.Hash

	// HandleEvent applies one event. It runs inside the storage
	// transaction opened by the registry.
	HandleEvent(ctx context.Context, event *RawEvent) error
}

// TemplateCreator starts routing events of a newly announced contract to the
// module owning the named template.
type TemplateCreator interface {
	CreateTemplate(ctx context.Context, template string, address common.Address, block uint64) error
}
