// Package plugin manages the pluggable capabilities of the keelson backend.
// Embedding systems register factories for the capabilities they provide —
// metric reporters, pool connectors — and the manager instantiates them from
// decoded configuration.
package plugin

// Type is the type of plugin supported by the system.
type Type string

const (
	// Metrics plugins provide metric reporting backends.
	Metrics Type = "metrics"
	// Connector plugins provide pool connector implementations: the
	// create/validate/dispose capability set for one kind of connection
	// (field-bus session, broker link).
	Connector Type = "connector"
)

// Factory is the interface for plugin factories.
type Factory interface {
	// Type returns the plugin type.
	Type() Type
	// Name returns the name of the plugin implementation.
	Name() string
	// ConfigType returns an empty struct that represents the plugin's
	// configuration. It is populated by the manager using mapstructure.
	ConfigType() any
	// Setup initializes a plugin instance based on the configuration.
	Setup(any) (Plugin, error)

	Destroy(Plugin)
}

// Plugin is an initialized plugin instance.
type Plugin interface {
	FactoryName() string
}
