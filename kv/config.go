package kv

const (
	defaultTable     = "rescue_kv"
	defaultNamespace = "animal_rescues"
)

// Config holds configuration for the Store.
type Config struct {
	// Table is the DynamoDB table backing every namespace.
	// Default: "rescue_kv"
	Table string

	// Namespace is the binding name this Store reads and writes.
	// Default: "animal_rescues"
	Namespace string

	// ConsistentRead requests strongly consistent GetItem and Query calls so a
	// Put is visible to the next Get. Default: true
	ConsistentRead bool
}

// DefaultConfig returns the configuration used when nothing is overridden.
func DefaultConfig() Config {
	return Config{
		Table:          defaultTable,
		Namespace:      defaultNamespace,
		ConsistentRead: true,
	}
}

// validate fills in empty values.
func (c *Config) validate() {
	if c.Table == "" {
		c.Table = defaultTable
	}
	if c.Namespace == "" {
		c.Namespace = defaultNamespace
	}
}
