package config

// Config wraps a decoded configuration document for typed lookups.
// Accessors return the default when the key is missing or holds a value
// of another type.
type Config struct {
	data map[string]any
}

// New creates a Config from the given map. A nil map yields an empty Config.
func New(data map[string]any) Config {
	if data == nil {
		data = make(map[string]any)
	}
	return Config{data: data}
}

// String returns the string value for key, or defaultVal.
func (c Config) String(key, defaultVal string) string {
	if s, ok := c.data[key].(string); ok {
		return s
	}
	return defaultVal
}

// Bool returns the boolean value for key, or defaultVal.
func (c Config) Bool(key string, defaultVal bool) bool {
	if b, ok := c.data[key].(bool); ok {
		return b
	}
	return defaultVal
}

// Int returns the integer value for key, or defaultVal.
//
// YAML decodes integers as int, TOML as int64 and JSON as float64; all
// three are accepted. Floats with a fractional part are rejected.
func (c Config) Int(key string, defaultVal int) int {
	n, ok := c.int64(key)
	if !ok {
		return defaultVal
	}
	return int(n)
}

// Int64 is Int for values that may not fit an int on 32-bit platforms.
func (c Config) Int64(key string, defaultVal int64) int64 {
	n, ok := c.int64(key)
	if !ok {
		return defaultVal
	}
	return n
}

func (c Config) int64(key string) (int64, bool) {
	switch val := c.data[key].(type) {
	case int:
		return int64(val), true
	case int64:
		return val, true
	case uint64:
		return int64(val), true
	case float64:
		if val == float64(int64(val)) {
			return int64(val), true
		}
	}
	return 0, false
}

// Float returns the float64 value for key, or defaultVal.
func (c Config) Float(key string, defaultVal float64) float64 {
	switch val := c.data[key].(type) {
	case float64:
		return val
	case int:
		return float64(val)
	case int64:
		return float64(val)
	}
	return defaultVal
}

// Section returns the nested table under key as a Config.
// Missing or non-table values yield an empty Config.
func (c Config) Section(key string) Config {
	if m, ok := c.data[key].(map[string]any); ok {
		return New(m)
	}
	return New(nil)
}

// Has returns true if the key exists in the config.
func (c Config) Has(key string) bool {
	_, ok := c.data[key]
	return ok
}

// Raw returns the underlying map.
// The returned map should not be modified.
func (c Config) Raw() map[string]any {
	return c.data
}
