package types

type (
	// FilterConfig contains configuration for the path filter.
	FilterConfig struct {
		Suffix          string   `json:"suffix" yaml:"suffix"`
		ExcludePatterns []string `json:"exclude" yaml:"exclude"`
	}
)
