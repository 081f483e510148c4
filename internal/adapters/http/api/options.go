// Package api declares HTTP contracts and route registration helpers.
package api

// Defaults for top-N result sizing.
const (
	defaultTopN     = 20
	defaultMaxLimit = 64
)

type serverConfig struct {
	defaultTopN int
	maxLimit    int
}

// Option applies a configuration option to the Server.
type Option func(*serverConfig)

// WithDefaultTopN sets the highstakes result size when no limit is given.
func WithDefaultTopN(n int) Option {
	return func(c *serverConfig) {
		if n > 0 {
			c.defaultTopN = n
		}
	}
}

// WithMaxTopLimit caps the limit query parameter on highstakes.
func WithMaxTopLimit(n int) Option {
	return func(c *serverConfig) {
		if n > 0 {
			c.maxLimit = n
		}
	}
}
