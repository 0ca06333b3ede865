package internal

// Option is a functional option for configuring the application.
type Option func(*application)

type application struct {
	config *Config
	// mcpUser overrides config.MCP.User for the mcp subcommand.
	mcpUser string
}

// WithConfig sets the application configuration.
func WithConfig(cfg *Config) Option {
	return func(a *application) {
		a.config = cfg
	}
}

// WithMCPUser sets the username the MCP server acts as.
func WithMCPUser(username string) Option {
	return func(a *application) {
		a.mcpUser = username
	}
}
