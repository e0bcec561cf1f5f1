package credentials

// Credentials is the layout of credentials.toml.
type Credentials struct {
	Version   int                           `toml:"version"`
	Providers map[string]ProviderCredential `toml:"providers"`
}

// ProviderCredential is one [providers.<name>] table.
type ProviderCredential struct {
	APIKey string `toml:"api_key"`
}
