// Package config holds the settings shared by the search engine, the
// ingestion pipeline and the command line tools.
//
// A Config starts from Default, is adjusted by functional options and the
// CODEX_SEARCH_* environment variables, and is validated once before use:
//
//	cfg := config.New(
//	    config.FromEnv(os.Getenv),
//	    config.WithLimit(50),
//	)
//	if err := cfg.Validate(); err != nil {
//	    return err
//	}
package config
