// Package config provides configuration management for the LLM gateway.
//
// Configuration is loaded from environment variables using the env package.
// All configuration values have sensible defaults for development use.
// Provider API keys are read directly by the llm adapter package and are
// not part of this configuration.
//
// Example usage:
//
//	cfg, err := config.Load()
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	fmt.Printf("HTTP server will listen on %s\n", cfg.GetHTTPAddr())
package config
