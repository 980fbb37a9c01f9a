// Package config provides type-safe environment variable loading with
// per-type caching.
//
// The package automatically loads .env files on first use and parses
// environment variables into struct fields via the caarlos0/env library.
//
//	type ClientConfig struct {
//		URL    string        `env:"RELAY_URL,required"`
//		Key    string        `env:"RELAY_KEY,required"`
//		Secret string        `env:"RELAY_SECRET,required"`
//		Timeout time.Duration `env:"RELAY_TIMEOUT" envDefault:"10s"`
//	}
//
//	var cfg ClientConfig
//	if err := config.Load(&cfg); err != nil {
//		log.Fatal(err)
//	}
//
// Each configuration type is loaded once per process; subsequent Load calls
// for the same type return the cached value.
package config
