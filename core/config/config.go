package config

import (
	"errors"
	"fmt"
	"reflect"
	"sync"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// ErrNotStructPointer is returned when Load is called with anything other
// than a non-nil pointer to a struct.
var ErrNotStructPointer = errors.New("config target must be a non-nil struct pointer")

var (
	mu      sync.Mutex
	cache   = make(map[reflect.Type]any)
	envOnce sync.Once
)

// Load parses environment variables into cfg, which must be a non-nil
// pointer to a struct. The result is cached per struct type; repeated calls
// for the same type return the first loaded value.
func Load(cfg any) error {
	envOnce.Do(func() {
		// Missing .env files are normal outside development.
		_ = godotenv.Load()
	})

	rv := reflect.ValueOf(cfg)
	if rv.Kind() != reflect.Pointer || rv.IsNil() || rv.Elem().Kind() != reflect.Struct {
		return ErrNotStructPointer
	}

	t := rv.Elem().Type()

	mu.Lock()
	defer mu.Unlock()

	if cached, ok := cache[t]; ok {
		rv.Elem().Set(reflect.ValueOf(cached))
		return nil
	}

	if err := env.Parse(cfg); err != nil {
		return fmt.Errorf("failed to parse environment: %w", err)
	}

	cache[t] = rv.Elem().Interface()
	return nil
}

// MustLoad is like Load but panics on failure. Useful during startup when a
// missing variable should stop the process.
func MustLoad(cfg any) {
	if err := Load(cfg); err != nil {
		panic(err)
	}
}
