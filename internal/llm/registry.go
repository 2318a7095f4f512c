package llm

import (
	"fmt"
	"strings"
	"sync"

	"github.com/rulebench/rulebench/internal/llm/driver"
	"github.com/rulebench/rulebench/internal/llm/driver/azure"
	"github.com/rulebench/rulebench/internal/llm/driver/openai"
	"github.com/rulebench/rulebench/internal/llm/driver/replicate"
)

// Registry resolves backend identities to configured drivers.
type Registry struct {
	cfg Config

	mu      sync.Mutex
	drivers map[string]driver.Driver
}

// Resolved binds a backend identity to the driver and model serving it.
type Resolved struct {
	Backend    string
	ProviderID string
	Driver     driver.Driver
	Model      string
}

func NewRegistry(cfg Config) *Registry {
	return &Registry{cfg: cfg}
}

// Resolve returns the driver and model for a backend identity. Unknown
// identities fall back to the default provider.
func (r *Registry) Resolve(backend string) (*Resolved, error) {
	if r == nil {
		return nil, fmt.Errorf("llm registry not configured")
	}

	backend = strings.TrimSpace(backend)
	if backend == "" {
		return nil, fmt.Errorf("backend identity is required")
	}

	providerID, providerCfg, err := r.resolveProvider(backend)
	if err != nil {
		return nil, err
	}

	drv, err := r.driverFor(providerID, providerCfg)
	if err != nil {
		return nil, err
	}

	model, err := resolveModel(providerCfg, backend)
	if err != nil {
		return nil, err
	}

	return &Resolved{Backend: backend, ProviderID: providerID, Driver: drv, Model: model}, nil
}

// Invoker resolves a backend and wraps it into the dispatcher call shape.
func (r *Registry) Invoker(backend string) (*Invoker, error) {
	resolved, err := r.Resolve(backend)
	if err != nil {
		return nil, err
	}
	return NewInvoker(resolved.Driver, resolved.Model), nil
}

func (r *Registry) resolveProvider(backend string) (string, ProviderConfig, error) {
	if providerID, ok := r.cfg.Routing[backend]; ok {
		providerID = strings.TrimSpace(providerID)
		if providerID != "" {
			cfg, ok := r.cfg.Providers[providerID]
			if !ok {
				return "", ProviderConfig{}, fmt.Errorf("unknown provider %q for backend %q", providerID, backend)
			}
			if !cfg.Enabled {
				return "", ProviderConfig{}, fmt.Errorf("provider %q is disabled", providerID)
			}
			return providerID, cfg, nil
		}
	}

	if id := strings.TrimSpace(r.cfg.DefaultProvider); id != "" {
		cfg, ok := r.cfg.Providers[id]
		if !ok {
			return "", ProviderConfig{}, fmt.Errorf("default provider %q not configured", id)
		}
		if !cfg.Enabled {
			return "", ProviderConfig{}, fmt.Errorf("default provider %q is disabled", id)
		}
		return id, cfg, nil
	}

	var onlyID string
	var onlyCfg ProviderConfig
	for providerID, cfg := range r.cfg.Providers {
		if !cfg.Enabled {
			continue
		}
		if onlyID != "" {
			return "", ProviderConfig{}, fmt.Errorf("no provider routing configured for backend %q", backend)
		}
		onlyID = providerID
		onlyCfg = cfg
	}
	if onlyID == "" {
		return "", ProviderConfig{}, fmt.Errorf("no enabled providers configured")
	}
	return onlyID, onlyCfg, nil
}

func (r *Registry) driverFor(providerID string, cfg ProviderConfig) (driver.Driver, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.drivers == nil {
		r.drivers = map[string]driver.Driver{}
	}
	if drv, ok := r.drivers[providerID]; ok {
		return drv, nil
	}

	providerType := strings.ToLower(strings.TrimSpace(cfg.Type))
	var drv driver.Driver
	switch providerType {
	case "openai":
		client := openai.NewClient(cfg.BaseURL, cfg.APIKey)
		client.Timeout = r.cfg.DefaultTimeout
		client.MaxRetries = cfg.MaxRetries
		drv = client
	case "azure":
		client := azure.NewClient(cfg.BaseURL, cfg.APIKey, cfg.APIVersion)
		client.Timeout = r.cfg.DefaultTimeout
		client.MaxRetries = cfg.MaxRetries
		drv = client
	case "replicate":
		client := replicate.NewClient(cfg.BaseURL, cfg.APIKey)
		client.Timeout = r.cfg.DefaultTimeout
		drv = client
	default:
		if providerType == "" {
			providerType = "(unset)"
		}
		return nil, fmt.Errorf("unsupported provider type %q for provider %q", providerType, providerID)
	}

	r.drivers[providerID] = drv
	return drv, nil
}

func resolveModel(cfg ProviderConfig, backend string) (string, error) {
	if cfg.Models != nil {
		if model := strings.TrimSpace(cfg.Models[backend]); model != "" {
			return model, nil
		}
		if model := strings.TrimSpace(cfg.Models["default"]); model != "" {
			return model, nil
		}
	}
	// A backend identity is itself a usable model name for providers that
	// accept arbitrary model strings.
	return backend, nil
}
