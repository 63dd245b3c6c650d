package platform

import (
	"errors"
	"fmt"
	"runtime"
)

// Provider bundles the backend selected for this process.
type Provider struct {
	Name    string
	Backend Backend
}

// ProviderOptions selects and configures a backend.
type ProviderOptions struct {
	Fixture string // Path to a fixture tree (YAML or page-source XML)
}

// ErrUnsupported is returned when no backend is registered.
var ErrUnsupported = fmt.Errorf("no accessibility backend available on %s/%s; pass --fixture", runtime.GOOS, runtime.GOARCH)

// ErrNoFixture is returned by file-backed providers when no path was given.
var ErrNoFixture = errors.New("fixture path is required")

// NewProviderFunc is set by backend packages via init().
// See internal/platform/fixture for the file-backed registration.
var NewProviderFunc func(opts ProviderOptions) (*Provider, error)

// NewProvider returns the registered Provider.
func NewProvider(opts ProviderOptions) (*Provider, error) {
	if NewProviderFunc == nil {
		return nil, ErrUnsupported
	}
	return NewProviderFunc(opts)
}
