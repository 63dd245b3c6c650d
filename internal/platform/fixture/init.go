package fixture

import "github.com/abhinvv1/WebDriverAgent/internal/platform"

func init() {
	platform.NewProviderFunc = func(opts platform.ProviderOptions) (*platform.Provider, error) {
		if opts.Fixture == "" {
			return nil, platform.ErrNoFixture
		}
		b, err := Load(opts.Fixture)
		if err != nil {
			return nil, err
		}
		return &platform.Provider{Name: "fixture", Backend: b}, nil
	}
}
