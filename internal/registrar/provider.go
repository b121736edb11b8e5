package registrar

import (
	"fmt"

	"github.com/ottiehq/ottie-server/internal/domain"
)

// Provider constants
const (
	ProviderVercel = "vercel"
	ProviderMock   = "mock"
)

// NewClient creates a registrar client based on the provider name.
// Returns an error if the provider is unknown or the token is empty
// (except for mock).
func NewClient(provider, baseURL, token, projectID string) (domain.RegistrarClient, error) {
	switch provider {
	case ProviderVercel:
		if token == "" {
			return nil, fmt.Errorf("REGISTRAR_API_TOKEN is required for Vercel provider")
		}
		if projectID == "" {
			return nil, fmt.Errorf("REGISTRAR_PROJECT_ID is required for Vercel provider")
		}
		return NewVercelClient(baseURL, token, projectID), nil

	case ProviderMock:
		return NewMockClient(), nil

	default:
		return nil, fmt.Errorf("unknown registrar provider: %s (valid options: vercel, mock)", provider)
	}
}
