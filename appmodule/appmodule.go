package appmodule

import (
	"errors"
	"strings"

	"github.com/google/uuid"
)

var (
	// ErrModuleNotFound is returned when no module has the requested name.
	ErrModuleNotFound = errors.New("module not found")

	// ErrInvalidModuleName is returned when a module name is empty.
	ErrInvalidModuleName = errors.New("module name is required")
)

// DiscoveredModule is a functional area of the application under test that
// the user has accepted into the project.
type DiscoveredModule struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Insights    string `json:"insights,omitempty"`
}

// SuggestedModule is a module proposed by discovery that has not been
// accepted yet.
type SuggestedModule struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// New creates a module with a fresh opaque ID.
func New(name, description string) (DiscoveredModule, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return DiscoveredModule{}, ErrInvalidModuleName
	}
	return DiscoveredModule{
		ID:          uuid.NewString(),
		Name:        name,
		Description: strings.TrimSpace(description),
	}, nil
}

// FromSuggestion converts an accepted suggestion into a module.
func FromSuggestion(s SuggestedModule) (DiscoveredModule, error) {
	return New(s.Name, s.Description)
}

// FindByName returns the module whose name matches exactly.
func FindByName(modules []DiscoveredModule, name string) (DiscoveredModule, bool) {
	for _, m := range modules {
		if m.Name == name {
			return m, true
		}
	}
	return DiscoveredModule{}, false
}
