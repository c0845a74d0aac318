package outbox

import (
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Route is where a record should eventually be published
type Route struct {
	Exchange   string `yaml:"exchange" validate:"required"`
	RoutingKey string `yaml:"routing_key" validate:"required"`
}

// Routes maps each message mutation to its route
type Routes struct {
	CreateMessage Route `yaml:"create_message"`
	UpdateMessage Route `yaml:"update_message"`
	DeleteMessage Route `yaml:"delete_message"`
	PinMessage    Route `yaml:"pin_message"`
}

// LoadRoutes reads the routing file. Every route must be present.
func LoadRoutes(path string) (Routes, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Routes{}, fmt.Errorf("read routing config %s: %w", path, err)
	}
	return ParseRoutes(data)
}

// ParseRoutes decodes and validates routing YAML
func ParseRoutes(data []byte) (Routes, error) {
	var routes Routes
	if err := yaml.Unmarshal(data, &routes); err != nil {
		return Routes{}, fmt.Errorf("parse routing config: %w", err)
	}
	if err := validator.New().Struct(routes); err != nil {
		return Routes{}, fmt.Errorf("invalid routing config: %w", err)
	}
	return routes, nil
}
