// Package area defines service areas: the named territories customers
// are grouped under.
package area

import (
	"errors"
	"strings"

	"github.com/fibernet/cablebill/id"
	"github.com/fibernet/cablebill/types"
)

// ErrEmptyName is returned when an area is created without a name.
var ErrEmptyName = errors.New("area: name cannot be empty")

// Area is a named grouping of customers (a service territory).
type Area struct {
	types.Entity
	ID id.AreaID `json:"id"`
	// Name is the human-facing territory name, e.g. "Gulshan Block 4".
	Name string `json:"name"`
	// ConnectionNumber is an optional external identifier for the
	// area's feed connection.
	ConnectionNumber string `json:"connection_number,omitempty"`
}

// Validate checks the area's own fields before it is persisted.
func (a *Area) Validate() error {
	if strings.TrimSpace(a.Name) == "" {
		return ErrEmptyName
	}
	return nil
}
