// Package invalidation defines the route cache invalidation event.
package invalidation

import (
	"fmt"
	"strings"
	"time"
)

const OpInvalidate = "invalidate"

// Event asks every instance to drop cached geometry for the named routes.
// An ID, when present, is used to skip redeliveries.
type Event struct {
	Version int       `json:"version"`
	Op      string    `json:"op"`
	Routes  []string  `json:"routes"`
	ID      string    `json:"id,omitempty"`
	Source  string    `json:"source,omitempty"`
	TS      time.Time `json:"ts,omitempty"`
}

func (e Event) Validate() error {
	if e.Version != 1 {
		return fmt.Errorf("version must be 1")
	}
	if e.Op != OpInvalidate {
		return fmt.Errorf("op must be %q", OpInvalidate)
	}
	if len(e.Routes) == 0 {
		return fmt.Errorf("routes is required")
	}
	for i, r := range e.Routes {
		if strings.TrimSpace(r) == "" {
			return fmt.Errorf("routes[%d] is empty", i)
		}
	}
	return nil
}
