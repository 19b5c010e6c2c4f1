// Package vehiclegen generates collision-free vehicle IDs for the
// arrival generator, the one place this module reaches for fluo's
// google/uuid dependency outside the FSM machinery it was written for.
package vehiclegen

import "github.com/google/uuid"

// NextID returns a new, globally unique vehicle identifier.
func NextID() string {
	return uuid.New().String()
}
