// Package reference produces payment intent identifiers. A reference travels
// to the gateway on checkout creation and comes back on the webhook, so it
// must be globally unique and fit the gateways' 100 character limit.
package reference

import "github.com/google/uuid"

const maxLength = 100

// Generate returns a fresh opaque reference. Safe for concurrent use.
func Generate() string {
	ref := uuid.NewString()
	if len(ref) > maxLength {
		ref = ref[:maxLength]
	}
	return ref
}
