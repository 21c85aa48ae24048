// Package user models the calling identity the Engine trusts but never
// authenticates itself: an external auth layer provides the calling
// user's identity, and the Engine trusts that identity parameter as-is.
package user

// Principal is the identity an external auth layer has already verified
// before calling into the Engine API.
type Principal struct {
	UserID string
}
