// Package models defines the data types shared across the client auth flow:
// the authenticated identity reported by the provider and the credential
// payloads collected by the screens before they reach the gateway.
package models

// Identity represents an authenticated principal as reported by the identity
// provider. It is immutable: every successful auth event replaces the whole
// value, fields are never updated in place.
type Identity struct {
	// ID is the opaque stable identifier assigned by the provider.
	ID          string
	Email       string
	DisplayName string // optional, may be empty
}
