// Package domain holds DTOs for identity resolution contracts
package domain

// ProfileOutput wraps a profile for the public lookup endpoint
type ProfileOutput struct {
	Profile Profile `json:"profile"`
}

// Profile is the public view of an atproto account
type Profile struct {
	DID         string `json:"did" example:"did:plc:ewvi7nxzyoun6zhxrhs64oiz"`
	Handle      string `json:"handle" example:"alice.bsky.social"`
	DisplayName string `json:"displayName,omitempty" example:"Alice"`
	Avatar      string `json:"avatar,omitempty" example:"https://cdn.bsky.app/img/avatar/plain/..."`
	Description string `json:"description,omitempty"`
}
