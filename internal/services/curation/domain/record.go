// Package domain holds the curated list record shape and DTOs
package domain

import "time"

// ListNSID is the collection holding the community researcher list
const ListNSID = "org.plaza.community.list"

// ListRKey pins the list to one well-known record per repo
const ListRKey = "self"

// Entry is one curated researcher
type Entry struct {
	DID     string    `json:"did" example:"did:plc:ewvi7nxzyoun6zhxrhs64oiz"`
	Handle  string    `json:"handle" example:"alice.bsky.social"`
	AddedAt time.Time `json:"addedAt"`
}

// ListRecord is the repo record, wire-exact
type ListRecord struct {
	Type      string    `json:"$type"`
	Users     []Entry   `json:"users"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}
