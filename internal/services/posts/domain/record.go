// Package domain holds the research post record shape and DTOs
package domain

import "time"

// PostNSID is the collection research posts are written to
const PostNSID = "org.plaza.research.post"

// PostTypes enumerates the accepted postType values
var PostTypes = []string{"blog", "publication", "talk", "tutorial"}

// PostRecord is the repo record, wire-exact
type PostRecord struct {
	Type      string    `json:"$type"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	Summary   string    `json:"summary,omitempty"`
	PostType  string    `json:"postType"`
	Venue     string    `json:"venue,omitempty"`
	Authors   []string  `json:"authors,omitempty"`
	DOI       string    `json:"doi,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}
