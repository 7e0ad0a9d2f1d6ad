// Package domain holds the aggregated feed shapes
package domain

import (
	identdomain "plaza/internal/services/ident/domain"
	postsdomain "plaza/internal/services/posts/domain"
)

// PostEntry is one feed item: a research post plus its author
type PostEntry struct {
	URI    string                 `json:"uri"`
	CID    string                 `json:"cid"`
	Author identdomain.Profile    `json:"author"`
	Record postsdomain.PostRecord `json:"record"`
}

// FeedOutput is the read shape
type FeedOutput struct {
	Posts []PostEntry `json:"posts"`
}
