package domain

// PublishInput is the write payload
type PublishInput struct {
	Title    string   `json:"title" validate:"required,max=300"`
	Content  string   `json:"content" validate:"required,max=50000"`
	Summary  string   `json:"summary,omitempty" validate:"max=1000"`
	PostType string   `json:"postType" validate:"required,oneof=blog publication talk tutorial"`
	Venue    string   `json:"venue,omitempty" validate:"max=300"`
	Authors  []string `json:"authors,omitempty" validate:"max=50,dive,max=200"`
	DOI      string   `json:"doi,omitempty" validate:"max=300"`
}

// PublishOutput points at the freshly written record
type PublishOutput struct {
	URI string `json:"uri" example:"at://did:plc:abc/org.plaza.research.post/3k2akp4x5rt2a"`
	CID string `json:"cid"`
}
