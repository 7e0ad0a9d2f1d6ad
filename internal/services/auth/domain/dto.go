package domain

// LoginInput starts an OAuth login for a handle
type LoginInput struct {
	Handle string `json:"handle" validate:"required,min=1,max=253" example:"alice.bsky.social"`
}

// LoginOutput carries the authorization URL the browser should visit
type LoginOutput struct {
	RedirectURL string `json:"redirectUrl"`
}

// CallbackInput is what the authorization server sends back
type CallbackInput struct {
	State string
	Code  string
	Iss   string
	Error string
}

// StatusOutput describes the current session, if any
type StatusOutput struct {
	LoggedIn    bool   `json:"loggedIn"`
	DID         string `json:"did,omitempty"`
	Handle      string `json:"handle,omitempty"`
	DisplayName string `json:"displayName,omitempty"`
	Avatar      string `json:"avatar,omitempty"`
}
