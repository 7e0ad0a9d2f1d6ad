package domain

// AddInput asks for a researcher to be added by handle
type AddInput struct {
	Handle string `json:"handle" validate:"required,min=1,max=253" example:"alice.bsky.social"`
}

// ListOutput is the read shape
type ListOutput struct {
	Users []Entry `json:"users"`
}

// MutationOutput is returned by add and remove
type MutationOutput struct {
	Success bool    `json:"success"`
	Users   []Entry `json:"users"`
}
