package models

// Response is the remote service's uniform envelope: a success flag,
// a human-readable message, and an optional typed payload.
type Response[T any] struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Data    *T     `json:"data,omitempty"`
}
