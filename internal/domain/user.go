package domain

// User est l'utilisateur authentifié par le provider d'auth (admin).
type User struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Role  string `json:"role,omitempty"`
}
