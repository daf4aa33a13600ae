package ports

import "errors"

var ErrNotFound = errors.New("not found")

var ErrConflict = errors.New("conflict")

// ErrUnauthenticated : aucun utilisateur valide pour le token fourni.
var ErrUnauthenticated = errors.New("unauthenticated")
