package auth

import "net/http"

// Identity is the authenticated subject bound to one realtime connection
type Identity struct {
	UserID      string
	DisplayName string
}

// Authenticate resolves the identity for a WebSocket handshake request.
// The credential is read from the Authorization header or, because browser
// WebSockets cannot set custom headers, from the "token" query parameter.
// Any failure rejects the handshake before the connection is upgraded.
func (v *Verifier) Authenticate(r *http.Request) (*Identity, error) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		if token := r.URL.Query().Get("token"); token != "" {
			authHeader = "Bearer " + token
		}
	}

	tokenString, err := ExtractToken(authHeader)
	if err != nil {
		return nil, err
	}

	claims, err := v.ValidateToken(tokenString)
	if err != nil {
		return nil, err
	}

	return &Identity{
		UserID:      claims.UserID,
		DisplayName: claims.DisplayName,
	}, nil
}
