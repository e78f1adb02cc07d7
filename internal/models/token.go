package models

// AuthContext is what the route guard attaches to an authenticated request.
type AuthContext struct {
	Claims  *JWTClaims
	Session *Session
}

// UserID returns the authenticated user id or an empty string.
func (a *AuthContext) UserID() string {
	if a == nil || a.Claims == nil {
		return ""
	}
	return a.Claims.UserID
}

// UpstreamToken returns the backend credential or an empty string.
func (a *AuthContext) UpstreamToken() string {
	if a == nil || a.Session == nil {
		return ""
	}
	return a.Session.UpstreamToken
}
