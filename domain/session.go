package domain

// SessionRecord is the part of the serialized HTTP session the realtime
// core reads. The session middleware owns the full blob; only the nested
// authenticated identity matters here.
type SessionRecord struct {
	Passport Passport `json:"passport"`
}

// Passport holds the authenticated user reference the HTTP auth layer
// stored in the session.
type Passport struct {
	User string `json:"user"`
}
