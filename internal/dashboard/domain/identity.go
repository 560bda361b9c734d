package domain

// ProviderNone is assigned to identities that arrive without a provider.
// It is never enabled in configuration, so such identities always fail
// the authorization check.
const ProviderNone = "none"

// Identity is an authenticated user as produced by an external identity
// integration. The access-control core treats it as an opaque input: it
// only reads the provider, a stable user id, and the allow flag.
type Identity struct {
	ID       string `json:"id"`
	Username string `json:"username,omitempty"`
	Provider string `json:"provider"`
	Allowed  bool   `json:"allowed"`
}

// UserKey returns the stable key used for token ownership: the user id
// when present, else the username.
func (i Identity) UserKey() string {
	if i.ID != "" {
		return i.ID
	}
	return i.Username
}

// ProviderName returns the originating provider, or ProviderNone when
// the identity carries none.
func (i Identity) ProviderName() string {
	if i.Provider == "" {
		return ProviderNone
	}
	return i.Provider
}
