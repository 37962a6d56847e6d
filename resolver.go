package idsite

import "context"

// APIKey is a signing credential. Its ID doubles as the audience claim a
// callback token must carry to be verified against its Secret.
type APIKey struct {
	ID     string
	Secret string
}

// Account is the resolved subject of a verified callback.
type Account struct {
	Href     string `json:"href"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Status   string `json:"status"`
}

// KeyResolver looks up a signing key by its client id. It reports
// (nil, false, nil) when no key exists for the id, and a non-nil error only
// when the lookup itself failed; the verifier treats those differently.
type KeyResolver interface {
	LookupKey(ctx context.Context, clientID string) (*APIKey, bool, error)
}

// AccountResolver fetches the account referenced by a verified subject claim.
type AccountResolver interface {
	ResolveAccount(ctx context.Context, href string) (*Account, error)
}

// StaticKeyResolver serves a fixed key set. Intended for local development,
// CLIs, and tests; production deployments resolve keys remotely.
type StaticKeyResolver struct {
	keys map[string]APIKey
}

// NewStaticKeyResolver builds a resolver over the given keys. Keys with an
// empty ID are ignored.
func NewStaticKeyResolver(keys ...APIKey) *StaticKeyResolver {
	index := make(map[string]APIKey, len(keys))
	for _, key := range keys {
		if key.ID == "" {
			continue
		}
		index[key.ID] = key
	}
	return &StaticKeyResolver{keys: index}
}

// LookupKey implements KeyResolver.
func (r *StaticKeyResolver) LookupKey(_ context.Context, clientID string) (*APIKey, bool, error) {
	key, ok := r.keys[clientID]
	if !ok {
		return nil, false, nil
	}
	return &key, true, nil
}
