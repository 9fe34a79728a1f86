package shared

import "context"

// Profile describes the authenticated actor as seen by the permission layer.
type Profile struct {
	UserID int64
	Email  string
	Nom    string
	Prenom string
	Role   string
	Actif  bool
}

type profileContextKey struct{}

// ContextWithProfile stores the user profile in context.
func ContextWithProfile(ctx context.Context, p *Profile) context.Context {
	return context.WithValue(ctx, profileContextKey{}, p)
}

// ProfileFromContext extracts the user profile from context.
func ProfileFromContext(ctx context.Context) *Profile {
	p, _ := ctx.Value(profileContextKey{}).(*Profile)
	return p
}
