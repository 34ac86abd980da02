package storyboard

import "context"

// Ref identifies one scene of one storyboard batch in one session.
type Ref struct {
	Session string
	Batch   int
	Scene   int
}

type refKey struct{}

// WithRef attaches ref to ctx for image backends that persist output.
func WithRef(ctx context.Context, ref Ref) context.Context {
	return context.WithValue(ctx, refKey{}, ref)
}

// RefFrom returns the Ref attached to ctx, if any.
func RefFrom(ctx context.Context) (Ref, bool) {
	ref, ok := ctx.Value(refKey{}).(Ref)
	return ref, ok
}
