// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package bstream

// Option configures a [Reader] or [Writer].
type Option func(*streamOptions)

type streamOptions struct {
	categories *CategoryContext
	types      TypeResolver
}

// WithCategoryContext sets the category table used to encode and
// decode error values. Both ends of a stream must agree on the indices
// they exchange. Without this option each stream gets its own context
// holding only the generic and bstream categories.
func WithCategoryContext(ctx *CategoryContext) Option {
	return func(o *streamOptions) { o.categories = ctx }
}

// WithTypes sets the resolver used for polymorphic values. The stream
// does not own the resolver; it only looks tags up through it.
func WithTypes(resolver TypeResolver) Option {
	return func(o *streamOptions) { o.types = resolver }
}

func applyStreamOptions(opts []Option) streamOptions {
	var o streamOptions
	for _, opt := range opts {
		opt(&o)
	}
	if o.categories == nil {
		o.categories = NewCategoryContext()
	}
	return o
}
