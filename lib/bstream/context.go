// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package bstream

import "fmt"

// CategoryContext is an ordered table of error categories. Error values
// are written as the category's index in the table, so the writer and
// the reader of a stream must use contexts that agree on every index
// they exchange. [GenericCategory] is always index 0 and
// [BstreamCategory] index 1.
//
// A CategoryContext is immutable after construction and safe to share
// between streams and goroutines.
type CategoryContext struct {
	categories []Category
	index      map[Category]int
}

// NewCategoryContext returns a context holding the generic and bstream
// categories followed by extra, in order. Duplicates are ignored.
func NewCategoryContext(extra ...Category) *CategoryContext {
	ctx := &CategoryContext{index: make(map[Category]int, 2+len(extra))}
	ctx.add(GenericCategory)
	ctx.add(BstreamCategory)
	for _, cat := range extra {
		ctx.add(cat)
	}
	return ctx
}

func (c *CategoryContext) add(cat Category) {
	if _, exists := c.index[cat]; exists {
		return
	}
	c.index[cat] = len(c.categories)
	c.categories = append(c.categories, cat)
}

// Len returns the number of categories.
func (c *CategoryContext) Len() int { return len(c.categories) }

// Index returns the index of cat, or [InvalidErrCategory] if the
// context does not know it.
func (c *CategoryContext) Index(cat Category) (int, error) {
	index, ok := c.index[cat]
	if !ok {
		name := "<nil>"
		if cat != nil {
			name = cat.Name()
		}
		return 0, fmt.Errorf("category %q not in context: %w", name, InvalidErrCategory)
	}
	return index, nil
}

// Category returns the category at index, or [InvalidErrCategory] if
// the index is out of range.
func (c *CategoryContext) Category(index int) (Category, error) {
	if index < 0 || index >= len(c.categories) {
		return nil, fmt.Errorf("category index %d outside context of %d: %w",
			index, len(c.categories), InvalidErrCategory)
	}
	return c.categories[index], nil
}
