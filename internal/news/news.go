// © 2025 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

// Package news fetches and normalizes batches of news articles.
package news

// Item is a single normalized news article.
//
// An Item is immutable once fetched.
type Item struct {
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Source      string `json:"source,omitempty"`
	URL         string `json:"url"`
}

// Valid reports whether the item carries enough information to be admitted
// into a working batch: a title and at least one of description or URL.
func (i Item) Valid() bool {
	return i.Title != "" && (i.Description != "" || i.URL != "")
}

func admit(items []Item) []Item {
	var admitted []Item
	for _, it := range items {
		if it.Valid() {
			admitted = append(admitted, it)
		}
	}
	return admitted
}
