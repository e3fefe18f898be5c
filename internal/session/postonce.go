// © 2025 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

package session

import (
	"context"
	"fmt"
	"math/rand/v2"
	"time"

	"go.astrophena.name/tweetbot/internal/news"
)

// PostOnce runs the whole pipeline unattended: fetch a batch, pick one
// article at random, generate post text and publish it immediately. No
// approval step and no selection history are involved.
//
// It is used by the HTTP trigger front-end, where each request is an
// independent one-shot run.
func PostOnce(ctx context.Context, src Source, gen Generator, pub Publisher) (Draft, error) {
	batch, err := src.Fetch(ctx)
	if err != nil {
		return Draft{}, fmt.Errorf("fetching articles: %w", err)
	}
	if len(batch) == 0 {
		return Draft{}, news.ErrNoArticles
	}
	item := batch[rand.IntN(len(batch))]
	text, err := gen.Generate(ctx, item)
	if err != nil {
		return Draft{}, fmt.Errorf("generating post for %q: %w", item.Title, err)
	}
	if err := pub.Publish(ctx, text); err != nil {
		return Draft{}, fmt.Errorf("publishing post: %w", err)
	}
	return Draft{Item: item, Text: text, CreatedAt: time.Now()}, nil
}
