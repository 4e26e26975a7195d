package persistence

import (
	"context"

	"github.com/wfunc/sketchparty/logger"
)

// DefaultKeywords is the pool of the built-in topic.
var DefaultKeywords = []string{
	"apple", "banana", "bicycle", "butterfly", "castle", "cat", "clock", "cloud",
	"dragon", "elephant", "fish", "guitar", "house", "ice cream", "kite", "lighthouse",
	"moon", "mountain", "octopus", "penguin", "pizza", "rainbow", "robot", "rocket",
	"snowman", "spider", "sun", "train", "tree", "umbrella", "volcano", "whale",
}

// SeedDefaultTopic stores DefaultKeywords under slug unless the topic already has keywords.
func SeedDefaultTopic(ctx context.Context, players PlayerStore, slug string) error {
	existing, err := players.KeywordsForTopic(ctx, slug)
	if err != nil {
		return err
	}
	if len(existing) > 0 {
		return nil
	}
	logger.Log.Infof("seeding topic %q with %d keywords", slug, len(DefaultKeywords))
	return players.SaveTopic(ctx, slug, "Default", DefaultKeywords)
}
