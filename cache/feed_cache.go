package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"voxshare/model"

	"github.com/go-redis/redis/v8"
)

const (
	publicFeedKey = "feed:public"

	// Short TTL keeps play counters in the feed reasonably fresh without
	// invalidating on every play.
	publicFeedTTL = 30 * time.Second
)

// GetPublicFeed 从缓存读取公开音频列表，缓存未命中时返回 (nil, nil)
func GetPublicFeed(ctx context.Context) ([]*model.PublicAudio, error) {
	if RedisClient == nil {
		return nil, nil
	}

	data, err := RedisClient.Get(ctx, publicFeedKey).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get public feed from cache: %w", err)
	}

	var feed []*model.PublicAudio
	if err := json.Unmarshal(data, &feed); err != nil {
		return nil, fmt.Errorf("failed to unmarshal cached public feed: %w", err)
	}
	return feed, nil
}

// SetPublicFeed 将公开音频列表写入缓存
func SetPublicFeed(ctx context.Context, feed []*model.PublicAudio) error {
	if RedisClient == nil {
		return nil
	}

	data, err := json.Marshal(feed)
	if err != nil {
		return fmt.Errorf("failed to marshal public feed: %w", err)
	}

	if err := RedisClient.Set(ctx, publicFeedKey, data, publicFeedTTL).Err(); err != nil {
		return fmt.Errorf("failed to cache public feed: %w", err)
	}
	return nil
}

// InvalidatePublicFeed 在上传或删除后使缓存失效
func InvalidatePublicFeed(ctx context.Context) error {
	if RedisClient == nil {
		return nil
	}

	if err := RedisClient.Del(ctx, publicFeedKey).Err(); err != nil {
		return fmt.Errorf("failed to invalidate public feed cache: %w", err)
	}
	return nil
}
