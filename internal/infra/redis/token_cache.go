package redis

import (
	"context"
	"encoding/json"
	"fmt"

	logger "log/slog"

	"github.com/ethereum/go-ethereum/common"
	"github.com/redis/go-redis/v9"

	"github.com/vietddude/realitymod/internal/core/domain"
	"github.com/vietddude/realitymod/internal/core/metrics"
)

// TokenCache caches bond-token metadata. Symbol and decimals are
// immutable on chain, so entries never expire; a miss or a broken
// connection falls through to chain reads and never fails an operation.
type TokenCache struct {
	client  *Client
	network string
	log     *logger.Logger
}

// NewTokenCache creates a cache scoped to one network.
func NewTokenCache(client *Client, network string) *TokenCache {
	return &TokenCache{
		client:  client,
		network: network,
		log:     logger.With("component", "redis.tokencache", "network", network),
	}
}

type cachedAsset struct {
	Token    string `json:"token"`
	Symbol   string `json:"symbol"`
	Decimals uint8  `json:"decimals"`
}

func (c *TokenCache) key(token common.Address) string {
	return fmt.Sprintf("token_meta:%s:%s", c.network, token.Hex())
}

// Get returns the cached asset for a token, if present.
func (c *TokenCache) Get(ctx context.Context, token common.Address) (domain.Asset, bool) {
	raw, err := c.client.rdb.Get(ctx, c.key(token)).Result()
	if err == redis.Nil {
		metrics.TokenCacheHits.WithLabelValues("miss").Inc()
		return domain.Asset{}, false
	}
	if err != nil {
		c.log.Warn("token cache read failed", "token", token.Hex(), "error", err)
		metrics.TokenCacheHits.WithLabelValues("error").Inc()
		return domain.Asset{}, false
	}

	var cached cachedAsset
	if err := json.Unmarshal([]byte(raw), &cached); err != nil {
		c.log.Warn("token cache entry corrupt", "token", token.Hex(), "error", err)
		metrics.TokenCacheHits.WithLabelValues("error").Inc()
		return domain.Asset{}, false
	}

	metrics.TokenCacheHits.WithLabelValues("hit").Inc()
	return domain.Asset{
		Kind:     domain.AssetERC20,
		Token:    token,
		Symbol:   cached.Symbol,
		Decimals: cached.Decimals,
	}, true
}

// Put stores a token's metadata. Best effort.
func (c *TokenCache) Put(ctx context.Context, asset domain.Asset) {
	if asset.Kind != domain.AssetERC20 {
		return
	}
	raw, err := json.Marshal(cachedAsset{
		Token:    asset.Token.Hex(),
		Symbol:   asset.Symbol,
		Decimals: asset.Decimals,
	})
	if err != nil {
		return
	}
	if err := c.client.rdb.Set(ctx, c.key(asset.Token), raw, 0).Err(); err != nil {
		c.log.Warn("token cache write failed", "token", asset.Token.Hex(), "error", err)
	}
}
