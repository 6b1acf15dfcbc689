package redis

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/weihan/medstock/pkg/circuitbreaker"
	"github.com/weihan/medstock/pkg/metrics"
)

// 聚合视图名，Key格式为 cache:{view}
const (
	ViewFormulary       = "formulary"        // 全量药品目录
	ViewInventoryStatus = "inventory_status" // 低库存视图
	ViewMARDashboard    = "mar_dashboard"    // MAR给药看板
)

// ViewCache 聚合视图缓存(cache-aside)
// 读路径：命中返回序列化视图，未命中由调用方回源并回填；
// 写路径：提交成功后删除相关Key，由下一次读回填，绝不在事务内操作缓存。
// 所有Redis访问经过熔断器，Redis故障时降级为全量回源，不影响主流程
type ViewCache struct {
	client  *redis.Client
	breaker *circuitbreaker.CircuitBreaker
}

// NewViewCache 创建聚合视图缓存
func NewViewCache(client *redis.Client) *ViewCache {
	breaker := circuitbreaker.NewCircuitBreaker("redis-cache", circuitbreaker.Config{
		MaxRequests: 3,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
	})
	breaker.SetStateChangeCallback(func(name string, from, to circuitbreaker.State) {
		metrics.SetGaugeVec(metrics.CircuitBreakerState,
			map[string]string{"name": name}, float64(to))
	})

	return &ViewCache{client: client, breaker: breaker}
}

func cacheKey(view string) string {
	return "cache:" + view
}

// Get 读取视图缓存
// 返回(数据, 是否命中, 错误)；熔断开启或Redis故障按未命中降级，不报错
func (c *ViewCache) Get(ctx context.Context, view string) ([]byte, bool, error) {
	var data []byte
	var hit bool

	err := c.breaker.Execute(func() error {
		result, err := c.client.Get(ctx, cacheKey(view)).Bytes()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				return nil
			}
			return err
		}
		data = result
		hit = true
		return nil
	})

	if err != nil {
		outcome := "error"
		if errors.Is(err, circuitbreaker.ErrOpenState) {
			outcome = "bypass"
		}
		metrics.IncCounterVec(metrics.CacheRequestsTotal,
			map[string]string{"view": view, "outcome": outcome})
		return nil, false, nil
	}

	outcome := "miss"
	if hit {
		outcome = "hit"
	}
	metrics.IncCounterVec(metrics.CacheRequestsTotal,
		map[string]string{"view": view, "outcome": outcome})

	return data, hit, nil
}

// Set 回填视图缓存(带TTL)，尽力而为
func (c *ViewCache) Set(ctx context.Context, view string, data []byte, ttl time.Duration) error {
	return c.breaker.Execute(func() error {
		return c.client.Set(ctx, cacheKey(view), data, ttl).Err()
	})
}

// Invalidate 删除视图缓存
// 必须在事务提交成功之后调用；删除失败只能等TTL兜底，调用方不回滚
func (c *ViewCache) Invalidate(ctx context.Context, views ...string) error {
	if len(views) == 0 {
		return nil
	}

	keys := make([]string, len(views))
	for i, v := range views {
		keys[i] = cacheKey(v)
	}

	err := c.breaker.Execute(func() error {
		return c.client.Del(ctx, keys...).Err()
	})
	if err == nil {
		for range views {
			metrics.IncCounter(metrics.CacheInvalidationsTotal)
		}
	}
	return err
}
