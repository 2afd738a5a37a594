package cache

import (
	"context"
	"fmt"
	"log"
	"time"

	"docshare/internal/config"

	"github.com/go-redis/redis/v8"
)

// RedisClient 全局 Redis 客户端，下载锁和评分锁都挂在它上面
var RedisClient *redis.Client

// InitRedis 建立 Redis 连接
// 启动时 Ping 一次做连通性校验，连不上直接退出，不带着坏依赖起服务
func InitRedis(cfg *config.RedisConfig) *redis.Client {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		log.Fatalf("连接 Redis 失败: %v", err)
	}

	RedisClient = client
	log.Printf("Redis 连接成功: %s:%d, db=%d", cfg.Host, cfg.Port, cfg.DB)
	return client
}
