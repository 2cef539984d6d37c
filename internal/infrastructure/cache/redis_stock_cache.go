// Package cache implementa la caché de lectura de existencias sobre Redis.
// La fuente de verdad sigue siendo stock_on_hand: la caché solo acelera la proyección
// y se invalida tras cada Commit que mueve stock.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	redis "github.com/redis/go-redis/v9"

	"github.com/jhoicas/farmacia-api/internal/domain/repository"
	"github.com/jhoicas/farmacia-api/pkg/config"
)

const (
	keyPrefix = "farmacia:stock:"
	allKey    = keyPrefix + "*all*"
	genPrefix = keyPrefix + "gen:"
)

// NewClient abre el cliente Redis con la configuración de la aplicación.
func NewClient(cfg config.RedisConfig) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
}

// RedisStockCache implementa inventory.StockCache guardando cada proyección como JSON con TTL.
type RedisStockCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisStockCache construye la caché. ttl <= 0 usa 30 segundos.
func NewRedisStockCache(client *redis.Client, ttl time.Duration) *RedisStockCache {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &RedisStockCache{client: client, ttl: ttl}
}

// Ping verifica la conexión.
func (c *RedisStockCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// GetStockOnHand devuelve (nil, false, nil) si no hay entrada.
func (c *RedisStockCache) GetStockOnHand(ctx context.Context, branchCode string) ([]repository.StockOnHandResult, bool, error) {
	val, err := c.client.Get(ctx, Key(branchCode)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("cache: leer existencias: %w", err)
	}

	var rows []repository.StockOnHandResult
	if err := json.Unmarshal(val, &rows); err != nil {
		return nil, false, fmt.Errorf("cache: decodificar existencias: %w", err)
	}
	return rows, true, nil
}

// Generation devuelve la generación actual de la entrada; 0 si nunca fue invalidada.
func (c *RedisStockCache) Generation(ctx context.Context, branchCode string) (int64, error) {
	gen, err := c.client.Get(ctx, GenKey(branchCode)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("cache: leer generación: %w", err)
	}
	return gen, nil
}

// SetStockOnHand guarda la proyección con el TTL configurado solo si la generación sigue siendo gen.
// WATCH sobre la clave de generación descarta la escritura si Invalidate corre en medio.
func (c *RedisStockCache) SetStockOnHand(ctx context.Context, branchCode string, gen int64, rows []repository.StockOnHandResult) error {
	if rows == nil {
		rows = []repository.StockOnHandResult{}
	}
	payload, err := json.Marshal(rows)
	if err != nil {
		return fmt.Errorf("cache: codificar existencias: %w", err)
	}

	genKey := GenKey(branchCode)
	err = c.client.Watch(ctx, func(tx *redis.Tx) error {
		cur, err := tx.Get(ctx, genKey).Int64()
		if err != nil && !errors.Is(err, redis.Nil) {
			return err
		}
		if cur != gen {
			return nil
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, Key(branchCode), payload, c.ttl)
			return nil
		})
		return err
	}, genKey)
	if errors.Is(err, redis.TxFailedErr) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("cache: guardar existencias: %w", err)
	}
	return nil
}

// Invalidate borra las sucursales indicadas y siempre la vista global, e incrementa sus generaciones.
func (c *RedisStockCache) Invalidate(ctx context.Context, branchCodes ...string) error {
	codes := make([]string, 0, len(branchCodes)+1)
	codes = append(codes, "")
	for _, code := range branchCodes {
		if code != "" {
			codes = append(codes, code)
		}
	}
	_, err := c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, code := range codes {
			pipe.Incr(ctx, GenKey(code))
			pipe.Del(ctx, Key(code))
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("cache: invalidar existencias: %w", err)
	}
	return nil
}

// Key devuelve la clave Redis de la proyección de una sucursal ("" = todas).
func Key(branchCode string) string {
	if branchCode == "" {
		return allKey
	}
	return keyPrefix + branchCode
}

// GenKey devuelve la clave de generación de la proyección de una sucursal ("" = todas).
func GenKey(branchCode string) string {
	if branchCode == "" {
		return genPrefix + "*all*"
	}
	return genPrefix + branchCode
}
