package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bsm/redislock"
	redis "github.com/redis/go-redis/v9"

	"github.com/jhoicas/farmacia-api/internal/domain"
)

// Locker serializa tareas de mantenimiento entre procesos (p. ej. la conciliación nocturna).
type Locker struct {
	locker *redislock.Client
}

// NewLocker construye el locker sobre el cliente Redis.
func NewLocker(client *redis.Client) *Locker {
	return &Locker{locker: redislock.New(client)}
}

// RunExclusive ejecuta fn solo si obtiene el lock "lock:<name>"; si otro proceso lo tiene devuelve domain.ErrBusy.
// El lock se libera al terminar fn aunque falle.
func (l *Locker) RunExclusive(ctx context.Context, name string, ttl time.Duration, fn func(ctx context.Context) error) error {
	lock, err := l.locker.Obtain(ctx, "lock:"+name, ttl, nil)
	if errors.Is(err, redislock.ErrNotObtained) {
		return fmt.Errorf("%w: %s en curso en otro proceso", domain.ErrBusy, name)
	}
	if err != nil {
		return fmt.Errorf("cache: obtener lock %s: %w", name, err)
	}
	defer func() {
		_ = lock.Release(context.WithoutCancel(ctx))
	}()
	return fn(ctx)
}
