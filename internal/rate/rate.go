// Package rate implementa un rate limiter de ventana fija sobre el cache.
// Con backend Redis el límite es compartido entre instancias.
package rate

import (
	"context"
	"time"

	"github.com/dropDatabas3/idmanager/internal/cache"
)

// Result contiene el resultado de una consulta al rate limiter.
type Result struct {
	Allowed     bool
	Remaining   int64
	RetryAfter  time.Duration
	WindowTTL   time.Duration
	CurrentHits int64
}

// Limiter limita requests por clave en ventanas fijas.
type Limiter struct {
	cache  cache.Client
	limit  int64
	window time.Duration
	prefix string
}

// NewLimiter crea un Limiter. limit es el máximo de hits por ventana.
func NewLimiter(c cache.Client, limit int, window time.Duration) *Limiter {
	if window <= 0 {
		window = time.Minute
	}
	return &Limiter{
		cache:  c,
		limit:  int64(limit),
		window: window,
		prefix: "rate",
	}
}

// Allow registra un hit para la clave y reporta si el request procede.
func (l *Limiter) Allow(ctx context.Context, key string) (Result, error) {
	if l.limit <= 0 {
		return Result{Allowed: true, Remaining: -1}, nil
	}

	hits, err := l.cache.Increment(ctx, l.prefix+":"+key, l.window)
	if err != nil {
		return Result{}, err
	}

	res := Result{
		CurrentHits: hits,
		WindowTTL:   l.window,
		Allowed:     hits <= l.limit,
	}
	if res.Allowed {
		res.Remaining = l.limit - hits
	} else {
		res.RetryAfter = l.window
	}
	return res, nil
}
