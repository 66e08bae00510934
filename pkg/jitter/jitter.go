// Package jitter предоставляет утилиты для добавления случайности в интервалы отступления (backoff),
// чтобы повторные запросы многих клиентов к каталогу не приходили одновременно.
package jitter

import (
	"math/rand/v2"
	"time"
)

// DefaultJitter - стандартный коэффициент джиттера (50%)
const DefaultJitter = 0.5

// Duration возвращает продолжительность с применённым джиттером.
// Результат находится в диапазоне [d, d*(1+jitterFactor)].
func Duration(d time.Duration, jitterFactor float64) time.Duration {
	if d <= 0 || jitterFactor <= 0 {
		return d
	}
	return d + time.Duration(rand.Float64()*jitterFactor*float64(d))
}

// ExponentialBackoff вычисляет экспоненциальное отступление с джиттером.
// base - начальная длительность, max - верхняя граница без учёта джиттера,
// attempt - номер попытки (с нуля).
func ExponentialBackoff(base, max time.Duration, attempt int, jitterFactor float64) time.Duration {
	return Duration(Backoff(base, max, attempt), jitterFactor)
}

// Backoff - детерминированная часть ExponentialBackoff: base*2^attempt, но не больше max.
func Backoff(base, max time.Duration, attempt int) time.Duration {
	backoff := base
	for i := 0; i < attempt; i++ {
		backoff *= 2
		if backoff > max {
			return max
		}
	}
	return backoff
}
