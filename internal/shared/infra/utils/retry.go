package utils

import (
	"context"
	"time"
)

// RetryBackoff ejecuta una función con reintentos y backoff exponencial.
// La espera tras el intento i es base * 2^i. Devuelve el último error
// si se agotan los intentos, o ctx.Err() si el contexto se cancela.
func RetryBackoff(ctx context.Context, attempts int, base time.Duration, fn func() error) error {
	var err error
	delay := base
	for i := 0; i < attempts; i++ {
		err = fn()
		if err == nil {
			return nil
		}
		if i == attempts-1 {
			break // no esperamos después del último intento
		}

		select {
		case <-time.After(delay):
			delay *= 2
		case <-ctx.Done():
			return ctx.Err() // contexto cancelado
		}
	}
	return err
}
