package mongo

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/mongo"

	"github.com/dicegame/dice-api/internal/core/domain"
)

// classify wraps a driver error for op. Timeouts, network failures and a
// closed client become domain.ErrStoreUnavailable; the cause stays in the
// chain for logging.
func classify(op string, err error) error {
	if err == nil {
		return nil
	}
	if mongo.IsTimeout(err) ||
		mongo.IsNetworkError(err) ||
		errors.Is(err, mongo.ErrClientDisconnected) ||
		errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%s: %w: %w", op, domain.ErrStoreUnavailable, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}
