package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/xaenox/memo-bridge/internal/models"
)

var ErrInvalidPage = errors.New("limit and offset must not be negative")

// Storage is the local journal of exchanges. Entries are only appended.
type Storage interface {
	SaveExchange(ctx context.Context, ex *models.Exchange) error
	// RecentExchanges returns the newest exchanges first. A negative limit
	// or offset fails with ErrInvalidPage.
	RecentExchanges(ctx context.Context, limit, offset int) ([]*models.Exchange, error)
	// Categories returns every distinct category in first-use order.
	Categories(ctx context.Context) ([]string, error)
	Close() error
}

func checkPage(limit, offset int) error {
	if limit < 0 || offset < 0 {
		return fmt.Errorf("%w: limit=%d offset=%d", ErrInvalidPage, limit, offset)
	}
	return nil
}
