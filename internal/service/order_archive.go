package service

import (
	"context"
	"errors"
	"fmt"

	"pharmago/internal/checkout"
	"pharmago/internal/docstore"
	"pharmago/internal/model"

	"github.com/rs/zerolog"
)

// orderArchive keeps placed orders in the document store's orders collection,
// one document per order ID.
type orderArchive struct {
	docs   docstore.Store
	logger zerolog.Logger
}

// NewOrderArchive creates the archive that checkout reserves order IDs in.
func NewOrderArchive(docs docstore.Store, logger zerolog.Logger) checkout.Archive {
	return &orderArchive{
		docs:   docs,
		logger: logger.With().Str("component", "order-archive").Logger(),
	}
}

// Create stores o under its ID. A taken ID is reported as model.ErrOrderExists.
func (a *orderArchive) Create(ctx context.Context, o model.Order) error {
	doc, err := docstore.Encode(o)
	if err != nil {
		return fmt.Errorf("failed to encode order for archive: %w", err)
	}

	if _, err := a.docs.Create(ctx, OrdersCollection, doc); err != nil {
		if errors.Is(err, model.ErrDocumentExists) {
			a.logger.Warn().Str("order_id", o.ID).Str("user_id", o.UserID).Msg("order ID already archived")
			return model.ErrOrderExists
		}
		return err
	}

	a.logger.Debug().Str("order_id", o.ID).Msg("order archived")

	return nil
}
