package storage

import "quoteScope/internal/model"

// Storage defines a sink for quote records.
type Storage interface {
	PutQuoteBatch(quotes []model.QuoteRecord) error
}
