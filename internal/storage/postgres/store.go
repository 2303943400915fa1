package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"quoteScope/internal/model"
)

// Store provides Postgres persistence for quote records.
type Store struct {
	pool *pgxpool.Pool
}

func NewStore(ctx context.Context, dsn string) (*Store, error) {
	if dsn == "" {
		return nil, fmt.Errorf("pg dsn is required")
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, err
	}
	return &Store{pool: pool}, nil
}

func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// PutQuoteBatch satisfies the storage sink interface.
func (s *Store) PutQuoteBatch(quotes []model.QuoteRecord) error {
	return s.InsertQuotes(context.Background(), quotes)
}

// InsertQuotes appends quote records.
func (s *Store) InsertQuotes(ctx context.Context, quotes []model.QuoteRecord) error {
	if len(quotes) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, quote := range quotes {
		batch.Queue(`
			INSERT INTO quotes (
				chain_id, pool_address, token_in, token_out, amount_in, amount_out,
				fee_ppm, sqrt_price_x96, tick, block_number, quoted_at, created_at
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, now())
		`,
			int64(quote.ChainID),
			quote.Pool,
			quote.TokenIn,
			quote.TokenOut,
			quote.AmountIn,
			quote.AmountOut,
			quote.FeePpm,
			quote.SqrtPriceX96,
			quote.Tick,
			int64(quote.BlockNumber),
			quote.QuotedAt,
		)
	}

	br := s.pool.SendBatch(ctx, batch)
	defer br.Close()

	for range quotes {
		if _, err := br.Exec(); err != nil {
			return err
		}
	}
	return nil
}
