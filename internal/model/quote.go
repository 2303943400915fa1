package model

// QuoteRecord is one simulated swap quote for storage.
type QuoteRecord struct {
	ChainID      uint64 `json:"chain_id"`
	Pool         string `json:"pool"`
	TokenIn      string `json:"token_in"`
	TokenOut     string `json:"token_out"`
	AmountIn     string `json:"amount_in"`
	AmountOut    string `json:"amount_out"`
	FeePpm       uint32 `json:"fee_ppm"`
	SqrtPriceX96 string `json:"sqrt_price_x96"`
	Tick         int32  `json:"tick"`
	BlockNumber  uint64 `json:"block_number"`
	QuotedAt     string `json:"quoted_at"`
}
