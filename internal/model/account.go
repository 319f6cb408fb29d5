package model

// Account is a cached view of one ledger address.
type Account struct {
	ID          int64  `json:"id"`
	Address     string `json:"address"`
	DisplayName string `json:"name"`
	// Balance is unit-denominated. It is signed so that a debit of an
	// address that was never seeded stays representable.
	Balance   int64 `json:"balance"`
	CreatedAt int64 `json:"created_at"`
	UpdatedAt int64 `json:"updated_at"`
}

// AccountSeed is one entry of the demo bootstrap set.
type AccountSeed struct {
	Address string `json:"address" mapstructure:"address"`
	Name    string `json:"name" mapstructure:"name"`
	Balance int64  `json:"balance" mapstructure:"balance"`
}
