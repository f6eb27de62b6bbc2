package model

import "time"

// TransactionType classifies a ledger transaction.
type TransactionType string

const (
	TypeDonation TransactionType = "DONATION"
	TypeExpense  TransactionType = "EXPENSE"
)

// Transaction is a single money movement on a group. Rows are append-only.
type Transaction struct {
	ID                       uint            `gorm:"primaryKey"`
	Type                     TransactionType `gorm:"size:16;index"`
	UserID                   uint            `gorm:"index"`
	GroupID                  uint            `gorm:"index"`
	Currency                 string          `gorm:"size:3"`
	NetAmountInGroupCurrency int64           // cents
	HostFeeInTxnCurrency     int64           // cents
	CreatedAt                time.Time       `gorm:"index"`
}

// CurrencySum is the sum of one attribute over the transactions of a single currency.
type CurrencySum struct {
	Currency string `json:"currency" yaml:"currency"`
	Amount   int64  `json:"amount" yaml:"amount"` // cents
}

// AggregateResult carries per-currency sums and their total converted to the host currency.
type AggregateResult struct {
	ByCurrency          []CurrencySum `json:"byCurrency" yaml:"by_currency"`
	TotalInHostCurrency int64         `json:"totalInHostCurrency" yaml:"total_in_host_currency"`
}

// BackerStats splits the donors of a period into repeat, new and inactive.
// Total == Repeat + New + Inactive.
type BackerStats struct {
	Total    int `json:"total" yaml:"total"`
	Repeat   int `json:"repeat" yaml:"repeat"`
	New      int `json:"new" yaml:"new"`
	Inactive int `json:"inactive" yaml:"inactive"`
}
