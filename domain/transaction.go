package domain

import "time"

type TransactionKind string

const (
	KindIncome  TransactionKind = "income"
	KindExpense TransactionKind = "expense"
)

func (k TransactionKind) Valid() bool {
	return k == KindIncome || k == KindExpense
}

type Transaction struct {
	ID          string          `json:"id"`
	UserID      string          `json:"userId"`
	Kind        TransactionKind `json:"kind"`
	Title       string          `json:"title"`
	Amount      float64         `json:"amount"`
	Category    string          `json:"category"`
	Date        time.Time       `json:"date"`
	Description string          `json:"description,omitempty"`
	CreatedAt   time.Time       `json:"createdAt"`
	UpdatedAt   time.Time       `json:"updatedAt"`
}

// CategoryTotal is one row of an income or expense summary. The JSON shape
// matches what the dashboard charts read (nameKey "_id", dataKey "total").
type CategoryTotal struct {
	Category string  `json:"_id"`
	Total    float64 `json:"total"`
	Count    int     `json:"count"`
}
