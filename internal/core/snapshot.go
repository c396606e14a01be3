package core

// Snapshot is an immutable copy of the four ledger collections at one store
// version. Readers may keep it as long as they like.
type Snapshot struct {
	Version      uint64
	Transactions []Transaction
	Budgets      Budgets
	Goals        []SavingsGoal
	Investments  []Investment
}

// Expenses returns the expense transactions in input order.
func (s Snapshot) Expenses() []Transaction {
	out := make([]Transaction, 0, len(s.Transactions))
	for _, t := range s.Transactions {
		if t.IsExpense() {
			out = append(out, t)
		}
	}
	return out
}
