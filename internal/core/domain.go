package core

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Kind tells expenses and income apart. The magnitude of a Transaction is
// always positive; only the external JSON form carries a sign.
type Kind string

const (
	KindExpense Kind = "expense"
	KindIncome  Kind = "income"
)

// GoalPeriod is the horizon chosen when a savings goal is created.
type GoalPeriod string

const (
	Period6Months GoalPeriod = "6months"
	Period1Year   GoalPeriod = "1year"
	Period5Years  GoalPeriod = "5years"
)

// InvestmentType is one of the fixed holding classes.
type InvestmentType string

const (
	TypeStocks         InvestmentType = "Stocks"
	TypeBonds          InvestmentType = "Bonds"
	TypeETFs           InvestmentType = "ETFs"
	TypeMutualFunds    InvestmentType = "Mutual Funds"
	TypeRealEstate     InvestmentType = "Real Estate"
	TypeCryptocurrency InvestmentType = "Cryptocurrency"
	TypeCommodities    InvestmentType = "Commodities"
	TypeOther          InvestmentType = "Other"
)

// OtherCategory is shared by both category sets and is the default.
const OtherCategory = "Other"

var (
	ExpenseCategories = []string{
		"Food", "Transportation", "Housing", "Utilities", "Entertainment",
		"Shopping", "Healthcare", "Education", OtherCategory,
	}
	IncomeCategories = []string{
		"Salary", "Freelance", "Investments", "Gifts", OtherCategory,
	}
	InvestmentTypes = []InvestmentType{
		TypeStocks, TypeBonds, TypeETFs, TypeMutualFunds, TypeRealEstate,
		TypeCryptocurrency, TypeCommodities, TypeOther,
	}
)

var (
	// ErrValidation is wrapped by every entity validation failure.
	ErrValidation = errors.New("validation failed")

	ErrEmptyDescription = errors.New("empty description")
	ErrEmptyTitle       = errors.New("empty title")
	ErrEmptyName        = errors.New("empty name")
	ErrInvalidKind      = errors.New("invalid transaction kind")
	ErrInvalidCategory  = errors.New("invalid category")
	ErrInvalidPeriod    = errors.New("invalid goal period")
	ErrInvalidType      = errors.New("invalid investment type")
)

const maxDescription = 200

type (
	Transaction struct {
		ID          int64
		Kind        Kind
		Amount      Money // magnitude, always positive
		Description string
		Category    string
		Date        Date
	}

	// Budgets maps a category to its spending target.
	Budgets map[string]Money

	SavingsGoal struct {
		ID            int64
		Title         string
		TargetAmount  Money
		CurrentAmount Money
		Period        GoalPeriod
		TargetDate    time.Time
		CreatedDate   time.Time
		Description   string
	}

	Investment struct {
		ID            int64
		Name          string
		Type          InvestmentType
		Shares        Quantity
		PurchasePrice Money
		CurrentPrice  Money
		PurchaseDate  Date
		TotalInvested Money
		CurrentValue  Money
	}
)

func invalid(err error) error {
	return fmt.Errorf("%w: %w", ErrValidation, err)
}

// Months returns the length of the period, or 0 for an unknown period.
func (p GoalPeriod) Months() int {
	switch p {
	case Period6Months:
		return 6
	case Period1Year:
		return 12
	case Period5Years:
		return 60
	}
	return 0
}

// TargetFrom returns the deadline for a goal created at t.
func (p GoalPeriod) TargetFrom(t time.Time) time.Time {
	return t.AddDate(0, p.Months(), 0)
}

func (k Kind) Valid() bool { return k == KindExpense || k == KindIncome }

// Categories returns the category set allowed for the kind.
func (k Kind) Categories() []string {
	if k == KindIncome {
		return IncomeCategories
	}
	return ExpenseCategories
}

// IsCategory reports whether c belongs to the category set of kind k.
func IsCategory(k Kind, c string) bool {
	for _, v := range k.Categories() {
		if v == c {
			return true
		}
	}
	return false
}

func (t InvestmentType) Valid() bool {
	for _, v := range InvestmentTypes {
		if v == t {
			return true
		}
	}
	return false
}

// Signed returns the amount with the external sign convention applied:
// positive for expenses, negative for income.
func (t Transaction) Signed() Money {
	if t.Kind == KindIncome {
		return t.Amount.Neg()
	}
	return t.Amount
}

// IsExpense reports whether the transaction counts towards spending.
func (t Transaction) IsExpense() bool { return t.Kind == KindExpense }

// FromSigned sets kind and magnitude from a signed amount.
func (t *Transaction) FromSigned(amount Money) error {
	switch {
	case amount.IsPositive():
		t.Kind, t.Amount = KindExpense, amount
	case amount.IsNegative():
		t.Kind, t.Amount = KindIncome, amount.Abs()
	default:
		return ErrInvalidAmount
	}
	return nil
}

func (t Transaction) Validate() error {
	if !t.Kind.Valid() {
		return invalid(ErrInvalidKind)
	}
	if !t.Amount.IsPositive() || !t.Amount.InRange() {
		return invalid(ErrInvalidAmount)
	}
	if strings.TrimSpace(t.Description) == "" {
		return invalid(ErrEmptyDescription)
	}
	if len(t.Description) > maxDescription {
		return invalid(fmt.Errorf("description too long (max %d characters)", maxDescription))
	}
	if strings.TrimSpace(t.Category) == "" {
		return invalid(ErrInvalidCategory)
	}
	if err := t.Date.Validate(); err != nil {
		return invalid(err)
	}
	return nil
}

// Validate rejects negative targets. A zero target is allowed and simply
// means the category is tracked without a limit.
func (b Budgets) Validate() error {
	for c, v := range b {
		if strings.TrimSpace(c) == "" {
			return invalid(ErrInvalidCategory)
		}
		if v.IsNegative() || !v.InRange() {
			return invalid(fmt.Errorf("budget %q: %w", c, ErrInvalidAmount))
		}
	}
	return nil
}

// Clone returns an independent copy.
func (b Budgets) Clone() Budgets {
	out := make(Budgets, len(b))
	for k, v := range b {
		out[k] = v
	}
	return out
}

func (g SavingsGoal) Validate() error {
	if strings.TrimSpace(g.Title) == "" {
		return invalid(ErrEmptyTitle)
	}
	if !g.TargetAmount.IsPositive() || !g.TargetAmount.InRange() {
		return invalid(fmt.Errorf("target amount: %w", ErrInvalidAmount))
	}
	if g.CurrentAmount.IsNegative() || !g.CurrentAmount.InRange() {
		return invalid(fmt.Errorf("current amount: %w", ErrInvalidAmount))
	}
	if g.TargetDate.IsZero() {
		return invalid(fmt.Errorf("target date: %w", ErrInvalidDate))
	}
	return nil
}

// Recompute derives TotalInvested and CurrentValue from shares and prices.
func (i *Investment) Recompute() {
	i.TotalInvested = i.PurchasePrice.Mul(i.Shares)
	i.CurrentValue = i.CurrentPrice.Mul(i.Shares)
}

// GainLoss is CurrentValue − TotalInvested.
func (i Investment) GainLoss() Money { return i.CurrentValue.Sub(i.TotalInvested) }

func (i Investment) Validate() error {
	if strings.TrimSpace(i.Name) == "" {
		return invalid(ErrEmptyName)
	}
	if !i.Type.Valid() {
		return invalid(ErrInvalidType)
	}
	if !i.Shares.IsPositive() || !i.Shares.InRange() {
		return invalid(fmt.Errorf("shares: %w", ErrInvalidNumber))
	}
	if !i.PurchasePrice.IsPositive() || !i.PurchasePrice.InRange() {
		return invalid(fmt.Errorf("purchase price: %w", ErrInvalidAmount))
	}
	if !i.CurrentPrice.IsPositive() || !i.CurrentPrice.InRange() {
		return invalid(fmt.Errorf("current price: %w", ErrInvalidAmount))
	}
	if err := i.PurchaseDate.Validate(); err != nil {
		return invalid(err)
	}
	return nil
}
