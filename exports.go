package cablebill

import "github.com/fibernet/cablebill/types"

// Re-export common types for convenience so users don't have to import types package.

// Amount is re-exported from types package.
type Amount = types.Amount

// Month is re-exported from types package.
type Month = types.Month

// Entity is re-exported from types package.
type Entity = types.Entity

// Re-export Amount constructors
var (
	NewAmount     = types.NewAmount
	AmountFromInt = types.AmountFromInt
	ParseAmount   = types.ParseAmount
	ZeroAmount    = types.ZeroAmount
	SumAmounts    = types.SumAmounts
)

// Re-export Month constructors
var (
	ParseMonth     = types.ParseMonth
	MustParseMonth = types.MustParseMonth
	MonthOf        = types.MonthOf
)

// Re-export Entity constructor
var NewEntity = types.NewEntity
