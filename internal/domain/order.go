package domain

// OrderType identifies how an order is matched against an OHLC tick.
type OrderType int

// Order types.
const (
	OrderTypeMarket OrderType = iota
	OrderTypeStop
	OrderTypeLimit
)

// String returns the CSV-stable name of the order type.
func (t OrderType) String() string {
	switch t {
	case OrderTypeMarket:
		return "MARKET"
	case OrderTypeStop:
		return "STOP"
	case OrderTypeLimit:
		return "LIMIT"
	default:
		return "UNKNOWN"
	}
}

// OrderSide is the direction of an order.
type OrderSide int

// Order sides.
const (
	OrderSideBuy OrderSide = iota
	OrderSideSell
)

// String returns the CSV-stable name of the order side.
func (s OrderSide) String() string {
	if s == OrderSideBuy {
		return "BUY"
	}
	return "SELL"
}

// OrderAmount is a tagged amount denominated either in the base currency
// or in the quote currency. Keeping the denomination explicit prevents a
// quote-denominated request from being silently traded as a base amount.
type OrderAmount struct {
	value  float64
	isBase bool
}

// BaseAmount returns an amount of base currency to buy or sell.
func BaseAmount(v float64) OrderAmount {
	return OrderAmount{value: v, isBase: true}
}

// QuoteAmount returns the maximum amount of quote currency to spend when
// buying (or to receive when selling) the base currency. The actual
// traded amount can be smaller due to fees and denomination rounding.
func QuoteAmount(v float64) OrderAmount {
	return OrderAmount{value: v, isBase: false}
}

// IsBase reports whether the amount is denominated in the base currency.
func (a OrderAmount) IsBase() bool { return a.isBase }

// Value returns the raw amount in its denomination.
func (a OrderAmount) Value() float64 { return a.value }

// String returns the CSV-stable name of the denomination.
func (a OrderAmount) String() string {
	if a.isBase {
		return "BASE"
	}
	return "QUOTE"
}

// Order is a single instruction emitted by a trade simulator. The
// exchange executes (or cancels) it on the next OHLC tick only; no order
// stays pending across more than one tick.
type Order struct {
	Type   OrderType
	Side   OrderSide
	Amount OrderAmount
	// Stop / limit price. Ignored for market orders.
	Price float64
}

// IsValid reports whether the order satisfies the execution contract:
// a positive price for non-market orders and a positive amount.
// Executing an invalid order is a caller bug, not a data condition.
func (o Order) IsValid() bool {
	return (o.Type == OrderTypeMarket || o.Price > 0) && o.Amount.Value() > 0
}
