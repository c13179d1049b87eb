package exchange

// PositionSide represents the position side for futures trading
type PositionSide string

const (
	PositionSideBoth  PositionSide = "BOTH"  // One-way mode
	PositionSideLong  PositionSide = "LONG"  // Hedge mode long
	PositionSideShort PositionSide = "SHORT" // Hedge mode short
)

// OrderType represents order types for futures
type OrderType string

const (
	OrderTypeLimit            OrderType = "LIMIT"
	OrderTypeMarket           OrderType = "MARKET"
	OrderTypeStop             OrderType = "STOP"
	OrderTypeStopMarket       OrderType = "STOP_MARKET"
	OrderTypeTakeProfit       OrderType = "TAKE_PROFIT"
	OrderTypeTakeProfitMarket OrderType = "TAKE_PROFIT_MARKET"
	OrderTypeTrailingStop     OrderType = "TRAILING_STOP_MARKET"
)

// TimeInForce represents order time-in-force options
type TimeInForce string

const (
	TimeInForceGTC TimeInForce = "GTC" // Good Till Cancel
	TimeInForceIOC TimeInForce = "IOC" // Immediate or Cancel
	TimeInForceFOK TimeInForce = "FOK" // Fill or Kill
)

// WorkingType for TP/SL trigger price
type WorkingType string

const (
	WorkingTypeContractPrice WorkingType = "CONTRACT_PRICE"
	WorkingTypeMarkPrice     WorkingType = "MARK_PRICE"
)

// Position represents a futures position from the positionRisk endpoint
type Position struct {
	Symbol           string  `json:"symbol"`
	PositionAmt      float64 `json:"positionAmt,string"`
	EntryPrice       float64 `json:"entryPrice,string"`
	MarkPrice        float64 `json:"markPrice,string"`
	UnrealizedProfit float64 `json:"unRealizedProfit,string"`
	LiquidationPrice float64 `json:"liquidationPrice,string"`
	Leverage         int     `json:"leverage,string"`
	MarginType       string  `json:"marginType"`
	InitialMargin    float64 `json:"initialMargin,string"`
	IsolatedMargin   float64 `json:"isolatedMargin,string"`
	PositionSide     string  `json:"positionSide"`
	Notional         float64 `json:"notional,string"`
	UpdateTime       int64   `json:"updateTime"`
}

// Order represents an open futures order
type Order struct {
	OrderId       int64   `json:"orderId"`
	Symbol        string  `json:"symbol"`
	Status        string  `json:"status"`
	ClientOrderId string  `json:"clientOrderId"`
	Price         float64 `json:"price,string"`
	AvgPrice      float64 `json:"avgPrice,string"`
	OrigQty       float64 `json:"origQty,string"`
	ExecutedQty   float64 `json:"executedQty,string"`
	Type          string  `json:"type"`
	ReduceOnly    bool    `json:"reduceOnly"`
	ClosePosition bool    `json:"closePosition"`
	Side          string  `json:"side"`
	PositionSide  string  `json:"positionSide"`
	StopPrice     float64 `json:"stopPrice,string"`
	WorkingType   string  `json:"workingType"`
	Time          int64   `json:"time"`
	UpdateTime    int64   `json:"updateTime"`
}

// OrderParams represents parameters for placing a futures order
type OrderParams struct {
	Symbol           string       `json:"symbol"`
	Side             string       `json:"side"` // BUY or SELL
	PositionSide     PositionSide `json:"positionSide"`
	Type             OrderType    `json:"type"`
	Quantity         float64      `json:"quantity"`
	Price            float64      `json:"price,omitempty"`
	StopPrice        float64      `json:"stopPrice,omitempty"`
	TimeInForce      TimeInForce  `json:"timeInForce,omitempty"`
	ReduceOnly       bool         `json:"reduceOnly,omitempty"`
	ClosePosition    bool         `json:"closePosition,omitempty"`
	WorkingType      WorkingType  `json:"workingType,omitempty"`
	NewClientOrderId string       `json:"newClientOrderId,omitempty"`
}

// OrderResponse represents the response from placing an order
type OrderResponse struct {
	OrderId       int64   `json:"orderId"`
	Symbol        string  `json:"symbol"`
	Status        string  `json:"status"`
	ClientOrderId string  `json:"clientOrderId"`
	Price         float64 `json:"price,string"`
	AvgPrice      float64 `json:"avgPrice,string"`
	OrigQty       float64 `json:"origQty,string"`
	ExecutedQty   float64 `json:"executedQty,string"`
	CumQuote      float64 `json:"cumQuote,string"`
	Type          string  `json:"type"`
	ReduceOnly    bool    `json:"reduceOnly"`
	Side          string  `json:"side"`
	PositionSide  string  `json:"positionSide"`
	UpdateTime    int64   `json:"updateTime"`
}

// AccountInfo represents futures account information
type AccountInfo struct {
	CanTrade                bool    `json:"canTrade"`
	UpdateTime              int64   `json:"updateTime"`
	TotalWalletBalance      float64 `json:"totalWalletBalance,string"`
	TotalUnrealizedProfit   float64 `json:"totalUnrealizedProfit,string"`
	TotalMarginBalance      float64 `json:"totalMarginBalance,string"`
	TotalInitialMargin      float64 `json:"totalInitialMargin,string"`
	TotalMaintMargin        float64 `json:"totalMaintMargin,string"`
	TotalCrossWalletBalance float64 `json:"totalCrossWalletBalance,string"`
	AvailableBalance        float64 `json:"availableBalance,string"`
	MaxWithdrawAmount       float64 `json:"maxWithdrawAmount,string"`
	Assets                  []Asset `json:"assets"`
}

// Asset represents an asset in the futures account
type Asset struct {
	Asset            string  `json:"asset"`
	WalletBalance    float64 `json:"walletBalance,string"`
	UnrealizedProfit float64 `json:"unrealizedProfit,string"`
	MarginBalance    float64 `json:"marginBalance,string"`
	AvailableBalance float64 `json:"availableBalance,string"`
}

// SymbolInfo represents futures symbol information from exchangeInfo
type SymbolInfo struct {
	Symbol            string `json:"symbol"`
	ContractType      string `json:"contractType"`
	Status            string `json:"status"`
	BaseAsset         string `json:"baseAsset"`
	QuoteAsset        string `json:"quoteAsset"`
	PricePrecision    int    `json:"pricePrecision"`
	QuantityPrecision int    `json:"quantityPrecision"`
}

// ExchangeInfo represents futures exchange information
type ExchangeInfo struct {
	ServerTime int64        `json:"serverTime"`
	Symbols    []SymbolInfo `json:"symbols"`
	Timezone   string       `json:"timezone"`
}
