package exchange

// Client is the futures exchange API surface consumed by the rest of the
// app. HTTPClient is the real implementation; tests substitute doubles.
type Client interface {
	GetPositionRisk(symbol string) ([]Position, error)
	GetOpenOrders(symbol string) ([]Order, error)
	PlaceOrder(params OrderParams) (*OrderResponse, error)
	GetAccountInfo() (*AccountInfo, error)
	GetExchangeInfo() (*ExchangeInfo, error)
}

var _ Client = (*HTTPClient)(nil)
