package payment

// Order is the record handed to the broker for fulfilment. It is never stored by
// this service.
type Order struct {
	OrderID string `json:"orderid"`
	User    string `json:"user"`
	Cart    Cart   `json:"cart"`
}

func NewOrder(id, user string, cart Cart) Order {
	return Order{OrderID: id, User: user, Cart: cart}
}

// HistoryEntry is the body posted to the user's order history.
type HistoryEntry struct {
	OrderID string `json:"orderid"`
	Cart    Cart   `json:"cart"`
}

func (o Order) HistoryEntry() HistoryEntry {
	return HistoryEntry{OrderID: o.OrderID, Cart: o.Cart}
}
