package catalog

import "time"

// StockReleasedEvent is emitted after a cancelled order's stock went back on the shelf.
type StockReleasedEvent struct {
	OrderID    string
	Lines      []StockLine
	OccurredAt time.Time
}

func (StockReleasedEvent) EventName() string { return "inventory.stock_released" }
func (e StockReleasedEvent) AggregateID() string { return e.OrderID }

func NewStockReleasedEvent(orderID string, lines []StockLine) StockReleasedEvent {
	return StockReleasedEvent{
		OrderID:    orderID,
		Lines:      append([]StockLine(nil), lines...),
		OccurredAt: time.Now().UTC(),
	}
}
