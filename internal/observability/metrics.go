package observability

// Keys of the instruments registered at startup. Use cases and workers look them up by key,
// so an unregistered key silently resolves to a no-op instrument.
const (
	MUsecaseRequests         MetricKey = "usecase_requests_total"
	MUsecaseDuration         MetricKey = "usecase_duration_seconds"
	MHTTPRequests            MetricKey = "http_requests_total"
	MHTTPRequestDuration     MetricKey = "http_request_duration_seconds"
	MExternalRequests        MetricKey = "external_requests_total"
	MExternalRequestDuration MetricKey = "external_request_duration_seconds"

	MEventsHandled MetricKey = "events_handled_total" // {event,outcome}

	MOrdersPlaced     MetricKey = "orders_placed_total"             // {customer}
	MOrdersPaid       MetricKey = "orders_paid_total"               // {source}
	MRevenuePaid      MetricKey = "revenue_paid_total"              // {source}
	MStockReleased    MetricKey = "stock_released_total"            // {outcome}
	MWebhookEvents    MetricKey = "payment_webhook_events_total"    // {type,outcome}
	MReconcileResults MetricKey = "payment_reconcile_results_total" // {outcome}
)
