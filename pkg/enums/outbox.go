package enums

// OutboxEventType names domain events queued for publication.
type OutboxEventType string

const (
	EventOrderCreated      OutboxEventType = "order.created"
	EventOrderConfirmed    OutboxEventType = "order.confirmed"
	EventPaymentCompleted  OutboxEventType = "payment.completed"
	EventPaymentRefunded   OutboxEventType = "payment.refunded"
	EventPreOrderFulfilled OutboxEventType = "preorder.fulfilled"
)

// OutboxAggregateType names the aggregate an outbox event belongs to.
type OutboxAggregateType string

const (
	AggregateOrder    OutboxAggregateType = "order"
	AggregatePayment  OutboxAggregateType = "payment"
	AggregatePreOrder OutboxAggregateType = "pre_order"
)
