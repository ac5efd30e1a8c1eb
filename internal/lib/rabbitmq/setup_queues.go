package rabbitmq

// QueueConfig pairs a queue with the routing key that feeds it.
type QueueConfig struct {
	QueueName  string
	RoutingKey string
}

// GetNotificationQueues lists the queues consumed by the
// notification-sender.
func GetNotificationQueues() []QueueConfig {
	return []QueueConfig{
		{QueueName: "notification.payment", RoutingKey: "payment"},
		{QueueName: "notification.raffle", RoutingKey: "raffle"},
	}
}
