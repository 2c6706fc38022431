package connectors

import (
	shoveler "github.com/dbarchive/myisam-shoveler"
)

// QueueConnector writes record envelopes to the confirmation queue feeding
// the bus publishers
type QueueConnector struct {
	queue *shoveler.ConfirmationQueue
}

// NewQueueConnector creates a new queue output connector
func NewQueueConnector(queue *shoveler.ConfirmationQueue) *QueueConnector {
	return &QueueConnector{
		queue: queue,
	}
}

// Write enqueues one envelope
func (qc *QueueConnector) Write(data []byte) error {
	qc.queue.Enqueue(data)
	return nil
}

// Close closes the queue
func (qc *QueueConnector) Close() error {
	return qc.queue.Close()
}

// Sync is a no-op for queue connector
func (qc *QueueConnector) Sync() error {
	return nil
}
