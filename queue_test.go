package shoveler

import (
	"path"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// TestQueueInsert makes sure entries come back in insertion order
func TestQueueInsert(t *testing.T) {
	queuePath := path.Join(t.TempDir(), "shoveler-queue")
	queue := NewConfirmationQueue(queuePath)
	defer func(queue *ConfirmationQueue) {
		err := queue.Close()
		if err != nil {
			assert.NoError(t, err)
		}
	}(queue)
	queue.Enqueue([]byte("test1"))
	queue.Enqueue([]byte("test2"))
	msg, err := queue.Dequeue()
	assert.NoError(t, err)
	assert.Equal(t, []byte("test1"), msg)

	msg, err = queue.Dequeue()
	assert.NoError(t, err)
	assert.Equal(t, []byte("test2"), msg)
}

// TestQueueEmptyDequeue Make sure the queue stalls on a second dequeue
func TestQueueEmptyDequeue(t *testing.T) {
	queuePath := path.Join(t.TempDir(), "shoveler-queue")
	queue := NewConfirmationQueue(queuePath)
	queue.Enqueue([]byte("test1"))
	defer func(queue *ConfirmationQueue) {
		err := queue.Close()
		if err != nil {
			assert.NoError(t, err)
		}
	}(queue)
	msg, err := queue.Dequeue()
	assert.NoError(t, err)
	assert.Equal(t, []byte("test1"), msg)
	doneChan := make(chan bool)
	go func() {
		_, err := queue.Dequeue()
		assert.NoError(t, err)
		doneChan <- true
	}()
	select {
	case <-doneChan:
		assert.Fail(t, "Dequeue Returned before expected")
	case <-time.After(100 * time.Millisecond):
	}

	queue.Enqueue([]byte("test1"))
	select {
	case <-doneChan:
	case <-time.After(100 * time.Millisecond):
		assert.Fail(t, "Dequeue did not return as expected")
	}
}

// TestQueueSpillsToDisk adds more entries than the in-memory bound and makes
// sure they come back in order
func TestQueueSpillsToDisk(t *testing.T) {
	queuePath := path.Join(t.TempDir(), "shoveler-queue")
	queue := NewConfirmationQueue(queuePath)
	defer func(queue *ConfirmationQueue) {
		err := queue.Close()
		if err != nil {
			assert.NoError(t, err)
		}
	}(queue)
	total := MaxInMemory*3 + 7
	for i := 1; i <= total; i++ {
		msgString := "test." + strconv.Itoa(i)
		queue.Enqueue([]byte(msgString))
	}

	assert.Equal(t, total, queue.Size())
	for i := 1; i <= total; i++ {
		msgString := "test." + strconv.Itoa(i)
		msg, err := queue.Dequeue()
		assert.NoError(t, err)
		assert.Equal(t, msgString, string(msg))
	}
	assert.Equal(t, 0, queue.Size())
}
