package testutil

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"testing"
	"time"
)

// MockNATSClient is an in-memory NATS client with the Subscribe and Publish
// signatures of natsclient.Client. Publish delivers synchronously to every
// handler subscribed to the exact subject.
type MockNATSClient struct {
	mu            sync.RWMutex
	messages      map[string][][]byte
	subscriptions map[string][]func(context.Context, []byte)
	publishErr    error
}

// NewMockNATSClient creates a new mock NATS client.
func NewMockNATSClient() *MockNATSClient {
	return &MockNATSClient{
		messages:      make(map[string][][]byte),
		subscriptions: make(map[string][]func(context.Context, []byte)),
	}
}

// Publish publishes a message to a subject (matches natsclient.Client signature).
func (c *MockNATSClient) Publish(ctx context.Context, subject string, data []byte) error {
	c.mu.Lock()
	if c.publishErr != nil {
		err := c.publishErr
		c.mu.Unlock()
		return err
	}

	c.messages[subject] = append(c.messages[subject], data)
	handlers := append([]func(context.Context, []byte){}, c.subscriptions[subject]...)
	c.mu.Unlock()

	// same per-message deadline as natsclient.Client
	for _, handler := range handlers {
		msgCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
		handler(msgCtx, data)
		cancel()
	}

	return nil
}

// FailPublish makes Publish return err until called again with nil.
func (c *MockNATSClient) FailPublish(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.publishErr = err
}

// Subscribe creates a subscription to a subject (matches natsclient.Client signature).
func (c *MockNATSClient) Subscribe(ctx context.Context, subject string, handler func(context.Context, []byte)) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.subscriptions[subject] = append(c.subscriptions[subject], handler)
	return nil
}

// GetMessages returns a copy of everything published on subject.
func (c *MockNATSClient) GetMessages(subject string) [][]byte {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.messages[subject] == nil {
		return nil
	}
	return append([][]byte(nil), c.messages[subject]...)
}

// GetMessageCount returns the number of messages on a subject.
func (c *MockNATSClient) GetMessageCount(subject string) int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.messages[subject])
}

// MockKVStore is an in-memory stand-in for natsclient.KVStore. Revisions
// start at 1 and grow with every write.
type MockKVStore struct {
	mu       sync.RWMutex
	data     map[string][]byte
	revision uint64
	err      error
}

// NewMockKVStore creates a new mock KV store.
func NewMockKVStore() *MockKVStore {
	return &MockKVStore{
		data: make(map[string][]byte),
	}
}

// FailWith makes every following operation return err. Pass nil to recover.
func (kv *MockKVStore) FailWith(err error) {
	kv.mu.Lock()
	defer kv.mu.Unlock()
	kv.err = err
}

// Put stores a value and returns its revision.
func (kv *MockKVStore) Put(ctx context.Context, key string, value []byte) (uint64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	kv.mu.Lock()
	defer kv.mu.Unlock()
	if kv.err != nil {
		return 0, kv.err
	}
	stored := make([]byte, len(value))
	copy(stored, value)
	kv.data[key] = stored
	kv.revision++
	return kv.revision, nil
}

// PutJSON marshals v and stores it.
func (kv *MockKVStore) PutJSON(ctx context.Context, key string, v any) (uint64, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return 0, err
	}
	return kv.Put(ctx, key, data)
}

// Get retrieves a copy of the value stored under key.
func (kv *MockKVStore) Get(ctx context.Context, key string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	kv.mu.RLock()
	defer kv.mu.RUnlock()
	if kv.err != nil {
		return nil, kv.err
	}
	val, ok := kv.data[key]
	if !ok {
		return nil, fmt.Errorf("key not found: %s", key)
	}
	result := make([]byte, len(val))
	copy(result, val)
	return result, nil
}

// Delete removes a key.
func (kv *MockKVStore) Delete(_ context.Context, key string) error {
	kv.mu.Lock()
	defer kv.mu.Unlock()
	if kv.err != nil {
		return kv.err
	}
	delete(kv.data, key)
	return nil
}

// Keys returns all keys in sorted order.
func (kv *MockKVStore) Keys() []string {
	kv.mu.RLock()
	defer kv.mu.RUnlock()

	keys := make([]string, 0, len(kv.data))
	for k := range kv.data {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// AssertMessageReceived checks that a message was received on a subject.
func AssertMessageReceived(t *testing.T, client *MockNATSClient, subject string) {
	t.Helper()

	messages := client.GetMessages(subject)
	if len(messages) == 0 {
		t.Fatalf("expected message on subject %s, got none", subject)
	}
}

// AssertNoMessages checks that no messages were received on a subject.
func AssertNoMessages(t *testing.T, client *MockNATSClient, subject string) {
	t.Helper()

	messages := client.GetMessages(subject)
	if len(messages) > 0 {
		t.Fatalf("expected no messages on subject %s, got %d", subject, len(messages))
	}
}
