//go:build integration

package natsclient

import (
	"context"
	"testing"
	"time"

	"github.com/nats-io/nats.go/jetstream"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIntegration_PublishSubscribe(t *testing.T) {
	tc := NewTestClient(t)
	ctx := context.Background()

	received := make(chan []byte, 1)
	require.NoError(t, tc.Client.Subscribe(ctx, "dlms.test", func(_ context.Context, data []byte) {
		received <- data
	}))
	require.NoError(t, tc.Client.Publish(ctx, "dlms.test", []byte("hello")))

	select {
	case data := <-received:
		assert.Equal(t, "hello", string(data))
	case <-time.After(5 * time.Second):
		t.Fatal("message not delivered")
	}

	rtt, err := tc.Client.RTT()
	require.NoError(t, err)
	assert.Positive(t, rtt)
	assert.True(t, tc.Client.IsHealthy())
}

func TestIntegration_StreamPublish(t *testing.T) {
	tc := NewTestClient(t, WithJetStream())
	ctx := context.Background()

	stream, err := tc.Client.CreateStream(ctx, jetstream.StreamConfig{
		Name:     "DLMS_TEST",
		Subjects: []string{"dlms.stream.>"},
	})
	require.NoError(t, err)

	// creating again is an update, not an error
	_, err = tc.Client.CreateStream(ctx, jetstream.StreamConfig{
		Name:     "DLMS_TEST",
		Subjects: []string{"dlms.stream.>"},
	})
	require.NoError(t, err)

	require.NoError(t, tc.Client.PublishToStream(ctx, "dlms.stream.reading", []byte(`{"a":1}`)))

	info, err := stream.Info(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), info.State.Msgs)
}

func TestIntegration_KVStore(t *testing.T) {
	tc := NewTestClient(t, WithKVBuckets("dlms_latest"))
	ctx := context.Background()

	bucket, err := tc.Client.GetKeyValueBucket(ctx, "dlms_latest")
	require.NoError(t, err)
	kv := tc.Client.NewKVStore(bucket)

	_, err = kv.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrKVKeyNotFound)

	rev, err := kv.PutJSON(ctx, "si-sodo-reduxi", map[string]any{"VOLTAGE_L1": 230.1})
	require.NoError(t, err)
	assert.Positive(t, rev)

	entry, err := kv.Get(ctx, "si-sodo-reduxi")
	require.NoError(t, err)
	assert.JSONEq(t, `{"VOLTAGE_L1":230.1}`, string(entry.Value))
	assert.Equal(t, rev, entry.Revision)

	require.NoError(t, kv.Delete(ctx, "si-sodo-reduxi"))

	small := tc.Client.NewKVStore(bucket, func(o *KVOptions) { o.MaxValueSize = 4 })
	_, err = small.Put(ctx, "big", []byte("too large"))
	assert.ErrorIs(t, err, ErrKVValueTooBig)

	// the bucket is reused rather than recreated
	again, err := tc.CreateKVBucket(ctx, "dlms_latest")
	require.NoError(t, err)
	assert.Equal(t, "dlms_latest", again.Bucket())
}

func TestIntegration_GetMissingBucket(t *testing.T) {
	tc := NewTestClient(t, WithJetStream())

	_, err := tc.Client.GetKeyValueBucket(context.Background(), "does_not_exist")
	require.Error(t, err)
	assert.ErrorIs(t, err, jetstream.ErrBucketNotFound)
	assert.Equal(t, int32(0), tc.Client.Failures())
}
