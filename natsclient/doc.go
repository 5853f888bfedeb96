// Package natsclient wraps a NATS connection with a circuit breaker and the
// JetStream helpers the telegram processor needs.
//
// A Client counts consecutive failures. Once the configured threshold is
// reached the circuit opens and every call returns ErrCircuitOpen until the
// backoff elapses; the backoff doubles up to the configured maximum each time
// the circuit opens again.
//
//	client, err := natsclient.NewClient("nats://localhost:4222",
//		natsclient.WithLogger(logger),
//		natsclient.WithMetrics(registry.CoreMetrics()),
//	)
//	if err != nil {
//		return err
//	}
//	if err := client.Connect(ctx); err != nil {
//		return err
//	}
//	defer client.Close(context.Background())
//
// KVStore adds timeouts, a value size limit and not-found mapping on top of
// a JetStream bucket. TestClient starts a throwaway server with
// testcontainers for integration tests.
package natsclient
