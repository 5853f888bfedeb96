// Package retry provides exponential backoff retry logic for transient failures.
//
// The meter service uses it for the initial NATS connection, where the broker
// may still be starting when the service comes up:
//
//	err := retry.Do(ctx, retry.Quick(), func() error {
//	    return client.Connect(ctx)
//	})
//
// Wrap an error with NonRetryable to end the loop early, for example when the
// failure is a configuration problem rather than an unavailable server.
package retry
