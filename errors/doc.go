// Package errors provides the error classification used across the meter
// service.
//
// # Classes
//
// Every error that crosses a package boundary falls into one of three classes:
//
//   - Transient: NATS timeouts, lost connections, an open circuit breaker.
//     Callers may retry.
//   - Invalid: a telegram that matches no definition, a field that does not
//     decode, a malformed profile document. The input is dropped; retrying
//     does not help.
//   - Fatal: an unknown profile id or a broken application config. The
//     process should stop.
//
// # Wrapping
//
// Errors are wrapped with the "component.method: action failed: %w" format:
//
//	return errors.WrapInvalid(err, "Engine", "Process", "decode record")
//
// The class survives further wrapping with fmt.Errorf and is read back with
// IsTransient, IsInvalid, IsFatal or Classify. Sentinels stay reachable
// through errors.Is because every wrapper implements Unwrap.
//
// # Retry
//
// RetryConfig decides whether an error is worth another attempt and converts
// to pkg/retry's Config:
//
//	cfg := errors.DefaultRetryConfig()
//	err := retry.Do(ctx, cfg.ToRetryConfig(), func() error {
//	    err := client.Connect(ctx)
//	    if err != nil && !errors.IsTransient(err) {
//	        return retry.NonRetryable(err)
//	    }
//	    return err
//	})
package errors
