package natsclient

import "github.com/nats-io/nats.go/jetstream"

func jetstreamBucket(name string) jetstream.KeyValueConfig {
	return jetstream.KeyValueConfig{Bucket: name}
}
