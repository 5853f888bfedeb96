package component

import "fmt"

// Direction for data flow
type Direction string

// Direction constants for port data flow
const (
	DirectionInput  Direction = "input"
	DirectionOutput Direction = "output"
)

// Port describes one input or output of a component
type Port struct {
	Name        string    `json:"name"`
	Direction   Direction `json:"direction"`
	Required    bool      `json:"required"`
	Description string    `json:"description"`
	Config      Portable  `json:"config"`
}

// Portable is implemented by every port configuration
type Portable interface {
	ResourceID() string // unique identifier for conflict detection
	IsExclusive() bool  // whether multiple components can share it
	Type() string
}

// InterfaceContract names the message type carried on a port
type InterfaceContract struct {
	Type    string `json:"type"` // e.g. "dlms.reading.v1"
	Version string `json:"version,omitempty"`
}

// NATSPort is a core NATS subject
type NATSPort struct {
	Subject   string             `json:"subject"`
	Interface *InterfaceContract `json:"interface,omitempty"`
}

// ResourceID returns unique identifier for NATS ports
func (n NATSPort) ResourceID() string { return fmt.Sprintf("nats:%s", n.Subject) }

// IsExclusive returns false as multiple components can subscribe
func (n NATSPort) IsExclusive() bool { return false }

// Type returns the port type identifier
func (n NATSPort) Type() string { return "nats" }

// JetStreamPort is a subject captured by a JetStream stream
type JetStreamPort struct {
	StreamName string             `json:"stream_name"`
	Subjects   []string           `json:"subjects"`
	Interface  *InterfaceContract `json:"interface,omitempty"`
}

// ResourceID returns unique identifier for JetStream ports
func (j JetStreamPort) ResourceID() string {
	if j.StreamName != "" {
		return fmt.Sprintf("jetstream:%s", j.StreamName)
	}
	if len(j.Subjects) > 0 {
		return fmt.Sprintf("jetstream:%s", j.Subjects[0])
	}
	return "jetstream:unknown"
}

// IsExclusive returns false as JetStream manages consumer coordination
func (j JetStreamPort) IsExclusive() bool { return false }

// Type returns the port type identifier
func (j JetStreamPort) Type() string { return "jetstream" }

// KVWritePort is a KV bucket a component writes to
type KVWritePort struct {
	Bucket    string             `json:"bucket"`
	Interface *InterfaceContract `json:"interface,omitempty"`
}

// ResourceID returns unique identifier for KV write ports
func (k KVWritePort) ResourceID() string { return fmt.Sprintf("kvwrite:%s", k.Bucket) }

// IsExclusive returns true as a bucket has a single writer
func (k KVWritePort) IsExclusive() bool { return true }

// Type returns the port type identifier
func (k KVWritePort) Type() string { return "kvwrite" }
