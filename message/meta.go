package message

import "time"

// Meta describes where and when a message originated.
type Meta interface {
	// CreatedAt is when the measurement was taken.
	CreatedAt() time.Time
	// ReceivedAt is when the message entered this process.
	ReceivedAt() time.Time
	// Source names the producing service.
	Source() string
}

// DefaultMeta stores times as Unix milliseconds.
type DefaultMeta struct {
	createdAt  int64
	receivedAt int64
	source     string
}

// NewDefaultMeta returns metadata received now.
func NewDefaultMeta(createdAt time.Time, source string) *DefaultMeta {
	return NewDefaultMetaWithReceivedAt(createdAt, time.Now(), source)
}

// NewDefaultMetaWithReceivedAt sets both times explicitly.
func NewDefaultMetaWithReceivedAt(createdAt, receivedAt time.Time, source string) *DefaultMeta {
	return &DefaultMeta{
		createdAt:  unixMs(createdAt),
		receivedAt: unixMs(receivedAt),
		source:     source,
	}
}

func (m *DefaultMeta) CreatedAt() time.Time  { return fromUnixMs(m.createdAt) }
func (m *DefaultMeta) ReceivedAt() time.Time { return fromUnixMs(m.receivedAt) }
func (m *DefaultMeta) Source() string        { return m.source }

// unixMs maps the zero time to 0.
func unixMs(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixMilli()
}

func fromUnixMs(ms int64) time.Time {
	if ms == 0 {
		return time.Time{}
	}
	return time.UnixMilli(ms)
}
