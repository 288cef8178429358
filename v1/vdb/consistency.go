package vdb

import (
	"sync"

	"github.com/milvus-io/milvus-proto/go-api/v2/commonpb"
)

// ConsistencyLevel selects how fresh the data seen by a read must be.
// The zero value defers to the collection's own level.
type ConsistencyLevel int

const (
	ConsistencyDefault ConsistencyLevel = iota
	ConsistencyStrong
	ConsistencySession
	ConsistencyBounded
	ConsistencyEventually
	ConsistencyCustomized
)

// Guarantee timestamps with a special meaning to the server.
const (
	strongGuaranteeTs     uint64 = 0
	eventuallyGuaranteeTs uint64 = 1
	boundedGuaranteeTs    uint64 = 2
)

func (l ConsistencyLevel) String() string {
	switch l {
	case ConsistencyStrong:
		return "Strong"
	case ConsistencySession:
		return "Session"
	case ConsistencyBounded:
		return "Bounded"
	case ConsistencyEventually:
		return "Eventually"
	case ConsistencyCustomized:
		return "Customized"
	}
	return "Default"
}

func (l ConsistencyLevel) wire() commonpb.ConsistencyLevel {
	switch l {
	case ConsistencyStrong:
		return commonpb.ConsistencyLevel_Strong
	case ConsistencyBounded:
		return commonpb.ConsistencyLevel_Bounded
	case ConsistencyEventually:
		return commonpb.ConsistencyLevel_Eventually
	case ConsistencyCustomized:
		return commonpb.ConsistencyLevel_Customized
	}
	return commonpb.ConsistencyLevel_Session
}

func consistencyFromWire(l commonpb.ConsistencyLevel) ConsistencyLevel {
	switch l {
	case commonpb.ConsistencyLevel_Strong:
		return ConsistencyStrong
	case commonpb.ConsistencyLevel_Session:
		return ConsistencySession
	case commonpb.ConsistencyLevel_Bounded:
		return ConsistencyBounded
	case commonpb.ConsistencyLevel_Eventually:
		return ConsistencyEventually
	case commonpb.ConsistencyLevel_Customized:
		return ConsistencyCustomized
	}
	return ConsistencyDefault
}

// guaranteeTimestamp resolves the timestamp a read must observe. Session
// reads wait for this client's last write to the collection and fall back to
// eventual consistency when there was none. Default behaves like Session.
func (c *Client) guaranteeTimestamp(level ConsistencyLevel, collection string, custom uint64) uint64 {
	switch level {
	case ConsistencyStrong:
		return strongGuaranteeTs
	case ConsistencyBounded:
		return boundedGuaranteeTs
	case ConsistencyEventually:
		return eventuallyGuaranteeTs
	case ConsistencyCustomized:
		return custom
	}
	if ts, ok := c.session.get(collection); ok {
		return ts
	}
	return eventuallyGuaranteeTs
}

// sessionClock records the latest write timestamp per collection.
type sessionClock struct {
	mu sync.RWMutex
	ts map[string]uint64
}

func newSessionClock() *sessionClock {
	return &sessionClock{ts: make(map[string]uint64)}
}

func (s *sessionClock) observe(collection string, ts uint64) {
	if ts == 0 {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if ts > s.ts[collection] {
		s.ts[collection] = ts
	}
}

func (s *sessionClock) get(collection string) (uint64, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ts, ok := s.ts[collection]
	return ts, ok
}

func (s *sessionClock) forget(collection string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.ts, collection)
}
