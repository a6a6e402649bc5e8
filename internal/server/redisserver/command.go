package redisserver

import (
	"bufio"
	"bytes"
	"strings"
	"time"

	"github.com/yndnr/respkv/internal/core/domain"
)

// replicationSection is the only INFO section this server knows about.
const replicationSection = "replication"

// ReplyKind identifies the RESP type of a reply.
type ReplyKind int

const (
	ReplySimple ReplyKind = iota
	ReplyError
	ReplyBulk
	ReplyNullBulk
)

// Reply is one encoded-on-demand RESP reply.
type Reply struct {
	Kind ReplyKind
	Text string // simple string or error text
	Data []byte // bulk payload
}

// SimpleString returns a "+<s>" reply.
func SimpleString(s string) Reply { return Reply{Kind: ReplySimple, Text: s} }

// ErrorReply returns a "-<s>" reply.
func ErrorReply(s string) Reply { return Reply{Kind: ReplyError, Text: s} }

// Bulk returns a "$<len>" reply. A nil payload is sent as an empty bulk.
func Bulk(b []byte) Reply {
	if b == nil {
		b = []byte{}
	}
	return Reply{Kind: ReplyBulk, Data: b}
}

// NullBulk returns the "$-1" reply.
func NullBulk() Reply { return Reply{Kind: ReplyNullBulk} }

// Write encodes the reply onto w.
func (r Reply) Write(w *bufio.Writer) error {
	switch r.Kind {
	case ReplySimple:
		return WriteSimpleString(w, r.Text)
	case ReplyError:
		return WriteError(w, r.Text)
	case ReplyBulk:
		return WriteBulk(w, r.Data)
	default:
		return WriteNullBulk(w)
	}
}

// Bytes returns the wire encoding of the reply.
func (r Reply) Bytes() []byte {
	var buf bytes.Buffer
	w := bufio.NewWriter(&buf)
	_ = r.Write(w)
	_ = w.Flush()
	return buf.Bytes()
}

// Keyspace is the storage the dispatcher reads and writes.
type Keyspace interface {
	Put(key string, value []byte)
	PutWithTTL(key string, value []byte, ttl time.Duration)
	Get(key string) ([]byte, bool)
}

// Dispatcher maps decoded commands to keyspace operations and replies.
// It holds no per-connection state and is shared by all sessions.
type Dispatcher struct {
	store Keyspace
	role  *domain.ServerRole
}

// NewDispatcher creates a Dispatcher over store and role.
func NewDispatcher(store Keyspace, role *domain.ServerRole) *Dispatcher {
	return &Dispatcher{store: store, role: role}
}

// Dispatch executes cmd and returns its reply.
func (d *Dispatcher) Dispatch(cmd domain.Command) Reply {
	switch c := cmd.(type) {
	case domain.Ping:
		return SimpleString("PONG")
	case domain.Echo:
		return Bulk(c.Message)
	case domain.Info:
		return d.info(c)
	case domain.Set:
		return d.set(c)
	case domain.Get:
		return d.get(c)
	default:
		return ErrorReply("ERR unknown command")
	}
}

func (d *Dispatcher) info(c domain.Info) Reply {
	if !c.Section.Includes(replicationSection) {
		return Bulk(nil)
	}
	return Bulk([]byte(strings.Join(d.role.ReplicationInfo(), "\r\n")))
}

func (d *Dispatcher) set(c domain.Set) Reply {
	if c.HasTTL {
		d.store.PutWithTTL(c.Key, c.Value, c.TTL)
	} else {
		d.store.Put(c.Key, c.Value)
	}
	return SimpleString("OK")
}

func (d *Dispatcher) get(c domain.Get) Reply {
	v, ok := d.store.Get(c.Key)
	if !ok {
		return NullBulk()
	}
	return Bulk(v)
}
