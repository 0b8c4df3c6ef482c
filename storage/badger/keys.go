package badger

import (
	"encoding/binary"
	"fmt"
)

// Key prefixes for different data types
const (
	threadPrefix    = "thread"
	journalPrefix   = "journal"
	journalEventSeq = "journalseq"
)

// makeThreadKey generates a key for a thread by its id.
func makeThreadKey(id string) []byte {
	return []byte(fmt.Sprintf("%s:%s", threadPrefix, id))
}

// makeJournalKey generates a key for a journal event.
// Format: prefix:sequence, with the sequence in BigEndian so lexicographic
// iteration follows append order.
func makeJournalKey(seq uint64) []byte {
	prefix := journalPrefix + ":"
	prefixBytes := []byte(prefix)
	buf := make([]byte, len(prefixBytes)+8)
	offset := copy(buf, prefixBytes)
	binary.BigEndian.PutUint64(buf[offset:], seq)
	return buf
}
