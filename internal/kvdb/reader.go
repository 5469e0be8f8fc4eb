package kvdb

import (
	"encoding/binary"
	"errors"
	"fmt"
	"os"
	"sort"

	"github.com/zeebo/xxh3"
)

// ErrCorrupt is returned when a file is not a valid database.
var ErrCorrupt = errors.New("kvdb: corrupt database")

type entry struct {
	key    string
	hash   uint64
	parent int32
	typ    Type
	value  []byte
}

// DB is a read-only view of a database file.
type DB struct {
	bigEndianHost bool
	buckets       []uint32
	entries       []entry
}

func corrupt(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrCorrupt, fmt.Sprintf(format, args...))
}

// Open reads and parses the database at path.
func Open(path string) (*DB, error) {
	//nolint:gosec // G304: the caller chooses which database to open.
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

// Parse validates data and returns a database view. The returned DB keeps
// references into data.
func Parse(data []byte) (*DB, error) {
	if len(data) < headerSize {
		return nil, corrupt("short header (%d bytes)", len(data))
	}
	if string(data[:8]) != magic {
		return nil, corrupt("bad magic")
	}

	le := binary.LittleEndian
	if v := le.Uint32(data[8:]); v != layout {
		return nil, corrupt("unsupported layout %d", v)
	}
	flags := le.Uint32(data[12:])
	nItems := int(le.Uint32(data[16:]))
	nBuckets := int(le.Uint32(data[20:]))
	itemsOffset := int(le.Uint32(data[24:]))
	heapOffset := int(le.Uint32(data[28:]))
	heapSize := int(le.Uint32(data[32:]))
	checksum := le.Uint64(data[40:])

	if xxh3.Hash(data[headerSize:]) != checksum {
		return nil, corrupt("checksum mismatch")
	}
	if nBuckets == 0 {
		return nil, corrupt("no buckets")
	}
	if itemsOffset != headerSize+4*nBuckets {
		return nil, corrupt("bad item table offset")
	}
	if heapOffset != itemsOffset+itemSize*nItems {
		return nil, corrupt("bad heap offset")
	}
	if heapOffset+heapSize != len(data) {
		return nil, corrupt("bad heap size")
	}

	db := &DB{
		bigEndianHost: flags&flagBigHost != 0,
		buckets:       make([]uint32, nBuckets),
		entries:       make([]entry, nItems),
	}

	var prev uint32
	for i := range db.buckets {
		start := le.Uint32(data[headerSize+4*i:])
		if start < prev || int(start) > nItems {
			return nil, corrupt("bad bucket %d", i)
		}
		db.buckets[i] = start
		prev = start
	}

	heap := data[heapOffset:]
	span := func(off, n uint32) ([]byte, bool) {
		end := uint64(off) + uint64(n)
		if end > uint64(len(heap)) {
			return nil, false
		}
		return heap[off:end], true
	}

	for i := range db.entries {
		raw := data[itemsOffset+i*itemSize:]
		e := entry{
			hash:   le.Uint64(raw),
			parent: int32(le.Uint32(raw[8:])),
			typ:    Type(raw[28]),
		}
		key, ok := span(le.Uint32(raw[12:]), le.Uint32(raw[16:]))
		if !ok {
			return nil, corrupt("item %d: key out of bounds", i)
		}
		e.key = string(key)
		if xxh3.HashString(e.key) != e.hash {
			return nil, corrupt("item %d: hash mismatch", i)
		}
		if e.parent != noParent && (e.parent < 0 || int(e.parent) >= nItems || int(e.parent) == i) {
			return nil, corrupt("item %d: bad parent %d", i, e.parent)
		}
		if !e.typ.valid() {
			return nil, corrupt("item %d: unknown type %d", i, raw[28])
		}
		if e.typ != TypeContainer {
			value, ok := span(le.Uint32(raw[20:]), le.Uint32(raw[24:]))
			if !ok {
				return nil, corrupt("item %d: value out of bounds", i)
			}
			e.value = value
		}
		if uint32(e.hash%uint64(nBuckets)) != db.bucketOf(i) {
			return nil, corrupt("item %d: stored in the wrong bucket", i)
		}
		db.entries[i] = e
	}

	return db, nil
}

// bucketOf returns the bucket whose range holds item index i: the last
// bucket starting at or before i.
func (db *DB) bucketOf(i int) uint32 {
	j := sort.Search(len(db.buckets), func(j int) bool {
		return int(db.buckets[j]) > i
	})
	return uint32(j - 1)
}

// Len returns the number of items, containers included.
func (db *DB) Len() int {
	return len(db.entries)
}

// WrittenOnBigEndianHost reports the byte-order flag recorded by the writer.
func (db *DB) WrittenOnBigEndianHost() bool {
	return db.bigEndianHost
}

func (db *DB) find(key string) int {
	h := xxh3.HashString(key)
	b := h % uint64(len(db.buckets))
	start := int(db.buckets[b])
	end := len(db.entries)
	if int(b)+1 < len(db.buckets) {
		end = int(db.buckets[b+1])
	}
	for i := start; i < end; i++ {
		if db.entries[i].hash == h && db.entries[i].key == key {
			return i
		}
	}
	return -1
}

// Names returns every key in the database, containers included.
func (db *DB) Names() []string {
	names := make([]string, len(db.entries))
	for i, e := range db.entries {
		names[i] = e.key
	}
	return names
}

// Contains reports whether key exists, as a value or a container.
func (db *DB) Contains(key string) bool {
	return db.find(key) >= 0
}

// Lookup returns the value stored for key. Containers have no value.
func (db *DB) Lookup(key string) (Value, bool) {
	i := db.find(key)
	if i < 0 || db.entries[i].typ == TypeContainer {
		return Value{}, false
	}
	e := db.entries[i]
	return Value{typ: e.typ, data: e.value}, true
}

// Parent returns the key of the parent of key.
func (db *DB) Parent(key string) (string, bool) {
	i := db.find(key)
	if i < 0 || db.entries[i].parent == noParent {
		return "", false
	}
	return db.entries[db.entries[i].parent].key, true
}

// Children returns the keys whose parent is key.
func (db *DB) Children(key string) []string {
	i := db.find(key)
	if i < 0 {
		return nil
	}
	var out []string
	for _, e := range db.entries {
		if int(e.parent) == i {
			out = append(out, e.key)
		}
	}
	return out
}
