package kvdb

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"os"
	"sort"
	"strings"

	"github.com/zeebo/xxh3"

	"github.com/coral-mesh/eosprofile/internal/safe"
)

const (
	magic       = "EOSKVDB\x00"
	layout      = 1
	headerSize  = 48
	itemSize    = 32
	flagBigHost = 1 << 0
	noParent    = -1
)

// Item is a key in a Builder, optionally carrying a value and a parent.
type Item struct {
	key    string
	parent *Item
	value  Value
	set    bool
}

// Key returns the item key.
func (i *Item) Key() string {
	return i.key
}

// SetValue attaches v to the item.
func (i *Item) SetValue(v Value) {
	i.value = v
	i.set = true
}

// HasValue reports whether a value was attached to the item.
func (i *Item) HasValue() bool {
	return i.set
}

// SetParent links the item to its parent. A nil parent detaches it.
func (i *Item) SetParent(parent *Item) {
	i.parent = parent
}

// Parent returns the parent item, or nil.
func (i *Item) Parent() *Item {
	return i.parent
}

// Builder accumulates items and serializes them into a database file.
// It is not safe for concurrent use.
type Builder struct {
	items map[string]*Item
	order []*Item
}

// NewBuilder creates an empty builder.
func NewBuilder() *Builder {
	return &Builder{items: make(map[string]*Item)}
}

// Len returns the number of items, containers included.
func (b *Builder) Len() int {
	return len(b.order)
}

// Lookup returns the item for key, or nil.
func (b *Builder) Lookup(key string) *Item {
	return b.items[key]
}

// Insert returns the item for key, creating it if needed.
func (b *Builder) Insert(key string) *Item {
	if item, ok := b.items[key]; ok {
		return item
	}
	item := &Item{key: key}
	b.items[key] = item
	b.order = append(b.order, item)
	return item
}

// InsertPath inserts key and links it to its parent container, creating
// every missing ancestor on the way up.
func (b *Builder) InsertPath(key string) *Item {
	item := b.Insert(key)
	if item.parent == nil {
		item.SetParent(b.parentOf(key))
	}
	return item
}

func (b *Builder) parentOf(key string) *Item {
	pk, ok := ParentKey(key)
	if !ok {
		return nil
	}
	parent := b.Lookup(pk)
	if parent == nil {
		parent = b.Insert(pk)
		parent.SetParent(b.parentOf(pk))
	}
	return parent
}

// ParentKey returns the container key that key hangs from: the prefix up to
// and including the previous '/'. The root "/" has no parent.
func ParentKey(key string) (string, bool) {
	if len(key) <= 1 {
		return "", false
	}
	i := strings.LastIndexByte(key[:len(key)-1], '/')
	if i < 0 {
		return "", false
	}
	return key[:i+1], true
}

func bucketCount(n int) uint32 {
	if n == 0 {
		return 1
	}
	return uint32(n)
}

func hostIsBigEndian() bool {
	return binary.NativeEndian.Uint16([]byte{0, 1}) == 1
}

// Bytes serializes the database.
func (b *Builder) Bytes() ([]byte, error) {
	n := len(b.order)
	if n > math.MaxInt32 {
		return nil, fmt.Errorf("kvdb: too many items (%d)", n)
	}
	nb := bucketCount(n)

	type slot struct {
		item   *Item
		hash   uint64
		bucket uint32
	}
	slots := make([]slot, n)
	for i, item := range b.order {
		h := xxh3.HashString(item.key)
		slots[i] = slot{item: item, hash: h, bucket: uint32(h % uint64(nb))}
	}
	sort.SliceStable(slots, func(i, j int) bool {
		return slots[i].bucket < slots[j].bucket
	})

	index := make(map[*Item]int32, n)
	for i, s := range slots {
		index[s.item] = int32(i)
	}

	buckets := make([]uint32, nb)
	next := 0
	for bucket := uint32(0); bucket < nb; bucket++ {
		buckets[bucket] = uint32(next)
		for next < n && slots[next].bucket == bucket {
			next++
		}
	}

	var heap bytes.Buffer
	table := make([]byte, 0, n*itemSize)
	for _, s := range slots {
		parent := int32(noParent)
		if s.item.parent != nil {
			p, ok := index[s.item.parent]
			if !ok {
				return nil, fmt.Errorf("kvdb: parent of %q is not in the database", s.item.key)
			}
			parent = p
		}

		keyOff := uint32(heap.Len())
		heap.WriteString(s.item.key)

		typ := TypeContainer
		var valOff, valLen uint32
		if s.item.set {
			typ = s.item.value.typ
			valOff = uint32(heap.Len())
			valLen = uint32(len(s.item.value.data))
			heap.Write(s.item.value.data)
		}
		if int64(heap.Len()) > math.MaxUint32 {
			return nil, fmt.Errorf("kvdb: database exceeds 4GiB")
		}

		table = binary.LittleEndian.AppendUint64(table, s.hash)
		table = binary.LittleEndian.AppendUint32(table, uint32(parent))
		table = binary.LittleEndian.AppendUint32(table, keyOff)
		table = binary.LittleEndian.AppendUint32(table, uint32(len(s.item.key)))
		table = binary.LittleEndian.AppendUint32(table, valOff)
		table = binary.LittleEndian.AppendUint32(table, valLen)
		table = append(table, byte(typ), 0, 0, 0)
	}

	itemsOffset := headerSize + 4*int(nb)
	heapOffset := itemsOffset + len(table)

	body := make([]byte, 0, heapOffset-headerSize+heap.Len())
	for _, start := range buckets {
		body = binary.LittleEndian.AppendUint32(body, start)
	}
	body = append(body, table...)
	body = append(body, heap.Bytes()...)

	var flags uint32
	if hostIsBigEndian() {
		flags |= flagBigHost
	}

	out := make([]byte, 0, headerSize+len(body))
	out = append(out, magic...)
	out = binary.LittleEndian.AppendUint32(out, layout)
	out = binary.LittleEndian.AppendUint32(out, flags)
	out = binary.LittleEndian.AppendUint32(out, uint32(n))
	out = binary.LittleEndian.AppendUint32(out, nb)
	out = binary.LittleEndian.AppendUint32(out, uint32(itemsOffset))
	out = binary.LittleEndian.AppendUint32(out, uint32(heapOffset))
	out = binary.LittleEndian.AppendUint32(out, uint32(heap.Len()))
	out = binary.LittleEndian.AppendUint32(out, 0)
	out = binary.LittleEndian.AppendUint64(out, xxh3.Hash(body))
	out = append(out, body...)

	return out, nil
}

// WriteTo writes the serialized database to w.
func (b *Builder) WriteTo(w io.Writer) (int64, error) {
	data, err := b.Bytes()
	if err != nil {
		return 0, err
	}
	n, err := w.Write(data)
	return int64(n), err
}

// WriteFile atomically replaces path with the serialized database.
func (b *Builder) WriteFile(path string, perm os.FileMode) error {
	data, err := b.Bytes()
	if err != nil {
		return err
	}
	return safe.WriteFileAtomic(path, data, &safe.Options{DestPerm: perm})
}
