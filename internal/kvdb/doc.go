// Package kvdb implements a small hierarchical key-value database file.
//
// Keys are '/'-separated paths. Every item may point at a parent item, so a
// flat file can describe a tree: the builder synthesizes the parent chain of
// a key on demand ("/a/b" hangs from "/a/", which hangs from "/").
//
// # File layout
//
// All integers are little-endian.
//
//	header   48 bytes
//	  magic        [8]byte  "EOSKVDB\x00"
//	  layout       uint32   layout revision of this package
//	  flags        uint32   bit 0: written by a big-endian host
//	  items        uint32   number of items
//	  buckets      uint32   number of hash buckets
//	  itemsOffset  uint32
//	  heapOffset   uint32
//	  heapSize     uint32
//	  reserved     uint32
//	  checksum     uint64   xxh3 of every byte after the header
//	buckets  buckets x uint32, index of the first item of each bucket
//	items    items x 32 bytes
//	  hash         uint64   xxh3 of the key
//	  parent       int32    item index, -1 for none
//	  keyOffset    uint32   heap relative
//	  keyLength    uint32
//	  valueOffset  uint32   heap relative
//	  valueLength  uint32
//	  type         uint8    followed by 3 bytes of padding
//	heap     keys and values
//
// Items are grouped by bucket (hash modulo bucket count), so a lookup only
// compares the keys of a single bucket.
//
// Reading validates the header, every span and the checksum before handing
// out any value; a damaged file yields ErrCorrupt.
package kvdb
