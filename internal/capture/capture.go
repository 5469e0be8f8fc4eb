// Package capture defines the on-disk schema of a probe capture: a kvdb file
// holding a handful of meta keys and one record per probe.
package capture

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/coral-mesh/eosprofile/internal/kvdb"
	"github.com/coral-mesh/eosprofile/internal/safe"
	"github.com/coral-mesh/eosprofile/internal/stats"
)

// Version is the capture format version. Bump it whenever the probe record
// shape or the key layout changes.
const Version int32 = 1

// MetaBase is the container holding the capture meta keys.
const MetaBase = "/com/endlessm/Sdk/meta"

// Meta keys.
const (
	KeyVersion     = MetaBase + "/db_version"
	KeyAppID       = MetaBase + "/app_id"
	KeyStartTime   = MetaBase + "/start_time"
	KeyProfileTime = MetaBase + "/profile_time"
	KeySessionID   = MetaBase + "/session_id"
)

var (
	// ErrVersionMismatch is returned when a capture was written with a
	// different format version. No probe record is decoded in that case.
	ErrVersionMismatch = errors.New("capture: format version mismatch")

	// ErrCorruptRecord is returned when a probe record cannot be decoded.
	ErrCorruptRecord = errors.New("capture: corrupt probe record")
)

// Meta describes a capture session.
type Meta struct {
	// Version is the format version read from the file. Writers always
	// store the Version constant.
	Version int32
	AppID   string
	// StartTime is the wall clock start of the process, in unix seconds.
	StartTime int64
	// ProfileTime is the length of the profiling window in microseconds.
	ProfileTime int64
	SessionID   string
}

// Record is the captured state of one probe.
type Record struct {
	Name     string
	Function string
	File     string
	Line     uint32
	Samples  []stats.Sample
}

func isMetaKey(key string) bool {
	return key == MetaBase || strings.HasPrefix(key, MetaBase+"/")
}

// Encode serializes meta and records into a capture file image. Samples are
// stored sorted by duration; the records passed in are left untouched.
func Encode(meta Meta, records []Record) ([]byte, error) {
	b, err := build(meta, records)
	if err != nil {
		return nil, err
	}
	return b.Bytes()
}

// Write serializes meta and records and atomically replaces path with the
// result.
func Write(path string, meta Meta, records []Record) error {
	b, err := build(meta, records)
	if err != nil {
		return err
	}
	if err := b.WriteFile(path, 0o600); err != nil {
		return fmt.Errorf("failed to write capture %s: %w", path, err)
	}
	return nil
}

func build(meta Meta, records []Record) (*kvdb.Builder, error) {
	b := kvdb.NewBuilder()

	b.InsertPath(KeyVersion).SetValue(kvdb.Int32(Version))
	b.InsertPath(KeyAppID).SetValue(kvdb.String(meta.AppID))
	b.InsertPath(KeyStartTime).SetValue(kvdb.Int64(meta.StartTime))
	b.InsertPath(KeyProfileTime).SetValue(kvdb.Int64(meta.ProfileTime))
	if meta.SessionID != "" {
		b.InsertPath(KeySessionID).SetValue(kvdb.String(meta.SessionID))
	}

	for _, rec := range records {
		if rec.Name == "" {
			return nil, fmt.Errorf("capture: probe with empty name")
		}
		if isMetaKey(rec.Name) {
			return nil, fmt.Errorf("capture: probe name %q is reserved", rec.Name)
		}
		if item := b.Lookup(rec.Name); item != nil && item.HasValue() {
			return nil, fmt.Errorf("capture: duplicate probe %q", rec.Name)
		}

		samples := make([]stats.Sample, len(rec.Samples))
		copy(samples, rec.Samples)
		stats.SortByDuration(samples)
		rec.Samples = samples

		b.InsertPath(rec.Name).SetValue(kvdb.Record(marshalRecord(rec)))
	}

	return b, nil
}

// File is a decoded capture.
type File struct {
	db     *kvdb.DB
	meta   Meta
	probes []string
}

// Open reads and validates the capture at path. Reads go through the safe
// package, so symlinks are rejected and opts.MaxSize bounds the file size.
func Open(path string, opts *safe.Options) (*File, error) {
	data, err := safe.ReadFile(path, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to read capture %s: %w", path, err)
	}
	f, err := Decode(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return f, nil
}

// Decode parses a capture file image. The format version is checked before
// anything else is interpreted.
func Decode(data []byte) (*File, error) {
	db, err := kvdb.Parse(data)
	if err != nil {
		return nil, err
	}

	version, err := readInt32(db, KeyVersion)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrVersionMismatch, err)
	}
	if version != Version {
		return nil, fmt.Errorf("%w: file has version %d, expected %d", ErrVersionMismatch, version, Version)
	}

	f := &File{db: db, meta: Meta{Version: version}}
	if f.meta.AppID, err = readString(db, KeyAppID); err != nil {
		return nil, err
	}
	if f.meta.StartTime, err = readInt64(db, KeyStartTime); err != nil {
		return nil, err
	}
	if f.meta.ProfileTime, err = readInt64(db, KeyProfileTime); err != nil {
		return nil, err
	}
	if db.Contains(KeySessionID) {
		if f.meta.SessionID, err = readString(db, KeySessionID); err != nil {
			return nil, err
		}
	}

	for _, name := range db.Names() {
		if isMetaKey(name) {
			continue
		}
		v, ok := db.Lookup(name)
		if !ok || v.Type() != kvdb.TypeRecord {
			continue
		}
		f.probes = append(f.probes, name)
	}
	sort.Strings(f.probes)

	return f, nil
}

// Meta returns the session metadata.
func (f *File) Meta() Meta {
	return f.meta
}

// ProbeNames returns the probe names in the capture, sorted.
func (f *File) ProbeNames() []string {
	out := make([]string, len(f.probes))
	copy(out, f.probes)
	return out
}

// Probe decodes the record stored for name.
func (f *File) Probe(name string) (Record, error) {
	v, ok := f.db.Lookup(name)
	if !ok {
		return Record{}, fmt.Errorf("capture: no probe %q", name)
	}
	payload, err := v.RecordBytes()
	if err != nil {
		return Record{}, fmt.Errorf("%w: %s: %v", ErrCorruptRecord, name, err)
	}
	rec, err := unmarshalRecord(payload)
	if err != nil {
		return Record{}, fmt.Errorf("%w: %s: %v", ErrCorruptRecord, name, err)
	}
	if rec.Name != name {
		return Record{}, fmt.Errorf("%w: %s: stored under a different name %q", ErrCorruptRecord, name, rec.Name)
	}
	return rec, nil
}

// ForEach decodes the probes in name order and calls fn for each one until
// fn returns false.
func (f *File) ForEach(fn func(Record) bool) error {
	for _, name := range f.probes {
		rec, err := f.Probe(name)
		if err != nil {
			return err
		}
		if !fn(rec) {
			return nil
		}
	}
	return nil
}

// Probes decodes every probe, sorted by name.
func (f *File) Probes() ([]Record, error) {
	out := make([]Record, 0, len(f.probes))
	err := f.ForEach(func(rec Record) bool {
		out = append(out, rec)
		return true
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func lookup(db *kvdb.DB, key string) (kvdb.Value, error) {
	v, ok := db.Lookup(key)
	if !ok {
		return kvdb.Value{}, fmt.Errorf("capture: missing %s", key)
	}
	return v, nil
}

func readInt32(db *kvdb.DB, key string) (int32, error) {
	v, err := lookup(db, key)
	if err != nil {
		return 0, err
	}
	return v.Int32()
}

func readInt64(db *kvdb.DB, key string) (int64, error) {
	v, err := lookup(db, key)
	if err != nil {
		return 0, err
	}
	return v.Int64()
}

func readString(db *kvdb.DB, key string) (string, error) {
	v, err := lookup(db, key)
	if err != nil {
		return "", err
	}
	return v.Str()
}
