package capture

import (
	"errors"
	"fmt"

	"google.golang.org/protobuf/encoding/protowire"

	"github.com/coral-mesh/eosprofile/internal/safe"
	"github.com/coral-mesh/eosprofile/internal/stats"
)

// Probe records use the protobuf wire format without a schema file:
//
//	1 name      bytes
//	2 function  bytes
//	3 file      bytes
//	4 line      varint
//	5 samples   varint, number of sample fields that follow
//	6 sample    bytes, repeated: {1 start fixed64, 2 end fixed64}
const (
	fieldName     protowire.Number = 1
	fieldFunction protowire.Number = 2
	fieldFile     protowire.Number = 3
	fieldLine     protowire.Number = 4
	fieldCount    protowire.Number = 5
	fieldSample   protowire.Number = 6

	fieldSampleStart protowire.Number = 1
	fieldSampleEnd   protowire.Number = 2
)

func marshalRecord(rec Record) []byte {
	var b []byte
	b = protowire.AppendTag(b, fieldName, protowire.BytesType)
	b = protowire.AppendString(b, rec.Name)
	b = protowire.AppendTag(b, fieldFunction, protowire.BytesType)
	b = protowire.AppendString(b, rec.Function)
	b = protowire.AppendTag(b, fieldFile, protowire.BytesType)
	b = protowire.AppendString(b, rec.File)
	b = protowire.AppendTag(b, fieldLine, protowire.VarintType)
	b = protowire.AppendVarint(b, uint64(rec.Line))
	b = protowire.AppendTag(b, fieldCount, protowire.VarintType)
	b = protowire.AppendVarint(b, uint64(len(rec.Samples)))

	var sample []byte
	for _, s := range rec.Samples {
		sample = sample[:0]
		sample = protowire.AppendTag(sample, fieldSampleStart, protowire.Fixed64Type)
		sample = protowire.AppendFixed64(sample, uint64(s.Start))
		sample = protowire.AppendTag(sample, fieldSampleEnd, protowire.Fixed64Type)
		sample = protowire.AppendFixed64(sample, uint64(s.End))

		b = protowire.AppendTag(b, fieldSample, protowire.BytesType)
		b = protowire.AppendBytes(b, sample)
	}
	return b
}

var errIncompleteSample = errors.New("sample without start or end")

func unmarshalRecord(b []byte) (Record, error) {
	var (
		rec      Record
		count    uint64
		hasCount bool
	)

	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return Record{}, protowire.ParseError(n)
		}
		b = b[n:]

		switch {
		case num == fieldName && typ == protowire.BytesType:
			v, n := protowire.ConsumeString(b)
			if n < 0 {
				return Record{}, protowire.ParseError(n)
			}
			rec.Name, b = v, b[n:]
		case num == fieldFunction && typ == protowire.BytesType:
			v, n := protowire.ConsumeString(b)
			if n < 0 {
				return Record{}, protowire.ParseError(n)
			}
			rec.Function, b = v, b[n:]
		case num == fieldFile && typ == protowire.BytesType:
			v, n := protowire.ConsumeString(b)
			if n < 0 {
				return Record{}, protowire.ParseError(n)
			}
			rec.File, b = v, b[n:]
		case num == fieldLine && typ == protowire.VarintType:
			v, n := protowire.ConsumeVarint(b)
			if n < 0 {
				return Record{}, protowire.ParseError(n)
			}
			line, clamped := safe.Uint64ToUint32(v)
			if clamped {
				return Record{}, fmt.Errorf("line %d out of range", v)
			}
			rec.Line, b = line, b[n:]
		case num == fieldCount && typ == protowire.VarintType:
			v, n := protowire.ConsumeVarint(b)
			if n < 0 {
				return Record{}, protowire.ParseError(n)
			}
			if _, clamped := safe.Uint64ToUint32(v); clamped {
				return Record{}, fmt.Errorf("sample count %d out of range", v)
			}
			count, hasCount, b = v, true, b[n:]
		case num == fieldSample && typ == protowire.BytesType:
			v, n := protowire.ConsumeBytes(b)
			if n < 0 {
				return Record{}, protowire.ParseError(n)
			}
			s, err := unmarshalSample(v)
			if err != nil {
				return Record{}, err
			}
			rec.Samples, b = append(rec.Samples, s), b[n:]
		default:
			n := protowire.ConsumeFieldValue(num, typ, b)
			if n < 0 {
				return Record{}, protowire.ParseError(n)
			}
			b = b[n:]
		}
	}

	if !hasCount {
		return Record{}, fmt.Errorf("missing sample count")
	}
	if count != uint64(len(rec.Samples)) {
		return Record{}, fmt.Errorf("sample count %d does not match %d stored samples", count, len(rec.Samples))
	}
	return rec, nil
}

func unmarshalSample(b []byte) (stats.Sample, error) {
	var (
		s                stats.Sample
		hasStart, hasEnd bool
	)
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return s, protowire.ParseError(n)
		}
		b = b[n:]

		if typ != protowire.Fixed64Type || (num != fieldSampleStart && num != fieldSampleEnd) {
			n := protowire.ConsumeFieldValue(num, typ, b)
			if n < 0 {
				return s, protowire.ParseError(n)
			}
			b = b[n:]
			continue
		}

		v, n := protowire.ConsumeFixed64(b)
		if n < 0 {
			return s, protowire.ParseError(n)
		}
		b = b[n:]
		if num == fieldSampleStart {
			s.Start, hasStart = int64(v), true
		} else {
			s.End, hasEnd = int64(v), true
		}
	}
	if !hasStart || !hasEnd {
		return s, errIncompleteSample
	}
	return s, nil
}
