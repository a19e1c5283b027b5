package parquetdecode

import (
	"github.com/apache/arrow-go/v18/arrow"
	"github.com/parquet-go/parquet-go"
)

// Casts from the on-disk physical value to the logical Go value. Parquet
// stores every integer narrower than 32 bits as INT32 and the unsigned
// 64-bit family as INT64, so most of these are width narrowings or plain
// bit reinterpretations. Each is a named function rather than a closure so
// the dispatcher reads as a table of (type, cast) rows.

func castBool(v parquet.Value) bool { return v.Boolean() }

func castInt8(v parquet.Value) int8   { return int8(v.Int32()) }
func castInt16(v parquet.Value) int16 { return int16(v.Int32()) }
func castInt32(v parquet.Value) int32 { return v.Int32() }
func castInt64(v parquet.Value) int64 { return v.Int64() }

func castUint8(v parquet.Value) uint8   { return uint8(v.Int32()) }
func castUint16(v parquet.Value) uint16 { return uint16(v.Int32()) }

// Logical UInt32 has two physical spellings in the wild: plain INT32 from
// writers that reinterpret bits, and INT64 from writers that widen to keep
// the value range unambiguous. The dispatcher picks by physical type.
func castUint32FromInt32(v parquet.Value) uint32 { return uint32(v.Int32()) }
func castUint32FromInt64(v parquet.Value) uint32 { return uint32(v.Int64()) }

func castUint64(v parquet.Value) uint64 { return uint64(v.Int64()) }

func castFloat32(v parquet.Value) float32 { return v.Float() }
func castFloat64(v parquet.Value) float64 { return v.Double() }

func castDate32(v parquet.Value) arrow.Date32       { return arrow.Date32(v.Int32()) }
func castDate64(v parquet.Value) arrow.Date64       { return arrow.Date64(v.Int64()) }
func castTime32(v parquet.Value) arrow.Time32       { return arrow.Time32(v.Int32()) }
func castTime64(v parquet.Value) arrow.Time64       { return arrow.Time64(v.Int64()) }
func castTimestamp(v parquet.Value) arrow.Timestamp { return arrow.Timestamp(v.Int64()) }
func castDuration(v parquet.Value) arrow.Duration   { return arrow.Duration(v.Int64()) }

// Julian day number of the unix epoch, 1970-01-01.
const julianUnixEpochDay = 2440588

const nanosPerDay = 24 * 60 * 60 * 1_000_000_000

// Deprecated INT96 timestamps pack nanoseconds within the day into the
// low two little-endian words and the Julian day number into the third.
func castTimestampFromInt96(v parquet.Value) arrow.Timestamp {
	i96 := v.Int96()
	nanos := int64(uint64(i96[0]) | uint64(i96[1])<<32)
	days := int64(int32(i96[2])) - julianUnixEpochDay
	return arrow.Timestamp(days*nanosPerDay + nanos)
}
