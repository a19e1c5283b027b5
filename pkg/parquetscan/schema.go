// Package parquetscan turns parquet files into streams of arrow records.
// It derives an arrow schema from the file's parquet schema, feeds each
// top-level column's page streams through pkg/parquetdecode, and zips the
// per-column chunks into records row group by row group.
package parquetscan

import (
	"fmt"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/parquet-go/parquet-go"
	"github.com/parquet-go/parquet-go/format"

	"github.com/grafana/quiver/pkg/parquetdecode"
)

// ArrowSchema maps a parquet schema tree to the arrow schema the decoder
// will produce. Logical annotations refine the physical kinds; optional
// fields become nullable, and repeated fields without a LIST annotation
// become non-nullable lists the way legacy writers meant them.
func ArrowSchema(schema *parquet.Schema) (*arrow.Schema, error) {
	fields := make([]arrow.Field, 0, len(schema.Fields()))
	for _, f := range schema.Fields() {
		af, err := arrowField(f)
		if err != nil {
			return nil, err
		}
		fields = append(fields, af)
	}
	return arrow.NewSchema(fields, nil), nil
}

func arrowField(f parquet.Field) (arrow.Field, error) {
	dt, err := arrowType(f)
	if err != nil {
		return arrow.Field{}, err
	}
	if f.Repeated() {
		// legacy repeated field, no 3-level group around it
		dt = arrow.ListOfField(arrow.Field{Name: f.Name(), Type: dt})
	}
	return arrow.Field{Name: f.Name(), Type: dt, Nullable: f.Optional()}, nil
}

func arrowType(f parquet.Field) (arrow.DataType, error) {
	if f.Leaf() {
		return leafType(f.Type())
	}

	lt := f.Type().LogicalType()
	switch {
	case lt != nil && lt.Map != nil, isMapGroup(f):
		return mapType(f)
	case lt != nil && lt.List != nil, isListGroup(f):
		return listType(f)
	default:
		return structType(f)
	}
}

// isListGroup recognizes the 3-level list shape structurally for files
// whose writers skipped the LIST annotation: a group holding exactly one
// repeated group.
func isListGroup(f parquet.Field) bool {
	kids := f.Fields()
	return len(kids) == 1 && kids[0].Repeated() && !kids[0].Leaf()
}

func isMapGroup(f parquet.Field) bool {
	kids := f.Fields()
	return len(kids) == 1 && kids[0].Repeated() && !kids[0].Leaf() &&
		kids[0].Name() == "key_value" && len(kids[0].Fields()) == 2
}

func listType(f parquet.Field) (arrow.DataType, error) {
	repeated := f.Fields()[0]
	if len(repeated.Fields()) != 1 {
		// 2-level legacy shape, the repeated group itself is the element
		dt, err := structType(repeated)
		if err != nil {
			return nil, err
		}
		return arrow.ListOfField(arrow.Field{Name: repeated.Name(), Type: dt}), nil
	}
	ef, err := arrowField(repeated.Fields()[0])
	if err != nil {
		return nil, err
	}
	return arrow.ListOfField(ef), nil
}

func mapType(f parquet.Field) (arrow.DataType, error) {
	entries := f.Fields()[0]
	key, err := arrowField(entries.Fields()[0])
	if err != nil {
		return nil, err
	}
	item, err := arrowField(entries.Fields()[1])
	if err != nil {
		return nil, err
	}
	return arrow.MapOfFields(key, item), nil
}

func structType(f parquet.Field) (arrow.DataType, error) {
	fields := make([]arrow.Field, 0, len(f.Fields()))
	for _, child := range f.Fields() {
		af, err := arrowField(child)
		if err != nil {
			return nil, err
		}
		fields = append(fields, af)
	}
	return arrow.StructOf(fields...), nil
}

func leafType(t parquet.Type) (arrow.DataType, error) {
	if lt := t.LogicalType(); lt != nil {
		switch {
		case lt.UTF8 != nil, lt.Enum != nil, lt.Json != nil:
			return arrow.BinaryTypes.String, nil
		case lt.Bson != nil:
			return arrow.BinaryTypes.Binary, nil
		case lt.UUID != nil:
			return &arrow.FixedSizeBinaryType{ByteWidth: 16}, nil
		case lt.Decimal != nil:
			if lt.Decimal.Precision > 38 {
				return &arrow.Decimal256Type{
					Precision: lt.Decimal.Precision,
					Scale:     lt.Decimal.Scale,
				}, nil
			}
			return &arrow.Decimal128Type{
				Precision: lt.Decimal.Precision,
				Scale:     lt.Decimal.Scale,
			}, nil
		case lt.Date != nil:
			return arrow.FixedWidthTypes.Date32, nil
		case lt.Time != nil:
			if lt.Time.Unit.Millis != nil {
				return arrow.FixedWidthTypes.Time32ms, nil
			}
			if lt.Time.Unit.Micros != nil {
				return arrow.FixedWidthTypes.Time64us, nil
			}
			return arrow.FixedWidthTypes.Time64ns, nil
		case lt.Timestamp != nil:
			return &arrow.TimestampType{Unit: timestampUnit(lt.Timestamp.Unit)}, nil
		case lt.Integer != nil:
			return integerType(lt.Integer)
		}
	}

	switch t.Kind() {
	case parquet.Boolean:
		return arrow.FixedWidthTypes.Boolean, nil
	case parquet.Int32:
		return arrow.PrimitiveTypes.Int32, nil
	case parquet.Int64:
		return arrow.PrimitiveTypes.Int64, nil
	case parquet.Int96:
		// deprecated impala timestamps
		return &arrow.TimestampType{Unit: arrow.Nanosecond}, nil
	case parquet.Float:
		return arrow.PrimitiveTypes.Float32, nil
	case parquet.Double:
		return arrow.PrimitiveTypes.Float64, nil
	case parquet.ByteArray:
		return arrow.BinaryTypes.Binary, nil
	case parquet.FixedLenByteArray:
		return &arrow.FixedSizeBinaryType{ByteWidth: t.Length()}, nil
	default:
		return nil, fmt.Errorf("parquet physical type %s: %w", t, parquetdecode.ErrNotImplemented)
	}
}

func timestampUnit(u format.TimeUnit) arrow.TimeUnit {
	switch {
	case u.Millis != nil:
		return arrow.Millisecond
	case u.Micros != nil:
		return arrow.Microsecond
	default:
		return arrow.Nanosecond
	}
}

func integerType(it *format.IntType) (arrow.DataType, error) {
	if it.IsSigned {
		switch it.BitWidth {
		case 8:
			return arrow.PrimitiveTypes.Int8, nil
		case 16:
			return arrow.PrimitiveTypes.Int16, nil
		case 32:
			return arrow.PrimitiveTypes.Int32, nil
		case 64:
			return arrow.PrimitiveTypes.Int64, nil
		}
	} else {
		switch it.BitWidth {
		case 8:
			return arrow.PrimitiveTypes.Uint8, nil
		case 16:
			return arrow.PrimitiveTypes.Uint16, nil
		case 32:
			return arrow.PrimitiveTypes.Uint32, nil
		case 64:
			return arrow.PrimitiveTypes.Uint64, nil
		}
	}
	return nil, fmt.Errorf("integer logical type of width %d: %w", it.BitWidth, parquetdecode.ErrNotImplemented)
}
