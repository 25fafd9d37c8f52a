package export

import (
	"fmt"
	"io"

	"github.com/apache/arrow/go/v17/arrow"
	"github.com/apache/arrow/go/v17/arrow/array"
	"github.com/apache/arrow/go/v17/arrow/ipc"
	"github.com/apache/arrow/go/v17/arrow/memory"
	"github.com/nvandessel/stairwalk/internal/walk"
)

// WalkSchema is the long-form layout of an exported ensemble: one row per
// (trial, step) position.
var WalkSchema = arrow.NewSchema([]arrow.Field{
	{Name: "trial", Type: arrow.PrimitiveTypes.Int32},
	{Name: "step", Type: arrow.PrimitiveTypes.Int32},
	{Name: "position", Type: arrow.PrimitiveTypes.Int64},
}, nil)

// WriteArrow writes every walk of the ensemble to w as an Arrow IPC file,
// one record batch per walk. The file footer is written on close, so w must
// be seekable. It returns the number of rows written.
func WriteArrow(w io.WriteSeeker, e *walk.Ensemble) (int64, error) {
	mem := memory.NewGoAllocator()

	fw, err := ipc.NewFileWriter(w, ipc.WithSchema(WalkSchema), ipc.WithAllocator(mem))
	if err != nil {
		return 0, fmt.Errorf("creating arrow writer: %w", err)
	}

	b := array.NewRecordBuilder(mem, WalkSchema)
	defer b.Release()

	trials := b.Field(0).(*array.Int32Builder)
	steps := b.Field(1).(*array.Int32Builder)
	positions := b.Field(2).(*array.Int64Builder)

	var rows int64
	for i, wk := range e.Walks {
		for step, pos := range wk {
			trials.Append(int32(i))
			steps.Append(int32(step))
			positions.Append(int64(pos))
		}

		rec := b.NewRecord()
		err := fw.Write(rec)
		rows += rec.NumRows()
		rec.Release()
		if err != nil {
			fw.Close()
			return rows, fmt.Errorf("writing walk %d: %w", i, err)
		}
	}

	if err := fw.Close(); err != nil {
		return rows, fmt.Errorf("closing arrow writer: %w", err)
	}
	return rows, nil
}
