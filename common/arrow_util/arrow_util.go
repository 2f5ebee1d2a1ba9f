package arrow_util

import (
	"bytes"
	"context"
	"fmt"

	"github.com/apache/arrow/go/v12/arrow/array"
	"github.com/apache/arrow/go/v12/arrow/memory"
	"github.com/apache/arrow/go/v12/parquet/file"
	"github.com/apache/arrow/go/v12/parquet/pqarrow"
	"github.com/osmparquet/osm-parquet/common/errors"
	"github.com/osmparquet/osm-parquet/io/fs"
	perrors "github.com/pkg/errors"
)

// MakeArrowFileReader loads a whole parquet file from fs and opens it for reading.
func MakeArrowFileReader(fs fs.Fs, filePath string) (*pqarrow.FileReader, error) {
	content, err := fs.ReadFile(filePath)
	if err != nil {
		return nil, err
	}
	parquetReader, err := file.NewParquetReader(bytes.NewReader(content))
	if err != nil {
		return nil, fmt.Errorf("open parquet %s: %w", filePath, err)
	}
	return pqarrow.NewFileReader(parquetReader, pqarrow.ArrowReadProperties{}, memory.DefaultAllocator)
}

func CountRows(fs fs.Fs, filePath string) (int64, error) {
	reader, err := MakeArrowFileReader(fs, filePath)
	if err != nil {
		return 0, err
	}
	defer reader.ParquetReader().Close()
	return reader.ParquetReader().NumRows(), nil
}

// ReadInt64Column returns every value of an int64 column in file order.
func ReadInt64Column(fs fs.Fs, filePath string, column string) ([]int64, error) {
	reader, err := MakeArrowFileReader(fs, filePath)
	if err != nil {
		return nil, err
	}
	defer reader.ParquetReader().Close()

	table, err := reader.ReadTable(context.TODO())
	if err != nil {
		return nil, err
	}
	defer table.Release()

	indices := table.Schema().FieldIndices(column)
	if len(indices) == 0 {
		return nil, perrors.Wrapf(errors.ErrSchemaNotMatch, "column %s not found in %s", column, filePath)
	}
	ret := make([]int64, 0, table.NumRows())
	for _, chunk := range table.Column(indices[0]).Data().Chunks() {
		values, ok := chunk.(*array.Int64)
		if !ok {
			return nil, perrors.Wrapf(errors.ErrSchemaNotMatch, "column %s is %s", column, chunk.DataType())
		}
		ret = append(ret, values.Int64Values()...)
	}
	return ret, nil
}
