package sources

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"os"

	"github.com/chrisdamba/darkstoremetrics/internal/cloudwriter"
	"github.com/chrisdamba/darkstoremetrics/internal/repositories"
)

type FileSource struct {
	path string
}

func NewFileSource(path string) *FileSource {
	return &FileSource{path: path}
}

func (s *FileSource) Name() string {
	return "file://" + s.path
}

func (s *FileSource) Fetch(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, ErrEmptyPayload
	}
	return data, nil
}

type S3Source struct {
	reader cloudwriter.ObjectReader
	bucket string
	key    string
}

func NewS3Source(reader cloudwriter.ObjectReader, bucket, key string) *S3Source {
	return &S3Source{reader: reader, bucket: bucket, key: key}
}

func (s *S3Source) Name() string {
	return fmt.Sprintf("s3://%s/%s", s.bucket, s.key)
}

func (s *S3Source) Fetch(ctx context.Context) ([]byte, error) {
	data, err := s.reader.ReadObject(ctx, s.bucket, s.key)
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, ErrEmptyPayload
	}
	return data, nil
}

// RowSource renders repository rows as a CSV payload so every source feeds
// the same decoder.
type RowSource struct {
	name   string
	reader repositories.OrderRowRepository
}

func NewRowSource(name string, reader repositories.OrderRowRepository) *RowSource {
	return &RowSource{name: name, reader: reader}
}

func (s *RowSource) Name() string {
	return s.name
}

func (s *RowSource) Fetch(ctx context.Context) ([]byte, error) {
	headers, records, err := s.reader.Rows(ctx)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", s.name, err)
	}
	if len(headers) == 0 {
		return nil, ErrEmptyPayload
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(headers); err != nil {
		return nil, err
	}
	if err := w.WriteAll(records); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
