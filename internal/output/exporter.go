package output

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"

	"github.com/xitongsys/parquet-go-source/local"
	"github.com/xitongsys/parquet-go/source"
	"github.com/xitongsys/parquet-go/writer"

	"github.com/chrisdamba/darkstoremetrics/internal/cloudwriter"
	"github.com/chrisdamba/darkstoremetrics/internal/models"
)

const (
	FormatCSV     = "csv"
	FormatJSON    = "json"
	FormatParquet = "parquet"

	parquetParallelism = 4
)

// Exporter writes order exports to the local filesystem or a cloud bucket.
type Exporter struct {
	format     string
	basePath   string
	folder     string
	factory    cloudwriter.CloudWriterFactory
	bucketName string
}

// NewExporter builds an exporter from config. factory is only used, and then
// required, when the destination is not local.
func NewExporter(cfg *models.Config, factory cloudwriter.CloudWriterFactory) (*Exporter, error) {
	e := &Exporter{
		format:   cfg.OutputFormat,
		basePath: cfg.OutputPath,
		folder:   cfg.OutputFolder,
	}
	if e.format == "" {
		e.format = FormatCSV
	}
	switch e.format {
	case FormatCSV, FormatJSON, FormatParquet:
	default:
		return nil, fmt.Errorf("unsupported output format: %s", e.format)
	}

	if cfg.OutputDestination != "" && cfg.OutputDestination != "local" {
		if factory == nil {
			return nil, fmt.Errorf("no cloud writer for destination %s", cfg.OutputDestination)
		}
		e.factory = factory
		e.bucketName = cfg.CloudStorage.BucketName
	}
	return e, nil
}

func (e *Exporter) Format() string {
	return e.format
}

// Export writes rows under name and returns where they went.
func (e *Exporter) Export(ctx context.Context, name string, rows []ExportRow) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if e.factory != nil {
		return e.exportCloud(name, rows)
	}
	return e.exportLocal(name, rows)
}

func (e *Exporter) exportLocal(name string, rows []ExportRow) (string, error) {
	dir := filepath.Join(e.basePath, e.folder)
	if err := os.MkdirAll(dir, os.ModePerm); err != nil {
		return "", err
	}
	target := filepath.Join(dir, name)

	if e.format == FormatParquet {
		fw, err := local.NewLocalFileWriter(target)
		if err != nil {
			return "", fmt.Errorf("failed to create local file writer: %w", err)
		}
		return target, writeParquet(fw, rows)
	}

	f, err := os.Create(target)
	if err != nil {
		return "", err
	}
	if err := e.encode(f, rows); err != nil {
		f.Close()
		return "", err
	}
	return target, f.Close()
}

func (e *Exporter) exportCloud(name string, rows []ExportRow) (string, error) {
	objectPath := path.Join(e.folder, name)
	cw, err := e.factory.NewWriter(e.bucketName, objectPath)
	if err != nil {
		return "", fmt.Errorf("failed to create cloud file writer: %w", err)
	}
	location := fmt.Sprintf("s3://%s/%s", e.bucketName, objectPath)

	if e.format == FormatParquet {
		return location, writeParquet(NewCloudParquetFile(cw), rows)
	}
	if err := e.encode(cw, rows); err != nil {
		cw.Close()
		return "", err
	}
	return location, cw.Close()
}

func (e *Exporter) encode(w io.Writer, rows []ExportRow) error {
	if e.format == FormatJSON {
		return WriteJSON(w, rows)
	}
	return WriteCSV(w, rows)
}

// WriteJSON writes rows as newline-delimited JSON.
func WriteJSON(w io.Writer, rows []ExportRow) error {
	enc := json.NewEncoder(w)
	for _, row := range rows {
		if err := enc.Encode(row); err != nil {
			return err
		}
	}
	return nil
}

func writeParquet(fw source.ParquetFile, rows []ExportRow) error {
	pw, err := writer.NewParquetWriter(fw, new(ExportRow), parquetParallelism)
	if err != nil {
		fw.Close()
		return fmt.Errorf("failed to create ParquetWriter: %w", err)
	}
	for _, row := range rows {
		if err := pw.Write(row); err != nil {
			fw.Close()
			return fmt.Errorf("failed to write row: %w", err)
		}
	}
	if err := pw.WriteStop(); err != nil {
		fw.Close()
		return fmt.Errorf("failed to finish parquet file: %w", err)
	}
	return fw.Close()
}
