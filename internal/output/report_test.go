package output

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chrisdamba/darkstoremetrics/internal/dataset"
	"github.com/chrisdamba/darkstoremetrics/internal/timeparse"
)

func TestWriteReport(t *testing.T) {
	ds, err := dataset.Build([]byte(lifecycleCSV), dataset.BuildOptions{
		Parser: timeparse.New(time.UTC),
		Source: "file://orders.csv",
		Notice: "sample data only",
	})
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, WriteReport(&buf, ds, ds.View()))
	out := buf.String()

	assert.Contains(t, out, "Source: file://orders.csv")
	assert.Contains(t, out, "Notice: sample data only")
	assert.Contains(t, out, "Orders: 2 | Skipped rows: 0 | Unparsed: 0")
	assert.Contains(t, out, "Import: 25 |")
	assert.Contains(t, out, "Import Cutoff Time")
	assert.Contains(t, out, "50.0%")
	assert.NotContains(t, out, "Delivery:")
}
