package helpers

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestData is a test struct with header tags.
type TestData struct {
	Name  string `header:"Name"`
	Value int    `header:"Value"`
	Extra string // No header tag, should be ignored
}

func TestNewFormatter(t *testing.T) {
	tests := []struct {
		name    string
		format  OutputFormat
		wantErr bool
	}{
		{name: "table formatter", format: FormatTable},
		{name: "json formatter", format: FormatJSON},
		{name: "csv formatter", format: FormatCSV},
		{name: "plain is command specific", format: FormatPlain, wantErr: true},
		{name: "unsupported format", format: OutputFormat("unsupported"), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NewFormatter(tt.format)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.NotNil(t, got)
		})
	}
}

func TestJSONFormatter_Format(t *testing.T) {
	data := []TestData{
		{Name: "<probe>", Value: 1, Extra: "kept"},
	}

	t.Run("compact", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, (&JSONFormatter{}).Format(data, &buf))
		assert.Equal(t, `[{"Name":"<probe>","Value":1,"Extra":"kept"}]`+"\n", buf.String())
	})

	t.Run("pretty", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, (&JSONFormatter{Pretty: true}).Format(data, &buf))
		assert.Contains(t, buf.String(), "\n    \"Name\": \"<probe>\"")

		var decoded []TestData
		require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
		assert.Equal(t, data, decoded)
	})

	t.Run("single struct", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, (&JSONFormatter{}).Format(TestData{Name: "single", Value: 42}, &buf))
		assert.JSONEq(t, `{"Name":"single","Value":42,"Extra":""}`, buf.String())
	})
}

func TestTableFormatter_Format(t *testing.T) {
	tests := []struct {
		name    string
		data    any
		want    string
		wantErr bool
	}{
		{
			name: "slice of structs",
			data: []TestData{
				{Name: "test1", Value: 1, Extra: "ignored"},
				{Name: "longer-name", Value: 22, Extra: "ignored"},
			},
			want: "Name          Value\n" +
				"test1         1\n" +
				"longer-name   22\n",
		},
		{
			name: "slice of pointers",
			data: []*TestData{{Name: "p", Value: 3}},
			want: "Name   Value\np      3\n",
		},
		{
			name: "empty slice",
			data: []TestData{},
		},
		{
			name:    "non-slice data",
			data:    TestData{Name: "single", Value: 42},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			err := (&TableFormatter{}).Format(tt.data, &buf)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, buf.String())
		})
	}
}

func TestCSVFormatter_Format(t *testing.T) {
	tests := []struct {
		name    string
		data    any
		want    string
		wantErr bool
	}{
		{
			name: "slice of structs",
			data: []TestData{
				{Name: "test1", Value: 1, Extra: "ignored"},
				{Name: "with,comma", Value: 2, Extra: "ignored"},
			},
			want: "Name,Value\ntest1,1\n\"with,comma\",2\n",
		},
		{
			name: "empty slice",
			data: []TestData{},
		},
		{
			name:    "non-slice data",
			data:    TestData{Name: "single", Value: 42},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			err := (&CSVFormatter{}).Format(tt.data, &buf)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, buf.String())
		})
	}
}

func TestValidateFormat(t *testing.T) {
	supported := []OutputFormat{FormatPlain, FormatJSON}

	assert.NoError(t, ValidateFormat("plain", supported))
	assert.NoError(t, ValidateFormat("json", supported))

	err := ValidateFormat("csv", supported)
	require.Error(t, err)
	assert.Equal(t, `unsupported format "csv", must be one of: plain, json`, err.Error())
}
