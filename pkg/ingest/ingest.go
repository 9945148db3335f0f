// Package ingest reads raw bowtie tables from CSV, JSON or YAML files.
package ingest

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/dd0wney/cluso-bowtie/pkg/bowtie"
)

// ErrUnsupportedFormat is returned for file extensions LoadFile does not
// recognize.
var ErrUnsupportedFormat = errors.New("unsupported table format")

// LoadFile reads a table, choosing the decoder by extension: .csv, .json,
// .yaml or .yml.
func LoadFile(path string) ([]bowtie.RawRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open table: %w", err)
	}
	defer f.Close()

	var rows []bowtie.RawRecord
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".csv":
		rows, err = ReadCSV(f)
	case ".json":
		rows, err = ReadJSON(f)
	case ".yaml", ".yml":
		rows, err = ReadYAML(f)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return rows, nil
}

// ReadCSV reads a table whose first row holds the column names.
func ReadCSV(r io.Reader) ([]bowtie.RawRecord, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\ufeff")
	}

	var rows []bowtie.RawRecord
	for {
		fields, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		row := make(bowtie.RawRecord, len(header))
		for i, name := range header {
			if i < len(fields) {
				row[name] = fields[i]
			}
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// ReadJSON reads an array of objects. Scalar values are converted to
// strings; nulls are dropped.
func ReadJSON(r io.Reader) ([]bowtie.RawRecord, error) {
	var raw []map[string]any
	dec := json.NewDecoder(r)
	dec.UseNumber()
	if err := dec.Decode(&raw); err != nil {
		return nil, err
	}
	return fromMaps(raw)
}

// ReadYAML reads a sequence of mappings, converting scalars as ReadJSON.
func ReadYAML(r io.Reader) ([]bowtie.RawRecord, error) {
	var raw []map[string]any
	if err := yaml.NewDecoder(r).Decode(&raw); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, err
	}
	return fromMaps(raw)
}

func fromMaps(raw []map[string]any) ([]bowtie.RawRecord, error) {
	rows := make([]bowtie.RawRecord, 0, len(raw))
	for i, m := range raw {
		row := make(bowtie.RawRecord, len(m))
		for k, v := range m {
			s, ok, err := scalar(v)
			if err != nil {
				return nil, fmt.Errorf("row %d field %q: %w", i, k, err)
			}
			if ok {
				row[k] = s
			}
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func scalar(v any) (string, bool, error) {
	switch x := v.(type) {
	case nil:
		return "", false, nil
	case string:
		return x, true, nil
	case json.Number:
		return x.String(), true, nil
	case int:
		return strconv.Itoa(x), true, nil
	case int64:
		return strconv.FormatInt(x, 10), true, nil
	case uint64:
		return strconv.FormatUint(x, 10), true, nil
	case float64:
		return strconv.FormatFloat(x, 'g', -1, 64), true, nil
	case bool:
		return strconv.FormatBool(x), true, nil
	default:
		return "", false, fmt.Errorf("unsupported value of type %T", v)
	}
}
