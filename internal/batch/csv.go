package batch

import (
	"encoding/csv"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/healthfc/misinfoscan/internal/model"
)

// csvHeader is the stable export schema. Keywords are semicolon-joined.
var csvHeader = []string{
	"video_file",
	"transcript",
	"label",
	"keywords",
	"confidence_score",
	"audio_length_sec",
	"time_taken_sec",
}

// WriteCSV encodes records as UTF-8 CSV, one row per record.
func WriteCSV(w io.Writer, records []model.AnalysisRecord) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return err
	}
	for _, rec := range records {
		row := []string{
			rec.FileName,
			rec.Transcript,
			string(rec.Result.Label),
			strings.Join(rec.Result.Keywords, ";"),
			formatSec(rec.Result.Confidence),
			formatSec(rec.AudioLengthSec),
			formatSec(rec.ElapsedSec),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteCSVFile writes records to path, creating parent directories.
func WriteCSVFile(path string, records []model.AnalysisRecord) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := WriteCSV(f, records); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func formatSec(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}

// ReadCSV decodes records previously written by WriteCSV. Keywords split on
// semicolons; numeric columns that fail to parse become zero rather than
// failing the whole file.
func ReadCSV(r io.Reader) ([]model.AnalysisRecord, error) {
	cr := csv.NewReader(r)
	rows, err := cr.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	col := make(map[string]int, len(rows[0]))
	for i, name := range rows[0] {
		col[name] = i
	}
	field := func(row []string, name string) string {
		i, ok := col[name]
		if !ok || i >= len(row) {
			return ""
		}
		return row[i]
	}

	records := make([]model.AnalysisRecord, 0, len(rows)-1)
	for _, row := range rows[1:] {
		var kws []string
		for _, kw := range strings.Split(field(row, "keywords"), ";") {
			if kw = strings.TrimSpace(kw); kw != "" {
				kws = append(kws, kw)
			}
		}
		conf, _ := strconv.ParseFloat(field(row, "confidence_score"), 64)
		audioLen, _ := strconv.ParseFloat(field(row, "audio_length_sec"), 64)
		elapsed, _ := strconv.ParseFloat(field(row, "time_taken_sec"), 64)
		records = append(records, model.AnalysisRecord{
			FileName:       field(row, "video_file"),
			Transcript:     field(row, "transcript"),
			AudioLengthSec: audioLen,
			ElapsedSec:     elapsed,
			Result: model.ClassificationResult{
				Label:      model.ParseLabel(field(row, "label")),
				Keywords:   kws,
				Confidence: conf,
			},
		})
	}
	return records, nil
}

// ReadCSVFile reads a results CSV from disk.
func ReadCSVFile(path string) ([]model.AnalysisRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ReadCSV(f)
}
