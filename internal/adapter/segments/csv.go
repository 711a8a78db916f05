package segments

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/couchcryptid/conductor-ice-risk/internal/domain"
)

// Accepted header names per column.
var csvColumns = map[string][]string{
	"name": {"name", "segment"},
	"lat":  {"lat", "latitude"},
	"lon":  {"lon", "lng", "longitude"},
	"risk": {"risk", "risk_label"},
}

func loadCSV(path string) ([]domain.SegmentRisk, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open segment table: %w", err)
	}
	defer f.Close()

	return parseCSV(f)
}

func parseCSV(r io.Reader) ([]domain.SegmentRisk, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, errors.New("segment table is empty")
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	idx, err := columnIndex(header)
	if err != nil {
		return nil, err
	}

	var segs []domain.SegmentRisk
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read segment table: %w", err)
		}
		line, _ := cr.FieldPos(0)

		lat, err := strconv.ParseFloat(strings.TrimSpace(rec[idx["lat"]]), 64)
		if err != nil {
			return nil, fmt.Errorf("line %d: invalid latitude %q", line, rec[idx["lat"]])
		}
		lon, err := strconv.ParseFloat(strings.TrimSpace(rec[idx["lon"]]), 64)
		if err != nil {
			return nil, fmt.Errorf("line %d: invalid longitude %q", line, rec[idx["lon"]])
		}
		seg, err := newSegment(rec[idx["name"]], lat, lon, rec[idx["risk"]])
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		segs = append(segs, seg)
	}
	return segs, nil
}

func columnIndex(header []string) (map[string]int, error) {
	idx := make(map[string]int, len(csvColumns))
	for i, h := range header {
		h = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))
		for col, aliases := range csvColumns {
			for _, a := range aliases {
				if h == a {
					idx[col] = i
				}
			}
		}
	}
	for _, col := range []string{"name", "lat", "lon", "risk"} {
		if _, ok := idx[col]; !ok {
			return nil, fmt.Errorf("segment table is missing the %q column", col)
		}
	}
	return idx, nil
}
