// Copyright (c) 2024, The FieldSense Authors.
// All rights reserved.
//
// Redistribution and use in source and binary forms, with or without
// modification, are permitted provided that the following conditions are met:
// 1. Redistributions of source code must retain the above copyright
//    notice, this list of conditions and the following disclaimer.
// 2. Redistributions in binary form must reproduce the above copyright
//    notice, this list of conditions and the following disclaimer in the
//    documentation and/or other materials provided with the distribution.
// 3. Neither the name of the copyright holder nor the
//    names of its contributors may be used to endorse or promote products
//    derived from this software without specific prior written permission.
//
// THIS SOFTWARE IS PROVIDED BY THE COPYRIGHT HOLDERS AND CONTRIBUTORS "AS IS"
// AND ANY EXPRESS OR IMPLIED WARRANTIES, INCLUDING, BUT NOT LIMITED TO, THE
// IMPLIED WARRANTIES OF MERCHANTABILITY AND FITNESS FOR A PARTICULAR PURPOSE
// ARE DISCLAIMED. IN NO EVENT SHALL THE COPYRIGHT HOLDER OR CONTRIBUTORS BE
// LIABLE FOR ANY DIRECT, INDIRECT, INCIDENTAL, SPECIAL, EXEMPLARY, OR
// CONSEQUENTIAL DAMAGES (INCLUDING, BUT NOT LIMITED TO, PROCUREMENT OF
// SUBSTITUTE GOODS OR SERVICES; LOSS OF USE, DATA, OR PROFITS; OR BUSINESS
// INTERRUPTION) HOWEVER CAUSED AND ON ANY THEORY OF LIABILITY, WHETHER IN
// CONTRACT, STRICT LIABILITY, OR TORT (INCLUDING NEGLIGENCE OR OTHERWISE)
// ARISING IN ANY WAY OUT OF THE USE OF THIS SOFTWARE, EVEN IF ADVISED OF THE
// POSSIBILITY OF SUCH DAMAGE.

package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"

	. "github.com/fieldsense/wsn-sim/types"
)

// Row is one line of an export file as read back.
type Row struct {
	NodeId    NodeId
	Timestamp time.Time
	DataType  DataType
	Value     float64
	Unit      string
	DutyCycle int
}

// ReadCSV parses an export. Header names may carry surrounding spaces.
func ReadCSV(r io.Reader) ([]Row, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = len(Header)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err == io.EOF {
		return nil, errors.Errorf("empty export file")
	} else if err != nil {
		return nil, errors.Wrap(err, "read CSV header")
	}
	for i, h := range header {
		if strings.TrimSpace(h) != Header[i] {
			return nil, errors.Errorf("unexpected column %q, want %q", h, Header[i])
		}
	}

	var rows []Row
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		} else if err != nil {
			return nil, errors.Wrapf(err, "read CSV line %d", line)
		}
		row, err := parseRow(rec)
		if err != nil {
			return nil, errors.Wrapf(err, "line %d", line)
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// LoadCSV reads the export file at path.
func LoadCSV(path string) ([]Row, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "open %s", path)
	}
	defer f.Close()
	return ReadCSV(f)
}

func parseRow(rec []string) (Row, error) {
	var row Row
	var err error

	if row.NodeId, err = strconv.Atoi(strings.TrimSpace(rec[0])); err != nil {
		return row, errors.Wrap(err, "node id")
	}
	if row.Timestamp, err = time.ParseInLocation(TimestampFormat, strings.TrimSpace(rec[1]), time.Local); err != nil {
		return row, errors.Wrap(err, "timestamp")
	}
	if row.DataType, err = ParseDataType(rec[2]); err != nil {
		return row, err
	}
	if row.Value, err = strconv.ParseFloat(strings.TrimSpace(rec[3]), 64); err != nil {
		return row, errors.Wrap(err, "value")
	}
	row.Unit = strings.TrimSpace(rec[4])
	duty := strings.TrimSuffix(strings.TrimSpace(rec[5]), "%")
	if row.DutyCycle, err = strconv.Atoi(duty); err != nil {
		return row, errors.Wrap(err, "duty cycle")
	}
	return row, nil
}

// LatestByType returns the most recent row per data type. Of rows with equal timestamps the later one wins.
func LatestByType(rows []Row) map[DataType]Row {
	res := make(map[DataType]Row)
	for _, row := range rows {
		if prev, ok := res[row.DataType]; ok && row.Timestamp.Before(prev.Timestamp) {
			continue
		}
		res[row.DataType] = row
	}
	return res
}

// FormatLatest renders the field conditions: one line per data type, then the time of the newest row.
func FormatLatest(latest map[DataType]Row) string {
	var sb strings.Builder
	var newest time.Time
	sb.WriteString("Latest Field Conditions\n")
	for _, dt := range AllDataTypes {
		row, ok := latest[dt]
		if !ok {
			fmt.Fprintf(&sb, "  %-12s N/A\n", dt.Title()+":")
			continue
		}
		fmt.Fprintf(&sb, "  %-12s %.1f%s (node %d)\n", dt.Title()+":", row.Value, row.Unit, row.NodeId)
		if row.Timestamp.After(newest) {
			newest = row.Timestamp
		}
	}
	if newest.IsZero() {
		sb.WriteString("Last Updated: N/A\n")
	} else {
		fmt.Fprintf(&sb, "Last Updated: %s\n", newest.Format(TimestampFormat))
	}
	return sb.String()
}
