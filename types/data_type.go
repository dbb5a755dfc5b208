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

package types

import (
	"strings"

	"github.com/pkg/errors"
)

// DataType is the physical quantity a sensor node measures.
type DataType string

const (
	Moisture    DataType = "moisture"
	Temperature DataType = "temperature"
	Humidity    DataType = "humidity"
	Light       DataType = "light"
	Ph          DataType = "ph"
)

// AllDataTypes lists the data types in their default node-assignment order.
var AllDataTypes = []DataType{Moisture, Temperature, Humidity, Light, Ph}

// ValueRange is a closed interval [Min, Max].
type ValueRange struct {
	Min float64
	Max float64
}

// Contains reports whether v lies within the range, bounds included.
func (r ValueRange) Contains(v float64) bool {
	return v >= r.Min && v <= r.Max
}

var sensingRanges = map[DataType]ValueRange{
	Moisture:    {20, 80},
	Temperature: {15, 35},
	Humidity:    {20, 80},
	Light:       {100, 1000},
	Ph:          {5.5, 7.5},
}

// criticalityThresholds are the acceptable (low, high) bands. A value outside its band is critical
// and escalates the duty cycle of the node that sensed it.
var criticalityThresholds = map[DataType]ValueRange{
	Moisture:    {30, 70},
	Temperature: {18, 30},
	Humidity:    {40, 70},
	Light:       {200, 800},
	Ph:          {6.0, 7.0},
}

var units = map[DataType]string{
	Moisture:    "%",
	Temperature: "°C",
	Humidity:    "%",
	Light:       "µmol/m²/s",
	Ph:          "",
}

// ParseDataType parses a data type name, case-insensitive.
func ParseDataType(s string) (DataType, error) {
	dt := DataType(strings.ToLower(strings.TrimSpace(s)))
	if !dt.IsValid() {
		return "", errors.Errorf("unknown data type: %q", s)
	}
	return dt, nil
}

func (dt DataType) IsValid() bool {
	_, ok := sensingRanges[dt]
	return ok
}

// SensingRange is the range a sensed value is drawn from.
func (dt DataType) SensingRange() ValueRange {
	return sensingRanges[dt]
}

// Thresholds returns the acceptable band for the data type.
func (dt DataType) Thresholds() ValueRange {
	return criticalityThresholds[dt]
}

// IsCritical reports whether value falls outside the acceptable band.
func (dt DataType) IsCritical(value float64) bool {
	band, ok := criticalityThresholds[dt]
	return ok && !band.Contains(value)
}

func (dt DataType) Unit() string {
	return units[dt]
}

// Title returns the name with a capital first letter, as used in labels and summaries.
func (dt DataType) Title() string {
	if len(dt) == 0 {
		return ""
	}
	return strings.ToUpper(string(dt[:1])) + string(dt[1:])
}

func (dt DataType) String() string {
	return string(dt)
}
