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

package logger

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseLevelString(t *testing.T) {
	cases := map[string]Level{
		"micro":   MicroLevel,
		"trace":   TraceLevel,
		"debug":   DebugLevel,
		"D":       DebugLevel,
		"info":    InfoLevel,
		"note":    NoteLevel,
		"warning": WarnLevel,
		"error":   ErrorLevel,
		"crit":    ErrorLevel,
		"off":     OffLevel,
		"none":    OffLevel,
		"default": DefaultLevel,
	}
	for s, want := range cases {
		lv, err := ParseLevelString(s)
		assert.NoError(t, err, s)
		assert.Equal(t, want, lv, s)
	}

	lv, err := ParseLevelString("verbose")
	assert.Error(t, err)
	assert.Equal(t, DefaultLevel, lv)
}

func TestLevelStringRoundTrip(t *testing.T) {
	for _, lv := range []Level{MicroLevel, TraceLevel, DebugLevel, InfoLevel, NoteLevel, WarnLevel, ErrorLevel, OffLevel} {
		parsed, err := ParseLevelString(lv.String())
		assert.NoError(t, err)
		assert.Equal(t, lv, parsed)
	}
	assert.Equal(t, "unknown", Level(42).String())
}

func TestSetLevel(t *testing.T) {
	prev := GetLevel()
	defer SetLevel(prev)

	SetLevel(WarnLevel)
	assert.Equal(t, WarnLevel, GetLevel())
	Debugf("not shown %d", 1) // filtered, must not panic
}

func TestPrintln(t *testing.T) {
	var buf bytes.Buffer
	prev := SetStdout(&buf)
	defer SetStdout(prev)

	Println("Cycle 1/5")
	assert.Equal(t, "Cycle 1/5\n", buf.String())
}

func TestAssertPanics(t *testing.T) {
	assert.NotPanics(t, func() { AssertTrue(true) })
	assert.Panics(t, func() { AssertTrue(false) })
	assert.Panics(t, func() { AssertEqual(1, 2) })
}

func TestGetMessage(t *testing.T) {
	assert.Equal(t, "plain", getMessage("plain", nil))
	assert.Equal(t, "n=3", getMessage("n=%d", []interface{}{3}))
	assert.Equal(t, "only", getMessage("", []interface{}{"only"}))
}
