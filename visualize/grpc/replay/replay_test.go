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

package replay

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReplayRoundTrip(t *testing.T) {
	fn := filepath.Join(t.TempDir(), "run.replay")
	rep, err := NewReplay(fn)
	require.NoError(t, err)

	rep.Append("add_node", map[string]interface{}{"node": 1, "type": "moisture", "x": 70.0, "y": 50.0})
	rep.Append("status", map[string]interface{}{"text": "Cycle 1/5"})
	rep.Append("transmission", map[string]interface{}{"node": 1, "value": 21.5, "active": true})
	rep.Close()

	entries, err := ReadReplay(fn)
	require.NoError(t, err)
	require.Len(t, entries, 3)

	assert.Equal(t, "add_node", EventName(entries[0]))
	assert.Equal(t, "moisture", entries[0].GetFields()["type"].GetStringValue())
	assert.Equal(t, 70.0, entries[0].GetFields()["x"].GetNumberValue())
	assert.Equal(t, "Cycle 1/5", entries[1].GetFields()["text"].GetStringValue())
	assert.Equal(t, 21.5, entries[2].GetFields()["value"].GetNumberValue())
	assert.True(t, entries[2].GetFields()["active"].GetBoolValue())
	for _, e := range entries {
		assert.Contains(t, e.GetFields(), TimestampKey)
	}
}

func TestReplayDropsUnsupportedFields(t *testing.T) {
	fn := filepath.Join(t.TempDir(), "run.replay")
	rep, err := NewReplay(fn)
	require.NoError(t, err)

	rep.Append("bad", map[string]interface{}{"ch": make(chan int)})
	rep.Append("good", nil)
	rep.Close()

	entries, err := ReadReplay(fn)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "good", EventName(entries[0]))
}

func TestNewReplayBadPath(t *testing.T) {
	_, err := NewReplay(filepath.Join(t.TempDir(), "missing", "run.replay"))
	assert.Error(t, err)

	_, err = ReadReplay(filepath.Join(t.TempDir(), "none.replay"))
	assert.Error(t, err)
}
