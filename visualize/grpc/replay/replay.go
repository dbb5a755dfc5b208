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
	"bufio"
	"os"
	"time"

	"github.com/pkg/errors"
	"google.golang.org/protobuf/encoding/prototext"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/fieldsense/wsn-sim/logger"
)

const (
	// EventKey and TimestampKey are set on every replay entry.
	EventKey     = "event"
	TimestampKey = "ts_us"
)

var (
	marshalOptions = prototext.MarshalOptions{
		Multiline: false,
	}
)

// Replay writes simulation events to a file, one prototext encoded Struct per line.
type Replay struct {
	f              *os.File
	fileWriter     *bufio.Writer
	pendingChan    chan *structpb.Struct
	fileWriterDone chan struct{}
	beginTime      time.Time
}

// Append queues an event with the given fields. Fields must be convertible by structpb.NewStruct.
func (rep *Replay) Append(event string, fields map[string]interface{}) {
	entry := make(map[string]interface{}, len(fields)+2)
	for k, v := range fields {
		entry[k] = v
	}
	entry[EventKey] = event
	entry[TimestampKey] = float64(time.Since(rep.beginTime) / time.Microsecond)

	s, err := structpb.NewStruct(entry)
	if err != nil {
		logger.Errorf("replay event %s dropped: %v", event, err)
		return
	}
	rep.pendingChan <- s
}

func (rep *Replay) Close() {
	close(rep.pendingChan)
	<-rep.fileWriterDone
}

func (rep *Replay) fileWriterRoutine() {
	var err error

	defer func() {
		close(rep.fileWriterDone)

		if err != nil {
			logger.Errorf("replay write routine quit unexpectedly: %v", err)
		}
	}()

	defer rep.f.Close()

	for e := range rep.pendingChan {
		var data []byte

		if data, err = marshalOptions.Marshal(e); err != nil {
			break
		}

		if _, err = rep.fileWriter.Write(data); err != nil {
			break
		}

		if _, err = rep.fileWriter.Write([]byte{'\n'}); err != nil {
			break
		}
	}

	if err == nil {
		err = rep.fileWriter.Flush()
	}
	// keep draining so that Append never blocks after a write error
	for range rep.pendingChan {
	}
}

func NewReplay(filename string) (*Replay, error) {
	f, err := os.OpenFile(filename, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return nil, errors.Wrapf(err, "create replay file %s", filename)
	}

	rep := &Replay{
		f:              f,
		fileWriter:     bufio.NewWriterSize(f, 8192),
		pendingChan:    make(chan *structpb.Struct, 10000),
		fileWriterDone: make(chan struct{}),
		beginTime:      time.Now(),
	}

	go rep.fileWriterRoutine()

	return rep, nil
}

// ReadReplay loads all entries of a replay file.
func ReadReplay(filename string) ([]*structpb.Struct, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, errors.Wrapf(err, "open replay file %s", filename)
	}
	defer f.Close()

	var entries []*structpb.Struct
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	line := 0
	for scanner.Scan() {
		line++
		if len(scanner.Bytes()) == 0 {
			continue
		}
		s := &structpb.Struct{}
		if err := prototext.Unmarshal(scanner.Bytes(), s); err != nil {
			return nil, errors.Wrapf(err, "%s:%d", filename, line)
		}
		entries = append(entries, s)
	}
	return entries, errors.WithStack(scanner.Err())
}

// EventName returns the event name of a replay entry.
func EventName(entry *structpb.Struct) string {
	return entry.GetFields()[EventKey].GetStringValue()
}
