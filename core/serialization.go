// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package core

import (
	"time"

	"github.com/mus-format/mus-go/ord"
	"github.com/mus-format/mus-go/varint"
)

// MUS serializers for the durable types. Timestamps are stored as Unix
// microseconds; slices are length-prefixed with a varint.
var (
	IDMUS     = idMUS{}
	TurnMUS   = turnMUS{}
	ThreadMUS = threadMUS{}
	EventMUS  = eventMUS{}

	turnsMUS = turnSliceMUS{}
)

type idMUS struct{}

func (idMUS) Marshal(id ID, bs []byte) int {
	return varint.Uint64.Marshal(uint64(id), bs)
}

func (idMUS) Unmarshal(bs []byte) (ID, int, error) {
	v, n, err := varint.Uint64.Unmarshal(bs)
	return ID(v), n, err
}

func (idMUS) Size(id ID) int {
	return varint.Uint64.Size(uint64(id))
}

func (idMUS) Skip(bs []byte) (int, error) {
	return varint.Uint64.Skip(bs)
}

type timeMUS struct{}

func (timeMUS) Marshal(t time.Time, bs []byte) int {
	return varint.Int64.Marshal(t.UnixMicro(), bs)
}

func (timeMUS) Unmarshal(bs []byte) (time.Time, int, error) {
	v, n, err := varint.Int64.Unmarshal(bs)
	if err != nil {
		return time.Time{}, n, err
	}
	return time.UnixMicro(v), n, nil
}

func (timeMUS) Size(t time.Time) int {
	return varint.Int64.Size(t.UnixMicro())
}

func (timeMUS) Skip(bs []byte) (int, error) {
	return varint.Int64.Skip(bs)
}

type turnMUS struct{}

func (turnMUS) Marshal(v Turn, bs []byte) int {
	n := ord.String.Marshal(v.Query, bs)
	return n + ord.String.Marshal(v.Answer, bs[n:])
}

func (turnMUS) Unmarshal(bs []byte) (Turn, int, error) {
	var v Turn
	var err error
	var n, n1 int
	v.Query, n, err = ord.String.Unmarshal(bs)
	if err != nil {
		return v, n, err
	}
	v.Answer, n1, err = ord.String.Unmarshal(bs[n:])
	return v, n + n1, err
}

func (turnMUS) Size(v Turn) int {
	return ord.String.Size(v.Query) + ord.String.Size(v.Answer)
}

func (s turnMUS) Skip(bs []byte) (int, error) {
	n, err := ord.String.Skip(bs)
	if err != nil {
		return n, err
	}
	n1, err := ord.String.Skip(bs[n:])
	return n + n1, err
}

type turnSliceMUS struct{}

func (turnSliceMUS) Marshal(v []Turn, bs []byte) int {
	n := varint.PositiveInt.Marshal(len(v), bs)
	for _, turn := range v {
		n += TurnMUS.Marshal(turn, bs[n:])
	}
	return n
}

func (turnSliceMUS) Unmarshal(bs []byte) ([]Turn, int, error) {
	length, n, err := varint.PositiveInt.Unmarshal(bs)
	if err != nil {
		return nil, n, err
	}
	var v []Turn
	for i := 0; i < length; i++ {
		turn, n1, err := TurnMUS.Unmarshal(bs[n:])
		n += n1
		if err != nil {
			return nil, n, err
		}
		v = append(v, turn)
	}
	return v, n, nil
}

func (turnSliceMUS) Size(v []Turn) int {
	size := varint.PositiveInt.Size(len(v))
	for _, turn := range v {
		size += TurnMUS.Size(turn)
	}
	return size
}

func (turnSliceMUS) Skip(bs []byte) (int, error) {
	length, n, err := varint.PositiveInt.Unmarshal(bs)
	if err != nil {
		return n, err
	}
	for i := 0; i < length; i++ {
		n1, err := TurnMUS.Skip(bs[n:])
		n += n1
		if err != nil {
			return n, err
		}
	}
	return n, nil
}

type threadMUS struct{}

func (threadMUS) Marshal(v Thread, bs []byte) int {
	n := ord.String.Marshal(v.Id, bs)
	n += turnsMUS.Marshal(v.Turns, bs[n:])
	return n + timeMUS{}.Marshal(v.UpdatedAt, bs[n:])
}

func (threadMUS) Unmarshal(bs []byte) (Thread, int, error) {
	var v Thread
	var err error
	var n, n1 int
	v.Id, n, err = ord.String.Unmarshal(bs)
	if err != nil {
		return v, n, err
	}
	v.Turns, n1, err = turnsMUS.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return v, n, err
	}
	v.UpdatedAt, n1, err = timeMUS{}.Unmarshal(bs[n:])
	return v, n + n1, err
}

func (threadMUS) Size(v Thread) int {
	return ord.String.Size(v.Id) + turnsMUS.Size(v.Turns) + timeMUS{}.Size(v.UpdatedAt)
}

func (threadMUS) Skip(bs []byte) (int, error) {
	n, err := ord.String.Skip(bs)
	if err != nil {
		return n, err
	}
	n1, err := turnsMUS.Skip(bs[n:])
	n += n1
	if err != nil {
		return n, err
	}
	n1, err = timeMUS{}.Skip(bs[n:])
	return n + n1, err
}

type eventMUS struct{}

func (eventMUS) Marshal(v Event, bs []byte) int {
	n := IDMUS.Marshal(v.Id, bs)
	n += ord.String.Marshal(v.Kind, bs[n:])
	n += ord.String.Marshal(v.ThreadId, bs[n:])
	n += ord.String.Marshal(v.Detail, bs[n:])
	return n + timeMUS{}.Marshal(v.Timestamp, bs[n:])
}

func (eventMUS) Unmarshal(bs []byte) (Event, int, error) {
	var v Event
	var err error
	var n, n1 int
	v.Id, n, err = IDMUS.Unmarshal(bs)
	if err != nil {
		return v, n, err
	}
	v.Kind, n1, err = ord.String.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return v, n, err
	}
	v.ThreadId, n1, err = ord.String.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return v, n, err
	}
	v.Detail, n1, err = ord.String.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return v, n, err
	}
	v.Timestamp, n1, err = timeMUS{}.Unmarshal(bs[n:])
	return v, n + n1, err
}

func (eventMUS) Size(v Event) int {
	return IDMUS.Size(v.Id) + ord.String.Size(v.Kind) + ord.String.Size(v.ThreadId) +
		ord.String.Size(v.Detail) + timeMUS{}.Size(v.Timestamp)
}

func (eventMUS) Skip(bs []byte) (int, error) {
	n, err := IDMUS.Skip(bs)
	if err != nil {
		return n, err
	}
	for range 3 {
		n1, err := ord.String.Skip(bs[n:])
		n += n1
		if err != nil {
			return n, err
		}
	}
	n1, err := timeMUS{}.Skip(bs[n:])
	return n + n1, err
}
