package storage

import (
	"errors"
	"fmt"
	"time"

	"github.com/mus-format/mus-go"
	"github.com/mus-format/mus-go/ord"
	"github.com/mus-format/mus-go/varint"
	"github.com/zippoxer/codex-search/core"
)

// errLengthOutOfRange is returned when a stored message count cannot fit in
// the remaining bytes.
var errLengthOutOfRange = errors.New("message count out of range")

type messageRecord struct {
	Role      core.Role
	Text      string
	Timestamp time.Time
}

type sessionRecord struct {
	ModTime      time.Time
	Size         int64
	PreviewChars int
	UUID         string
	Label        string
	Path         string
	CreatedAt    time.Time
	UpdatedAt    time.Time
	CWD          string
	Messages     []messageRecord
}

var (
	timeMUS          = timeSer{}
	roleMUS          = roleSer{}
	messageRecordMUS = messageRecordSer{}
	sessionRecordMUS = sessionRecordSer{}
)

var (
	_ mus.Serializer[time.Time]     = timeMUS
	_ mus.Serializer[core.Role]     = roleMUS
	_ mus.Serializer[messageRecord] = messageRecordMUS
	_ mus.Serializer[sessionRecord] = sessionRecordMUS
)

// timeSer writes a presence flag followed by Unix nanoseconds, so the zero
// time survives a round trip and sub-second mtimes still compare equal.
type timeSer struct{}

func (timeSer) Marshal(v time.Time, bs []byte) (n int) {
	if v.IsZero() {
		return ord.Bool.Marshal(false, bs)
	}
	n = ord.Bool.Marshal(true, bs)
	return n + varint.Int64.Marshal(v.UnixNano(), bs[n:])
}

func (timeSer) Unmarshal(bs []byte) (v time.Time, n int, err error) {
	set, n, err := ord.Bool.Unmarshal(bs)
	if err != nil || !set {
		return
	}
	nanos, n1, err := varint.Int64.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v = time.Unix(0, nanos).UTC()
	return
}

func (timeSer) Size(v time.Time) (size int) {
	if v.IsZero() {
		return ord.Bool.Size(false)
	}
	return ord.Bool.Size(true) + varint.Int64.Size(v.UnixNano())
}

func (timeSer) Skip(bs []byte) (n int, err error) {
	set, n, err := ord.Bool.Unmarshal(bs)
	if err != nil || !set {
		return
	}
	n1, err := varint.Int64.Skip(bs[n:])
	n += n1
	return
}

type roleSer struct{}

func (roleSer) Marshal(v core.Role, bs []byte) (n int) {
	return varint.Int.Marshal(int(v), bs)
}

func (roleSer) Unmarshal(bs []byte) (v core.Role, n int, err error) {
	raw, n, err := varint.Int.Unmarshal(bs)
	if err != nil {
		return
	}
	v = core.Role(raw)
	err = core.ValidateRole(v)
	return
}

func (roleSer) Size(v core.Role) (size int) {
	return varint.Int.Size(int(v))
}

func (roleSer) Skip(bs []byte) (n int, err error) {
	return varint.Int.Skip(bs)
}

type messageRecordSer struct{}

func (messageRecordSer) Marshal(v messageRecord, bs []byte) (n int) {
	n = roleMUS.Marshal(v.Role, bs)
	n += ord.String.Marshal(v.Text, bs[n:])
	return n + timeMUS.Marshal(v.Timestamp, bs[n:])
}

func (messageRecordSer) Unmarshal(bs []byte) (v messageRecord, n int, err error) {
	v.Role, n, err = roleMUS.Unmarshal(bs)
	if err != nil {
		return
	}
	var n1 int
	v.Text, n1, err = ord.String.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.Timestamp, n1, err = timeMUS.Unmarshal(bs[n:])
	n += n1
	return
}

func (messageRecordSer) Size(v messageRecord) (size int) {
	size = roleMUS.Size(v.Role)
	size += ord.String.Size(v.Text)
	return size + timeMUS.Size(v.Timestamp)
}

func (messageRecordSer) Skip(bs []byte) (n int, err error) {
	n, err = roleMUS.Skip(bs)
	if err != nil {
		return
	}
	n1, err := ord.String.Skip(bs[n:])
	n += n1
	if err != nil {
		return
	}
	n1, err = timeMUS.Skip(bs[n:])
	n += n1
	return
}

type sessionRecordSer struct{}

func (sessionRecordSer) Marshal(v sessionRecord, bs []byte) (n int) {
	n = timeMUS.Marshal(v.ModTime, bs)
	n += varint.Int64.Marshal(v.Size, bs[n:])
	n += varint.Int.Marshal(v.PreviewChars, bs[n:])
	n += ord.String.Marshal(v.UUID, bs[n:])
	n += ord.String.Marshal(v.Label, bs[n:])
	n += ord.String.Marshal(v.Path, bs[n:])
	n += timeMUS.Marshal(v.CreatedAt, bs[n:])
	n += timeMUS.Marshal(v.UpdatedAt, bs[n:])
	n += ord.String.Marshal(v.CWD, bs[n:])
	n += varint.Int.Marshal(len(v.Messages), bs[n:])
	for _, m := range v.Messages {
		n += messageRecordMUS.Marshal(m, bs[n:])
	}
	return
}

func (sessionRecordSer) Unmarshal(bs []byte) (v sessionRecord, n int, err error) {
	var n1 int
	steps := []func() error{
		func() (err error) { v.ModTime, n1, err = timeMUS.Unmarshal(bs[n:]); return },
		func() (err error) { v.Size, n1, err = varint.Int64.Unmarshal(bs[n:]); return },
		func() (err error) { v.PreviewChars, n1, err = varint.Int.Unmarshal(bs[n:]); return },
		func() (err error) { v.UUID, n1, err = ord.String.Unmarshal(bs[n:]); return },
		func() (err error) { v.Label, n1, err = ord.String.Unmarshal(bs[n:]); return },
		func() (err error) { v.Path, n1, err = ord.String.Unmarshal(bs[n:]); return },
		func() (err error) { v.CreatedAt, n1, err = timeMUS.Unmarshal(bs[n:]); return },
		func() (err error) { v.UpdatedAt, n1, err = timeMUS.Unmarshal(bs[n:]); return },
		func() (err error) { v.CWD, n1, err = ord.String.Unmarshal(bs[n:]); return },
	}
	for _, step := range steps {
		err = step()
		n += n1
		if err != nil {
			return
		}
	}

	count, n1, err := varint.Int.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	// Every message takes at least one byte, which bounds the allocation.
	if count < 0 || count > len(bs)-n {
		err = fmt.Errorf("%w: %d", errLengthOutOfRange, count)
		return
	}
	v.Messages = make([]messageRecord, count)
	for i := range v.Messages {
		v.Messages[i], n1, err = messageRecordMUS.Unmarshal(bs[n:])
		n += n1
		if err != nil {
			return
		}
	}
	return
}

func (sessionRecordSer) Size(v sessionRecord) (size int) {
	size = timeMUS.Size(v.ModTime)
	size += varint.Int64.Size(v.Size)
	size += varint.Int.Size(v.PreviewChars)
	size += ord.String.Size(v.UUID)
	size += ord.String.Size(v.Label)
	size += ord.String.Size(v.Path)
	size += timeMUS.Size(v.CreatedAt)
	size += timeMUS.Size(v.UpdatedAt)
	size += ord.String.Size(v.CWD)
	size += varint.Int.Size(len(v.Messages))
	for _, m := range v.Messages {
		size += messageRecordMUS.Size(m)
	}
	return
}

func (sessionRecordSer) Skip(bs []byte) (n int, err error) {
	_, n, err = sessionRecordMUS.Unmarshal(bs)
	return
}
