package storage

import (
	"errors"
	"testing"
	"time"

	"github.com/mus-format/mus-go/varint"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zippoxer/codex-search/core"
)

func TestTimeMUS(t *testing.T) {
	tests := []struct {
		name string
		in   time.Time
	}{
		{"zero", time.Time{}},
		{"epoch", time.Unix(0, 0)},
		{"nanoseconds", time.Date(2025, 5, 4, 10, 30, 0, 123456789, time.UTC)},
		{"other zone", time.Date(2025, 5, 4, 10, 30, 0, 1, time.FixedZone("x", -7200))},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bs := make([]byte, timeMUS.Size(tt.in))
			n := timeMUS.Marshal(tt.in, bs)
			assert.Equal(t, len(bs), n)

			out, n, err := timeMUS.Unmarshal(bs)
			require.NoError(t, err)
			assert.Equal(t, len(bs), n)
			assert.Equal(t, tt.in.IsZero(), out.IsZero())
			assert.True(t, tt.in.Equal(out), "want %v, got %v", tt.in, out)

			skipped, err := timeMUS.Skip(bs)
			require.NoError(t, err)
			assert.Equal(t, len(bs), skipped)
		})
	}
}

func TestRoleMUS_RejectsUnknownRole(t *testing.T) {
	bs := make([]byte, varint.Int.Size(7))
	varint.Int.Marshal(7, bs)

	_, _, err := roleMUS.Unmarshal(bs)
	require.Error(t, err)
	assert.True(t, errors.Is(err, core.ErrInvalidRole))
}

func TestSessionRecordMUS(t *testing.T) {
	rec := sessionRecord{
		ModTime:      time.Date(2025, 5, 4, 10, 30, 0, 5, time.UTC),
		Size:         4096,
		PreviewChars: 120,
		UUID:         "abc",
		Label:        "rollout",
		Path:         "/s/rollout.jsonl",
		UpdatedAt:    time.Date(2025, 5, 4, 10, 30, 0, 0, time.UTC),
		Messages: []messageRecord{
			{Role: core.RoleUser, Text: "héllo wörld"},
			{Role: core.RoleAssistant, Text: "", Timestamp: time.Date(2025, 5, 4, 10, 31, 0, 0, time.UTC)},
		},
	}

	bs := make([]byte, sessionRecordMUS.Size(rec))
	assert.Equal(t, len(bs), sessionRecordMUS.Marshal(rec, bs))

	out, n, err := sessionRecordMUS.Unmarshal(bs)
	require.NoError(t, err)
	assert.Equal(t, len(bs), n)
	assert.Equal(t, rec, out)

	skipped, err := sessionRecordMUS.Skip(bs)
	require.NoError(t, err)
	assert.Equal(t, len(bs), skipped)

	t.Run("message count larger than payload", func(t *testing.T) {
		empty := sessionRecord{}
		bs := make([]byte, sessionRecordMUS.Size(empty))
		sessionRecordMUS.Marshal(empty, bs)
		// The message count is the final varint of an empty record.
		count := make([]byte, varint.Int.Size(1000))
		varint.Int.Marshal(1000, count)
		bs = append(bs[:len(bs)-1], count...)

		_, _, err := sessionRecordMUS.Unmarshal(bs)
		require.Error(t, err)
		assert.True(t, errors.Is(err, errLengthOutOfRange))
	})
}
