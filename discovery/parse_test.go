package discovery

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zippoxer/codex-search/core"
)

func TestParseFilename(t *testing.T) {
	tests := []struct {
		name      string
		path      string
		wantLabel string
		wantUUID  string
		wantTime  time.Time
	}{
		{
			name:      "codex rollout",
			path:      "/s/2025/05/07/rollout-2025-05-07T17-24-21-5973b6c0-94b8-487b-a530-2aeb6098ae0e.jsonl",
			wantLabel: "rollout",
			wantUUID:  "5973b6c0-94b8-487b-a530-2aeb6098ae0e",
			wantTime:  time.Date(2025, 5, 7, 17, 24, 21, 0, time.Local),
		},
		{
			name:      "dashed label",
			path:      "fix-login-bug-2025-01-02T03-04-05-abc123.jsonl",
			wantLabel: "fix login bug",
			wantUUID:  "abc123",
			wantTime:  time.Date(2025, 1, 2, 3, 4, 5, 0, time.Local),
		},
		{
			name:      "free form name",
			path:      "/tmp/notes.JSONL",
			wantLabel: "notes",
			wantUUID:  "notes",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			label, created, uuid := ParseFilename(tt.path)
			assert.Equal(t, tt.wantLabel, label)
			assert.Equal(t, tt.wantUUID, uuid)
			assert.True(t, tt.wantTime.Equal(created), "created = %v, want %v", created, tt.wantTime)
		})
	}
}

func TestParseTimestamp(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    time.Time
		wantErr bool
	}{
		{name: "rfc3339", raw: "2025-03-01T10:00:00Z", want: time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)},
		{name: "fractional offset", raw: "2025-03-01T12:00:00.5+02:00", want: time.Date(2025, 3, 1, 10, 0, 0, 5e8, time.UTC)},
		{name: "space separator", raw: " 2025-03-01 10:00:00Z ", want: time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)},
		{name: "filename form", raw: "2025-03-01T10-00-00", want: time.Date(2025, 3, 1, 10, 0, 0, 0, time.Local)},
		{name: "garbage", raw: "yesterday", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseTimestamp(tt.raw)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.True(t, tt.want.Equal(got), "got %v, want %v", got, tt.want)
		})
	}
}

func TestParseLog(t *testing.T) {
	log := strings.Join([]string{
		`{"timestamp":"2025-03-01T09:00:00Z","type":"session_meta","payload":{"id":"abc","cwd":"/work/app"}}`,
		`{"timestamp":"2025-03-01T09:00:01Z","type":"response_item","payload":{"type":"message","role":"user","content":[{"type":"input_text","text":"<environment_context>cwd</environment_context>"}]}}`,
		`{"timestamp":"2025-03-01T09:00:02Z","type":"response_item","payload":{"type":"message","role":"user","content":[{"type":"input_text","text":"fix the"},{"type":"input_text","text":"login bug"}]}}`,
		``,
		`not json at all`,
		`{"type":"response_item","payload":{"type":"reasoning","summary":[]}}`,
		`{"type":"response_item","payload":{"type":"message","role":"system","content":"ignored"}}`,
		`{"type":"response_item","payload":{"type":"message","role":"assistant","content":{"text":"done"},"create_time":1740819723}}`,
		`{"role":"assistant","content":"bare record","timestamp":1740819724.5}`,
		`{"role":"user","content":[]}`,
	}, "\n")

	messages, cwd, err := ParseLog(strings.NewReader(log), 240)
	require.NoError(t, err)
	assert.Equal(t, "/work/app", cwd)
	require.Len(t, messages, 4)

	assert.Equal(t, core.RoleUser, messages[1].Role)
	assert.Equal(t, "fix the\nlogin bug", messages[1].FullText)
	assert.True(t, messages[1].Timestamp.Equal(time.Date(2025, 3, 1, 9, 0, 2, 0, time.UTC)),
		"timestamp falls back to the record: %v", messages[1].Timestamp)

	assert.Equal(t, core.RoleAssistant, messages[2].Role)
	assert.Equal(t, "done", messages[2].FullText)
	assert.Equal(t, int64(1740819723), messages[2].Timestamp.Unix())

	assert.Equal(t, "bare record", messages[3].FullText)
	assert.Equal(t, int64(1740819724500), messages[3].Timestamp.UnixMilli())
}

func TestParseLog_PreviewChars(t *testing.T) {
	log := `{"role":"user","content":"hello world"}`
	messages, _, err := ParseLog(strings.NewReader(log), 6)
	require.NoError(t, err)
	require.Len(t, messages, 1)
	assert.Equal(t, "hello…", messages[0].Text)
	assert.Equal(t, "hello world", messages[0].FullText)
}

func TestParseLog_TopLevelCWD(t *testing.T) {
	log := `{"cwd":"/repo","role":"user","content":"hi"}`
	_, cwd, err := ParseLog(strings.NewReader(log), 240)
	require.NoError(t, err)
	assert.Equal(t, "/repo", cwd)
}
