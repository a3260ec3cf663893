package discovery

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/zippoxer/codex-search/core"
)

const (
	initialLineBuffer = 256 * 1024
	maxLineBytes      = 64 * 1024 * 1024
)

// sessionFilePattern matches Codex log names such as
// rollout-2025-05-07T17-24-21-5973b6c0-94b8-487b-a530-2aeb6098ae0e.
var sessionFilePattern = regexp.MustCompile(
	`^(.+?)-(\d{4}-\d{2}-\d{2}T\d{2}-\d{2}-\d{2})-([0-9a-fA-F-]+)$`)

const filenameTimeLayout = "2006-01-02T15:04:05"

// LoadFile parses one session log. modTime becomes the session's updated_at.
func LoadFile(path string, modTime time.Time, previewChars int) (*core.Session, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening session: %w", err)
	}
	defer f.Close()

	messages, cwd, err := ParseLog(f, previewChars)
	if err != nil {
		return nil, fmt.Errorf("reading session %s: %w", path, err)
	}

	label, createdAt, uuid := ParseFilename(path)
	return core.NewSession(core.SessionInfo{
		UUID:      uuid,
		Label:     label,
		Path:      path,
		CreatedAt: createdAt,
		UpdatedAt: modTime,
		CWD:       cwd,
	}, messages)
}

// ParseLog reads JSONL records from r and returns the user and assistant
// messages in file order along with the session working directory, if any
// record names one. Blank and malformed lines are skipped.
func ParseLog(r io.Reader, previewChars int) ([]core.Message, string, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, initialLineBuffer), maxLineBytes)

	var (
		messages []core.Message
		cwd      string
	)
	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}

		record, ok := decodeRecord(line)
		if !ok {
			continue
		}
		if cwd == "" {
			cwd = extractCWD(record)
		}
		if msg, ok := extractMessage(record, previewChars); ok {
			messages = append(messages, msg)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, "", err
	}
	return messages, cwd, nil
}

func decodeRecord(line []byte) (map[string]any, bool) {
	dec := json.NewDecoder(bytes.NewReader(line))
	dec.UseNumber()
	var record map[string]any
	if err := dec.Decode(&record); err != nil {
		return nil, false
	}
	return record, true
}

func extractCWD(record map[string]any) string {
	if payload, ok := record["payload"].(map[string]any); ok {
		if kind, _ := record["type"].(string); kind == "session_meta" {
			if cwd, ok := payload["cwd"].(string); ok {
				return cwd
			}
		}
	}
	cwd, _ := record["cwd"].(string)
	return cwd
}

// extractMessage recognises both the wrapped form
// {"payload":{"type":"message","role":...}} and a bare {"role":...} record.
func extractMessage(record map[string]any, previewChars int) (core.Message, bool) {
	source := record
	if raw, ok := record["payload"]; ok {
		payload, ok := raw.(map[string]any)
		if !ok {
			return core.Message{}, false
		}
		if kind, _ := payload["type"].(string); kind != "message" {
			return core.Message{}, false
		}
		source = payload
	}

	roleName, ok := source["role"].(string)
	if !ok {
		return core.Message{}, false
	}
	role, err := core.ParseRole(roleName)
	if err != nil {
		return core.Message{}, false
	}
	content, ok := source["content"]
	if !ok {
		return core.Message{}, false
	}
	text, ok := extractText(content)
	if !ok {
		return core.Message{}, false
	}

	ts, ok := parseTimestampValue(firstOf(source, "timestamp", "create_time", "createTime"))
	if !ok {
		ts, _ = extractTimestamp(record)
	}
	return core.NewMessage(role, text, ts, previewChars), true
}

// extractText accepts a string, an array of {text} parts joined by newlines,
// or a single {text} object.
func extractText(content any) (string, bool) {
	switch v := content.(type) {
	case string:
		return v, true
	case []any:
		var b strings.Builder
		for _, item := range v {
			part, ok := item.(map[string]any)
			if !ok {
				continue
			}
			text, ok := part["text"].(string)
			if !ok {
				continue
			}
			if b.Len() > 0 {
				b.WriteByte('\n')
			}
			b.WriteString(text)
		}
		if b.Len() == 0 {
			return "", false
		}
		return b.String(), true
	case map[string]any:
		text, ok := v["text"].(string)
		return text, ok
	}
	return "", false
}

// extractTimestamp looks for a timestamp in the payload first, then in the
// record itself.
func extractTimestamp(record map[string]any) (time.Time, bool) {
	if payload, ok := record["payload"].(map[string]any); ok {
		if ts, ok := extractTimestamp(payload); ok {
			return ts, true
		}
	}
	return parseTimestampValue(firstOf(record, "create_time", "createTime", "timestamp", "created_at", "createdAt"))
}

func firstOf(m map[string]any, keys ...string) any {
	for _, k := range keys {
		if v, ok := m[k]; ok {
			return v
		}
	}
	return nil
}

// parseTimestampValue accepts date strings and unix seconds, integral or
// fractional.
func parseTimestampValue(v any) (time.Time, bool) {
	switch t := v.(type) {
	case string:
		ts, err := ParseTimestamp(t)
		return ts, err == nil
	case json.Number:
		if n, err := t.Int64(); err == nil {
			return time.Unix(n, 0).UTC(), true
		}
		f, err := t.Float64()
		if err != nil {
			return time.Time{}, false
		}
		return time.Unix(0, int64(f*float64(time.Second))).UTC(), true
	case float64:
		return time.Unix(0, int64(t*float64(time.Second))).UTC(), true
	}
	return time.Time{}, false
}

// ParseTimestamp parses RFC 3339, RFC 3339 with a space separator, or the
// dashed filename form 2025-01-02T15-04-05 in local time.
func ParseTimestamp(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if ts, err := time.Parse(time.RFC3339, raw); err == nil {
		return ts, nil
	}
	replaced := strings.ReplaceAll(raw, " ", "T")
	if ts, err := time.Parse(time.RFC3339, replaced); err == nil {
		return ts, nil
	}
	return parseFilenameTime(replaced)
}

func parseFilenameTime(raw string) (time.Time, error) {
	date, clock, ok := strings.Cut(raw, "T")
	if !ok {
		return time.Time{}, fmt.Errorf("missing 'T' separator in %q", raw)
	}
	return time.ParseInLocation(filenameTimeLayout, date+"T"+strings.ReplaceAll(clock, "-", ":"), time.Local)
}

// ParseFilename derives label, creation time and uuid from a log file name.
// Names that do not follow the label-datetime-uuid form use the file stem
// as both label and uuid.
func ParseFilename(path string) (label string, createdAt time.Time, uuid string) {
	base := filepath.Base(path)
	stem := strings.TrimSuffix(base, filepath.Ext(base))

	m := sessionFilePattern.FindStringSubmatch(stem)
	if m == nil {
		return stem, time.Time{}, stem
	}
	createdAt, _ = parseFilenameTime(m[2])
	return strings.ReplaceAll(m[1], "-", " "), createdAt, m[3]
}
