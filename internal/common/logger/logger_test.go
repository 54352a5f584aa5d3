package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/railseat/internal/common/discord"
)

func TestParseLogLevel(t *testing.T) {
	tests := map[string]zerolog.Level{
		"debug":   zerolog.DebugLevel,
		"INFO":    zerolog.InfoLevel,
		"warn":    zerolog.WarnLevel,
		"warning": zerolog.WarnLevel,
		"error":   zerolog.ErrorLevel,
		"fatal":   zerolog.FatalLevel,
		"":        zerolog.InfoLevel,
		"verbose": zerolog.InfoLevel,
	}

	for in, want := range tests {
		if got := ParseLogLevel(in); got != want {
			t.Errorf("ParseLogLevel(%q) = %s, want %s", in, got, want)
		}
	}
}

func TestLogWithKeyValueFields(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf)

	log.Info("Ticket booked", "train_id", 3, "fare", 600, "error", errors.New("late publish"))

	var entry map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("output is not JSON: %v (%s)", err, buf.String())
	}

	if entry["message"] != "Ticket booked" {
		t.Errorf("message = %v", entry["message"])
	}
	if entry["train_id"] != float64(3) || entry["fare"] != float64(600) {
		t.Errorf("unexpected fields %v", entry)
	}
	if entry["error"] != "late publish" {
		t.Errorf("error field = %v, want late publish", entry["error"])
	}
}

func TestLogWithMapFields(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf)

	log.Warn("Audit", map[string]interface{}{"violations": 0})

	var entry map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("output is not JSON: %v", err)
	}
	if entry["level"] != "warn" || entry["violations"] != float64(0) {
		t.Errorf("unexpected entry %v", entry)
	}
}

type recordingSender struct {
	mu     sync.Mutex
	levels []string
	msgs   []string
	fields []map[string]interface{}
}

func (r *recordingSender) SendLogMessage(level, message string, fields map[string]interface{}) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.levels = append(r.levels, level)
	r.msgs = append(r.msgs, message)
	r.fields = append(r.fields, fields)
	return nil
}

func TestDiscordHookForwardsErrorsOnly(t *testing.T) {
	sender := &recordingSender{}

	var buf bytes.Buffer
	log := &loggerImpl{
		zl:     zerolog.New(&buf),
		alerts: &DiscordHook{client: sender, sync: true},
	}

	log.Info("booking accepted", "train_id", 1)
	log.Warn("slow lock")
	log.Error("Segment booked beyond capacity", "train_id", 7, "load", 3, "seats", 2)

	sender.mu.Lock()
	defer sender.mu.Unlock()
	if len(sender.msgs) != 1 {
		t.Fatalf("forwarded %d messages, want 1", len(sender.msgs))
	}
	if sender.levels[0] != "ERROR" || sender.msgs[0] != "Segment booked beyond capacity" {
		t.Errorf("forwarded %s %q", sender.levels[0], sender.msgs[0])
	}
	fields := sender.fields[0]
	if fields["train_id"] != 7 || fields["load"] != 3 || fields["seats"] != 2 {
		t.Errorf("forwarded fields = %v", fields)
	}

	// The log line carries the same fields.
	if !bytes.Contains(buf.Bytes(), []byte(`"train_id":7`)) {
		t.Errorf("log output missing train_id: %s", buf.String())
	}
}

func TestErrorAlertReachesWebhookWithFields(t *testing.T) {
	received := make(chan discord.WebhookMessage, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var msg discord.WebhookMessage
		if err := json.NewDecoder(r.Body).Decode(&msg); err != nil {
			t.Errorf("decoding webhook body: %v", err)
		}
		received <- msg
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	log := NewFromConfig(LoggerConfig{Level: zerolog.InfoLevel, DiscordURL: srv.URL})
	log.Error("Segment booked beyond capacity", "train_id", 7, "load", 3, "seats", 2)

	select {
	case msg := <-received:
		if len(msg.Embeds) != 1 {
			t.Fatalf("got %d embeds, want 1", len(msg.Embeds))
		}
		got := map[string]string{}
		for _, f := range msg.Embeds[0].Fields {
			got[f.Name] = f.Value
		}
		if got["train_id"] != "7" || got["load"] != "3" || got["seats"] != "2" {
			t.Errorf("embed fields = %v", msg.Embeds[0].Fields)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("no webhook call within 5s")
	}
}

func TestFieldMap(t *testing.T) {
	m := fieldMap("a", 1, 2, "skipped", "b", "two", "dangling")
	if len(m) != 2 || m["a"] != 1 || m["b"] != "two" {
		t.Errorf("fieldMap = %v", m)
	}

	given := map[string]interface{}{"k": "v"}
	m = fieldMap(given)
	m["extra"] = true
	if _, ok := given["extra"]; ok {
		t.Error("fieldMap aliased the caller's map")
	}
}
