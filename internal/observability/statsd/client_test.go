package statsd

import (
	"io"
	"log/slog"
	"net"
	"strings"
	"testing"
	"time"
)

func TestSanitizePrefix(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		"  review.ingest  ": "review.ingest",
		"..foo..":           "foo",
		".":                 "",
		"":                  "",
	}
	for input, want := range tests {
		if got := sanitizePrefix(input); got != want {
			t.Fatalf("sanitizePrefix(%q) = %q, want %q", input, got, want)
		}
	}
}

func TestNormalizeMetricName(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		" ingest/file ":   "ingest_file",
		"foo..bar":        "foo.bar",
		"multi  space":    "multi__space",
		"bad:name|c@0.5":  "bad_name_c_0.5",
		".processor.run.": "processor.run",
	}
	for input, want := range tests {
		if got := normalizeMetricName(input); got != want {
			t.Fatalf("normalizeMetricName(%q) = %q, want %q", input, got, want)
		}
	}
}

func TestFormatTags(t *testing.T) {
	t.Parallel()

	global := map[string]string{"env": "prod", " service ": " review-ingest "}
	local := map[string]string{"result": " success ", "": "ignored", "env": "stage"}

	got := formatTags(global, local)
	want := "|#env:stage,result:success,service:review-ingest"
	if got != want {
		t.Fatalf("formatTags mismatch\n got: %q\nwant: %q", got, want)
	}
	if got := formatTags(nil, nil); got != "" {
		t.Fatalf("formatTags(nil, nil) = %q, want empty string", got)
	}
}

func TestClientLine(t *testing.T) {
	t.Parallel()

	c := &Client{prefix: "ri", globalTags: map[string]string{"env": "dev"}}
	if got := c.line("ingest.file", "1", "c", map[string]string{"result": "success"}); got != "ri.ingest.file:1|c|#env:dev,result:success" {
		t.Fatalf("unexpected line %q", got)
	}
	if got := c.line("  ", "1", "c", nil); got != "" {
		t.Fatalf("expected empty line for blank name, got %q", got)
	}
}

func TestClientWritesOverConn(t *testing.T) {
	t.Parallel()

	clientConn, peerConn := net.Pipe()
	defer peerConn.Close()

	client := &Client{conn: clientConn, logger: discardLogger()}
	got := make(chan string, 1)
	go func() {
		buf := make([]byte, 256)
		n, _ := peerConn.Read(buf)
		got <- string(buf[:n])
	}()

	client.Timing("processor.record.duration", 1500*time.Microsecond, nil)
	select {
	case line := <-got:
		if line != "processor.record.duration:1.5|ms" {
			t.Fatalf("unexpected line %q", line)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for metric")
	}

	if !client.Enabled() {
		t.Fatal("expected client to be enabled with an open connection")
	}
	if err := client.Close(); err != nil {
		t.Fatalf("Close error: %v", err)
	}
	if client.Enabled() {
		t.Fatal("expected client to be disabled after Close")
	}
	if err := client.Close(); err != nil {
		t.Fatalf("second Close error: %v", err)
	}
	client.Count("after.close", 1, nil)
}

func TestNilClient(t *testing.T) {
	t.Parallel()

	var c *Client
	if c.Enabled() {
		t.Fatal("nil client should report disabled")
	}
	c.Count("x", 1, nil)
	if err := c.Close(); err != nil {
		t.Fatalf("nil client Close error: %v", err)
	}
}

func TestNewClientDisabledWithoutAddress(t *testing.T) {
	t.Parallel()

	client, err := NewClient(Config{Enabled: true, Address: "   "})
	if err != nil {
		t.Fatalf("NewClient error: %v", err)
	}
	if client.Enabled() {
		t.Fatal("expected client to stay disabled when address is empty")
	}
}

func TestNewClientDialError(t *testing.T) {
	t.Parallel()

	_, err := NewClient(Config{Enabled: true, Address: "bad address"})
	if err == nil {
		t.Fatal("expected NewClient to error for invalid address")
	}
	if !strings.Contains(err.Error(), "statsd dial") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestRecorderTotal(t *testing.T) {
	t.Parallel()

	r := &Recorder{}
	r.Count("ingest.file", 1, map[string]string{"result": "success"})
	r.Count("ingest.file", 2, map[string]string{"result": "failed"})
	r.Count("ingest.file", 1, map[string]string{"result": "success"})
	r.Timing("ingest.file", time.Second, map[string]string{"result": "success"})

	if got := r.Total("ingest.file", map[string]string{"result": "success"}); got != 2 {
		t.Fatalf("Total(success) = %d, want 2", got)
	}
	if got := r.Total("ingest.file", nil); got != 4 {
		t.Fatalf("Total(all) = %d, want 4", got)
	}
	if n := len(r.Samples()); n != 4 {
		t.Fatalf("expected 4 samples, got %d", n)
	}
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
