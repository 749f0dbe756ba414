package wire

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"
)

func TestEncoderWritesNewlineTerminatedJSON(t *testing.T) {
	var buf bytes.Buffer
	e := NewEncoder(&buf)

	if err := e.Encode(NewSearch("firefox")); err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if err := e.Encode(NewExit()); err != nil {
		t.Fatalf("Encode: %v", err)
	}

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d: %q", len(lines), buf.String())
	}
	if lines[0] != `{"Search":"firefox"}` {
		t.Errorf("line 0 = %q", lines[0])
	}
	if lines[1] != `"Exit"` {
		t.Errorf("line 1 = %q", lines[1])
	}
}

func TestDecodeSkipsMalformedLinesWithoutClosingEarly(t *testing.T) {
	r := strings.NewReader("{\"Search\":\"a\"}\nnot json\n\"Exit\"\n")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	out := Decode[Request](ctx, r, "test")

	var got []Request
	timeout := time.After(2 * time.Second)
	for len(got) < 2 {
		select {
		case v, ok := <-out:
			if !ok {
				t.Fatalf("channel closed early after %d values", len(got))
			}
			got = append(got, v)
		case <-timeout:
			t.Fatalf("timed out, got %d values so far", len(got))
		}
	}

	if got[0].Kind != RequestSearch || got[0].Query != "a" {
		t.Errorf("got[0] = %+v", got[0])
	}
	if got[1].Kind != RequestExit {
		t.Errorf("got[1] = %+v", got[1])
	}

	if _, ok := <-out; ok {
		t.Fatalf("expected channel to close after the reader is exhausted")
	}
}

func TestRequestRoundTrip(t *testing.T) {
	cases := []Request{
		NewSearch("hello"),
		NewInterrupt(),
		NewActivate(7),
		NewActivateContext(3, 9),
		NewComplete(2),
		NewContext(4),
		NewQuit(5),
		NewExit(),
	}

	for _, want := range cases {
		data, err := want.MarshalJSON()
		if err != nil {
			t.Fatalf("MarshalJSON(%+v): %v", want, err)
		}
		var got Request
		if err := got.UnmarshalJSON(data); err != nil {
			t.Fatalf("UnmarshalJSON(%s): %v", data, err)
		}
		if got != want {
			t.Errorf("round trip mismatch: got %+v, want %+v", got, want)
		}
	}
}

func TestIconSourceRoundTrip(t *testing.T) {
	cases := []IconSource{
		NewIconName("folder"),
		NewIconMime("text/plain"),
		NewIconWindow(1, 2),
	}

	for _, want := range cases {
		data, err := want.MarshalJSON()
		if err != nil {
			t.Fatalf("MarshalJSON: %v", err)
		}
		var got IconSource
		if err := got.UnmarshalJSON(data); err != nil {
			t.Fatalf("UnmarshalJSON(%s): %v", data, err)
		}
		if got.kind != want.kind || got.Name != want.Name || got.Mime != want.Mime {
			t.Errorf("round trip mismatch: got %+v, want %+v", got, want)
		}
	}
}
