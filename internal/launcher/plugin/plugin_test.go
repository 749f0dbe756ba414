package plugin

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/kestrel-run/kestrel/internal/launcher/descriptor"
	"github.com/kestrel-run/kestrel/internal/launcher/wire"
)

func TestRegistryRejectsDuplicateNames(t *testing.T) {
	r := NewRegistry()
	d1 := &descriptor.Descriptor{Name: "files"}
	d2 := &descriptor.Descriptor{Name: "files"}

	key1, ok := r.Register(d1, func() chan<- wire.Request { return nil })
	if !ok {
		t.Fatalf("first registration should succeed")
	}

	key2, ok := r.Register(d2, func() chan<- wire.Request { return nil })
	if ok {
		t.Fatalf("duplicate name should be rejected")
	}
	if key1 != key2 {
		t.Fatalf("duplicate registration should report the original key: got %d want %d", key2, key1)
	}
	if r.Len() != 1 {
		t.Fatalf("registry should still hold exactly one connector, got %d", r.Len())
	}
}

func TestRegistryKeysPreserveOrder(t *testing.T) {
	r := NewRegistry()
	names := []string{"a", "b", "c"}
	for _, n := range names {
		d := &descriptor.Descriptor{Name: n}
		key, ok := r.Register(d, func() chan<- wire.Request { return nil })
		if !ok {
			t.Fatalf("register %s: unexpected duplicate", n)
		}
		c, ok := r.Get(key)
		if !ok || c.Descriptor.Name != n {
			t.Fatalf("Get(%d) = %v, want descriptor named %s", key, c, n)
		}
	}

	for i, key := range r.Keys() {
		if int(key) != i {
			t.Fatalf("Keys()[%d] = %d, want %d", i, key, i)
		}
	}
}

func TestConnectorSenderIsLazyAndCached(t *testing.T) {
	calls := 0
	d := &descriptor.Descriptor{Name: "lazy"}
	c := NewConnector(0, d, func() chan<- wire.Request {
		calls++
		return make(chan wire.Request, 1)
	})

	if c.HasSender() {
		t.Fatalf("fresh connector should have no sender yet")
	}

	s1 := c.Sender()
	s2 := c.Sender()
	if s1 != s2 {
		t.Fatalf("Sender should cache the same channel across calls")
	}
	if calls != 1 {
		t.Fatalf("factory should be invoked exactly once before DropSender, got %d", calls)
	}

	c.DropSender()
	if c.HasSender() {
		t.Fatalf("DropSender should clear the cached sender")
	}
	_ = c.Sender()
	if calls != 2 {
		t.Fatalf("Sender after DropSender should respawn via the factory, got %d calls", calls)
	}
}

func TestHelpHandlerListsOtherPlugins(t *testing.T) {
	registry := NewRegistry()
	registry.Register(&descriptor.Descriptor{Name: "files", Description: "search files"}, nil)
	registry.Register(&descriptor.Descriptor{Name: HelpPluginName}, nil)

	var responses []wire.PluginResponse
	h := NewHelpHandler(registry, func(r wire.PluginResponse) { responses = append(responses, r) })

	h.Search(context.Background(), "")

	if responses[0].Kind != wire.PluginResponseClear {
		t.Fatalf("first response should be Clear, got %v", responses[0].Kind)
	}
	last := responses[len(responses)-1]
	if last.Kind != wire.PluginResponseFinished {
		t.Fatalf("last response should be Finished, got %v", last.Kind)
	}

	var names []string
	for _, r := range responses {
		if r.Kind == wire.PluginResponseAppend {
			names = append(names, r.Append.Name)
		}
	}
	if len(names) != 1 || names[0] != "files" {
		t.Fatalf("expected only the 'files' plugin listed (help excludes itself), got %v", names)
	}
}

func TestHelpHandlerFiltersByQuery(t *testing.T) {
	registry := NewRegistry()
	registry.Register(&descriptor.Descriptor{Name: "files", Description: "search files"}, nil)
	registry.Register(&descriptor.Descriptor{Name: "websearch", Description: "search the web"}, nil)

	var responses []wire.PluginResponse
	h := NewHelpHandler(registry, func(r wire.PluginResponse) { responses = append(responses, r) })

	h.Search(context.Background(), "files")

	var names []string
	for _, r := range responses {
		if r.Kind == wire.PluginResponseAppend {
			names = append(names, r.Append.Name)
		}
	}
	if len(names) != 1 || names[0] != "files" {
		t.Fatalf("query %q should match only 'files', got %v", "files", names)
	}
}

func TestHelpHandlerCompleteEmitsFillForTheSelectedEntry(t *testing.T) {
	registry := NewRegistry()
	registry.Register(&descriptor.Descriptor{Name: "files", Description: "search files", Help: "browse your filesystem"}, nil)

	var responses []wire.PluginResponse
	h := NewHelpHandler(registry, func(r wire.PluginResponse) { responses = append(responses, r) })

	h.Search(context.Background(), "")
	responses = nil

	h.Complete(context.Background(), 0)

	if len(responses) != 1 || responses[0].Kind != wire.PluginResponseFill {
		t.Fatalf("expected a single Fill response, got %+v", responses)
	}
	if responses[0].Fill == "" {
		t.Fatalf("Fill text should not be empty")
	}
}

func TestRecentHandlerOrdersByFrequency(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "recent.db")
	db, err := OpenStore(dbPath)
	if err != nil {
		t.Fatalf("OpenStore: %v", err)
	}
	defer db.Close()

	must := func(err error) {
		t.Helper()
		if err != nil {
			t.Fatalf("RecordActivation: %v", err)
		}
	}

	must(RecordActivation(db, "/usr/bin/alpha", "Alpha"))
	must(RecordActivation(db, "/usr/bin/beta", "Beta"))
	must(RecordActivation(db, "/usr/bin/beta", "Beta"))
	time.Sleep(time.Millisecond) // LastUsed has one-second resolution; the counts (Alpha 3, Beta 2) decide the order
	must(RecordActivation(db, "/usr/bin/alpha", "Alpha"))
	must(RecordActivation(db, "/usr/bin/alpha", "Alpha"))

	var responses []wire.PluginResponse
	h := NewRecentHandler(db, func(r wire.PluginResponse) { responses = append(responses, r) })
	h.Search(context.Background(), "")

	var names []string
	for _, r := range responses {
		if r.Kind == wire.PluginResponseAppend {
			names = append(names, r.Append.Name)
		}
	}
	if len(names) != 2 || names[0] != "Alpha" || names[1] != "Beta" {
		t.Fatalf("expected [Alpha Beta] ordered by count desc, got %v", names)
	}
}

func TestRunDispatchesSearchAndExit(t *testing.T) {
	reqCh := make(chan wire.Request, 4)
	out := make(chan ResponseEnvelope, 8)
	h := &recordingHandler{}

	done := make(chan struct{})
	go func() {
		Run(context.Background(), 7, reqCh, out, h)
		close(done)
	}()

	reqCh <- wire.NewSearch("abc")
	close(reqCh)
	<-done

	if len(h.searched) != 1 || h.searched[0] != "abc" {
		t.Fatalf("expected one Search(\"abc\") call, got %v", h.searched)
	}
	if !h.exited {
		t.Fatalf("Exit should be called when the request channel closes")
	}

	// The deferred Finished envelope should be tagged with this instance's key.
	select {
	case env := <-out:
		if env.Key != 7 || env.Response.Kind != wire.PluginResponseFinished {
			t.Fatalf("unexpected trailing envelope: %+v", env)
		}
	default:
		t.Fatalf("expected a trailing Finished envelope")
	}
}

type recordingHandler struct {
	searched []string
	exited   bool
}

func (r *recordingHandler) Name() string                                         { return "recording" }
func (r *recordingHandler) Search(ctx context.Context, query string)              { r.searched = append(r.searched, query) }
func (r *recordingHandler) Activate(ctx context.Context, id wire.Indice)          {}
func (r *recordingHandler) ActivateContext(ctx context.Context, id, c wire.Indice) {}
func (r *recordingHandler) Complete(ctx context.Context, id wire.Indice)          {}
func (r *recordingHandler) Context(ctx context.Context, id wire.Indice)           {}
func (r *recordingHandler) Quit(ctx context.Context, id wire.Indice)              {}
func (r *recordingHandler) Interrupt(ctx context.Context)                         {}
func (r *recordingHandler) Exit()                                                 { r.exited = true }
