package bridge

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/bindkit-dev/bindkit/pkg/binding"
	"github.com/bindkit-dev/bindkit/pkg/observable"
	"github.com/bindkit-dev/bindkit/pkg/value"
)

func newTestObject(t *testing.T, name string, initial int64) *observable.Object {
	t.Helper()
	return observable.MustNew(name,
		observable.Descriptor{Name: "level", Kind: value.Int, Readable: true, Writable: true, Default: value.IntVal(initial)},
	)
}

func startBridge(t *testing.T, objects ...*observable.Object) (*Server, *httptest.Server) {
	t.Helper()
	s, err := New(Config{
		CheckOrigin: func(*http.Request) bool { return true },
	}, objects...)
	if err != nil {
		t.Fatalf("new bridge: %v", err)
	}
	ts := httptest.NewServer(s)
	t.Cleanup(func() {
		s.Close()
		ts.Close()
	})
	return s, ts
}

func dialWS(t *testing.T, ts *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial %s: %v", url, err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

// waitForFrame reads frames until match returns true or the deadline hits.
func waitForFrame(t *testing.T, conn *websocket.Conn, match func(Frame) bool) Frame {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			t.Fatalf("read frame: %v", err)
		}
		frame, err := decodeFrame(data)
		if err != nil {
			t.Fatalf("decode frame %q: %v", data, err)
		}
		if match(frame) {
			return frame
		}
	}
}

func sendFrame(t *testing.T, conn *websocket.Conn, f Frame) {
	t.Helper()
	data, err := encodeFrame(f)
	if err != nil {
		t.Fatalf("encode frame: %v", err)
	}
	if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
		t.Fatalf("write frame: %v", err)
	}
}

func TestListObjects(t *testing.T) {
	_, ts := startBridge(t, newTestObject(t, "alpha", 1), newTestObject(t, "beta", 2))

	resp, err := http.Get(ts.URL + "/objects")
	if err != nil {
		t.Fatalf("get /objects: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var body struct {
		Objects []string `json:"objects"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(body.Objects) != 2 {
		t.Errorf("expected 2 objects, got %v", body.Objects)
	}
}

func TestObjectStateEndpoint(t *testing.T) {
	obj := newTestObject(t, "alpha", 7)
	_, ts := startBridge(t, obj)

	resp, err := http.Get(ts.URL + "/objects/alpha")
	if err != nil {
		t.Fatalf("get /objects/alpha: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var state struct {
		Name       string                 `json:"name"`
		Properties map[string]value.Value `json:"properties"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&state); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if state.Name != "alpha" {
		t.Errorf("expected name alpha, got %q", state.Name)
	}
	if v, ok := state.Properties["level"]; !ok || !v.Equal(value.IntVal(7)) {
		t.Errorf("expected level 7, got %v", state.Properties)
	}

	missing, err := http.Get(ts.URL + "/objects/nope")
	if err != nil {
		t.Fatalf("get /objects/nope: %v", err)
	}
	missing.Body.Close()
	if missing.StatusCode != http.StatusNotFound {
		t.Errorf("expected 404 for unknown object, got %d", missing.StatusCode)
	}
}

func TestClientPrimedWithCurrentState(t *testing.T) {
	obj := newTestObject(t, "alpha", 42)
	_, ts := startBridge(t, obj)

	conn := dialWS(t, ts)
	frame := waitForFrame(t, conn, func(f Frame) bool {
		return f.Op == OpChange && f.Object == "alpha" && f.Property == "level"
	})
	if !frame.Value.Equal(value.IntVal(42)) {
		t.Errorf("expected primed level 42, got %s", frame.Value)
	}
}

func TestRemoteSetWritesAndBroadcasts(t *testing.T) {
	obj := newTestObject(t, "alpha", 0)
	_, ts := startBridge(t, obj)

	conn := dialWS(t, ts)
	sendFrame(t, conn, Frame{Op: OpSet, Object: "alpha", Property: "level", Value: value.IntVal(9)})

	frame := waitForFrame(t, conn, func(f Frame) bool {
		return f.Op == OpChange && f.Object == "alpha" && f.Value.Equal(value.IntVal(9))
	})
	if frame.Property != "level" {
		t.Errorf("unexpected property %q", frame.Property)
	}

	v, err := obj.Get("level")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if n, _ := v.Int(); n != 9 {
		t.Errorf("expected object updated to 9, got %d", n)
	}
}

func TestRemoteSetPropagatesThroughBinding(t *testing.T) {
	src := newTestObject(t, "alpha", 0)
	dst := newTestObject(t, "beta", 0)
	b, err := binding.Bind(src, "level", dst, "level", binding.Unidirectional)
	if err != nil {
		t.Fatalf("bind: %v", err)
	}
	defer b.Release()

	_, ts := startBridge(t, src, dst)
	conn := dialWS(t, ts)

	sendFrame(t, conn, Frame{Op: OpSet, Object: "alpha", Property: "level", Value: value.IntVal(5)})

	// The bound target's change must reach the wire as its own frame.
	waitForFrame(t, conn, func(f Frame) bool {
		return f.Op == OpChange && f.Object == "beta" && f.Value.Equal(value.IntVal(5))
	})

	v, _ := dst.Get("level")
	if n, _ := v.Int(); n != 5 {
		t.Errorf("expected bound target at 5, got %d", n)
	}
}

func TestRemoteSetErrors(t *testing.T) {
	obj := newTestObject(t, "alpha", 0)
	_, ts := startBridge(t, obj)
	conn := dialWS(t, ts)

	sendFrame(t, conn, Frame{Op: OpSet, Object: "ghost", Property: "level", Value: value.IntVal(1)})
	frame := waitForFrame(t, conn, func(f Frame) bool { return f.Op == OpError })
	if frame.Object != "ghost" || frame.Error == "" {
		t.Errorf("expected error frame for unknown object, got %+v", frame)
	}

	sendFrame(t, conn, Frame{Op: OpSet, Object: "alpha", Property: "missing", Value: value.IntVal(1)})
	frame = waitForFrame(t, conn, func(f Frame) bool { return f.Op == OpError && f.Object == "alpha" })
	if frame.Error == "" {
		t.Error("expected an error message for an unknown property")
	}
}

func TestMalformedFrameGetsErrorReply(t *testing.T) {
	_, ts := startBridge(t, newTestObject(t, "alpha", 0))
	conn := dialWS(t, ts)

	if err := conn.WriteMessage(websocket.TextMessage, []byte("{not json")); err != nil {
		t.Fatalf("write: %v", err)
	}
	frame := waitForFrame(t, conn, func(f Frame) bool { return f.Op == OpError })
	if frame.Error == "" {
		t.Error("expected a malformed-frame error message")
	}
}

func TestUnknownOpGetsErrorReply(t *testing.T) {
	_, ts := startBridge(t, newTestObject(t, "alpha", 0))
	conn := dialWS(t, ts)

	sendFrame(t, conn, Frame{Op: "subscribe", Object: "alpha"})
	frame := waitForFrame(t, conn, func(f Frame) bool { return f.Op == OpError })
	if !strings.Contains(frame.Error, "unknown op") {
		t.Errorf("expected unknown op error, got %q", frame.Error)
	}
}

func TestNewRejectsDuplicateAndDestroyed(t *testing.T) {
	a := newTestObject(t, "alpha", 0)
	dup := newTestObject(t, "alpha", 1)
	if _, err := New(Config{}, a, dup); err == nil {
		t.Error("expected duplicate name rejection")
	}

	dead := newTestObject(t, "beta", 0)
	dead.Destroy()
	if _, err := New(Config{}, dead); err == nil {
		t.Error("expected destroyed object rejection")
	}
}
