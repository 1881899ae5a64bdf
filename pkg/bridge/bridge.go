// Package bridge exposes observable objects over a WebSocket: connected
// clients receive every property change as a JSON frame and may write
// properties with set frames. Remote writes go through the objects'
// normal Set path, so local subscribers and bindings observe them as
// ordinary changes.
package bridge

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/bindkit-dev/bindkit/pkg/observable"
	"github.com/bindkit-dev/bindkit/pkg/snapshot"
)

// Config configures a bridge Server.
type Config struct {
	// Logger is the structured logger. Defaults to slog.Default().
	Logger *slog.Logger

	// CheckOrigin is passed to the WebSocket upgrader. Defaults to the
	// gorilla same-origin policy.
	CheckOrigin func(*http.Request) bool

	// TracerName names the otel tracer used for set-op spans.
	// Defaults to "bindkit-bridge".
	TracerName string

	// SendBuffer is the per-client outbound frame buffer. A client that
	// falls this many frames behind is disconnected. Default 64.
	SendBuffer int
}

// Server serves a set of observable objects over HTTP and WebSocket.
//
// Routes:
//
//	GET /objects         — names and descriptors of exposed objects
//	GET /objects/{name}  — current readable state of one object
//	GET /ws              — the WebSocket endpoint
//
// All property writes coming over the wire are serialized through one
// mutex: bindings require serial notification delivery, and connection
// read loops run on their own goroutines.
type Server struct {
	router   chi.Router
	upgrader websocket.Upgrader
	logger   *slog.Logger
	tracer   trace.Tracer

	objects map[string]*observable.Object
	subs    []*observable.Subscription

	// writeMu serializes every Set performed on behalf of a client.
	writeMu sync.Mutex

	clients   map[*client]struct{}
	clientsMu sync.Mutex

	sendBuffer int
	closed     bool
}

// client is one connected WebSocket peer with a buffered write pump.
type client struct {
	conn *websocket.Conn
	send chan []byte
	once sync.Once
}

// close shuts the client down; safe to call from any goroutine.
func (c *client) close() {
	c.once.Do(func() {
		close(c.send)
	})
}

// New creates a bridge serving the given objects. Object names must be
// unique; destroyed objects are rejected.
func New(cfg Config, objects ...*observable.Object) (*Server, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	tracerName := cfg.TracerName
	if tracerName == "" {
		tracerName = "bindkit-bridge"
	}
	sendBuffer := cfg.SendBuffer
	if sendBuffer <= 0 {
		sendBuffer = 64
	}

	s := &Server{
		logger: logger,
		tracer: otel.Tracer(tracerName),
		upgrader: websocket.Upgrader{
			CheckOrigin: cfg.CheckOrigin,
		},
		objects:    make(map[string]*observable.Object, len(objects)),
		clients:    make(map[*client]struct{}),
		sendBuffer: sendBuffer,
	}

	for _, obj := range objects {
		if obj.Destroyed() {
			return nil, fmt.Errorf("bridge: object %q is destroyed", obj.Name())
		}
		if _, dup := s.objects[obj.Name()]; dup {
			return nil, fmt.Errorf("bridge: duplicate object name %q", obj.Name())
		}
		s.objects[obj.Name()] = obj

		name := obj.Name()
		sub := obj.Subscribe(nil, func(ch observable.Change) {
			s.broadcast(changeFrame(name, ch.Property, ch.Value))
		})
		s.subs = append(s.subs, sub)
	}

	r := chi.NewRouter()
	r.Get("/objects", s.handleList)
	r.Get("/objects/{name}", s.handleObject)
	r.Get("/ws", s.handleWS)
	s.router = r

	return s, nil
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Close cancels the bridge's subscriptions and disconnects all clients.
// The exposed objects are untouched.
func (s *Server) Close() {
	s.clientsMu.Lock()
	if s.closed {
		s.clientsMu.Unlock()
		return
	}
	s.closed = true
	clients := make([]*client, 0, len(s.clients))
	for c := range s.clients {
		clients = append(clients, c)
	}
	s.clients = map[*client]struct{}{}
	s.clientsMu.Unlock()

	for _, sub := range s.subs {
		sub.Cancel()
	}
	for _, c := range clients {
		c.close()
	}
}

// objectState is the JSON shape for the REST endpoints.
type objectState struct {
	Name       string         `json:"name"`
	Properties map[string]any `json:"properties"`
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	names := make([]string, 0, len(s.objects))
	for name := range s.objects {
		names = append(names, name)
	}
	writeJSON(w, http.StatusOK, map[string]any{"objects": names})
}

func (s *Server) handleObject(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	obj, ok := s.objects[name]
	if !ok {
		http.Error(w, "unknown object", http.StatusNotFound)
		return
	}

	snap, err := snapshot.Capture(obj)
	if err != nil {
		s.logger.Error("object capture failed", "object", name, "error", err)
		http.Error(w, "capture failed", http.StatusInternalServerError)
		return
	}

	state := objectState{Name: name, Properties: make(map[string]any, len(snap.Properties))}
	for prop, v := range snap.Properties {
		state.Properties[prop] = v
	}
	writeJSON(w, http.StatusOK, state)
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Error("websocket upgrade failed", "error", err)
		return
	}

	c := &client{
		conn: conn,
		send: make(chan []byte, s.sendBuffer),
	}

	s.clientsMu.Lock()
	if s.closed {
		s.clientsMu.Unlock()
		conn.Close()
		return
	}
	s.clients[c] = struct{}{}
	s.clientsMu.Unlock()

	// Prime the client with the current readable state of every object
	// before any live change can race ahead of it.
	s.writeMu.Lock()
	for name, obj := range s.objects {
		snap, err := snapshot.Capture(obj)
		if err != nil {
			continue
		}
		for prop, v := range snap.Properties {
			s.enqueue(c, changeFrame(name, prop, v))
		}
	}
	s.writeMu.Unlock()

	go s.writePump(c)
	go s.readPump(r, c)
}

// writePump drains the client's send channel onto the socket.
func (s *Server) writePump(c *client) {
	for msg := range c.send {
		if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			break
		}
	}
	c.conn.Close()
}

// readPump handles inbound frames until the connection drops.
func (s *Server) readPump(r *http.Request, c *client) {
	defer s.dropClient(c)

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			return
		}

		frame, err := decodeFrame(data)
		if err != nil {
			s.enqueue(c, errorFrame("", "", fmt.Errorf("malformed frame: %w", err)))
			continue
		}

		switch frame.Op {
		case OpSet:
			s.handleSet(r, c, frame)
		default:
			s.enqueue(c, errorFrame(frame.Object, frame.Property, fmt.Errorf("unknown op %q", frame.Op)))
		}
	}
}

// handleSet performs one remote property write inside a tracing span.
func (s *Server) handleSet(r *http.Request, c *client, frame Frame) {
	_, span := s.tracer.Start(
		r.Context(),
		"bridge.set",
		trace.WithSpanKind(trace.SpanKindServer),
		trace.WithAttributes(
			attribute.String("bridge.object", frame.Object),
			attribute.String("bridge.property", frame.Property),
		),
	)
	defer span.End()

	err := s.applySet(frame)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		s.logger.Warn("remote set rejected",
			"object", frame.Object,
			"property", frame.Property,
			"error", err,
		)
		s.enqueue(c, errorFrame(frame.Object, frame.Property, err))
		return
	}
	span.SetStatus(codes.Ok, "")
}

// applySet looks up the object and writes the property under writeMu.
func (s *Server) applySet(frame Frame) error {
	obj, ok := s.objects[frame.Object]
	if !ok {
		return fmt.Errorf("unknown object %q", frame.Object)
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	return obj.Set(frame.Property, frame.Value)
}

// broadcast fans a frame out to every connected client.
func (s *Server) broadcast(frame Frame) {
	s.clientsMu.Lock()
	clients := make([]*client, 0, len(s.clients))
	for c := range s.clients {
		clients = append(clients, c)
	}
	s.clientsMu.Unlock()

	for _, c := range clients {
		s.enqueue(c, frame)
	}
}

// enqueue queues a frame for one client, disconnecting it if the buffer
// is full. The send happens under clientsMu so it can never race the
// channel close in dropClient.
func (s *Server) enqueue(c *client, frame Frame) {
	msg, err := encodeFrame(frame)
	if err != nil {
		s.logger.Error("frame encode failed", "error", err)
		return
	}

	var full bool
	s.clientsMu.Lock()
	if _, ok := s.clients[c]; ok {
		select {
		case c.send <- msg:
		default:
			full = true
		}
	}
	s.clientsMu.Unlock()

	if full {
		s.logger.Warn("client too slow, dropping connection")
		s.dropClient(c)
	}
}

// dropClient removes a client and shuts its pump down.
func (s *Server) dropClient(c *client) {
	s.clientsMu.Lock()
	_, present := s.clients[c]
	delete(s.clients, c)
	s.clientsMu.Unlock()

	if present {
		c.close()
	}
}

// writeJSON writes a JSON response body.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		// Headers are gone; nothing useful left to do.
		return
	}
}
