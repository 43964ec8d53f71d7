package web

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/cory-johannsen/mudmap/internal/game/scene"
	"github.com/cory-johannsen/mudmap/internal/game/session"
	"github.com/cory-johannsen/mudmap/internal/game/view"
	"github.com/cory-johannsen/mudmap/internal/game/world"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = pongWait * 9 / 10
	maxMessageSize = 4096
	outboxSize     = 32
)

// Client message types.
const (
	msgArea   = "area"
	msgAnchor = "anchor"
	msgSource = "source"
	msgKey    = "key"
	msgWheel  = "wheel"
	msgDrag   = "drag"
	msgHover  = "hover"
	msgLeave  = "leave"
	msgPoint  = "point"
)

// clientMessage is one input event sent by the page.
type clientMessage struct {
	Type   string  `json:"type"`
	Area   string  `json:"area,omitempty"`
	Anchor string  `json:"anchor,omitempty"`
	Source string  `json:"source,omitempty"`
	Key    string  `json:"key,omitempty"`
	DeltaY float64 `json:"deltaY,omitempty"`
	DX     float64 `json:"dx,omitempty"`
	DY     float64 `json:"dy,omitempty"`
	Room   string  `json:"room,omitempty"`
	X      float64 `json:"x,omitempty"`
	Y      float64 `json:"y,omitempty"`
}

// event converts m into a view event.
//
// Postcondition: Returns an error for unknown types and missing or malformed fields.
func (m clientMessage) event() (view.Event, error) {
	switch m.Type {
	case msgArea:
		id := strings.TrimSpace(m.Area)
		if id == "" {
			return nil, fmt.Errorf("area message without an area")
		}
		return view.SelectArea{AreaID: id}, nil
	case msgAnchor:
		id, ok := view.ParseAnchor(m.Anchor)
		if !ok {
			return nil, fmt.Errorf("anchor %q names no area", m.Anchor)
		}
		return view.SelectArea{AreaID: id}, nil
	case msgSource:
		if m.Source == "" {
			return nil, fmt.Errorf("source message without a source")
		}
		return view.SelectSource{Source: m.Source}, nil
	case msgKey:
		r, size := utf8.DecodeRuneInString(m.Key)
		if r == utf8.RuneError || size != len(m.Key) {
			return nil, fmt.Errorf("key %q is not a single character", m.Key)
		}
		return view.KeyPress{Key: r}, nil
	case msgWheel:
		return view.Wheel{DeltaY: m.DeltaY}, nil
	case msgDrag:
		return view.Drag{Delta: scene.Point{X: m.DX, Y: m.DY}}, nil
	case msgHover:
		if m.Room == "" {
			return nil, fmt.Errorf("hover message without a room")
		}
		return view.HoverEnter{RoomID: m.Room}, nil
	case msgLeave:
		return view.HoverLeave{}, nil
	case msgPoint:
		return view.PointAt{At: scene.Point{X: m.X, Y: m.Y}}, nil
	}
	return nil, fmt.Errorf("unknown message type %q", m.Type)
}

// serverMessage is pushed to the page: "areas" after connect and every
// source change, "frame" after every visible change, "error" for rejected input.
type serverMessage struct {
	Type    string             `json:"type"`
	Anchor  string             `json:"anchor,omitempty"`
	State   *view.State        `json:"state,omitempty"`
	Levels  []int              `json:"levels,omitempty"`
	SVG     string             `json:"svg,omitempty"`
	Source  string             `json:"source,omitempty"`
	Sources []string           `json:"sources,omitempty"`
	Areas   []world.AreaOption `json:"areas,omitempty"`
	Error   string             `json:"error,omitempty"`
}

// viewerConn pairs one WebSocket with the view session it drives. The read
// loop owns the session; the write loop only drains the outbox.
type viewerConn struct {
	server *Server
	ws     *websocket.Conn
	view   *view.Session
	viewer *session.Viewer
	token  string
	ctx    context.Context
	logger *zap.Logger
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	header := http.Header{}
	token, ok := readToken(r)
	if !ok {
		c := newTokenCookie()
		token = c.Value
		header.Add("Set-Cookie", c.String())
	}

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()
	stop := context.AfterFunc(s.ctx, cancel)
	defer stop()

	st := s.initialState(ctx, token, r.URL.Query().Get("anchor"))
	vs, err := view.NewSession(s.catalog, s.preparer, s.builder, s.logger, st)
	if err != nil {
		s.logger.Error("creating view session", zap.Error(err))
		writeError(w, http.StatusServiceUnavailable, "no maps are available")
		return
	}

	ws, err := s.upgrader.Upgrade(w, r, header)
	if err != nil {
		s.logger.Warn("websocket upgrade", zap.Error(err))
		return
	}

	viewer, err := s.viewers.Add(session.SurfaceWeb, r.RemoteAddr, st.Source, st.AreaID, outboxSize)
	if err != nil {
		s.logger.Error("registering viewer", zap.Error(err))
		_ = ws.Close()
		return
	}

	s.conns.Add(1)
	defer s.conns.Done()

	c := &viewerConn{
		server: s,
		ws:     ws,
		view:   vs,
		viewer: viewer,
		token:  token,
		ctx:    ctx,
		logger: s.logger.With(
			zap.String("viewer", viewer.ID),
			zap.String("remote_addr", r.RemoteAddr),
		),
	}
	c.logger.Info("web viewer connected", zap.String("source", st.Source), zap.String("area", st.AreaID))

	written := make(chan struct{})
	go func() {
		defer close(written)
		c.writePump()
	}()

	c.readPump()

	if err := s.viewers.Remove(viewer.ID); err != nil {
		c.logger.Warn("removing viewer", zap.Error(err))
	}
	<-written
	c.logger.Info("web viewer disconnected")
}

// readPump applies incoming events until the socket fails or closes.
func (c *viewerConn) readPump() {
	c.ws.SetReadLimit(maxMessageSize)
	_ = c.ws.SetReadDeadline(time.Now().Add(pongWait))
	c.ws.SetPongHandler(func(string) error {
		return c.ws.SetReadDeadline(time.Now().Add(pongWait))
	})

	c.pushAreas()
	c.pushFrame()

	for {
		_, data, err := c.ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.logger.Warn("websocket read", zap.Error(err))
			}
			return
		}
		var msg clientMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			c.pushError(fmt.Sprintf("malformed message: %v", err))
			continue
		}
		c.apply(msg)
	}
}

// apply dispatches one message and pushes whatever changed.
func (c *viewerConn) apply(msg clientMessage) {
	ev, err := msg.event()
	if err != nil {
		c.pushError(err.Error())
		return
	}
	if p, ok := ev.(view.PointAt); ok {
		p.Viewport = c.server.svg.Viewport()
		ev = p
	}

	before := c.view.State()
	out := c.view.Dispatch(ev)
	after := c.view.State()

	if msg.Type == msgSource && after.Source != msg.Source {
		c.pushError(fmt.Sprintf("unknown map source %q", msg.Source))
		return
	}
	if after.Source != before.Source || after.AreaID != before.AreaID {
		if _, err := c.server.viewers.Move(c.viewer.ID, after.Source, after.AreaID); err != nil {
			c.logger.Warn("moving viewer", zap.Error(err))
		}
		c.server.saveBookmark(c.ctx, c.token, after, c.logger)
	}
	if after.Source != before.Source {
		c.pushAreas()
	}
	if out.Changed {
		c.pushFrame()
	}
}

func (c *viewerConn) pushFrame() {
	st := c.view.State()
	data, err := json.Marshal(serverMessage{
		Type:   "frame",
		Anchor: st.Anchor(),
		State:  &st,
		Levels: c.view.Area().Levels,
		SVG:    string(c.server.svg.Render(c.view.Frame())),
	})
	if err != nil {
		c.logger.Error("encoding message", zap.String("type", "frame"), zap.Error(err))
		return
	}
	replaced, err := c.viewer.Outbox.PushFrame(data)
	if err != nil {
		c.logger.Debug("dropping frame", zap.Error(err))
		return
	}
	if replaced {
		c.logger.Debug("superseded unsent frame")
	}
}

func (c *viewerConn) pushAreas() {
	c.push(serverMessage{
		Type:    "areas",
		Source:  c.view.State().Source,
		Sources: c.view.Sources(),
		Areas:   c.view.AreaOptions(),
	})
}

func (c *viewerConn) pushError(msg string) {
	c.push(serverMessage{Type: "error", Error: msg})
}

func (c *viewerConn) push(msg serverMessage) {
	data, err := json.Marshal(msg)
	if err != nil {
		c.logger.Error("encoding message", zap.String("type", msg.Type), zap.Error(err))
		return
	}
	if err := c.viewer.Outbox.Push(data); err != nil {
		c.logger.Warn("dropping message", zap.String("type", msg.Type), zap.Error(err))
	}
}

// write sends one outbox message; ok false means the outbox closed. It
// reports whether the pump should continue.
func (c *viewerConn) write(data []byte, ok bool) bool {
	_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
	if !ok {
		_ = c.ws.WriteMessage(websocket.CloseMessage, []byte{})
		return false
	}
	if err := c.ws.WriteMessage(websocket.TextMessage, data); err != nil {
		c.logger.Debug("websocket write", zap.Error(err))
		return false
	}
	return true
}

// drain writes every ordinary message already queued.
func (c *viewerConn) drain() bool {
	for {
		select {
		case data, ok := <-c.viewer.Outbox.Messages():
			if !c.write(data, ok) {
				return false
			}
		default:
			return true
		}
	}
}

// writePump drains the outbox to the socket and keeps it alive with pings.
// It closes the socket when the outbox closes, the context ends, or a write fails.
func (c *viewerConn) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.ws.Close()
	}()

	for {
		select {
		case data, ok := <-c.viewer.Outbox.Messages():
			if !c.write(data, ok) {
				return
			}
		case data, ok := <-c.viewer.Outbox.Frames():
			// Messages queued before this frame go out first.
			if !c.drain() || !c.write(data, ok) {
				return
			}
		case <-ticker.C:
			_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-c.ctx.Done():
			_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			_ = c.ws.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"))
			return
		}
	}
}
