package server

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/teranos/kgviz/errors"
	grapherr "github.com/teranos/kgviz/graph/error"
	"github.com/teranos/kgviz/logger"
	"github.com/teranos/kgviz/viz/control"
	"github.com/teranos/kgviz/viz/layout"
	"github.com/teranos/kgviz/viz/render"
)

// WebSocket timeout constants following the gorilla chat example
const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period (must be less than pongWait)
	pingPeriod = 54 * time.Second

	// Control messages are small
	maxMessageSize = 64 * 1024
)

// Client is one websocket session. The controller belongs to the run
// goroutine; the pumps and loaders only exchange messages with it.
type Client struct {
	id     string
	server *Server
	conn   *websocket.Conn
	logger *zap.SugaredLogger

	ctrl    *control.Controller
	limiter *rate.Limiter
	surface *render.ImageSurface
	hit     *control.Hit // reported with the next frame

	send     chan interface{}
	inbox    chan ControlMessage
	loads    chan control.Load
	reconfig chan control.Config
	reload   chan struct{}

	ctx       context.Context
	cancel    context.CancelFunc
	closeOnce sync.Once
}

func newClient(s *Server, conn *websocket.Conn) (*Client, error) {
	id := uuid.NewString()
	ctx := logger.WithClientID(s.ctx, id)
	log := s.logger.With(logger.FieldsFromContext(ctx)...)

	ctrl, err := control.New(s.controlConfig(), s.source, log)
	if err != nil {
		return nil, err
	}

	cfg := s.Config().Server
	ctx, cancel := context.WithCancel(ctx)
	return &Client{
		id:       id,
		server:   s,
		conn:     conn,
		logger:   log,
		ctrl:     ctrl,
		limiter:  rate.NewLimiter(rate.Limit(cfg.FrameRate), cfg.FrameBurst),
		send:     make(chan interface{}, MaxClientMessageQueueSize),
		inbox:    make(chan ControlMessage, MaxClientMessageQueueSize),
		loads:    make(chan control.Load, 1),
		reconfig: make(chan control.Config, 1),
		reload:   make(chan struct{}, 1),
		ctx:      ctx,
		cancel:   cancel,
	}, nil
}

// start launches the pumps and the controller loop
func (c *Client) start() {
	c.server.wg.Add(3)
	go func() {
		defer c.server.wg.Done()
		c.readPump()
	}()
	go func() {
		defer c.server.wg.Done()
		c.writePump()
	}()
	go func() {
		defer c.server.wg.Done()
		c.run()
	}()
}

// close tears the session down; safe to call from any goroutine
func (c *Client) close() {
	c.closeOnce.Do(func() {
		c.cancel()
		c.conn.Close()
		c.server.unregister(c)
	})
}

// reconfigure hands a new controller config to the run loop, replacing any
// config not yet picked up
func (c *Client) reconfigure(cfg control.Config) {
	for {
		select {
		case c.reconfig <- cfg:
			return
		default:
		}
		select {
		case <-c.reconfig:
		default:
		}
	}
}

// notifyReload asks the run loop to refetch the selected graph
func (c *Client) notifyReload() {
	select {
	case c.reload <- struct{}{}:
	default:
	}
}

// readPump decodes control messages into the inbox
func (c *Client) readPump() {
	defer c.close()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			c.handleReadError(err)
			return
		}

		var msg ControlMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			c.logger.Warnw("JSON unmarshal error", logger.FieldError, err.Error())
			c.queue(ErrorMessage{Type: ReplyError, Error: "malformed control message: " + err.Error()})
			continue
		}

		select {
		case c.inbox <- msg:
		case <-c.ctx.Done():
			return
		}
	}
}

// handleReadError logs unexpected WebSocket read errors.
// Expected closure codes (going away, abnormal, no status) are silently ignored.
func (c *Client) handleReadError(err error) {
	if websocket.IsUnexpectedCloseError(err,
		websocket.CloseGoingAway,
		websocket.CloseAbnormalClosure,
		websocket.CloseNoStatusReceived,
		websocket.CloseNormalClosure,
	) {
		graphErr := grapherr.New(grapherr.CategoryWebSocket, err, "WebSocket connection closed unexpectedly").
			WithSubcategory(grapherr.SubcategoryWSRead)
		c.logger.Warnw("WebSocket read error", graphErr.ToLogFields()...)
	}
}

// writePump serializes queued replies and keeps the connection alive
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.close()
	}()

	for {
		select {
		case <-c.ctx.Done():
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			c.conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseGoingAway, "server closing"))
			return

		case msg := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteJSON(msg); err != nil {
				graphErr := grapherr.New(grapherr.CategoryWebSocket, err, "Failed to send message to client").
					WithSubcategory(grapherr.SubcategoryWSWrite)
				c.logger.Warnw("WebSocket write error", graphErr.ToLogFields()...)
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// queue hands msg to the write pump, waiting while its queue is full
func (c *Client) queue(msg interface{}) {
	select {
	case c.send <- msg:
	case <-c.ctx.Done():
	}
}

func (c *Client) queueError(request string, err error) {
	c.queue(ErrorMessage{
		Type:    ReplyError,
		Request: request,
		Error:   err.Error(),
		Hints:   errors.GetAllHints(err),
	})
}

// run owns the controller. State changes mark the frame dirty; frames go
// out at most at the configured rate, so a burst of changes collapses into
// one frame of the final state.
func (c *Client) run() {
	defer c.ctrl.Close()

	var (
		frameTimer *time.Timer
		frameDue   <-chan time.Time
		dirty      = true // greet with the empty frame
	)
	defer func() {
		if frameTimer != nil {
			frameTimer.Stop()
		}
	}()

	for {
		if dirty && frameDue == nil {
			reservation := c.limiter.Reserve()
			if delay := reservation.Delay(); delay <= 0 {
				c.sendFrame()
				dirty = false
			} else {
				frameTimer = time.NewTimer(delay)
				frameDue = frameTimer.C
			}
		}

		select {
		case <-c.ctx.Done():
			return

		case msg := <-c.inbox:
			if c.handle(msg) {
				dirty = true
			}

		case load := <-c.loads:
			if !c.ctrl.ApplyLoad(load) {
				c.server.metrics.GraphLoads.WithLabelValues("stale").Inc()
				continue
			}
			if load.Err != nil {
				c.server.metrics.GraphLoads.WithLabelValues("error").Inc()
			} else {
				c.server.metrics.GraphLoads.WithLabelValues("ok").Inc()
			}
			dirty = true

		case <-c.ctrl.Ticks():
			if c.ctrl.AdvanceLayer() {
				dirty = true
			}

		case cfg := <-c.reconfig:
			if err := c.ctrl.SetConfig(cfg); err != nil {
				c.logger.Warnw("Ignoring config for session", logger.FieldError, err)
				continue
			}
			dirty = true

		case <-c.reload:
			if id := c.ctrl.State().SelectedGraphID; id != "" {
				c.startLoad(id)
			}

		case <-frameDue:
			frameDue = nil
			c.sendFrame()
			dirty = false
		}
	}
}

// startLoad fetches graph id off the loop; the result comes back on loads
func (c *Client) startLoad(id string) {
	req := c.ctrl.NewRequest(id)
	c.server.wg.Add(1)
	go func() {
		defer c.server.wg.Done()
		ctx, cancel := context.WithTimeout(c.ctx, loadTimeout)
		defer cancel()

		load := c.ctrl.Fetch(ctx, req)
		select {
		case c.loads <- load:
		case <-c.ctx.Done():
		}
	}()
}

// handle applies one control message and reports whether the frame changed
func (c *Client) handle(msg ControlMessage) bool {
	c.server.metrics.Messages.WithLabelValues(messageLabel(msg.Type)).Inc()

	switch msg.Type {
	case MsgListGraphs:
		c.server.wg.Add(1)
		go func() {
			defer c.server.wg.Done()
			ctx, cancel := context.WithTimeout(c.ctx, loadTimeout)
			defer cancel()
			graphs, err := c.server.source.ListGraphs(ctx)
			if err != nil {
				c.queueError(msg.Type, err)
				return
			}
			c.queue(GraphsMessage{Type: ReplyGraphs, Graphs: graphs})
		}()
		return false

	case MsgSelectGraph:
		c.startLoad(msg.GraphID)
		return false

	case MsgSetLayout:
		mode, err := layout.ParseMode(msg.Mode)
		if err == nil {
			err = c.ctrl.SetLayoutMode(mode)
		}
		if err != nil {
			c.queueError(msg.Type, err)
			return false
		}
		return true

	case MsgSetNodeType:
		c.ctrl.SetNodeTypeFilter(msg.NodeType)
		return true

	case MsgSetEdgeType:
		c.ctrl.SetEdgeTypeFilter(msg.EdgeType)
		return true

	case MsgSearch:
		c.ctrl.SetSearch(msg.Term)
		return true

	case MsgSetLayer:
		c.ctrl.SetTemporalLayer(msg.Layer)
		return true

	case MsgToggleAnimation:
		c.ctrl.ToggleAnimation()
		return true

	case MsgZoomIn:
		c.ctrl.ZoomIn()
		return true

	case MsgZoomOut:
		c.ctrl.ZoomOut()
		return true

	case MsgSetZoom:
		if _, err := c.ctrl.SetZoom(msg.Zoom); err != nil {
			c.queueError(msg.Type, err)
			return false
		}
		return true

	case MsgResetView:
		c.ctrl.ResetView()
		return true

	case MsgClick:
		hit := c.ctrl.Click(msg.X, msg.Y)
		c.hit = &hit
		return true

	case MsgResize:
		if err := c.ctrl.Resize(msg.Width, msg.Height); err != nil {
			c.queueError(msg.Type, err)
			return false
		}
		return true

	case MsgExport:
		g := c.ctrl.Subgraph(msg.Full)
		if g == nil {
			c.queueError(msg.Type, errors.NewInvalidRequestError("no graph selected"))
			return false
		}
		c.queue(ExportMessage{Type: ReplyExport, Graph: g, Positions: c.ctrl.Positions()})
		return false

	case MsgPing:
		c.queue(PongMessage{Type: ReplyPong, Time: time.Now()})
		return false

	default:
		c.logger.Debugw("Unknown message type", "type", msg.Type)
		c.queueError(msg.Type, errors.NewInvalidRequestError("unknown message type %q", msg.Type))
		return false
	}
}

// sendFrame renders the current state and queues it
func (c *Client) sendFrame() {
	start := time.Now()
	state := c.ctrl.State()
	if c.surface == nil {
		c.surface = render.NewImageSurface(state.Width, state.Height)
	} else if w, h := c.surface.Size(); w != state.Width || h != state.Height {
		c.surface = render.NewImageSurface(state.Width, state.Height)
	}

	frame := c.ctrl.Frame()
	stats := c.ctrl.Render(c.surface)

	var buf bytes.Buffer
	if err := c.surface.EncodePNG(&buf); err != nil {
		graphErr := grapherr.New(grapherr.CategoryRender, err, "Failed to encode frame").
			WithSubcategory(grapherr.SubcategoryRenderEncode)
		c.logger.Errorw("Frame encode failed", graphErr.ToLogFields()...)
		c.queueError("frame", graphErr)
		return
	}

	msg := FrameMessage{
		Type:  ReplyFrame,
		Frame: frame,
		Stats: stats,
		PNG:   base64.StdEncoding.EncodeToString(buf.Bytes()),
		Hit:   c.hit,
	}
	c.hit = nil
	c.server.metrics.ObserveFrame(time.Since(start))
	c.queue(msg)
}

// messageLabel bounds metric label cardinality to the known message types
func messageLabel(t string) string {
	switch t {
	case MsgListGraphs, MsgSelectGraph, MsgSetLayout, MsgSetNodeType, MsgSetEdgeType,
		MsgSearch, MsgSetLayer, MsgToggleAnimation, MsgZoomIn, MsgZoomOut, MsgSetZoom,
		MsgResetView, MsgClick, MsgResize, MsgExport, MsgPing:
		return t
	default:
		return "unknown"
	}
}
