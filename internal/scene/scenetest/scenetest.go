// Package scenetest provides recording doubles for the scene contracts.
package scenetest

import (
	"sync"

	"github.com/1broseidon/surfaced/internal/scene"
)

// Surface is an in-memory scene.Surface. Client frames are pushed with
// Post; everything the core asks of the protocol is recorded.
type Surface struct {
	Queue *scene.BufferQueue

	mu            sync.Mutex
	name          string
	typ           scene.Type
	state         scene.State
	size          scene.Size
	topLeft       scene.Point
	attrs         map[scene.Attrib]int
	observers     []scene.Observer
	consumed      []scene.Event
	resizes       []scene.Size
	moves         []scene.Point
	orientations  []scene.Orientation
	keymaps       [][2]string
	configures    []AttribCall
	closeRequests int
}

var (
	_ scene.Surface           = (*Surface)(nil)
	_ scene.ConsumerForgetter = (*Surface)(nil)
)

// AttribCall records one attribute write.
type AttribCall struct {
	Window scene.WindowID
	Attrib scene.Attrib
	Value  int
}

func NewSurface(name string, size scene.Size) *Surface {
	return &Surface{
		Queue: scene.NewBufferQueue(3),
		name:  name,
		typ:   scene.TypeNormal,
		state: scene.StateRestored,
		size:  size,
		attrs: map[scene.Attrib]int{scene.AttribVisibility: scene.Exposed},
	}
}

// Post submits a client frame of the given size and tells observers.
func (s *Surface) Post(size scene.Size) bool {
	ok := s.Queue.Submit(scene.Frame{
		Size:   size,
		Format: scene.FormatARGB8888,
		Stride: size.Width * 4,
		Pixels: make([]byte, size.Width*size.Height*4),
	})
	for _, o := range s.Observers() {
		o.FramesPosted()
	}
	return ok
}

func (s *Surface) Name() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.name
}

func (s *Surface) Type() scene.Type {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.typ
}

func (s *Surface) SetType(t scene.Type) {
	s.mu.Lock()
	s.typ = t
	s.mu.Unlock()
}

func (s *Surface) State() scene.State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Surface) Size() scene.Size {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.size
}

func (s *Surface) TopLeft() scene.Point {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.topLeft
}

func (s *Surface) BuffersReadyForCompositor(consumer scene.ConsumerID) int {
	return s.Queue.Ready(consumer)
}

func (s *Surface) ForgetConsumer(consumer scene.ConsumerID) {
	s.Queue.Forget(consumer)
}

func (s *Surface) GenerateRenderables(consumer scene.ConsumerID) []scene.Renderable {
	return s.Queue.Renderables(consumer, s.TopLeft())
}

func (s *Surface) Consume(ev scene.Event) {
	s.mu.Lock()
	s.consumed = append(s.consumed, ev)
	s.mu.Unlock()
}

func (s *Surface) Resize(size scene.Size) {
	s.mu.Lock()
	s.size = size
	s.resizes = append(s.resizes, size)
	s.mu.Unlock()
}

func (s *Surface) MoveTo(p scene.Point) {
	s.mu.Lock()
	s.topLeft = p
	s.moves = append(s.moves, p)
	s.mu.Unlock()
}

func (s *Surface) SetOrientation(o scene.Orientation) {
	s.mu.Lock()
	s.orientations = append(s.orientations, o)
	s.mu.Unlock()
}

func (s *Surface) SetKeymap(layout, variant string) {
	s.mu.Lock()
	s.keymaps = append(s.keymaps, [2]string{layout, variant})
	s.mu.Unlock()
}

func (s *Surface) RequestClientClose() {
	s.mu.Lock()
	s.closeRequests++
	s.mu.Unlock()
}

func (s *Surface) Query(attrib scene.Attrib) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.attrs[attrib]
}

func (s *Surface) Configure(attrib scene.Attrib, value int) {
	s.mu.Lock()
	s.attrs[attrib] = value
	s.configures = append(s.configures, AttribCall{Attrib: attrib, Value: value})
	s.mu.Unlock()
}

func (s *Surface) AddObserver(o scene.Observer) {
	s.mu.Lock()
	s.observers = append(s.observers, o)
	s.mu.Unlock()
}

func (s *Surface) RemoveObserver(o scene.Observer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, existing := range s.observers {
		if existing == o {
			s.observers = append(s.observers[:i], s.observers[i+1:]...)
			return
		}
	}
}

func (s *Surface) Observers() []scene.Observer {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]scene.Observer(nil), s.observers...)
}

func (s *Surface) Consumed() []scene.Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]scene.Event(nil), s.consumed...)
}

func (s *Surface) Resizes() []scene.Size {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]scene.Size(nil), s.resizes...)
}

func (s *Surface) Moves() []scene.Point {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]scene.Point(nil), s.moves...)
}

func (s *Surface) Orientations() []scene.Orientation {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]scene.Orientation(nil), s.orientations...)
}

func (s *Surface) Keymaps() [][2]string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([][2]string(nil), s.keymaps...)
}

func (s *Surface) Configures() []AttribCall {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]AttribCall(nil), s.configures...)
}

func (s *Surface) CloseRequests() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closeRequests
}

// Controller is a recording scene.Controller.
type Controller struct {
	mu          sync.Mutex
	attribs     []AttribCall
	forceCloses []scene.WindowID
	raises      []scene.WindowID
	activates   []scene.WindowID
}

var _ scene.Controller = (*Controller)(nil)

func NewController() *Controller {
	return &Controller{}
}

func (c *Controller) SetAttribute(w scene.Window, attrib scene.Attrib, value int) error {
	c.mu.Lock()
	c.attribs = append(c.attribs, AttribCall{Window: w.ID, Attrib: attrib, Value: value})
	c.mu.Unlock()
	return nil
}

func (c *Controller) ForceClose(w scene.Window) error {
	c.mu.Lock()
	c.forceCloses = append(c.forceCloses, w.ID)
	c.mu.Unlock()
	return nil
}

func (c *Controller) Raise(w scene.Window) error {
	c.mu.Lock()
	c.raises = append(c.raises, w.ID)
	c.mu.Unlock()
	return nil
}

func (c *Controller) Activate(w scene.Window) error {
	c.mu.Lock()
	c.activates = append(c.activates, w.ID)
	c.mu.Unlock()
	return nil
}

// Attribs returns recorded attribute writes, optionally filtered to one
// attribute.
func (c *Controller) Attribs(filter ...scene.Attrib) []AttribCall {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []AttribCall
	for _, a := range c.attribs {
		if len(filter) > 0 && a.Attrib != filter[0] {
			continue
		}
		out = append(out, a)
	}
	return out
}

func (c *Controller) ForceCloses() []scene.WindowID {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]scene.WindowID(nil), c.forceCloses...)
}

func (c *Controller) Raises() []scene.WindowID {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]scene.WindowID(nil), c.raises...)
}

func (c *Controller) Activates() []scene.WindowID {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]scene.WindowID(nil), c.activates...)
}
