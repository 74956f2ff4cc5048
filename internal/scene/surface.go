package scene

// Surface is the protocol object behind one client window. Implementations
// must not block: the render goroutine calls the buffer methods directly.
type Surface interface {
	Name() string
	Type() Type
	State() State
	Size() Size
	TopLeft() Point

	// BuffersReadyForCompositor reports how many client frames are queued
	// for consumer and not yet acquired.
	BuffersReadyForCompositor(consumer ConsumerID) int
	// GenerateRenderables acquires the next queued frame for consumer. It
	// returns nil when nothing is queued.
	GenerateRenderables(consumer ConsumerID) []Renderable

	Consume(ev Event)

	Resize(size Size)
	MoveTo(p Point)
	SetOrientation(o Orientation)
	SetKeymap(layout, variant string)
	RequestClientClose()

	Query(attrib Attrib) int
	Configure(attrib Attrib, value int)

	AddObserver(o Observer)
	RemoveObserver(o Observer)
}

// ConsumerForgetter is implemented by surfaces that keep per-consumer
// queues. ForgetConsumer drops whatever the queue still holds for consumer.
type ConsumerForgetter interface {
	ForgetConsumer(consumer ConsumerID)
}

// Controller is the window-management side of the protocol layer.
type Controller interface {
	SetAttribute(w Window, attrib Attrib, value int) error
	// ForceClose destroys the window without the client's cooperation.
	ForceClose(w Window) error
	Raise(w Window) error
	// Activate focuses w; the zero Window clears activation.
	Activate(w Window) error
}

// Observer receives protocol-side surface changes. Callbacks arrive on the
// windowing goroutine.
type Observer interface {
	FramesPosted()
	AttributeChanged(attrib Attrib, value int)
	NameChanged(name string)
	CursorChanged(shape CursorShape)
	MinimumWidthChanged(v int)
	MinimumHeightChanged(v int)
	MaximumWidthChanged(v int)
	MaximumHeightChanged(v int)
	WidthIncrementChanged(v int)
	HeightIncrementChanged(v int)
	ShellChromeChanged(c ShellChrome)
}
