package surface

// Info is a point-in-time description of a surface for listings.
type Info struct {
	ID             uint64 `json:"id"`
	Name           string `json:"name"`
	AppID          string `json:"app_id"`
	Type           string `json:"type"`
	State          string `json:"state"`
	Width          int    `json:"width"`
	Height         int    `json:"height"`
	X              int    `json:"x"`
	Y              int    `json:"y"`
	Live           bool   `json:"live"`
	Focused        bool   `json:"focused"`
	Visible        bool   `json:"visible"`
	Ready          bool   `json:"ready"`
	BeingDisplayed bool   `json:"being_displayed"`
	Closing        string `json:"closing"`
	Parent         uint64 `json:"parent,omitempty"`
	Children       int    `json:"children"`
	Keymap         string `json:"keymap,omitempty"`
	ShellChrome    string `json:"shell_chrome"`
	Orientation    int    `json:"orientation"`
	FrameDropper   bool   `json:"frame_dropper"`
}

// Describe captures the surface's current state.
func (s *Surface) Describe() Info {
	size := s.Size()
	info := Info{
		ID:             s.ID(),
		Name:           s.Name(),
		AppID:          s.AppID(),
		Type:           s.Type().String(),
		State:          s.state.String(),
		Width:          size.Width,
		Height:         size.Height,
		X:              s.position.X,
		Y:              s.position.Y,
		Live:           s.live,
		Focused:        s.focused,
		Visible:        s.Visible(),
		Ready:          s.ready,
		BeingDisplayed: s.IsBeingDisplayed(),
		Closing:        s.closing.String(),
		Children:       s.children.Len(),
		Keymap:         s.keymap,
		ShellChrome:    s.shellChrome.String(),
		Orientation:    int(s.orientation),
		FrameDropper:   s.frameDropper.IsRunning(),
	}
	if s.parent != nil {
		info.Parent = s.parent.ID()
	}
	return info
}
