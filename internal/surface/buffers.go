package surface

import "github.com/1broseidon/surfaced/internal/scene"

// Texture returns the render-side texture for consumer, creating the
// consumer's entry on first use. It returns nil once the surface is gone.
func (s *Surface) Texture(consumer scene.ConsumerID) *Texture {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.released {
		return nil
	}
	ct, ok := s.textures[consumer]
	if !ok {
		ct = &compositorTexture{texture: &Texture{owner: s, alive: true}}
		s.textures[consumer] = ct
	}
	return ct.texture
}

// WeakTexture returns the consumer's texture without creating one.
func (s *Surface) WeakTexture(consumer scene.ConsumerID) *Texture {
	s.mu.Lock()
	defer s.mu.Unlock()
	if ct, ok := s.textures[consumer]; ok {
		return ct.texture
	}
	return nil
}

// ReleaseTexture drops consumer's entry and hands its buffer back.
func (s *Surface) ReleaseTexture(consumer scene.ConsumerID) {
	s.mu.Lock()
	ct, ok := s.textures[consumer]
	if !ok {
		s.mu.Unlock()
		return
	}
	ct.texture.freeBufferLocked()
	ct.texture.alive = false
	delete(s.textures, consumer)
	s.mu.Unlock()

	if f, ok := s.window.Surface.(scene.ConsumerForgetter); ok {
		f.ForgetConsumer(consumer)
	}
}

// textureUpdate lists the follow-ups an update needs once mu is released.
type textureUpdate struct {
	resized bool
	pending bool
}

// UpdateTexture binds the next client frame for consumer, if there is one,
// and reports whether a buffer is bound afterwards.
func (s *Surface) UpdateTexture(consumer scene.ConsumerID) bool {
	s.mu.Lock()
	ct, ok := s.textures[consumer]
	if !ok {
		s.mu.Unlock()
		return false
	}
	bound, upd := s.updateTextureLocked(consumer, ct)
	s.mu.Unlock()

	s.followUp(upd)
	return bound
}

// updateTextureLocked releases the bound buffer before acquiring the next
// one, so a consumer never holds two of the client's buffers.
func (s *Surface) updateTextureLocked(consumer scene.ConsumerID, ct *compositorTexture) (bool, textureUpdate) {
	var upd textureUpdate
	tex := ct.texture

	if ct.upToDate {
		return tex.buffer != nil, upd
	}

	ps := s.window.Surface
	if ps.BuffersReadyForCompositor(consumer) == 0 {
		return tex.buffer != nil, upd
	}

	tex.freeBufferLocked()
	renderables := ps.GenerateRenderables(consumer)
	if len(renderables) > 0 {
		for _, extra := range renderables[1:] {
			extra.Buffer.Release()
		}
		tex.setBufferLocked(renderables[0].Buffer)
		ct.frame++

		if size := tex.sizeLocked(); size != s.size {
			s.size = size
			upd.resized = true
		}
		ct.upToDate = true
	}

	upd.pending = ps.BuffersReadyForCompositor(consumer) > 0
	return tex.buffer != nil, upd
}

func (s *Surface) followUp(upd textureUpdate) {
	if upd.resized {
		s.postAlive(func() { s.emit(SizeChanged) })
	}
	if upd.pending {
		s.postAlive(s.restartFrameDropper)
	}
}

// NumBuffersReadyForCompositor reports the client frames queued for
// consumer.
func (s *Surface) NumBuffersReadyForCompositor(consumer scene.ConsumerID) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.released {
		return 0
	}
	return s.window.Surface.BuffersReadyForCompositor(consumer)
}

// CurrentFrameNumber reports how many frames consumer has bound.
func (s *Surface) CurrentFrameNumber(consumer scene.ConsumerID) uint {
	s.mu.Lock()
	defer s.mu.Unlock()
	if ct, ok := s.textures[consumer]; ok {
		return ct.frame
	}
	return 0
}

// OnCompositorSwappedBuffers marks every consumer stale after a render
// pass so the next UpdateTexture fetches a fresh frame.
func (s *Surface) OnCompositorSwappedBuffers() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, ct := range s.textures {
		ct.upToDate = false
	}
}

// StartFrameDropper lifts a suspension and starts dropping if idle.
func (s *Surface) StartFrameDropper() {
	s.dropperSuspended = false
	if !s.frameDropper.IsRunning() {
		s.logger.Debug("frame dropper started")
		s.frameDropper.Start()
	}
}

// StopFrameDropper stops dropping and holds it off until StartFrameDropper.
func (s *Surface) StopFrameDropper() {
	s.dropperSuspended = true
	s.frameDropper.Stop()
	s.logger.Debug("frame dropper stopped")
}

// FrameDropperRunning reports whether the frame dropper is armed.
func (s *Surface) FrameDropperRunning() bool {
	return s.frameDropper.IsRunning()
}

// restartFrameDropper re-arms the dropper from zero so the renderer gets a
// full interval for the next frame.
func (s *Surface) restartFrameDropper() {
	if s.dropperSuspended {
		return
	}
	s.frameDropper.Stop()
	s.frameDropper.Start()
}

// dropPendingBuffers is the frame dropper tick. A consumer with queued
// frames it has not fetched gets one forced update so the client is never
// stuck waiting for a free buffer. The dropper stops once no consumer made
// progress.
func (s *Surface) dropPendingBuffers() {
	if s.destroyed {
		return
	}

	type drop struct {
		consumer scene.ConsumerID
		pending  int
		bound    bool
	}

	s.mu.Lock()
	var drops []drop
	var updates []textureUpdate
	for consumer, ct := range s.textures {
		pending := s.window.Surface.BuffersReadyForCompositor(consumer)
		if pending == 0 {
			continue
		}
		ct.upToDate = false
		bound, upd := s.updateTextureLocked(consumer, ct)
		drops = append(drops, drop{consumer: consumer, pending: pending, bound: bound})
		updates = append(updates, upd)
	}
	s.mu.Unlock()

	allStop := true
	for _, d := range drops {
		if d.bound {
			allStop = false
			s.logger.Debug("dropped frame", "consumer", uint64(d.consumer), "left", d.pending-1)
		} else {
			s.logger.Debug("failed to drop frame", "consumer", uint64(d.consumer), "left", d.pending)
		}
	}
	for _, upd := range updates {
		s.followUp(upd)
	}
	for range drops {
		s.emit(FrameDropped)
	}
	if allStop {
		s.frameDropper.Stop()
	}
}
