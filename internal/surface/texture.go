package surface

import (
	"fmt"

	"github.com/1broseidon/surfaced/internal/scene"
)

// Texture is the render-side handle for one (surface, consumer) pair. The
// owning Surface is the arena for its textures: a Texture stays valid only
// while Alive reports true, and every accessor is serialized by the
// surface's texture mutex.
type Texture struct {
	owner *Surface

	// guarded by owner.mu
	buffer scene.Buffer
	alive  bool
}

// Alive reports whether the owning surface still exists and still tracks
// this texture's consumer.
func (t *Texture) Alive() bool {
	t.owner.mu.Lock()
	defer t.owner.mu.Unlock()
	return t.alive
}

// HasBuffer reports whether a client buffer is bound.
func (t *Texture) HasBuffer() bool {
	t.owner.mu.Lock()
	defer t.owner.mu.Unlock()
	return t.buffer != nil
}

// TextureSize returns the size of the bound buffer, or the zero Size.
func (t *Texture) TextureSize() scene.Size {
	t.owner.mu.Lock()
	defer t.owner.mu.Unlock()
	return t.sizeLocked()
}

// BufferID returns the id of the bound buffer, or zero.
func (t *Texture) BufferID() uint64 {
	t.owner.mu.Lock()
	defer t.owner.mu.Unlock()
	if t.buffer == nil {
		return 0
	}
	return t.buffer.ID()
}

func (t *Texture) sizeLocked() scene.Size {
	if t.buffer == nil {
		return scene.Size{}
	}
	return t.buffer.Size()
}

// setBufferLocked binds b. Buffers in a format the renderer cannot sample
// are a broken graphics stack, not a runtime condition.
func (t *Texture) setBufferLocked(b scene.Buffer) {
	if !supportedFormat(b.Format()) {
		panic(fmt.Sprintf("surface: unsupported pixel format %v", b.Format()))
	}
	t.buffer = b
}

// freeBufferLocked hands the bound buffer back to the client.
func (t *Texture) freeBufferLocked() {
	if t.buffer == nil {
		return
	}
	t.buffer.Release()
	t.buffer = nil
}

func supportedFormat(f scene.PixelFormat) bool {
	switch f {
	case scene.FormatARGB8888, scene.FormatXRGB8888,
		scene.FormatABGR8888, scene.FormatXBGR8888, scene.FormatRGB565:
		return true
	default:
		return false
	}
}

// compositorTexture is the per-consumer bookkeeping entry.
type compositorTexture struct {
	texture  *Texture
	frame    uint
	upToDate bool
}
