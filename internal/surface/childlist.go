package surface

import "github.com/1broseidon/surfaced/internal/notify"

// ChildList is the ordered list of a surface's children, newest first.
type ChildList struct {
	surfaces []*Surface

	// Changed fires with the new length after every mutation.
	Changed notify.Signal[int]
}

// Prepend adds s at the front unless it is already listed.
func (l *ChildList) Prepend(s *Surface) {
	if l.Contains(s) {
		return
	}
	l.surfaces = append([]*Surface{s}, l.surfaces...)
	l.Changed.Emit(len(l.surfaces))
}

func (l *ChildList) Remove(s *Surface) {
	for i, c := range l.surfaces {
		if c == s {
			l.surfaces = append(l.surfaces[:i], l.surfaces[i+1:]...)
			l.Changed.Emit(len(l.surfaces))
			return
		}
	}
}

func (l *ChildList) Contains(s *Surface) bool {
	for _, c := range l.surfaces {
		if c == s {
			return true
		}
	}
	return false
}

func (l *ChildList) Len() int { return len(l.surfaces) }

func (l *ChildList) At(i int) *Surface { return l.surfaces[i] }

// Surfaces returns a copy of the list.
func (l *ChildList) Surfaces() []*Surface {
	return append([]*Surface(nil), l.surfaces...)
}
