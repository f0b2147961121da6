package page

import "sort"

// ScrollLock is held while any modal surface is open. Owners are named so
// closing one surface does not unlock the page under another.
type ScrollLock struct {
	owners map[string]struct{}
}

func NewScrollLock() *ScrollLock {
	return &ScrollLock{owners: map[string]struct{}{}}
}

func (l *ScrollLock) Lock(owner string) { l.owners[owner] = struct{}{} }

func (l *ScrollLock) Unlock(owner string) { delete(l.owners, owner) }

func (l *ScrollLock) Locked() bool { return len(l.owners) > 0 }

func (l *ScrollLock) Owners() []string {
	out := make([]string, 0, len(l.owners))
	for o := range l.owners {
		out = append(out, o)
	}
	sort.Strings(out)
	return out
}
