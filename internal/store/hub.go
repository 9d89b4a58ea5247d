package store

import "sync"

// hub fans snapshots out to the in-process subscribers of each path
type hub struct {
	mu   sync.Mutex
	subs map[string]map[chan Snapshot]struct{}
}

func newHub() *hub {
	return &hub{subs: make(map[string]map[chan Snapshot]struct{})}
}

func (h *hub) add(path string) chan Snapshot {
	ch := make(chan Snapshot, 1)
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.subs[path] == nil {
		h.subs[path] = make(map[chan Snapshot]struct{})
	}
	h.subs[path][ch] = struct{}{}
	return ch
}

func (h *hub) remove(path string, ch chan Snapshot) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.subs[path][ch]; !ok {
		return
	}
	delete(h.subs[path], ch)
	if len(h.subs[path]) == 0 {
		delete(h.subs, path)
	}
	close(ch)
}

func (h *hub) publish(snap Snapshot) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for ch := range h.subs[snap.Path] {
		offer(ch, snap)
	}
}

// paths returns the paths that currently have subscribers
func (h *hub) paths() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]string, 0, len(h.subs))
	for p := range h.subs {
		out = append(out, p)
	}
	return out
}

func (h *hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for path, chans := range h.subs {
		for ch := range chans {
			close(ch)
		}
		delete(h.subs, path)
	}
}
