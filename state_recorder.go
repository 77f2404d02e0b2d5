package chartpreset

import "sync"

// StateRecorder is a BuilderState that keeps the last values it received and
// the order of the setter calls.
type StateRecorder struct {
	mu       sync.Mutex
	preset   *Preset
	mark     any
	encoding *Object
	calls    []string
}

// NewStateRecorder creates an empty recorder.
func NewStateRecorder() *StateRecorder {
	return &StateRecorder{}
}

func (r *StateRecorder) SetPreset(preset *Preset) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.preset = preset
	r.calls = append(r.calls, "SetPreset")
}

func (r *StateRecorder) SetMark(mark any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.mark = mark
	r.calls = append(r.calls, "SetMark")
}

func (r *StateRecorder) SetEncoding(encoding *Object) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.encoding = encoding
	r.calls = append(r.calls, "SetEncoding")
}

// Preset returns the last preset received.
func (r *StateRecorder) Preset() *Preset {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.preset
}

// Mark returns the last mark received.
func (r *StateRecorder) Mark() any {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.mark
}

// Encoding returns the last encoding received.
func (r *StateRecorder) Encoding() *Object {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.encoding
}

// Calls returns the setter names in call order.
func (r *StateRecorder) Calls() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.calls))
	copy(out, r.calls)
	return out
}

// Reset forgets everything recorded so far.
func (r *StateRecorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.preset, r.mark, r.encoding, r.calls = nil, nil, nil, nil
}
