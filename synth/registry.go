package synth

import "sort"

// Registry maps note keys to their sounding voice. It is not safe for
// concurrent use; Synth serializes access.
type Registry struct {
	voices map[string]*Voice
}

func NewRegistry() *Registry {
	return &Registry{voices: make(map[string]*Voice)}
}

// Register stores v under key and returns the voice it replaced, if any
func (r *Registry) Register(key string, v *Voice) *Voice {
	prev := r.voices[key]
	r.voices[key] = v
	return prev
}

func (r *Registry) Lookup(key string) (*Voice, bool) {
	v, ok := r.voices[key]
	return v, ok
}

// Remove deletes key and returns the voice it held. Removing an absent
// key does nothing.
func (r *Registry) Remove(key string) (*Voice, bool) {
	v, ok := r.voices[key]
	if ok {
		delete(r.voices, key)
	}
	return v, ok
}

func (r *Registry) Len() int {
	return len(r.voices)
}

// Keys returns the registered keys in sorted order
func (r *Registry) Keys() []string {
	keys := make([]string, 0, len(r.voices))
	for k := range r.voices {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
