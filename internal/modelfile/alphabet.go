package modelfile

// Alphabet maps between state or action names and integer IDs.
type Alphabet struct {
	ToID  map[string]int
	ToStr []string
}

// NewAlphabet creates an alphabet from names in ID order. Duplicate names
// keep their first ID.
func NewAlphabet(names ...string) *Alphabet {
	a := &Alphabet{ToID: make(map[string]int)}
	for _, n := range names {
		a.Add(n)
	}
	return a
}

// Add adds a name if not already present and returns its ID.
func (a *Alphabet) Add(s string) int {
	if id, ok := a.ToID[s]; ok {
		return id
	}
	id := len(a.ToStr)
	a.ToID[s] = id
	a.ToStr = append(a.ToStr, s)
	return id
}

// Get returns the ID for a name, or -1 if not found.
func (a *Alphabet) Get(s string) int {
	if id, ok := a.ToID[s]; ok {
		return id
	}
	return -1
}

// Name returns the name for an ID, or "" when out of range.
func (a *Alphabet) Name(id int) string {
	if id < 0 || id >= len(a.ToStr) {
		return ""
	}
	return a.ToStr[id]
}

// Size returns the number of entries.
func (a *Alphabet) Size() int {
	return len(a.ToStr)
}
