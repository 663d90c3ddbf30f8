package tarot

// Card is one row of the deck table. Loaded once at startup and
// immutable afterwards.
type Card struct {
	Index    int
	Name     string
	Upright  string            // upright meaning, may be empty
	Reversed string            // reversed meaning, may be empty
	Meta     map[string]string // extra table columns, snake_cased keys
}
