package vfs

// Seed populates s with the default home layout every new session starts with.
func Seed(s *Store) error {
	if err := s.MkdirAll("/Documents"); err != nil {
		return err
	}
	if err := s.Write("/Documents/notes.txt", []byte("This is a note.")); err != nil {
		return err
	}
	return s.MkdirAll("/Downloads")
}

// NewSeeded returns a store populated by Seed.
func NewSeeded() *Store {
	s := NewStore()
	// Seed only fails on invalid names, and its names are constant.
	_ = Seed(s)
	return s
}
