package static

// SetExists replaces the existence check that runs before a file is opened.
func (s *Server) SetExists(fn func(string) bool) {
	s.exists = fn
}
