package handlers

// SetExists replaces the filesystem existence probe.
func (m *Manager) SetExists(fn func(id string) bool) {
	m.exists = fn
}
