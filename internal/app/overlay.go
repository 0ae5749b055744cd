package app

// openOverlay shows the help or detail document over the panes. Switching
// between the two drops whatever the previous one had rendered.
func (m *Model) openOverlay(mode overlayMode) {
	switch {
	case m.overlay == mode:
		return
	case m.overlay != overlayNone:
		m.resetDocument()
	}
	m.overlay = mode
}

// closeOverlay returns to the panes. Any glamour render still in flight is
// invalidated through docSeq.
func (m *Model) closeOverlay() {
	if m.overlay == overlayNone {
		return
	}
	m.resetDocument()
	m.overlay = overlayNone
}

func (m *Model) resetDocument() {
	m.docSeq++
	m.docKey = ""
	m.doc.SetContent("")
	m.doc.GotoTop()
}

func (m *Model) isOverlay(mode overlayMode) bool { return m.overlay == mode }
