// layout.go centralizes the terminal layout around the editor body.
//
// The screen is a one-row title bar, the editor body, and a footer that
// reserves either two or three rows depending on how much status text fits.
// Everything inside the body (pane frames, grid areas, tabs) is measured by
// editor.Shell; this file only decides how big the body is and hands that to
// the shell.
package app

// LayoutDimensions holds the calculated screen split.
type LayoutDimensions struct {
	HeaderHeight int // rows used by the title bar
	BodyWidth    int // width handed to the editor shell
	BodyHeight   int // height handed to the editor shell
	FooterHeight int // rows reserved for the status footer
}

// calculateLayout computes the body size for the current terminal size.
func (m *Model) calculateLayout() LayoutDimensions {
	footer := m.footerHeightForWidth(m.width)
	header := min(HeaderRows, m.height)
	return LayoutDimensions{
		HeaderHeight: header,
		BodyWidth:    max(0, m.width),
		BodyHeight:   max(0, m.height-header-footer),
		FooterHeight: footer,
	}
}

// footerHeightForWidth returns how many rows should be reserved for the footer.
// It prefers FooterMinRows and expands to FooterMaxRows when the footer
// segments cannot fit without dropping content.
func (m *Model) footerHeightForWidth(width int) int {
	_, fit := m.buildStatusRows(width, FooterMinRows)
	if fit {
		return FooterMinRows
	}
	return FooterMaxRows
}

// applyLayout resizes the shell body and the document viewport. The shell
// re-measures its grids and virtualizers before any resize observer runs.
func (m *Model) applyLayout(layout LayoutDimensions) {
	m.shell.Resize(layout.BodyWidth, layout.BodyHeight)
	m.doc.Width = max(0, layout.BodyWidth-2*DocPopupPadding-popupStyle.GetHorizontalFrameSize())
	m.doc.Height = max(0, layout.BodyHeight-popupStyle.GetVerticalFrameSize()-1)
	m.syncFocusWithTab()
	m.clampCursors()
}

// updateLayout recomputes and applies the layout.
func (m *Model) updateLayout() {
	m.applyLayout(m.calculateLayout())
}

// syncLayout re-applies the layout when the body size drifted, for example
// after a long status message grew the footer.
func (m *Model) syncLayout() {
	if m.width <= 0 || m.height <= 0 {
		return
	}
	layout := m.calculateLayout()
	current := m.shell.Layout()
	if current.Width != layout.BodyWidth || current.Height != layout.BodyHeight {
		m.applyLayout(layout)
	}
}
