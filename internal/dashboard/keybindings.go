package dashboard

import tea "github.com/charmbracelet/bubbletea"

// handleKey processes a key press. Returns whether the key was handled
// and any follow-up command.
func (m *Model) handleKey(msg tea.KeyMsg) (bool, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		m.quitting = true
		return true, tea.Quit

	case "r":
		return true, tea.Batch(m.collectCmd(), m.statsCmd())

	case "s":
		m.mon.TriggerSpeedTest()
		return true, nil

	case "l":
		m.showLogs = !m.showLogs
		if m.showLogs {
			return true, m.logsCmd()
		}
		m.logs = nil
		return true, nil

	case "up", "k":
		if m.selected > 0 {
			m.selected--
			if m.showLogs {
				return true, m.logsCmd()
			}
		}
		return true, nil

	case "down", "j":
		if m.selected < len(m.services)-1 {
			m.selected++
			if m.showLogs {
				return true, m.logsCmd()
			}
		}
		return true, nil
	}

	return false, nil
}
