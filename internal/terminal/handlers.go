package terminal

import (
	"fmt"
	"strings"

	"lethalterm/internal/input"
)

var (
	keyC = input.Key("c")
	keyQ = input.Key("q")
	keyS = input.Key("s")
	keyT = input.Key("t")
)

func (m *Machine) cancelled() bool {
	return m.matches(input.Ctrl, keyC)
}

func (m *Machine) handlePassive(key input.Key) {
	if m.matches(keyT, input.Enter) {
		m.enterMode(Command)
		m.submit(input.Enter)
	}
}

func (m *Machine) handleCommand(key input.Key) {
	switch {
	case m.matches(input.Tab, input.Tab):
		m.enterMode(Passive)
		return
	case m.matches(keyQ, keyQ):
		m.setAllCodes(!m.registry.AllCodesMode())
		m.enterMode(Command)
		return
	case m.cancelled():
		m.enterMode(Command)
		return
	}

	switch strings.ToLower(string(key)) {
	case "a":
		m.enterMode(AddCode)
	case "x":
		m.enterMode(DeleteCode)
	case "i":
		m.enterMode(FreeText)
	case "s":
		m.enterMode(SelectUser)
	case "v":
		m.typeLine("view monitor")
	case "t":
		m.enterMode(SuffixText)
	case "p":
		m.enterMode(SelectRadarPing)
	case "f":
		m.enterMode(SelectRadarFlash)
	}
}

// collect gathers a two-character code. It returns the code once complete.
func (m *Machine) collect(key input.Key) (string, bool) {
	switch {
	case key == input.Backspace:
		if len(m.scratch) > 0 {
			m.scratch = m.scratch[:len(m.scratch)-1]
		}
	case key.IsChar():
		m.scratch = append(m.scratch, key)
	}
	if len(m.scratch) < 2 {
		return "", false
	}
	code := strings.ToLower(string(m.scratch[0]) + string(m.scratch[1]))
	m.scratch = m.scratch[:0]
	return code, true
}

func (m *Machine) handleAddCode(key input.Key) {
	if m.cancelled() {
		m.enterMode(Command)
		return
	}
	code, ok := m.collect(key)
	if !ok {
		return
	}
	if err := m.registry.Add(code); err != nil {
		m.logger.Debug("add rejected", "code", code, "error", err)
		m.setEvent("Cannot add trap: "+code, SeverityFailure)
	} else {
		m.setEvent("Added trap: "+code, SeveritySuccess)
		m.typeLine(code)
	}
	m.enterMode(Command)
}

func (m *Machine) handleDeleteCode(key input.Key) {
	if m.cancelled() {
		m.enterMode(Command)
		return
	}
	code, ok := m.collect(key)
	if !ok {
		return
	}
	if err := m.registry.Remove(code); err != nil {
		m.logger.Debug("remove rejected", "code", code, "error", err)
		m.setEvent("Cannot remove trap: "+code, SeverityFailure)
	} else {
		m.setEvent("Removed trap: "+code, SeveritySuccess)
	}
	m.enterMode(Command)
}

func (m *Machine) handleFreeText(key input.Key) {
	if m.cancelled() {
		m.enterMode(Command)
		return
	}
	m.submit(key)
}

func (m *Machine) handleSuffixText(key input.Key) {
	if m.cancelled() {
		m.enterMode(Command)
		return
	}
	m.submit(key)
	if key == input.Enter {
		m.enterMode(Command)
	}
}

func (m *Machine) handleSelectUser(key input.Key) {
	switch {
	case m.cancelled():
		m.enterMode(Command)
	case key.Equal(keyS):
		m.typeLine("switch")
		m.enterMode(Command)
	case key.IsDigit():
		n := int(key[0] - '0')
		if player, ok := m.cfg.Player(n - 1); ok {
			m.pending.Clear()
			m.typeLine("switch " + player)
		} else {
			m.setEvent(fmt.Sprintf("No player number: %d", n), SeverityFailure)
		}
		m.enterMode(Command)
	}
}

func (m *Machine) handleRadarPing(key input.Key) {
	m.selectRadar(key, "ping")
}

func (m *Machine) handleRadarFlash(key input.Key) {
	m.selectRadar(key, "flash")
}

func (m *Machine) selectRadar(key input.Key, verb string) {
	switch {
	case m.cancelled():
		m.enterMode(Command)
	case key.IsDigit():
		n := int(key[0] - '0')
		if radar, ok := m.cfg.Radar(n - 1); ok {
			m.pending.Clear()
			m.typeLine(verb + " " + radar)
		} else {
			m.setEvent(fmt.Sprintf("No radar number: %d", n), SeverityFailure)
		}
		m.enterMode(Command)
	}
}

// typeLine commits text as its own terminal line: enter, text, enter.
func (m *Machine) typeLine(text string) {
	m.submit(input.Enter)
	m.submitText(text)
	m.submit(input.Enter)
}

func (m *Machine) submitText(text string) {
	for _, k := range input.FromText(text) {
		m.submit(k)
	}
}
