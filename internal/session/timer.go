package session

import "time"

// startTickerLocked replaces any running countdown, so at most one ticker
// goroutine exists per manager.
func (m *Manager) startTickerLocked() {
	m.stopTickerLocked()

	ticks, stop := m.newTicker()
	done := make(chan struct{})
	m.tickerDone = done
	m.tickerStop = stop

	go func() {
		for {
			select {
			case <-done:
				return
			case <-ticks:
				m.tickFrom(done)
			}
		}
	}()
}

func (m *Manager) tickFrom(done chan struct{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.tickerDone != done {
		return
	}
	m.tickLocked()
}

func (m *Manager) stopTickerLocked() {
	if m.tickerDone == nil {
		return
	}
	close(m.tickerDone)
	m.tickerStop()
	m.tickerDone = nil
	m.tickerStop = nil
}

// lastAnsweredLocked reports whether the final question has an answer,
// which puts the attempt on the auto-finish path.
func (m *Manager) lastAnsweredLocked() bool {
	last := len(m.snap.Questions) - 1
	if last < 0 {
		return false
	}
	_, answered := m.snap.Answers[last]
	return answered
}

func (m *Manager) scheduleAutoFinishLocked() {
	m.stopGraceLocked()

	gen := m.generation
	m.graceTimer = time.AfterFunc(m.graceDelay, func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		if gen != m.generation || m.state != StateActive {
			return
		}
		m.graceTimer = nil
		m.finishLocked(false)
	})
}

func (m *Manager) stopGraceLocked() {
	if m.graceTimer != nil {
		m.graceTimer.Stop()
		m.graceTimer = nil
	}
}

func (m *Manager) stopTimersLocked() {
	m.stopTickerLocked()
	m.stopGraceLocked()
}
