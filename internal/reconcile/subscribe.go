package reconcile

// reportBuffer is the capacity of each subscriber channel.
const reportBuffer = 16

// Subscribe returns a channel that receives the report of every pass that
// completes after the call. Delivery never blocks a pass: a subscriber whose
// buffer is full misses that report. The channel is closed by Unsubscribe
// or Stop.
func (m *Manager) Subscribe() <-chan *Report {
	m.subMu.Lock()
	defer m.subMu.Unlock()

	ch := make(chan *Report, reportBuffer)
	if m.subsClosed {
		close(ch)
		return ch
	}
	m.subscribers = append(m.subscribers, ch)
	return ch
}

// Unsubscribe removes and closes a channel returned by Subscribe.
func (m *Manager) Unsubscribe(ch <-chan *Report) {
	m.subMu.Lock()
	defer m.subMu.Unlock()

	for i, sub := range m.subscribers {
		if sub == ch {
			close(sub)
			m.subscribers = append(m.subscribers[:i], m.subscribers[i+1:]...)
			return
		}
	}
}

func (m *Manager) publish(report *Report) {
	m.subMu.Lock()
	defer m.subMu.Unlock()

	for _, sub := range m.subscribers {
		select {
		case sub <- report:
		default:
		}
	}
}

func (m *Manager) closeSubscribers() {
	m.subMu.Lock()
	defer m.subMu.Unlock()

	for _, sub := range m.subscribers {
		close(sub)
	}
	m.subscribers = nil
	m.subsClosed = true
}
