package metrics

// RecordRequestSubmitted counts a new request by its initial status
func (m *Metrics) RecordRequestSubmitted(status string) {
	m.safeExecute("RecordRequestSubmitted", func() {
		m.RequestsSubmittedTotal.WithLabelValues(status).Inc()
	})
}

// RecordRequestDecided counts a decision that reached its final state
func (m *Metrics) RecordRequestDecided(outcome string) {
	m.safeExecute("RecordRequestDecided", func() {
		m.RequestsDecidedTotal.WithLabelValues(outcome).Inc()
	})
}

// RecordDecisionStepFailure counts a failed decision step
func (m *Metrics) RecordDecisionStepFailure(stage string) {
	m.safeExecute("RecordDecisionStepFailure", func() {
		m.DecisionStepFailures.WithLabelValues(stage).Inc()
	})
}

// IncrementInvoicesSent increments the sent invoice counter
func (m *Metrics) IncrementInvoicesSent() {
	m.safeExecute("IncrementInvoicesSent", func() {
		m.InvoicesSentTotal.Inc()
	})
}

// SetRequestsTotal sets total requests gauge
func (m *Metrics) SetRequestsTotal(count int64) {
	m.safeExecute("SetRequestsTotal", func() {
		m.RequestsTotal.Set(float64(count))
	})
}

// SetCommissionsOpenTotal sets open commissions gauge
func (m *Metrics) SetCommissionsOpenTotal(count int64) {
	m.safeExecute("SetCommissionsOpenTotal", func() {
		m.CommissionsOpenTotal.Set(float64(count))
	})
}

// AddKanbanSubscribers moves the live connection gauge by delta
func (m *Metrics) AddKanbanSubscribers(delta int) {
	m.safeExecute("AddKanbanSubscribers", func() {
		m.KanbanSubscribersCurrent.Add(float64(delta))
	})
}
