package metrics

import "github.com/prometheus/client_golang/prometheus"

// PlatformMetrics exposes counters for the lead lifecycle, the OTP login
// flow and notification dispatch. All methods are nil-safe so wiring metrics
// stays optional in tests.
type PlatformMetrics struct {
	transitionsTotal   *prometheus.CounterVec
	otpIssuedTotal     prometheus.Counter
	otpVerifiedTotal   *prometheus.CounterVec
	notificationsTotal *prometheus.CounterVec
}

func NewPlatformMetrics(reg prometheus.Registerer) *PlatformMetrics {
	m := &PlatformMetrics{
		transitionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "caregate",
			Subsystem: "leads",
			Name:      "transitions_total",
			Help:      "Lead status transition attempts",
		}, []string{"to", "role", "outcome"}),
		otpIssuedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "caregate",
			Subsystem: "auth",
			Name:      "otp_issued_total",
			Help:      "Patient OTP challenges issued",
		}),
		otpVerifiedTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "caregate",
			Subsystem: "auth",
			Name:      "otp_verified_total",
			Help:      "Patient OTP verification attempts",
		}, []string{"result"}),
		notificationsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "caregate",
			Subsystem: "notify",
			Name:      "emails_total",
			Help:      "Lead status notification attempts",
		}, []string{"outcome"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.transitionsTotal, m.otpIssuedTotal, m.otpVerifiedTotal, m.notificationsTotal)
	return m
}

func (m *PlatformMetrics) ObserveTransition(to, role, outcome string) {
	if m == nil {
		return
	}
	m.transitionsTotal.WithLabelValues(to, role, outcome).Inc()
}

func (m *PlatformMetrics) ObserveOTPIssued() {
	if m == nil {
		return
	}
	m.otpIssuedTotal.Inc()
}

func (m *PlatformMetrics) ObserveOTPVerified(result string) {
	if m == nil {
		return
	}
	m.otpVerifiedTotal.WithLabelValues(result).Inc()
}

func (m *PlatformMetrics) ObserveNotification(outcome string) {
	if m == nil {
		return
	}
	m.notificationsTotal.WithLabelValues(outcome).Inc()
}
