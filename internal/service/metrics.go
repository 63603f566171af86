package service

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	loginFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "vms_login_failures_total",
		Help: "Rejected admin logins by reason.",
	}, []string{"reason"})

	accountLockouts = promauto.NewCounter(prometheus.CounterOpts{
		Name: "vms_account_lockouts_total",
		Help: "Admin accounts locked after too many failed logins.",
	})

	visitorTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "vms_visitor_transitions_total",
		Help: "Visitor check-ins and checkouts.",
	}, []string{"status"})

	emergencyTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "vms_emergency_transitions_total",
		Help: "Emergency reports and their terminal transitions.",
	}, []string{"type", "status"})
)
