package ports

type ProvisionMetrics interface {
	RecordProvisionSuccess()
	RecordProvisionFailure()
	RecordRecoveryRepair()
}

type DecisionMetrics interface {
	RecordDecision(action string, modelAssisted, degraded bool)
	RecordDispatchError()
	RecordBreakerTransition(state string)
}
