package inmemory

import "sync"

// Snapshot is the KPI view served by the ops endpoint.
type Snapshot struct {
	ProvisionTotal     uint64            `json:"provision_total"`
	ProvisionSuccess   uint64            `json:"provision_success"`
	ProvisionFailure   uint64            `json:"provision_failure"`
	RecoveryRepairs    uint64            `json:"recovery_repairs"`
	DecisionTotal      uint64            `json:"decision_total"`
	DecisionModel      uint64            `json:"decision_model_assisted"`
	DecisionDegraded   uint64            `json:"decision_degraded"`
	DispatchErrors     uint64            `json:"dispatch_errors"`
	ByAction           map[string]uint64 `json:"by_action"`
	BreakerTransitions map[string]uint64 `json:"breaker_transitions"`
}

// Recorder satisfies both ProvisionMetrics and DecisionMetrics.
type Recorder struct {
	mu               sync.Mutex
	provisionSuccess uint64
	provisionFailure uint64
	recoveryRepairs  uint64
	decisionTotal    uint64
	decisionModel    uint64
	decisionDegraded uint64
	dispatchErrors   uint64
	byAction         map[string]uint64
	breaker          map[string]uint64
}

func NewRecorder() *Recorder {
	return &Recorder{
		byAction: map[string]uint64{},
		breaker:  map[string]uint64{},
	}
}

func (r *Recorder) RecordProvisionSuccess() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.provisionSuccess++
}

func (r *Recorder) RecordProvisionFailure() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.provisionFailure++
}

func (r *Recorder) RecordRecoveryRepair() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.recoveryRepairs++
}

func (r *Recorder) RecordDecision(action string, modelAssisted, degraded bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.decisionTotal++
	r.byAction[action]++
	if modelAssisted {
		r.decisionModel++
	}
	if degraded {
		r.decisionDegraded++
	}
}

func (r *Recorder) RecordDispatchError() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.dispatchErrors++
}

func (r *Recorder) RecordBreakerTransition(state string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.breaker[state]++
}

func (r *Recorder) Snapshot() Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := Snapshot{
		ProvisionSuccess:   r.provisionSuccess,
		ProvisionFailure:   r.provisionFailure,
		ProvisionTotal:     r.provisionSuccess + r.provisionFailure,
		RecoveryRepairs:    r.recoveryRepairs,
		DecisionTotal:      r.decisionTotal,
		DecisionModel:      r.decisionModel,
		DecisionDegraded:   r.decisionDegraded,
		DispatchErrors:     r.dispatchErrors,
		ByAction:           make(map[string]uint64, len(r.byAction)),
		BreakerTransitions: make(map[string]uint64, len(r.breaker)),
	}
	for k, v := range r.byAction {
		out.ByAction[k] = v
	}
	for k, v := range r.breaker {
		out.BreakerTransitions[k] = v
	}
	return out
}

func (r *Recorder) SnapshotAny() any {
	return r.Snapshot()
}
