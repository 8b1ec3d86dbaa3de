package metrics

import "time"

// RecordPipelineRequest records one processed question and its outcome.
func RecordPipelineRequest(success bool, duration time.Duration) {
	l := labels{"status": outcome(success, "success", "failure")}
	count(PipelineRequestsTotal, l)
	observe(PipelineDuration, duration, l)
}

// RecordStage records a pipeline state transition.
func RecordStage(stage string) {
	count(PipelineStageTotal, labels{"stage": stage})
}

// RecordCollaboratorFailure records a failed call to an external
// collaborator (search backend, model provider, page fetch).
func RecordCollaboratorFailure(collaborator, call string) {
	count(CollaboratorFailuresTotal, labels{"collaborator": collaborator, "call": call})
}

// RecordCollaboratorCall records the latency of a collaborator call.
func RecordCollaboratorCall(collaborator, call string, duration time.Duration) {
	observe(CollaboratorCallDuration, duration, labels{"collaborator": collaborator, "call": call})
}

// RecordSynthMode records which synthesis mode produced an answer.
func RecordSynthMode(mode string) {
	count(SynthModeTotal, labels{"mode": mode})
}
