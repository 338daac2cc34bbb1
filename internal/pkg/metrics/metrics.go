// Package metrics prometheus-метрики сервиса
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	admissionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "astranum_quota_admissions_total",
		Help: "Quota admission decisions by tier and result",
	}, []string{"tier", "result"})

	reservationsResolved = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "astranum_quota_reservations_resolved_total",
		Help: "Resolved quota reservations by outcome",
	}, []string{"outcome"})

	pipelineOutcomes = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "astranum_guidance_outcomes_total",
		Help: "Guidance pipeline terminal states",
	}, []string{"state", "reason"})

	validationIssues = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "astranum_validation_results_total",
		Help: "Grounding validation results by attempt",
	}, []string{"attempt", "passed"})

	generationDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "astranum_generation_duration_seconds",
		Help:    "LLM generation latency",
		Buckets: prometheus.ExponentialBuckets(0.25, 2, 8), // 0.25s .. 32s
	}, []string{"provider", "result"})

	chartVersions = promauto.NewCounter(prometheus.CounterOpts{
		Name: "astranum_chart_versions_created_total",
		Help: "Chart snapshot versions created",
	})

	transitCache = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "astranum_transit_cache_total",
		Help: "Transit-of-the-day cache lookups",
	}, []string{"result"})

	jobRuns = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "astranum_job_runs_total",
		Help: "Scheduled job runs by job and result",
	}, []string{"job", "result"})
)

func ObserveAdmission(tier string, admitted bool) {
	admissionsTotal.WithLabelValues(tier, result(admitted, "admitted", "denied")).Inc()
}

func ObserveReservation(outcome string) {
	reservationsResolved.WithLabelValues(outcome).Inc()
}

func ObservePipeline(state, reason string) {
	pipelineOutcomes.WithLabelValues(state, reason).Inc()
}

func ObserveValidation(attempt int, passed bool) {
	label := "first"
	if attempt > 1 {
		label = "retry"
	}
	validationIssues.WithLabelValues(label, result(passed, "true", "false")).Inc()
}

func ObserveGeneration(provider string, started time.Time, err error) {
	generationDuration.WithLabelValues(provider, result(err == nil, "ok", "error")).Observe(time.Since(started).Seconds())
}

func ObserveChartVersion() {
	chartVersions.Inc()
}

func ObserveTransitCache(hit bool) {
	transitCache.WithLabelValues(result(hit, "hit", "miss")).Inc()
}

func ObserveJob(job string, err error) {
	jobRuns.WithLabelValues(job, result(err == nil, "ok", "error")).Inc()
}

func result(ok bool, yes, no string) string {
	if ok {
		return yes
	}
	return no
}
