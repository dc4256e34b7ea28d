// Package metrics exposes Prometheus collectors for the paper pipeline.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Stage labels used by StageDuration.
const (
	StageBuild    = "build"
	StageGenerate = "generate"
	StageRender   = "render"
)

var (
	PapersRequested = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "quire_papers_requested_total",
			Help: "Paper generation requests by subject and board",
		},
		[]string{"subject", "board"},
	)

	PapersRendered = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "quire_papers_rendered_total",
			Help: "Papers rendered to PDF by text direction",
		},
		[]string{"direction"},
	)

	PipelineFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "quire_pipeline_failures_total",
			Help: "Pipeline failures by stage and error category",
		},
		[]string{"stage", "category"},
	)

	StageDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "quire_stage_duration_seconds",
			Help:    "Duration of each pipeline stage in seconds",
			Buckets: []float64{.005, .05, .5, 1, 5, 15, 30, 60, 120, 300},
		},
		[]string{"stage"},
	)

	PagesRendered = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "quire_pages_per_paper",
			Help:    "Number of PDF pages per rendered paper",
			Buckets: prometheus.LinearBuckets(1, 2, 10),
		},
	)

	CrewTasks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "quire_crew_tasks_total",
			Help: "Crew tasks executed by role and outcome",
		},
		[]string{"role", "outcome"},
	)
)

// Handler serves the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
