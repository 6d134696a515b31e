// Package obsmetrics holds this toolkit's Prometheus collectors and
// the HTTP handler that serves them, following the ground-station
// teacher's promauto/GaugeVec convention.
package obsmetrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds every Prometheus collector this toolkit exposes.
type Metrics struct {
	// Modem metrics, labeled by chosen descramble variant.
	modemDecodeAttemptsTotal prometheus.Counter     // Total blind-search decode attempts
	modemFramesFoundTotal    *prometheus.CounterVec // Total validated HDLC frames extracted (by variant)
	modemDecodeNoFrameTotal  prometheus.Counter     // Decode attempts that found zero frames

	// Telecommand metrics, labeled by command type.
	telecommandBuildTotal  *prometheus.CounterVec // Telecommands built (by type)
	telecommandVerifyTotal *prometheus.CounterVec // Telecommand verify outcomes (by result: ok, bad)

	// SSTV decode metrics.
	sstvDecodeSuccessTotal prometheus.Counter // Successful Robot36 decodes
	sstvDecodeFailureTotal prometheus.Counter // Failed Robot36 decodes (sync not found, etc)
	sstvChainLength        prometheus.Gauge   // Line-sync chain length of the most recent decode

	// Ground-station HTTP client metrics, labeled by operation and
	// status class (2xx, 4xx, 5xx, error).
	groundstationRequestsTotal *prometheus.CounterVec

	// Mission run metrics.
	missionRunsTotal    *prometheus.CounterVec // Mission runs (by outcome: ok, error)
	missionMotDVerified prometheus.Gauge       // 1 if the last run's MotD was verified updated, else 0
}

// New registers and returns a fresh set of collectors against the
// default Prometheus registry.
func New() *Metrics {
	return &Metrics{
		modemDecodeAttemptsTotal: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "echoflare_modem_decode_attempts_total",
				Help: "Total blind-search modem decode attempts",
			},
		),
		modemFramesFoundTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "echoflare_modem_frames_found_total",
				Help: "Total validated HDLC frames extracted by the blind-search decoder",
			},
			[]string{"variant"},
		),
		modemDecodeNoFrameTotal: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "echoflare_modem_decode_no_frame_total",
				Help: "Decode attempts across all phases/variants that found zero frames",
			},
		),
		telecommandBuildTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "echoflare_telecommand_build_total",
				Help: "Telecommands built, by command type",
			},
			[]string{"type"},
		),
		telecommandVerifyTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "echoflare_telecommand_verify_total",
				Help: "Telecommand verification outcomes",
			},
			[]string{"result"},
		),
		sstvDecodeSuccessTotal: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "echoflare_sstv_decode_success_total",
				Help: "Successful Robot36 SSTV decodes",
			},
		),
		sstvDecodeFailureTotal: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "echoflare_sstv_decode_failure_total",
				Help: "Failed Robot36 SSTV decodes",
			},
		),
		sstvChainLength: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "echoflare_sstv_chain_length",
				Help: "Line-sync chain length found by the most recent Robot36 decode",
			},
		),
		groundstationRequestsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "echoflare_groundstation_requests_total",
				Help: "Ground-station HTTP client requests, by operation and status class",
			},
			[]string{"op", "status_class"},
		),
		missionRunsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "echoflare_mission_runs_total",
				Help: "Mission orchestration runs, by outcome",
			},
			[]string{"outcome"},
		),
		missionMotDVerified: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "echoflare_mission_motd_verified",
				Help: "1 if the most recent mission run verified its MotD update landed, else 0",
			},
		),
	}
}

// ObserveModemDecode records the outcome of one modem.Decode call. A
// nil Metrics is a no-op, so callers that run without a metrics server
// (e.g. the offline echoflare CLI) don't need to guard every call.
func (m *Metrics) ObserveModemDecode(variant string, framesFound int) {
	if m == nil {
		return
	}
	m.modemDecodeAttemptsTotal.Inc()
	if framesFound == 0 {
		m.modemDecodeNoFrameTotal.Inc()
		return
	}
	m.modemFramesFoundTotal.WithLabelValues(variant).Add(float64(framesFound))
}

// ObserveTelecommandBuild records a telecommand.Build call for cmdType.
func (m *Metrics) ObserveTelecommandBuild(cmdType string) {
	if m == nil {
		return
	}
	m.telecommandBuildTotal.WithLabelValues(cmdType).Inc()
}

// ObserveTelecommandVerify records a telecommand.Verify outcome.
func (m *Metrics) ObserveTelecommandVerify(result string) {
	if m == nil {
		return
	}
	m.telecommandVerifyTotal.WithLabelValues(result).Inc()
}

// ObserveSSTVDecode records an sstv.Decode outcome and, on success, the
// length of the line-sync chain it found.
func (m *Metrics) ObserveSSTVDecode(ok bool, chainLength int) {
	if m == nil {
		return
	}
	if ok {
		m.sstvDecodeSuccessTotal.Inc()
		m.sstvChainLength.Set(float64(chainLength))
		return
	}
	m.sstvDecodeFailureTotal.Inc()
}

// ObserveGroundstationRequest records one groundstation.Client HTTP
// call outcome, bucketing statusCode into its 2xx/4xx/5xx class (or
// "error" for a transport failure, statusCode <= 0).
func (m *Metrics) ObserveGroundstationRequest(op string, statusCode int) {
	if m == nil {
		return
	}
	class := "error"
	switch {
	case statusCode >= 200 && statusCode < 300:
		class = "2xx"
	case statusCode >= 400 && statusCode < 500:
		class = "4xx"
	case statusCode >= 500 && statusCode < 600:
		class = "5xx"
	}
	m.groundstationRequestsTotal.WithLabelValues(op, class).Inc()
}

// ObserveMissionRun records a mission.Run outcome.
func (m *Metrics) ObserveMissionRun(outcome string, motdVerified bool) {
	if m == nil {
		return
	}
	m.missionRunsTotal.WithLabelValues(outcome).Inc()
	if motdVerified {
		m.missionMotDVerified.Set(1)
	} else {
		m.missionMotDVerified.Set(0)
	}
}

// Handler returns the HTTP handler that serves the default Prometheus
// registry in the standard exposition format.
func Handler() http.Handler {
	return promhttp.Handler()
}
