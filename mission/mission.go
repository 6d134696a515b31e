// Package mission orchestrates the end-to-end ground-station sequence:
// wait for a pass, RX telemetry, build and TX a MotD telecommand,
// verify it landed, TX an SSTV trigger, and capture the downlinked
// image audio for later decoding.
package mission

import (
	"context"
	"fmt"
	"log"
	"path/filepath"
	"time"

	"github.com/cwsl/echoflare/ax25"
	"github.com/cwsl/echoflare/groundstation"
	"github.com/cwsl/echoflare/modem"
	"github.com/cwsl/echoflare/obsmetrics"
	"github.com/cwsl/echoflare/telecommand"
	"github.com/cwsl/echoflare/telemetry"
)

// uplinkDestination and uplinkSource are the fixed AX.25 addresses
// this toolkit uses to wrap telecommands for uplink.
var (
	uplinkDestination = ax25.Address{Callsign: "HA7FLR", SSID: 0}
	uplinkSource      = ax25.Address{Callsign: "GROUND", SSID: 0}
)

// Config mirrors mission_cli.py's flags.
type Config struct {
	Satellite            string
	MinElevationDeg      float64
	MotD                 string
	RXTelemetrySeconds   float64
	RXSSTVSeconds        float64
	PostcheckSeconds     float64
	AllowSSTVWithoutMotD bool
	WorkDir              string

	// TimestampSuffix names the run's WAV files (e.g. unix seconds, as
	// a string); callers stamp this since this package has no clock.
	TimestampSuffix string
}

// Result summarizes what a mission run accomplished, for JSON
// formatting by the caller.
type Result struct {
	InitialStatus groundstation.Status
	TelemetrySeq  uint32
	MotDVerified  bool
	SSTVSequence  uint32
	RXSSTVWAVPath string
}

func wrapUplink(payload []byte) ([]byte, error) {
	frame := ax25.Frame{
		Destination: uplinkDestination,
		Source:      uplinkSource,
		Control:     ax25.ControlUI,
		PID:         ax25.PIDNoLayer3,
		Payload:     payload,
	}
	return frame.Encode()
}

// findLatestTelemetry decodes every AX.25 frame as a telemetry record,
// ignoring frames that don't parse, and returns the one with the
// highest sequence number.
func findLatestTelemetry(frames [][]byte) *telemetry.Record {
	var best *telemetry.Record
	for _, fr := range frames {
		ax, err := ax25.Decode(fr)
		if err != nil {
			continue
		}
		rec, err := telemetry.Decode(ax.Payload)
		if err != nil {
			continue
		}
		if best == nil || rec.Sequence > best.Sequence {
			best = rec
		}
	}
	return best
}

// Run performs, in order: wait for elevation, RX telemetry + demod,
// build+TX+verify a Set-MotD telecommand, then build+TX an SSTV
// trigger and capture the downlinked SSTV audio.
func Run(ctx context.Context, client *groundstation.Client, modemCfg modem.Config, cfg Config, metrics *obsmetrics.Metrics) (*Result, error) {
	log.Printf("[MISSION] waiting for %s elevation >= %.1f deg", cfg.Satellite, cfg.MinElevationDeg)
	initial, err := client.WaitForElevation(ctx, cfg.Satellite, cfg.MinElevationDeg, 24*time.Hour)
	if err != nil {
		return nil, fmt.Errorf("mission: %w", err)
	}

	rxTelemetry := filepath.Join(cfg.WorkDir, fmt.Sprintf("rx_telemetry_%s.wav", cfg.TimestampSuffix))
	log.Printf("[MISSION] capturing RX telemetry audio: %s", rxTelemetry)
	if err := client.DownloadRadioWAV(ctx, cfg.Satellite, rxTelemetry, cfg.RXTelemetrySeconds); err != nil {
		return nil, fmt.Errorf("mission: %w", err)
	}

	demod, err := modem.DecodeWAV(rxTelemetry, modemCfg.Baud)
	if err != nil {
		return nil, fmt.Errorf("mission: demod telemetry capture: %w", err)
	}
	metrics.ObserveModemDecode(fmt.Sprintf("%d", demod.DescrambleVariant), len(demod.Frames))
	tl0 := findLatestTelemetry(demod.Frames)
	if tl0 == nil {
		return nil, fmt.Errorf("mission: no decodable TL telemetry in %s", rxTelemetry)
	}
	seq := tl0.Sequence
	log.Printf("[MISSION] latest telemetry sequence=%d motd=%q", seq, tl0.MotD)

	motdPacket := telecommand.BuildSetMotD(seq, cfg.MotD)
	metrics.ObserveTelecommandBuild("set_motd")
	if errStr := telecommand.Verify(motdPacket); errStr != "" {
		metrics.ObserveTelecommandVerify("bad")
		return nil, fmt.Errorf("mission: built an invalid motd telecommand: %s", errStr)
	}
	metrics.ObserveTelecommandVerify("ok")
	motdFrame, err := wrapUplink(motdPacket)
	if err != nil {
		return nil, fmt.Errorf("mission: wrap motd telecommand: %w", err)
	}
	txMotD := filepath.Join(cfg.WorkDir, fmt.Sprintf("tx_motd_%s.wav", cfg.TimestampSuffix))
	if err := modem.EncodeToWAV(motdFrame, modemCfg, txMotD); err != nil {
		return nil, fmt.Errorf("mission: %w", err)
	}
	log.Printf("[MISSION] uploading MotD TX WAV: %s", txMotD)
	if _, err := client.UploadRadioWAV(ctx, cfg.Satellite, txMotD); err != nil {
		return nil, fmt.Errorf("mission: %w", err)
	}

	rxPost := filepath.Join(cfg.WorkDir, fmt.Sprintf("rx_post_motd_%s.wav", cfg.TimestampSuffix))
	log.Printf("[MISSION] capturing post-TX telemetry audio: %s", rxPost)
	if err := client.DownloadRadioWAV(ctx, cfg.Satellite, rxPost, cfg.PostcheckSeconds); err != nil {
		return nil, fmt.Errorf("mission: %w", err)
	}
	postDemod, err := modem.DecodeWAV(rxPost, modemCfg.Baud)
	if err != nil {
		return nil, fmt.Errorf("mission: demod post-check capture: %w", err)
	}
	metrics.ObserveModemDecode(fmt.Sprintf("%d", postDemod.DescrambleVariant), len(postDemod.Frames))

	var motdVerified bool
	sstvSeq := (seq + 1) & 0xFFFFFFFF
	if tl1 := findLatestTelemetry(postDemod.Frames); tl1 != nil {
		seq = tl1.Sequence
		if tl1.MotD == cfg.MotD {
			motdVerified = true
			sstvSeq = tl1.Sequence
			log.Printf("[MISSION] MotD verified updated at sequence=%d", sstvSeq)
		}
	}

	if !motdVerified && !cfg.AllowSSTVWithoutMotD {
		return nil, fmt.Errorf("mission: MotD could not be verified as updated; re-run with a longer --postcheck-seconds or pass --allow-sstv-without-motd")
	}

	sstvPacket := telecommand.BuildSSTV(sstvSeq)
	metrics.ObserveTelecommandBuild("sstv")
	if errStr := telecommand.Verify(sstvPacket); errStr != "" {
		metrics.ObserveTelecommandVerify("bad")
		return nil, fmt.Errorf("mission: built an invalid sstv telecommand: %s", errStr)
	}
	metrics.ObserveTelecommandVerify("ok")
	sstvFrame, err := wrapUplink(sstvPacket)
	if err != nil {
		return nil, fmt.Errorf("mission: wrap sstv telecommand: %w", err)
	}
	txSSTV := filepath.Join(cfg.WorkDir, fmt.Sprintf("tx_sstv_%s.wav", cfg.TimestampSuffix))
	if err := modem.EncodeToWAV(sstvFrame, modemCfg, txSSTV); err != nil {
		return nil, fmt.Errorf("mission: %w", err)
	}
	log.Printf("[MISSION] uploading SSTV TX WAV: %s", txSSTV)
	if _, err := client.UploadRadioWAV(ctx, cfg.Satellite, txSSTV); err != nil {
		return nil, fmt.Errorf("mission: %w", err)
	}

	rxSSTV := filepath.Join(cfg.WorkDir, fmt.Sprintf("rx_sstv_%s.wav", cfg.TimestampSuffix))
	log.Printf("[MISSION] capturing RX SSTV audio: %s", rxSSTV)
	if err := client.DownloadRadioWAV(ctx, cfg.Satellite, rxSSTV, cfg.RXSSTVSeconds); err != nil {
		return nil, fmt.Errorf("mission: %w", err)
	}

	return &Result{
		InitialStatus: *initial,
		TelemetrySeq:  tl0.Sequence,
		MotDVerified:  motdVerified,
		SSTVSequence:  sstvSeq,
		RXSSTVWAVPath: rxSSTV,
	}, nil
}
