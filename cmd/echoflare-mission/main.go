// Command echoflare-mission runs the end-to-end ground-station
// sequence: wait for a pass, RX telemetry, build+TX a MotD
// telecommand, verify it landed, then build+TX an SSTV trigger and
// capture the downlinked image audio.
package main

import (
	"context"
	"encoding/hex"
	"fmt"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/cwsl/echoflare/config"
	"github.com/cwsl/echoflare/g3ruh"
	"github.com/cwsl/echoflare/groundstation"
	"github.com/cwsl/echoflare/mission"
	"github.com/cwsl/echoflare/modem"
	"github.com/cwsl/echoflare/obsmetrics"
	"github.com/cwsl/echoflare/telecommand"
)

func main() {
	if err := newCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

type flags struct {
	baseURL              string
	satellite            string
	minElevation         float64
	motd                 string
	rxTelemetrySeconds   float64
	rxSSTVSeconds        float64
	postcheckSeconds     float64
	allowSSTVWithoutMotD bool
	workDir              string
	configPath           string
	metricsAddr          string
}

func newCommand() *cobra.Command {
	var f flags
	cmd := &cobra.Command{
		Use:   "echoflare-mission",
		Short: "End-to-end helper: wait for pass, RX telemetry, TX MotD+SSTV",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(context.Background(), f)
		},
	}
	cmd.Flags().StringVar(&f.baseURL, "base-url", os.Getenv("ECHOFLARE_BASE_URL"), "Base URL of the GroundTrack site (or set ECHOFLARE_BASE_URL)")
	cmd.Flags().StringVar(&f.satellite, "satellite", "", "Satellite name (defaults to config/default)")
	cmd.Flags().Float64Var(&f.minElevation, "min-elevation", 0, "Minimum elevation in degrees (0 = use config/default)")
	cmd.Flags().StringVar(&f.motd, "motd", "", "Message of the day (empty = use config/default)")
	cmd.Flags().Float64Var(&f.rxTelemetrySeconds, "rx-telemetry-seconds", 0, "Seconds of telemetry audio to capture (0 = use config/default)")
	cmd.Flags().Float64Var(&f.rxSSTVSeconds, "rx-sstv-seconds", 0, "Seconds of SSTV audio to capture (0 = use config/default)")
	cmd.Flags().Float64Var(&f.postcheckSeconds, "postcheck-seconds", 0, "Seconds of telemetry to capture after TX (0 = use config/default)")
	cmd.Flags().BoolVar(&f.allowSSTVWithoutMotD, "allow-sstv-without-motd", false, "Proceed to SSTV even if MotD could not be verified as updated")
	cmd.Flags().StringVar(&f.workDir, "workdir", "", "Directory for captured WAVs (empty = use config/default)")
	cmd.Flags().StringVar(&f.configPath, "config", "", "Path to a YAML config file")
	cmd.Flags().StringVar(&f.metricsAddr, "metrics-addr", "", "Address to serve Prometheus metrics on (empty = disabled)")
	return cmd
}

func loadMissionConfig(f flags) (config.Config, error) {
	cfg := config.Default()
	if f.configPath != "" {
		loaded, err := config.Load(f.configPath)
		if err != nil {
			return config.Config{}, err
		}
		cfg = *loaded
	}

	if f.satellite != "" {
		cfg.Mission.Satellite = f.satellite
	}
	if f.minElevation != 0 {
		cfg.Mission.MinElevationDeg = f.minElevation
	}
	if f.motd != "" {
		cfg.Mission.MotD = f.motd
	}
	if f.rxTelemetrySeconds != 0 {
		cfg.Mission.RXTelemetrySeconds = f.rxTelemetrySeconds
	}
	if f.rxSSTVSeconds != 0 {
		cfg.Mission.RXSSTVSeconds = f.rxSSTVSeconds
	}
	if f.postcheckSeconds != 0 {
		cfg.Mission.PostcheckSeconds = f.postcheckSeconds
	}
	if f.allowSSTVWithoutMotD {
		cfg.Mission.AllowSSTVWithoutMotD = true
	}
	if f.workDir != "" {
		cfg.Mission.WorkDir = f.workDir
	}
	if f.baseURL != "" {
		cfg.GroundStation.BaseURL = f.baseURL
	}
	if f.metricsAddr != "" {
		cfg.Metrics.Enabled = true
		cfg.Metrics.Addr = f.metricsAddr
	}
	return cfg, nil
}

// parseHMACKey decodes a hex-encoded 256-bit telecommand key, as set
// via the config file's telecommand.hmac_key_hex field.
func parseHMACKey(s string) ([32]byte, error) {
	var key [32]byte
	raw, err := hex.DecodeString(s)
	if err != nil {
		return key, fmt.Errorf("invalid hex: %w", err)
	}
	if len(raw) != len(key) {
		return key, fmt.Errorf("want %d bytes, got %d", len(key), len(raw))
	}
	copy(key[:], raw)
	return key, nil
}

func run(ctx context.Context, f flags) error {
	cfg, err := loadMissionConfig(f)
	if err != nil {
		return err
	}
	if cfg.GroundStation.BaseURL == "" {
		return fmt.Errorf("missing --base-url (or set ECHOFLARE_BASE_URL)")
	}

	if cfg.Telecommand.HMACKeyHex != "" {
		key, err := parseHMACKey(cfg.Telecommand.HMACKeyHex)
		if err != nil {
			return fmt.Errorf("telecommand.hmac_key_hex: %w", err)
		}
		telecommand.SetKey(key)
	}

	metrics := obsmetrics.New()
	if cfg.Metrics.Enabled {
		go func() {
			mux := http.NewServeMux()
			mux.Handle("/metrics", obsmetrics.Handler())
			log.Printf("[MISSION] serving metrics on %s", cfg.Metrics.Addr)
			if err := http.ListenAndServe(cfg.Metrics.Addr, mux); err != nil {
				log.Printf("[MISSION] metrics server stopped: %v", err)
			}
		}()
	}

	client := groundstation.New(cfg.GroundStation.BaseURL, time.Duration(cfg.GroundStation.RequestTimeoutS)*time.Second)
	client.Metrics = metrics

	modemCfg := modem.Config{
		Baud:            cfg.Modem.Baud,
		SampleRate:      cfg.Modem.SampleRate,
		Amplitude:       int16(cfg.Modem.Amplitude),
		PreFlags:        cfg.Modem.PreFlags,
		PostFlags:       cfg.Modem.PostFlags,
		ScrambleVariant: g3ruh.Variant(cfg.Modem.ScrambleVariant),
		InitialLevel:    cfg.Modem.InitialLevel,
	}

	if err := os.MkdirAll(cfg.Mission.WorkDir, 0o755); err != nil {
		return fmt.Errorf("create workdir: %w", err)
	}

	missionCfg := mission.Config{
		Satellite:            cfg.Mission.Satellite,
		MinElevationDeg:      cfg.Mission.MinElevationDeg,
		MotD:                 cfg.Mission.MotD,
		RXTelemetrySeconds:   cfg.Mission.RXTelemetrySeconds,
		RXSSTVSeconds:        cfg.Mission.RXSSTVSeconds,
		PostcheckSeconds:     cfg.Mission.PostcheckSeconds,
		AllowSSTVWithoutMotD: cfg.Mission.AllowSSTVWithoutMotD,
		WorkDir:              cfg.Mission.WorkDir,
		TimestampSuffix:      fmt.Sprintf("%d", time.Now().Unix()),
	}

	result, err := mission.Run(ctx, client, modemCfg, missionCfg, metrics)
	if err != nil {
		metrics.ObserveMissionRun("error", false)
		return err
	}
	metrics.ObserveMissionRun("ok", result.MotDVerified)

	fmt.Println("Done. Next step: decode ROBOT36 from the saved rx_sstv_*.wav and read the signature.")
	fmt.Println(result.RXSSTVWAVPath)
	return nil
}
