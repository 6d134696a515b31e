// Command echoflare provides offline helpers for the ground-station
// protocol stack: decoding AX.25 frames and TL telemetry, building
// signed telecommands, and modulating/demodulating WAV captures.
package main

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/cwsl/echoflare/ax25"
	"github.com/cwsl/echoflare/modem"
	"github.com/cwsl/echoflare/obsmetrics"
	"github.com/cwsl/echoflare/sstv"
	"github.com/cwsl/echoflare/telecommand"
	"github.com/cwsl/echoflare/telemetry"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// metrics records counters for this one-shot invocation using the same
// observer calls the long-running echoflare-mission binary makes; this
// CLI doesn't serve /metrics itself.
var metrics = obsmetrics.New()

func newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "echoflare",
		Short: "Echoflare AX.25 + protocol helpers",
	}
	root.AddCommand(
		newDecodeAX25Command(),
		newDecodeTelemetryCommand(),
		newBuildMotDCommand(),
		newBuildSSTVCommand(),
		newDemodWAVCommand(),
		newModWAVCommand(),
		newDecodeSSTVCommand(),
	)
	return root
}

func parseHexArg(s string) ([]byte, error) {
	s = strings.NewReplacer(" ", "", "\n", "", "\t", "").Replace(s)
	s = strings.TrimPrefix(s, "0x")
	return hex.DecodeString(s)
}

func readFrameInput(hexArg, fileArg string) ([]byte, error) {
	if hexArg != "" {
		return parseHexArg(hexArg)
	}
	return os.ReadFile(fileArg)
}

func printJSON(v any) {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return
	}
	fmt.Println(string(b))
}

func newDecodeAX25Command() *cobra.Command {
	var hexArg, fileArg string
	cmd := &cobra.Command{
		Use:   "decode-ax25",
		Short: "Decode a raw 2-address AX.25 UI frame",
		RunE: func(cmd *cobra.Command, args []string) error {
			if (hexArg == "") == (fileArg == "") {
				return fmt.Errorf("exactly one of --hex or --file is required")
			}
			raw, err := readFrameInput(hexArg, fileArg)
			if err != nil {
				return err
			}
			frame, err := ax25.Decode(raw)
			if err != nil {
				return err
			}
			printJSON(map[string]any{
				"destination": map[string]any{"callsign": frame.Destination.Callsign, "ssid": frame.Destination.SSID},
				"source":      map[string]any{"callsign": frame.Source.Callsign, "ssid": frame.Source.SSID},
				"control":     frame.Control,
				"pid":         frame.PID,
				"payload_hex": hex.EncodeToString(frame.Payload),
			})
			return nil
		},
	}
	cmd.Flags().StringVar(&hexArg, "hex", "", "Frame as hex")
	cmd.Flags().StringVar(&fileArg, "file", "", "Binary frame file")
	return cmd
}

func newDecodeTelemetryCommand() *cobra.Command {
	var hexArg, fileArg string
	var wrapAX25 bool
	cmd := &cobra.Command{
		Use:   "decode-telemetry",
		Short: "Decode a TL telemetry payload (optionally wrapped in AX.25)",
		RunE: func(cmd *cobra.Command, args []string) error {
			if (hexArg == "") == (fileArg == "") {
				return fmt.Errorf("exactly one of --hex or --file is required")
			}
			raw, err := readFrameInput(hexArg, fileArg)
			if err != nil {
				return err
			}
			payload := raw
			if wrapAX25 {
				frame, err := ax25.Decode(raw)
				if err != nil {
					return err
				}
				payload = frame.Payload
			}
			rec, err := telemetry.Decode(payload)
			if err != nil {
				return err
			}
			printJSON(rec)
			return nil
		},
	}
	cmd.Flags().StringVar(&hexArg, "hex", "", "Payload/frame as hex")
	cmd.Flags().StringVar(&fileArg, "file", "", "Binary payload/frame file")
	cmd.Flags().BoolVar(&wrapAX25, "ax25", false, "Input is a raw AX.25 UI frame")
	return cmd
}

func wrapTelecommand(packet []byte, ax25Wrap bool, src, dst string) ([]byte, error) {
	if !ax25Wrap {
		return packet, nil
	}
	frame := ax25.Frame{
		Destination: ax25.Address{Callsign: dst, SSID: 0},
		Source:      ax25.Address{Callsign: src, SSID: 0},
		Control:     ax25.ControlUI,
		PID:         ax25.PIDNoLayer3,
		Payload:     packet,
	}
	return frame.Encode()
}

func emitTelecommand(out []byte, outPath string, printHex bool) error {
	if outPath != "" {
		if err := os.WriteFile(outPath, out, 0o644); err != nil {
			return err
		}
	}
	if printHex {
		fmt.Println(hex.EncodeToString(out))
	}
	return nil
}

func newBuildMotDCommand() *cobra.Command {
	var sequence uint64
	var motd, src, dst, outPath string
	var wrapAX25, printHex bool
	cmd := &cobra.Command{
		Use:   "build-motd",
		Short: "Build a signed Set-MotD telecommand",
		RunE: func(cmd *cobra.Command, args []string) error {
			tc := telecommand.BuildSetMotD(uint32(sequence), motd)
			metrics.ObserveTelecommandBuild("set_motd")
			if errStr := telecommand.Verify(tc); errStr != "" {
				metrics.ObserveTelecommandVerify("bad")
				return fmt.Errorf("internal error: produced invalid telecommand: %s", errStr)
			}
			metrics.ObserveTelecommandVerify("ok")
			out, err := wrapTelecommand(tc, wrapAX25, src, dst)
			if err != nil {
				return err
			}
			return emitTelecommand(out, outPath, printHex)
		},
	}
	cmd.Flags().Uint64Var(&sequence, "sequence", 0, "Sequence number from latest telemetry")
	cmd.Flags().StringVar(&motd, "motd", "", "Message of the day")
	cmd.Flags().BoolVar(&wrapAX25, "ax25", false, "Wrap in AX.25 UI frame")
	cmd.Flags().StringVar(&src, "src", "GROUND", "AX.25 source callsign (max 6 chars)")
	cmd.Flags().StringVar(&dst, "dst", "HA7FLR", "AX.25 destination callsign (max 6 chars)")
	cmd.Flags().StringVar(&outPath, "out", "", "Write binary output")
	cmd.Flags().BoolVar(&printHex, "print-hex", false, "Print output as hex")
	cmd.MarkFlagRequired("sequence")
	cmd.MarkFlagRequired("motd")
	return cmd
}

func newBuildSSTVCommand() *cobra.Command {
	var sequence uint64
	var src, dst, outPath string
	var wrapAX25, printHex bool
	cmd := &cobra.Command{
		Use:   "build-sstv",
		Short: "Build a signed SSTV telecommand",
		RunE: func(cmd *cobra.Command, args []string) error {
			tc := telecommand.BuildSSTV(uint32(sequence))
			metrics.ObserveTelecommandBuild("sstv")
			if errStr := telecommand.Verify(tc); errStr != "" {
				metrics.ObserveTelecommandVerify("bad")
				return fmt.Errorf("internal error: produced invalid telecommand: %s", errStr)
			}
			metrics.ObserveTelecommandVerify("ok")
			out, err := wrapTelecommand(tc, wrapAX25, src, dst)
			if err != nil {
				return err
			}
			return emitTelecommand(out, outPath, printHex)
		},
	}
	cmd.Flags().Uint64Var(&sequence, "sequence", 0, "Sequence number from latest telemetry")
	cmd.Flags().BoolVar(&wrapAX25, "ax25", false, "Wrap in AX.25 UI frame")
	cmd.Flags().StringVar(&src, "src", "GROUND", "AX.25 source callsign (max 6 chars)")
	cmd.Flags().StringVar(&dst, "dst", "HA7FLR", "AX.25 destination callsign (max 6 chars)")
	cmd.Flags().StringVar(&outPath, "out", "", "Write binary output")
	cmd.Flags().BoolVar(&printHex, "print-hex", false, "Print output as hex")
	cmd.MarkFlagRequired("sequence")
	return cmd
}

func newDemodWAVCommand() *cobra.Command {
	var wavPath string
	var printHex, decodeTL bool
	cmd := &cobra.Command{
		Use:   "demod-wav",
		Short: "Demod a GroundTrack /radio WAV into AX.25 frames",
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := modem.DecodeWAV(wavPath, modem.DefaultConfig().Baud)
			if err != nil {
				return err
			}
			metrics.ObserveModemDecode(fmt.Sprintf("%d", res.DescrambleVariant), len(res.Frames))
			printJSON(map[string]any{
				"frames":             len(res.Frames),
				"chosen_phase":       res.ChosenPhase,
				"inverted":           res.Inverted,
				"descramble_variant": res.DescrambleVariant,
			})
			if len(res.Frames) == 0 {
				return nil
			}
			if printHex {
				for _, fr := range res.Frames {
					fmt.Println(hex.EncodeToString(fr))
				}
			}
			if decodeTL {
				decoded := 0
				for _, fr := range res.Frames {
					ax, err := ax25.Decode(fr)
					if err != nil {
						continue
					}
					rec, err := telemetry.Decode(ax.Payload)
					if err != nil {
						continue
					}
					printJSON(rec)
					decoded++
				}
				if decoded == 0 {
					fmt.Println("No decodable TL telemetry found in these frames.")
				}
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&wavPath, "wav", "", "Path to WAV captured from /radio/<sat>")
	cmd.Flags().BoolVar(&printHex, "print-hex", false, "Print decoded AX.25 frames as hex")
	cmd.Flags().BoolVar(&decodeTL, "decode-tl", false, "Try decoding TL telemetry from frames")
	cmd.MarkFlagRequired("wav")
	return cmd
}

func newDecodeSSTVCommand() *cobra.Command {
	var wavPath, outPath string
	cmd := &cobra.Command{
		Use:   "decode-sstv",
		Short: "Decode a Robot36 SSTV capture WAV into a PNG",
		RunE: func(cmd *cobra.Command, args []string) error {
			fs, samples, err := modem.ReadWAVMono16(wavPath)
			if err != nil {
				return fmt.Errorf("sstv: %w", err)
			}
			img, chainLength, err := sstv.DecodeWithChainLength(fs, samples)
			if err != nil {
				metrics.ObserveSSTVDecode(false, chainLength)
				return err
			}
			metrics.ObserveSSTVDecode(true, chainLength)
			if err := sstv.SavePNG(img, outPath); err != nil {
				return err
			}
			fmt.Printf("decoded %d-line sync chain -> %s\n", chainLength, outPath)
			return nil
		},
	}
	cmd.Flags().StringVar(&wavPath, "wav", "", "Path to a captured rx_sstv_*.wav")
	cmd.Flags().StringVar(&outPath, "out", "", "Output PNG path")
	cmd.MarkFlagRequired("wav")
	cmd.MarkFlagRequired("out")
	return cmd
}

func newModWAVCommand() *cobra.Command {
	var hexArg, outPath string
	cmd := &cobra.Command{
		Use:   "mod-wav",
		Short: "Modulate an AX.25 frame (hex) into a TX WAV",
		RunE: func(cmd *cobra.Command, args []string) error {
			frame, err := parseHexArg(hexArg)
			if err != nil {
				return err
			}
			return modem.EncodeToWAV(frame, modem.DefaultConfig(), outPath)
		},
	}
	cmd.Flags().StringVar(&hexArg, "hex", "", "AX.25 frame bytes as hex (no flags, no FCS)")
	cmd.Flags().StringVar(&outPath, "out", "", "Output WAV path")
	cmd.MarkFlagRequired("hex")
	cmd.MarkFlagRequired("out")
	return cmd
}
