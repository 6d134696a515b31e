package groundstation

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/cwsl/echoflare/modem"
)

func TestListSatellites(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/satellites" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		json.NewEncoder(w).Encode([]string{"Echoflare", "OtherSat"})
	}))
	defer srv.Close()

	c := New(srv.URL, 5*time.Second)
	names, err := c.ListSatellites(context.Background())
	if err != nil {
		t.Fatalf("ListSatellites: %v", err)
	}
	if len(names) != 2 || names[0] != "Echoflare" {
		t.Fatalf("got %v, want [Echoflare OtherSat]", names)
	}
}

// S7: a status JSON missing elevation_deg yields (0, false) from the
// typed accessor, not an error.
func TestGetStatusMissingElevation(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"downlink_mhz": 437.5})
	}))
	defer srv.Close()

	c := New(srv.URL, 5*time.Second)
	st, err := c.GetStatus(context.Background(), "Echoflare")
	if err != nil {
		t.Fatalf("GetStatus: %v", err)
	}
	if el, ok := st.ElevationDeg(); ok || el != 0 {
		t.Fatalf("ElevationDeg() = (%v, %v), want (0, false)", el, ok)
	}
	if dl, ok := st.DownlinkMHz(); !ok || dl != 437.5 {
		t.Fatalf("DownlinkMHz() = (%v, %v), want (437.5, true)", dl, ok)
	}
}

func TestGetStatusNon2xx(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte("boom"))
	}))
	defer srv.Close()

	c := New(srv.URL, 5*time.Second)
	if _, err := c.GetStatus(context.Background(), "Echoflare"); err == nil {
		t.Fatalf("expected an error for HTTP 500")
	}
}

func TestWaitForElevationSucceedsImmediately(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"elevation_deg": 25.0})
	}))
	defer srv.Close()

	c := New(srv.URL, 5*time.Second)
	st, err := c.WaitForElevation(context.Background(), "Echoflare", 10.0, time.Second)
	if err != nil {
		t.Fatalf("WaitForElevation: %v", err)
	}
	if el, _ := st.ElevationDeg(); el != 25.0 {
		t.Fatalf("elevation = %v, want 25.0", el)
	}
}

func TestWaitForElevationTimesOut(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"elevation_deg": 2.0})
	}))
	defer srv.Close()

	c := New(srv.URL, 5*time.Second)
	if _, err := c.WaitForElevation(context.Background(), "Echoflare", 10.0, 1500*time.Millisecond); err == nil {
		t.Fatalf("expected a timeout error")
	}
}

func TestUploadRadioWAV(t *testing.T) {
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Fatalf("parse multipart: %v", err)
		}
		f, hdr, err := r.FormFile("file")
		if err != nil {
			t.Fatalf("FormFile: %v", err)
		}
		defer f.Close()
		gotPath = hdr.Filename
		w.Write([]byte("ack"))
	}))
	defer srv.Close()

	dir := t.TempDir()
	wavPath := dir + "/tx_motd_1.wav"
	if err := writeTinyWAV(wavPath); err != nil {
		t.Fatalf("writeTinyWAV: %v", err)
	}

	c := New(srv.URL, 5*time.Second)
	text, err := c.UploadRadioWAV(context.Background(), "Echoflare", wavPath)
	if err != nil {
		t.Fatalf("UploadRadioWAV: %v", err)
	}
	if text != "ack" {
		t.Fatalf("response body = %q, want %q", text, "ack")
	}
	if gotPath != "tx_motd_1.wav" {
		t.Fatalf("uploaded filename = %q, want tx_motd_1.wav", gotPath)
	}
}

func writeTinyWAV(path string) error {
	w, err := modem.NewWAVWriter(path, 48000)
	if err != nil {
		return err
	}
	if err := w.WriteSamples([]int16{1, 2, 3, 4}); err != nil {
		return err
	}
	return w.Close()
}
