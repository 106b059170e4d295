// Command genmock writes a synthetic ThingSpeak feeds.json for local runs and
// fixtures. Each channel dries out linearly and is "watered" back to the
// saturated band when it crosses the dry threshold, so every status band shows
// up. The generated feed is validated with the domain pipeline before writing.
//
// Usage:
//
//	go run ./cmd/genmock -out internal/pipeline/testdata/generated.json \
//	  -start 2024-01-01T00:00:00Z -interval 20m -count 500 -channels 2
//
// With -serve the feed is also served at /channels/{id}/feeds.json so the
// monitor can run against it via THINGSPEAK_BASE_URL.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/couchcryptid/soil-moisture-monitor/internal/domain"
	"github.com/gorilla/mux"
)

type genOptions struct {
	start          time.Time
	interval       time.Duration
	count          int
	channels       int
	malformedEvery int
}

type feedChannel struct {
	ID          int    `json:"id"`
	Name        string `json:"name"`
	LastEntryID int    `json:"last_entry_id"`
}

type feed struct {
	Channel feedChannel      `json:"channel"`
	Feeds   []map[string]any `json:"feeds"`
}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	out := flag.String("out", "", "output path for the feeds JSON")
	start := flag.String("start", "2024-01-01T00:00:00Z", "first entry time (RFC3339, UTC)")
	interval := flag.Duration("interval", 20*time.Minute, "time between entries")
	count := flag.Int("count", 500, "number of entries")
	channels := flag.Int("channels", 1, "number of fieldN channels to populate (1..8)")
	malformed := flag.Int("malformed-every", 0, "emit a bad timestamp every N entries (0 disables)")
	channelID := flag.Int("channel-id", 3204291, "channel id reported in the feed metadata")
	serve := flag.String("serve", "", "optional listen address to serve the feed")
	flag.Parse()

	if *out == "" && *serve == "" {
		flag.Usage()
		return fmt.Errorf("missing required flag: -out or -serve")
	}
	startTime, err := time.Parse(time.RFC3339, *start)
	if err != nil {
		return fmt.Errorf("parse -start: %w", err)
	}
	if *channels < 1 || *channels > domain.MaxSensorChannels {
		return fmt.Errorf("-channels must be between 1 and %d", domain.MaxSensorChannels)
	}

	f := generate(genOptions{
		start:          startTime.UTC(),
		interval:       *interval,
		count:          *count,
		channels:       *channels,
		malformedEvery: *malformed,
	}, *channelID)

	data, err := json.MarshalIndent(f, "", "  ")
	if err != nil {
		return err
	}
	if err := check(data, *channels); err != nil {
		return err
	}

	if *out != "" {
		if err := os.WriteFile(*out, data, 0o644); err != nil { //nolint:gosec // fixture output
			return fmt.Errorf("write %s: %w", *out, err)
		}
		log.Printf("wrote %d entries to %s", len(f.Feeds), *out)
	}
	if *serve != "" {
		return http.ListenAndServe(*serve, newRouter(data)) //nolint:gosec // local dev server
	}
	return nil
}

// generate builds a deterministic sawtooth feed. Channel n starts at 70+2n and
// loses 0.75 points per entry until it drops below 25.
func generate(o genOptions, channelID int) feed {
	f := feed{
		Channel: feedChannel{ID: channelID, Name: "Garden", LastEntryID: o.count},
		Feeds:   make([]map[string]any, 0, o.count),
	}
	values := make([]float64, o.channels)
	for ch := range values {
		values[ch] = 70 + 2*float64(ch+1)
	}

	for i := 0; i < o.count; i++ {
		entry := map[string]any{
			"entry_id":   i + 1,
			"created_at": o.start.Add(time.Duration(i) * o.interval).Format(time.RFC3339),
		}
		if o.malformedEvery > 0 && (i+1)%o.malformedEvery == 0 {
			entry["created_at"] = "not-a-timestamp"
		}
		for ch := range values {
			entry[domain.FieldName(ch+1)] = strconv.FormatFloat(values[ch], 'f', -1, 64)
			values[ch] -= 0.75
			if values[ch] < 25 {
				values[ch] = 85
			}
		}
		f.Feeds = append(f.Feeds, entry)
	}
	return f
}

// check runs the generated payload through the pipeline with a zero cutoff,
// so a broken generator fails before anything is written.
func check(payload []byte, channels int) error {
	opts := domain.DefaultOptions()
	opts.SensorChannels = channels
	res := domain.ProcessFeed(payload, domain.Date{}, opts)
	if res.Status != domain.ResultOK {
		return fmt.Errorf("generated feed is not usable: status %s", res.Status)
	}
	log.Printf("check: %d entries, %d readings, %d malformed, active channels %v",
		res.Total, res.Retained, len(res.Malformed), res.ActiveChannels)
	return nil
}

func newRouter(payload []byte) http.Handler {
	r := mux.NewRouter()
	r.HandleFunc("/channels/{id}/feeds.json", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write(payload)
	}).Methods(http.MethodGet)
	return r
}
