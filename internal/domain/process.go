package domain

// ResultStatus is the outcome variant of ProcessFeed.
type ResultStatus string

const (
	ResultEmpty   ResultStatus = "empty"
	ResultNoMatch ResultStatus = "no_match"
	ResultOK      ResultStatus = "ok"
)

// Result is everything the presentation layer needs from one refresh.
// Snapshot, ActiveChannels, Series, and Export are only set when Status is ResultOK.
type Result struct {
	Status         ResultStatus
	Cutoff         Date
	Total          int // entries in the feed
	Retained       int // readings on or after Cutoff
	Snapshot       Snapshot
	ActiveChannels []int
	Series         []SensorSeries
	Export         ExportTable
	Malformed      []*MalformedRecordError
}

// ProcessFeed normalizes payload, keeps readings on or after cutoff, and
// classifies the latest one. It never fails: an empty payload yields
// ResultEmpty, a cutoff that excludes everything yields ResultNoMatch, and
// malformed entries are dropped and listed in Result.Malformed.
func ProcessFeed(payload RawPayload, cutoff Date, opts Options) Result {
	res := Result{Status: ResultEmpty, Cutoff: cutoff}

	norm, err := Normalize(payload, opts)
	if err != nil {
		return res
	}
	res.Total = norm.Total
	res.Malformed = norm.Malformed
	if len(norm.Readings) == 0 {
		return res
	}

	filtered := FilterSince(norm.Readings, cutoff)
	if len(filtered) == 0 {
		res.Status = ResultNoMatch
		return res
	}

	active := ActiveChannels(filtered, norm.Declared)
	snap, _ := TakeSnapshot(filtered, active, opts)

	res.Status = ResultOK
	res.Retained = len(filtered)
	res.Snapshot = snap
	res.ActiveChannels = active
	res.Series = BuildSeries(filtered, active)
	res.Export = BuildExportTable(filtered, norm.Declared)
	return res
}
