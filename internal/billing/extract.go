package billing

import (
	"fmt"
	"regexp"
	"strconv"
)

var (
	billedDurationRE = regexp.MustCompile(`Billed Duration: (\d+)`)
	durationRE       = regexp.MustCompile(`Duration: (\d+\.\d+)`)
	maxMemoryUsedRE  = regexp.MustCompile(`Max Memory Used: (\d+)`)
	memorySizeRE     = regexp.MustCompile(`Memory Size: (\d+)`)
)

// Info is one invocation's billing-relevant fields pulled from its
// cloud log line, plus the dollar bill once computed.
type Info struct {
	BilledDurationMS float64
	DurationMS       float64
	MemorySizeMB     float64
	MemoryUsedMB     float64
	Bill             float64
}

// Extract parses a single Lambda log line's Billed Duration, Duration,
// Max Memory Used, and Memory Size fields and computes the bill.
func Extract(log string) (Info, error) {
	billed, err := matchFloat(billedDurationRE, log)
	if err != nil {
		return Info{}, err
	}
	duration, err := matchFloat(durationRE, log)
	if err != nil {
		return Info{}, err
	}
	memUsed, err := matchFloat(maxMemoryUsedRE, log)
	if err != nil {
		return Info{}, err
	}
	memSize, err := matchFloat(memorySizeRE, log)
	if err != nil {
		return Info{}, err
	}

	info := Info{
		BilledDurationMS: billed,
		DurationMS:       duration,
		MemorySizeMB:     memSize,
		MemoryUsedMB:     memUsed,
	}
	info.Bill = CalculateBill(info)
	return info, nil
}

// CalculateBill applies AWS Lambda's per-GB-second rate plus the
// per-invocation request charge.
func CalculateBill(info Info) float64 {
	return info.BilledDurationMS*info.MemorySizeMB/1024*0.0000000167 + 0.2/1000000
}

func matchFloat(re *regexp.Regexp, log string) (float64, error) {
	m := re.FindStringSubmatch(log)
	if m == nil {
		return 0, fmt.Errorf("%w: pattern %q", ErrLogFormat, re.String())
	}
	return strconv.ParseFloat(m[1], 64)
}
