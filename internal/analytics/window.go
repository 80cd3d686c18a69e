package analytics

import "time"

// DefaultWindow is the trailing period dashboards show when the
// request names none, or names one we do not serve.
const DefaultWindow = "30d"

var windowSpans = map[string]time.Duration{
	"24h": 24 * time.Hour,
	"7d":  7 * 24 * time.Hour,
	"30d": 30 * 24 * time.Hour,
	"90d": 90 * 24 * time.Hour,
}

// ParseWindow normalizes a window label and returns its span. Unknown
// labels fall back to the default; the dashboard always renders.
func ParseWindow(label string) (string, time.Duration) {
	if span, ok := windowSpans[label]; ok {
		return label, span
	}
	return DefaultWindow, windowSpans[DefaultWindow]
}
