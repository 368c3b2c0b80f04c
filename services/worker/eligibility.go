package worker

// DefaultHour is the processing hour assumed for channels whose hour
// setting is missing or out of range
const DefaultHour = 9

// hourWindow keeps a channel eligible for this many hours past its
// slot, so a failed run gets caught up by the next ones
const hourWindow = 3

// NormalizeHour maps an invalid hour setting to the default
func NormalizeHour(hour int) int {
	if hour < 0 || hour > 23 {
		return DefaultHour
	}
	return hour
}

// EligibleAt reports whether a channel with the given hour setting
// should be processed during the run at currentHour. The window wraps
// around midnight.
func EligibleAt(channelHour, currentHour int) bool {
	h := NormalizeHour(channelHour)
	return (currentHour-h+24)%24 <= hourWindow
}
