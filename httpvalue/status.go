package httpvalue

const (
	// StatusTransportFailed is reported by clients when no HTTP response was received
	StatusTransportFailed = 600
)

func IsValidStatus(s int) bool {
	return s >= 100 && s <= 999
}
