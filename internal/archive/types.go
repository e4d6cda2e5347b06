package archive

import (
	"strings"
	"time"

	"github.com/blackwell-systems/crashkeep/internal/crashstore"
)

// Report is one archived crash report.
type Report struct {
	ID          string
	Type        crashstore.CrashType
	Title       string
	HarvestedAt time.Time
	SizeBytes   int64
	// Body is empty in listings and filled by Get.
	Body string
}

// Classify infers the crash type and a one-line title from a report body.
// Exception reports carry "Name:" and "Reason:" lines under the header;
// signal reports carry a "signal <NAME>" line.
func Classify(body string) (crashstore.CrashType, string) {
	lines := strings.SplitN(body, "\n", 4)
	if len(lines) >= 3 && strings.HasPrefix(lines[1], "Name: ") && strings.HasPrefix(lines[2], "Reason: ") {
		name := strings.TrimPrefix(lines[1], "Name: ")
		reason := strings.TrimPrefix(lines[2], "Reason: ")
		return crashstore.Exception, name + ": " + reason
	}
	if len(lines) >= 2 && strings.HasPrefix(lines[1], "signal ") {
		return crashstore.Signal, lines[1]
	}
	return crashstore.Signal, "signal"
}

func crashType(s string) crashstore.CrashType {
	if s == string(crashstore.Exception) {
		return crashstore.Exception
	}
	return crashstore.Signal
}
