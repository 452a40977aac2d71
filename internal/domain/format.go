package domain

import (
	"fmt"
	"math"
	"time"
)

// Unknown is shown in place of a value the routing service did not report.
const Unknown = "N/A"

// Spoken and displayed messages.
const (
	MessageStart         = "경로 안내를 시작합니다."
	MessageArrival       = "목적지에 도착했습니다. 경로 안내를 종료합니다."
	MessageNoRoute       = "경로 정보가 없습니다."
	MessageStopped       = "경로 안내가 종료되었습니다."
	preAnnouncePrefix    = "잠시 후 "
	hazardWarningPattern = "주의! %d미터 전방에 %s이 있습니다."
)

// PreAnnouncement is the spoken form of an upcoming guide instruction.
func PreAnnouncement(instruction string) string {
	return preAnnouncePrefix + instruction
}

// HazardWarning is the spoken warning for a hazard at the given distance.
func HazardWarning(label string, distance float64) string {
	return fmt.Sprintf(hazardWarningPattern, int(math.Round(distance)), label)
}

// FormatKilometers renders a distance in metres as "12.3km".
func FormatKilometers(meters float64) string {
	if meters <= 0 {
		return Unknown
	}
	return fmt.Sprintf("%.1fkm", meters/1000)
}

// FormatMinutes renders a duration in milliseconds as whole minutes, "17분".
func FormatMinutes(millis float64) string {
	if millis <= 0 {
		return Unknown
	}
	return fmt.Sprintf("%d분", int(math.Floor(millis/60000)))
}

// FormatArrival renders departure plus duration as a wall-clock "HH:MM".
func FormatArrival(departed time.Time, millis float64) string {
	if departed.IsZero() || millis <= 0 {
		return Unknown
	}
	return departed.Add(time.Duration(millis * float64(time.Millisecond))).Format("15:04")
}

// StepLabel renders a guide row as "{distance}m 후 {instruction}", with the
// distance rounded up to the next 10 m. Steps without a distance show only
// the instruction.
func StepLabel(step GuideStep) string {
	if step.Distance == nil || *step.Distance <= 0 {
		return step.Instruction
	}
	rounded := int(math.Ceil(*step.Distance/10) * 10)
	return fmt.Sprintf("%dm 후 %s", rounded, step.Instruction)
}

// StepDurationLabel renders a guide row's duration in whole seconds, rounded up.
func StepDurationLabel(step GuideStep) string {
	if step.Duration == nil || *step.Duration <= 0 {
		return ""
	}
	return fmt.Sprintf("%d초", int(math.Ceil(*step.Duration/1000)))
}
