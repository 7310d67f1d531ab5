package daemon

import (
	"time"

	"github.com/TeamEOS/packages-apps-EOSUpdater/internal/config"
	"github.com/TeamEOS/packages-apps-EOSUpdater/internal/state"
)

// Trigger names the event that asked for a check.
type Trigger string

const (
	TriggerBoot         Trigger = "boot"
	TriggerConnectivity Trigger = "connectivity"
	TriggerPeriodic     Trigger = "periodic"
	TriggerManual       Trigger = "manual"
	TriggerRetry        Trigger = "retry"
)

// Decision is the outcome of applying the trigger rules.
type Decision struct {
	Run    bool
	Reason string
}

// Decide applies the trigger rules to one event. prefs must already reflect
// a boot trigger's reset of the boot-check flag.
//
//   - manual checks always run
//   - with frequency never nothing else runs
//   - with frequency boot a check runs until one completes after boot
//   - with an interval, periodic and retry triggers run, and boot or
//     connectivity triggers run only when the last check is overdue
func Decide(freq config.Frequency, t Trigger, prefs state.Preferences, now time.Time) Decision {
	if t == TriggerManual {
		return Decision{Run: true, Reason: "manual request"}
	}

	switch freq.Mode {
	case config.FrequencyNever:
		return Decision{Reason: "automatic checks disabled"}

	case config.FrequencyBoot:
		if t == TriggerPeriodic {
			return Decision{Reason: "periodic checks disabled"}
		}
		if prefs.BootCheckCompleted {
			return Decision{Reason: "boot check already completed"}
		}
		return Decision{Run: true, Reason: "boot check pending"}

	default:
		switch t {
		case TriggerPeriodic, TriggerRetry:
			return Decision{Run: true, Reason: "scheduled"}
		}
		if prefs.LastCheck.IsZero() || now.Sub(prefs.LastCheck) >= freq.Interval {
			return Decision{Run: true, Reason: "check overdue"}
		}
		return Decision{Reason: "checked recently"}
	}
}
