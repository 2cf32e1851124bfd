package deprecation

import "time"

const day = 24 * time.Hour

// EvaluateLifecycle computes the effective status of rule at now.
//
//   - removed rules are always Removed
//   - scheduled rules before DeprecatedAt are Inactive
//   - rules after SunsetAt are PastSunset
//   - everything else is Deprecated
func EvaluateLifecycle(rule *Rule, now time.Time) EffectiveStatus {
	if rule.Status == StatusRemoved {
		return Removed
	}
	if rule.Status == StatusScheduled && !rule.DeprecatedAt.IsZero() && now.Before(rule.DeprecatedAt) {
		return Inactive
	}
	if !rule.SunsetAt.IsZero() && now.After(rule.SunsetAt) {
		return PastSunset
	}
	return Deprecated
}

// DaysUntilSunset returns the whole days left until the rule's sunset,
// rounded up. Past-due sunsets report 0. ok is false when the rule has no
// sunset. Sunsets beyond time.Duration's range count from the saturated
// duration, about 292 years.
func DaysUntilSunset(rule *Rule, now time.Time) (days int, ok bool) {
	if rule.SunsetAt.IsZero() {
		return 0, false
	}
	remaining := rule.SunsetAt.Sub(now)
	if remaining <= 0 {
		return 0, true
	}
	days = int(remaining / day)
	if remaining%day != 0 {
		days++
	}
	return days, true
}
