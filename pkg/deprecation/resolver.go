package deprecation

import "fmt"

// ResolveAction maps a rule and its effective status to the action to apply.
//
// Removed and Deprecated rules use their configured action. PastSunset rules
// use the past_sunset_action policy instead, so enforcement can tighten once
// the sunset passes without editing every rule. Inactive rules pass through.
func ResolveAction(rule *Rule, status EffectiveStatus, settings Settings) Action {
	switch status {
	case Inactive:
		return PassThrough{}
	case Removed, Deprecated:
		return configuredAction(rule)
	case PastSunset:
		return pastSunsetAction(rule, settings.PastSunsetAction)
	default:
		panic(fmt.Sprintf("deprecation: unhandled effective status %v", status))
	}
}

func configuredAction(rule *Rule) Action {
	if rule.Action == nil {
		return Warn{}
	}
	return rule.Action
}

func pastSunsetAction(rule *Rule, policy PastSunsetAction) Action {
	switch policy {
	case PastSunsetWarn:
		return Warn{}
	case PastSunsetBlock:
		if b, ok := rule.Action.(Block); ok {
			return b
		}
		return Block{Code: DefaultBlockCode}
	case PastSunsetRedirect:
		if rule.Replacement == nil {
			return Block{Code: DefaultBlockCode}
		}
		if r, ok := rule.Action.(Redirect); ok {
			return r
		}
		return Redirect{Code: DefaultPastSunsetRedirectCode}
	default:
		panic(fmt.Sprintf("deprecation: unhandled past sunset action %v", policy))
	}
}
