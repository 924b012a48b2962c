package resilience

import "time"

// FromConfig builds a BreakerConfig from the circuit section of the app config.
// Non-positive values keep the defaults.
func FromConfig(failureThreshold, coolDownSecs int) BreakerConfig {
	cfg := DefaultBreakerConfig()
	if failureThreshold > 0 {
		cfg.FailureThreshold = failureThreshold
	}
	if coolDownSecs > 0 {
		cfg.CoolDown = time.Duration(coolDownSecs) * time.Second
	}
	return cfg
}
