package cmd

import (
	"github.com/sofmeright/slipway/src/event"
)

// rawEvent resolves the raw event: CLI overrides win, then the CI
// environment.
func rawEvent() event.RawEvent {
	raw := event.FromEnv()
	if flagEvent != "" {
		raw.EventName = flagEvent
	}
	if flagRef != "" {
		raw.Ref = flagRef
	}
	if flagBaseRef != "" {
		raw.BaseRef = flagBaseRef
	}
	if flagRepo != "" {
		raw.Repository = flagRepo
	}
	return raw
}

// classifyEvent classifies the effective raw event against the loaded config.
func classifyEvent() (*event.TriggerEvent, error) {
	return event.Classify(rawEvent(), cfg.Trigger)
}
