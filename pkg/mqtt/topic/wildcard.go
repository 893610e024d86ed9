package topic

// MQTT wildcards.
const (
	// Wildcard matches exactly one level: "roverhub/v1/status/+".
	Wildcard = "+"

	// MultiWildcard matches the remaining levels and must come last.
	MultiWildcard = "#"
)
