package media

// LocatorError reports a failed source resolution, probe, or download.
// Reason carries the tool's diagnostic text.
type LocatorError struct {
	Reason string
}

func (e *LocatorError) Error() string {
	return "locate media: " + e.Reason
}

// EstimateError reports a failed size probe. Callers treat it as "estimate
// unavailable" rather than a fatal condition.
type EstimateError struct {
	Reason string
}

func (e *EstimateError) Error() string {
	return "estimate size: " + e.Reason
}

// ExportError reports a terminal failure of the cut pipeline, fast path or
// fallback. Message carries the toolchain's diagnostic text.
type ExportError struct {
	Message string
}

func (e *ExportError) Error() string {
	return "export segment: " + e.Message
}
