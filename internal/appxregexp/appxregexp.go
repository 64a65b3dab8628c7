package appxregexp

// IsCapabilityElement reports whether the XML fragment opens with a
// Capability or DeviceCapability element, tolerating leading whitespace.
func IsCapabilityElement(xml string) bool {
	return CapabilityElement.MatchString(xml)
}

// ExtractCapabilityName returns the value of the element's Name
// attribute. Fragments without one are a plugin authoring error and
// panic here rather than being silently skipped.
func ExtractCapabilityName(xml string) string {
	return CapabilityName.FindStringSubmatch(xml)[1]
}

// CapabilityElementName returns the local name of the fragment's
// capability element, i.e. "Capability" or "DeviceCapability", and
// whether the fragment is a capability element at all.
func CapabilityElementName(xml string) (string, bool) {
	match := CapabilityElement.FindStringSubmatch(xml)
	if match == nil {
		return "", false
	}

	return match[1] + "Capability", true
}
