package appxregexp

import "regexp"

var (
	CapabilityElement = regexp.MustCompile(`^\s*<(Device)?Capability[\s/>]`)
	CapabilityName    = regexp.MustCompile(`Name\s*=\s*"(.*?)"`)
	Variable          = regexp.MustCompile(`\$\((\w+)\)|\$(\w+)`)
)
