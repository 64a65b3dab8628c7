package windows

import "encoding/xml"

const (
	// PackageManifestName is the abstract manifest id that plugin
	// changes target before being demultiplexed onto concrete files.
	PackageManifestName = "package.appxmanifest"

	WindowsManifestName   = "package.windows.appxmanifest"
	PhoneManifestName     = "package.phone.appxmanifest"
	Windows10ManifestName = "package.windows10.appxmanifest"
)

const (
	DeviceTargetWindows = "windows"
	DeviceTargetPhone   = "phone"
	DeviceTargetAll     = "all"
)

// CapabilitiesSelector is the parent selector under which manifest
// capability declarations live.
const CapabilitiesSelector = "/Package/Capabilities"

// ManifestVersion is one row of a ManifestTable: the concrete
// manifest files serving each device target for one manifest
// schema version.
type ManifestVersion struct {
	SchemaVersion string
	Targets       map[string][]string
}

// ManifestTable maps (deviceTarget, schemaVersion) pairs onto
// concrete manifest files. Row order is significant: demultiplexed
// changes are emitted in table order, not semver order.
type ManifestTable []ManifestVersion

// Resolve returns the concrete manifest files for a device target at
// a schema version, or nil if the table has no such row.
func (t ManifestTable) Resolve(deviceTarget, schemaVersion string) []string {
	for _, version := range t {
		if version.SchemaVersion == schemaVersion {
			return version.Targets[deviceTarget]
		}
	}

	return nil
}

// Manifests returns every concrete manifest file the table knows of,
// deduplicated, in table order.
func (t ManifestTable) Manifests() []string {
	var (
		manifests = []string{}
		seen      = map[string]bool{}
	)
	for _, version := range t {
		for _, deviceTarget := range []string{DeviceTargetWindows, DeviceTargetPhone, DeviceTargetAll} {
			for _, manifest := range version.Targets[deviceTarget] {
				if !seen[manifest] {
					seen[manifest] = true
					manifests = append(manifests, manifest)
				}
			}
		}
	}

	return manifests
}

// DefaultManifestTable is the manifest layout of a stock Windows
// project: two legacy 8.1 manifests split by device family and one
// unified manifest for 10.0.
var DefaultManifestTable = ManifestTable{
	{
		SchemaVersion: "8.1.0",
		Targets: map[string][]string{
			DeviceTargetWindows: {WindowsManifestName},
			DeviceTargetPhone:   {PhoneManifestName},
			DeviceTargetAll:     {WindowsManifestName, PhoneManifestName},
		},
	},
	{
		SchemaVersion: "10.0.0",
		Targets: map[string][]string{
			DeviceTargetWindows: {Windows10ManifestName},
			DeviceTargetPhone:   {Windows10ManifestName},
			DeviceTargetAll:     {Windows10ManifestName},
		},
	},
}

type Manifest struct {
	XMLName      xml.Name             `xml:"Package"`
	Identity     ManifestIdentity     `xml:"Identity"`
	Capabilities ManifestCapabilities `xml:"Capabilities"`
	Attrs        []xml.Attr           `xml:",any,attr"`
}

type ManifestIdentity struct {
	Attrs []xml.Attr `xml:",any,attr"`
}

type ManifestCapabilities struct {
	Capabilities       []ManifestCapability `xml:"Capability"`
	DeviceCapabilities []ManifestCapability `xml:"DeviceCapability"`
}

type ManifestCapability struct {
	XMLName xml.Name
	Attrs   []xml.Attr `xml:",any,attr"`
}

// Name returns the capability's Name attribute.
func (c *ManifestCapability) Name() string {
	for _, attr := range c.Attrs {
		if attr.Name.Local == "Name" {
			return attr.Value
		}
	}

	return ""
}

// UapNamespace is the schema namespace of uap-prefixed capability
// declarations in unified manifests.
const UapNamespace = "http://schemas.microsoft.com/appx/manifest/uap/windows10"

// Prefixed reports whether the capability element was declared under
// the secondary uap namespace, e.g. <uap:Capability>.
func (c *ManifestCapability) Prefixed() bool {
	return c.XMLName.Space == UapNamespace || c.XMLName.Space == UapPrefix
}
