// ABOUTME: Enumerations of the public model: device types, connectivity, data types,
// ABOUTME: alert severities and blueprint sections, each with a validating parser

package models

// DeviceType is the kind of a device.
type DeviceType string

const (
	DeviceTypeLua           DeviceType = "LUA"
	DeviceTypeVirtualUCM    DeviceType = "VIRTUAL_UCM"
	DeviceTypeHardwareUCM   DeviceType = "HARDWARE_UCM"
	DeviceTypeStandalone    DeviceType = "STANDALONE"
	DeviceTypeGateway       DeviceType = "GATEWAY"
	DeviceTypeLinkMasterUCM DeviceType = "LINK_MASTER_UCM"
	DeviceTypeLinkSlaveUCM  DeviceType = "LINK_SLAVE_UCM"
	DeviceTypeEmbeddedUCM   DeviceType = "EMBEDDED_UCM"
	DeviceTypeNative        DeviceType = "NATIVE"
)

// DeviceTypes lists every known device type in declaration order.
var DeviceTypes = []DeviceType{
	DeviceTypeLua,
	DeviceTypeVirtualUCM,
	DeviceTypeHardwareUCM,
	DeviceTypeStandalone,
	DeviceTypeGateway,
	DeviceTypeLinkMasterUCM,
	DeviceTypeLinkSlaveUCM,
	DeviceTypeEmbeddedUCM,
	DeviceTypeNative,
}

// ParseDeviceType compares by value against the known device types.
func ParseDeviceType(s string) (DeviceType, error) {
	return parseEnum("device type", s, DeviceTypes)
}

// ConnectivityStatus is the derived reachability of a device.
type ConnectivityStatus string

const (
	ConnectivityUnknown ConnectivityStatus = "UNKNOWN"
	ConnectivityOnline  ConnectivityStatus = "ONLINE"
	ConnectivityOffline ConnectivityStatus = "OFFLINE"
)

var connectivityStatuses = []ConnectivityStatus{ConnectivityUnknown, ConnectivityOnline, ConnectivityOffline}

// ParseConnectivityStatus validates an upstream connectivity status.
func ParseConnectivityStatus(s string) (ConnectivityStatus, error) {
	return parseEnum("connectivity status", s, connectivityStatuses)
}

// DataType is the declared type of a property or telemetry attribute.
type DataType string

const (
	DataTypeInteger        DataType = "integer"
	DataTypeFloat          DataType = "float"
	DataTypeString         DataType = "string"
	DataTypeBoolean        DataType = "boolean"
	DataTypeJSON           DataType = "json"
	DataTypeArrayOfStrings DataType = "array_of_strings"
	DataTypeObject         DataType = "object"
	// DataTypeAlerts is only valid for telemetry attributes.
	DataTypeAlerts DataType = "alerts"
)

var propertyDataTypes = []DataType{
	DataTypeInteger,
	DataTypeFloat,
	DataTypeString,
	DataTypeBoolean,
	DataTypeJSON,
	DataTypeArrayOfStrings,
	DataTypeObject,
}

var telemetryDataTypes = append(append([]DataType{}, propertyDataTypes...), DataTypeAlerts)

// ParsePropertyDataType accepts the data types valid for properties.
func ParsePropertyDataType(s string) (DataType, error) {
	return parseEnum("property data type", s, propertyDataTypes)
}

// ParseTelemetryDataType accepts the property data types plus "alerts".
func ParseTelemetryDataType(s string) (DataType, error) {
	return parseEnum("telemetry data type", s, telemetryDataTypes)
}

// AlertSeverity ranks how much attention an alert needs.
type AlertSeverity string

const (
	// AlertSeverityInfo means the device may require user attention.
	AlertSeverityInfo AlertSeverity = "info"
	// AlertSeverityWarning means the device works but requires user attention.
	AlertSeverityWarning AlertSeverity = "warning"
	// AlertSeverityError means the device is not operational.
	AlertSeverityError AlertSeverity = "error"
)

var alertSeverities = []AlertSeverity{AlertSeverityInfo, AlertSeverityWarning, AlertSeverityError}

// ParseAlertSeverity validates a manifest alert severity.
func ParseAlertSeverity(s string) (AlertSeverity, error) {
	return parseEnum("alert severity", s, alertSeverities)
}

// BlueprintSection names one of the declaration sections of a manifest.
type BlueprintSection string

const (
	SectionProperties BlueprintSection = "properties"
	SectionTelemetry  BlueprintSection = "telemetry"
	SectionAlerts     BlueprintSection = "alerts"
)

// BlueprintSections lists the readable manifest sections.
var BlueprintSections = []BlueprintSection{SectionProperties, SectionTelemetry, SectionAlerts}

// ParseBlueprintSection validates a read_blueprint section name.
func ParseBlueprintSection(s string) (BlueprintSection, error) {
	return parseEnum("blueprint section", s, BlueprintSections)
}
