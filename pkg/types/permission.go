package types

// PermissionKind identifies a capability category a frame can ask for.
type PermissionKind string

const (
	PermissionGeolocation   PermissionKind = "geolocation"
	PermissionNotifications PermissionKind = "notifications"
	PermissionMIDI          PermissionKind = "midi"
	PermissionMIDISysex     PermissionKind = "midiSysex"
	PermissionAudioCapture  PermissionKind = "audioCapture"
	PermissionVideoCapture  PermissionKind = "videoCapture"
	PermissionClipboardRead PermissionKind = "clipboardRead"
	PermissionPointerLock   PermissionKind = "pointerLock"
	PermissionFullscreen    PermissionKind = "fullscreen"
	PermissionOpenExternal  PermissionKind = "openExternal"
	PermissionUSB           PermissionKind = "usb"
	PermissionHID           PermissionKind = "hid"
	PermissionSerial        PermissionKind = "serial"
	PermissionBluetooth     PermissionKind = "bluetooth"
)

// PermissionStatus is the outcome of a permission decision.
type PermissionStatus string

const (
	StatusGranted PermissionStatus = "granted"
	StatusDenied  PermissionStatus = "denied"
)

// StatusFromBool maps a check handler's boolean verdict to a status.
func StatusFromBool(granted bool) PermissionStatus {
	if granted {
		return StatusGranted
	}
	return StatusDenied
}

// Details is the open-ended key/value dictionary passed to policy handlers.
// The broker only ever adds keys; caller-supplied keys are never removed.
type Details map[string]any

// Clone returns a shallow copy so handler-side mutation cannot leak back
// into the caller's dictionary. A nil receiver clones to an empty map.
func (d Details) Clone() Details {
	out := make(Details, len(d)+4)
	for k, v := range d {
		out[k] = v
	}
	return out
}

// DeviceDescriptor describes a concrete device (USB, HID, serial, ...)
// for the device permission paths. Shape is device-class specific.
type DeviceDescriptor map[string]any

// Clone returns a shallow copy of the descriptor.
func (d DeviceDescriptor) Clone() DeviceDescriptor {
	out := make(DeviceDescriptor, len(d))
	for k, v := range d {
		out[k] = v
	}
	return out
}

// SubscriptionID identifies a permission status-change subscription.
// The broker does not track status changes, so subscriptions are always
// issued the invalid sentinel.
type SubscriptionID int64

// InvalidSubscriptionID is returned for every subscription attempt.
const InvalidSubscriptionID SubscriptionID = -1
