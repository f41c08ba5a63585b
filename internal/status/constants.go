// internal/status/constants.go
package status

// Reader Status Block layout constants.
// These values define the protocol and MUST NOT be configurable.

// ---- BLOCK GEOMETRY ----

// SlotsPerDevice is the fixed number of logical slots per reader.
const SlotsPerDevice = 20

// ---- SLOT INDICES ----

// SlotHealthCode holds the reader health state.
const SlotHealthCode = 0

// SlotLastErrorCode holds the last raw error code (reader status byte).
const SlotLastErrorCode = 1

// SlotSecondsInError holds the duration (in seconds) the reader has been in error.
const SlotSecondsInError = 2

// ---- INVENTORY COUNTERS ----

// SlotScanning is 1 while an inventory loop runs.
const SlotScanning = 3

// SlotLastRoundCount holds the tag count of the most recent round.
const SlotLastRoundCount = 4

// SlotUniqueTags holds the unique tag table size.
const SlotUniqueTags = 5

// SlotRounds holds the number of completed rounds.
const SlotRounds = 6

// SlotLastRoundStatus holds the status byte of the most recent round.
const SlotLastRoundStatus = 7

// SlotFeedback mirrors the audible-feedback flag.
const SlotFeedback = 8

// SlotLiveEnd is the last slot that changes at runtime (inclusive).
const SlotLiveEnd = SlotFeedback

// ---- RESERVED RANGE ----

// Slots 9-10 are reserved for future use.
const SlotReservedStart = 9
const SlotReservedEnd = 10

// ---- DEVICE NAME ----

// SlotDeviceNameStart is the first slot used for the device name.
// Device name is always placed at the END of the status block.
const SlotDeviceNameStart = 11

// SlotDeviceNameSlots is the number of slots reserved for the device name.
const SlotDeviceNameSlots = 8

// SlotDeviceNameEnd is the last slot used for the device name (inclusive).
const SlotDeviceNameEnd = SlotDeviceNameStart + SlotDeviceNameSlots - 1

// ---- LIMITS ----

// DeviceNameMaxChars is the maximum number of ASCII characters stored for device name.
const DeviceNameMaxChars = 16

// ---- HEALTH CODES ----

// HealthUnknown represents an unknown or boot state.
const HealthUnknown uint16 = 0

// HealthOK represents a connected reader whose last exchange succeeded.
const HealthOK uint16 = 1

// HealthError represents a reader error state.
const HealthError uint16 = 2

// HealthStale represents a scanning reader that has not completed a round recently.
const HealthStale uint16 = 3

// HealthDisabled represents a disconnected reader.
const HealthDisabled uint16 = 4
