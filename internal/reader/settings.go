// internal/reader/settings.go
package reader

import (
	"fmt"

	"github.com/pkg/errors"

	"github.com/tamzrod/uhf-inventory/internal/protocol"
)

// Info is the reader identity block returned by command 0x21.
type Info struct {
	Address    byte    `json:"address"`
	Version    [2]byte `json:"version"`
	ReaderType byte    `json:"reader_type"`
	Protocol   byte    `json:"protocol"`
	Band       byte    `json:"band"`
	MaxFreq    byte    `json:"max_freq"`
	MinFreq    byte    `json:"min_freq"`
	Power      byte    `json:"power"`
	ScanTime   byte    `json:"scan_time"`
	Antenna    byte    `json:"antenna"`
	Beep       byte    `json:"beep"`
	Vendor     [2]byte `json:"vendor"`
}

// VersionString renders the firmware version as major.minor.
func (i Info) VersionString() string {
	return fmt.Sprintf("%d.%02d", i.Version[0], i.Version[1])
}

const infoMinData = 8

// ReaderInfo queries the reader identity. The query is broadcast; the
// replying address and antenna mask are adopted into Parameter.
func (r *Reader) ReaderInfo() (Info, error) {
	res, err := r.exchange(protocol.BroadcastAddress, protocol.CmdGetReaderInfo, nil, timeoutInfo)
	if err != nil {
		return Info{}, err
	}
	if err := checkStatus(protocol.CmdGetReaderInfo, res); err != nil {
		return Info{}, err
	}

	d := res.Data
	if len(d) < infoMinData {
		return Info{}, errors.Wrapf(protocol.ErrFrameCorrupt, "reader info: %d data bytes", len(d))
	}

	info := Info{
		Address:    res.Address,
		Version:    [2]byte{d[0], d[1]},
		ReaderType: d[2],
		Protocol:   d[3],
		MaxFreq:    d[4] & 0x3F,
		MinFreq:    d[5] & 0x3F,
		Band:       (d[5]&0xC0)>>6 | (d[4]&0xC0)>>4,
		Power:      d[6],
		ScanTime:   d[7],
	}
	if len(d) > 8 {
		info.Antenna = d[8]
	}
	if len(d) > 9 {
		info.Beep = d[9]
	}
	if len(d) > 11 {
		info.Vendor = [2]byte{d[10], d[11]}
	}

	r.updateParameter(func(p *Parameter) {
		p.Address = info.Address
		if len(d) > 8 {
			p.Antenna = info.Antenna
		}
	})

	r.log.WithField("version", info.VersionString()).Debug("reader info")
	return info, nil
}

// MaxRfPower is the highest output power the reader accepts, in dBm.
const MaxRfPower = 30

// SetRfPower sets the output power in dBm (0-30).
func (r *Reader) SetRfPower(power byte) error {
	if power > MaxRfPower {
		return invalid("rf power %d out of range 0-%d", power, MaxRfPower)
	}
	_, err := r.call(protocol.CmdSetRfPower, []byte{power}, timeoutSetting)
	return err
}

// RegionPayload packs band and channel bounds into the two 0x22 bytes.
// The band's high two bits ride in the first byte, its low two in the second.
func RegionPayload(band, maxFreq, minFreq byte) []byte {
	return []byte{
		(band&0x0C)<<4 | maxFreq&0x3F,
		(band&0x03)<<6 | minFreq&0x3F,
	}
}

// SetRegion selects the frequency band and channel range.
func (r *Reader) SetRegion(band, maxFreq, minFreq byte) error {
	if band > 0x0F {
		return invalid("band %d out of range", band)
	}
	if maxFreq > 0x3F || minFreq > 0x3F {
		return invalid("channel index out of range")
	}
	if minFreq > maxFreq {
		return invalid("min channel %d above max %d", minFreq, maxFreq)
	}
	_, err := r.call(protocol.CmdSetRegion, RegionPayload(band, maxFreq, minFreq), timeoutSetting)
	return err
}

// SetAntenna enables the antennas in mask. On success the mask becomes the
// inventory antenna parameter.
func (r *Reader) SetAntenna(mask byte) error {
	if mask == 0 {
		return invalid("antenna mask is empty")
	}
	if _, err := r.call(protocol.CmdSetAntennaMux, []byte{0x01, 0x00, mask}, timeoutSetting); err != nil {
		return err
	}
	r.updateParameter(func(p *Parameter) { p.Antenna = mask })
	return nil
}

// SetPowerMode sets the power mode. The persist bit (0x80) is always set.
func (r *Reader) SetPowerMode(mode byte) error {
	_, err := r.call(protocol.CmdSetPowerMode, []byte{mode | 0x80}, timeoutSlowSetting)
	return err
}

// SetAddress changes the reader's bus address and adopts it.
func (r *Reader) SetAddress(addr byte) error {
	if addr == protocol.BroadcastAddress {
		return invalid("0xFF is reserved for broadcast")
	}
	if _, err := r.call(protocol.CmdSetAddress, []byte{addr}, timeoutSetting); err != nil {
		return err
	}
	r.updateParameter(func(p *Parameter) { p.Address = addr })
	return nil
}

// SetScanTime sets the reader's own inventory time limit (100 ms units).
func (r *Reader) SetScanTime(v byte) error {
	if v < 3 {
		return invalid("scan time %d below minimum 3", v)
	}
	_, err := r.call(protocol.CmdSetScanTime, []byte{v}, timeoutSetting)
	return err
}

var baudCodes = map[int]byte{
	9600:   0,
	19200:  1,
	38400:  2,
	57600:  5,
	115200: 6,
}

// BaudCode maps a line rate to the reader's baud selector.
func BaudCode(baud int) (byte, error) {
	c, ok := baudCodes[baud]
	if !ok {
		return 0, invalid("unsupported baud rate %d", baud)
	}
	return c, nil
}

// SetBaudRate changes the reader's serial line rate. The caller must reopen
// the transport at the new rate.
func (r *Reader) SetBaudRate(baud int) error {
	code, err := BaudCode(baud)
	if err != nil {
		return err
	}
	_, err = r.call(protocol.CmdSetBaudRate, []byte{code}, timeoutSlowSetting)
	return err
}

// RfOutput switches the carrier on (1) or off (0).
func (r *Reader) RfOutput(on byte) error {
	_, err := r.call(protocol.CmdRfOutput, []byte{on}, timeoutSlowSetting)
	return err
}

// SetBeepNotification toggles the reader's own buzzer.
func (r *Reader) SetBeepNotification(on byte) error {
	_, err := r.call(protocol.CmdBeepNotification, []byte{on}, timeoutBeep)
	return err
}

// SetCheckAntenna toggles antenna presence detection.
func (r *Reader) SetCheckAntenna(on byte) error {
	_, err := r.call(protocol.CmdSetCheckAntenna, []byte{on}, timeoutSetting)
	return err
}

// SetWorkMode selects answer mode or one of the active modes.
func (r *Reader) SetWorkMode(mode byte) error {
	_, err := r.call(protocol.CmdSetWorkMode, []byte{mode}, timeoutSlowSetting)
	return err
}

// SetReadParameter writes the 5-byte active-mode read configuration.
func (r *Reader) SetReadParameter(p [5]byte) error {
	_, err := r.call(protocol.CmdSetReadParameter, p[:], timeoutSetting)
	return err
}

// GetReadParameter returns the 6-byte active-mode read configuration.
func (r *Reader) GetReadParameter() ([6]byte, error) {
	var out [6]byte
	d, err := r.call(protocol.CmdGetReadParameter, nil, timeoutGetParam)
	if err != nil {
		return out, err
	}
	if len(d) < len(out) {
		return out, errors.Wrapf(protocol.ErrFrameCorrupt, "read parameter: %d data bytes", len(d))
	}
	copy(out[:], d)
	return out, nil
}

// ConfigDRM sets (or with the query flag, reads) dense-reader mode and
// returns the mode the reader reports.
func (r *Reader) ConfigDRM(mode byte) (byte, error) {
	d, err := r.call(protocol.CmdConfigDRM, []byte{mode}, timeoutBeep)
	if err != nil {
		return 0, err
	}
	if len(d) == 0 {
		return mode, nil
	}
	return d[0], nil
}

// Temperature is the two-byte module temperature reading.
// Sign is 0 for below zero.
type Temperature struct {
	Sign  byte `json:"sign"`
	Value byte `json:"value"`
}

// Celsius returns the signed reading.
func (t Temperature) Celsius() int {
	if t.Sign == 0 {
		return -int(t.Value)
	}
	return int(t.Value)
}

// MeasureTemperature reads the module temperature.
func (r *Reader) MeasureTemperature() (Temperature, error) {
	d, err := r.call(protocol.CmdMeasureTemperature, nil, timeoutMeasure)
	if err != nil {
		return Temperature{}, err
	}
	if len(d) < 2 {
		return Temperature{}, errors.Wrapf(protocol.ErrFrameCorrupt, "temperature: %d data bytes", len(d))
	}
	return Temperature{Sign: d[0], Value: d[1]}, nil
}

// DefaultReturnLossFrequency is the probe frequency in kHz (915.25 MHz).
const DefaultReturnLossFrequency uint32 = 915250

// MeasureReturnLoss measures antenna return loss at freqKHz on port ant.
func (r *Reader) MeasureReturnLoss(freqKHz uint32, ant byte) (byte, error) {
	payload := []byte{
		byte(freqKHz >> 24), byte(freqKHz >> 16), byte(freqKHz >> 8), byte(freqKHz),
		ant,
	}
	d, err := r.call(protocol.CmdMeasureReturnLoss, payload, timeoutMeasure)
	if err != nil {
		return 0, err
	}
	if len(d) == 0 {
		return 0, errors.Wrap(protocol.ErrFrameCorrupt, "return loss: no data")
	}
	return d[0], nil
}
