// internal/protocol/response.go
package protocol

// Response is a decoded reader reply.
// Status is the first payload byte; Data holds the rest.
type Response struct {
	Address byte
	Command byte
	Status  byte
	Data    []byte
	Raw     []byte
}

// Generic reports whether the reply is the reader's generic error frame.
func (r Response) Generic() bool {
	return r.Command == errorSentinelCommand && r.Status == StatusGenericError
}

// ParseResponse decodes raw and splits the status byte from the data.
func ParseResponse(raw []byte) (Response, error) {
	f, err := Decode(raw)
	if err != nil {
		return Response{}, err
	}

	res := Response{
		Address: f.Address,
		Command: f.Command,
		Raw:     append([]byte(nil), raw...),
	}
	if len(f.Payload) > 0 {
		res.Status = f.Payload[0]
		res.Data = f.Payload[1:]
	}
	return res, nil
}
