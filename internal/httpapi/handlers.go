// internal/httpapi/handlers.go
package httpapi

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/pkg/errors"

	"github.com/tamzrod/uhf-inventory/internal/device"
	"github.com/tamzrod/uhf-inventory/internal/inventory"
	"github.com/tamzrod/uhf-inventory/internal/reader"
)

type infoResponse struct {
	reader.Info
	Firmware string `json:"firmware"`
}

type powerRequest struct {
	Power *byte `json:"power"`
}

type temperatureResponse struct {
	Celsius int `json:"celsius"`
}

type inventoryStateResponse struct {
	State string `json:"state"`
}

type roundResponse struct {
	inventory.RoundResult
	ElapsedMs int64  `json:"elapsed_ms"`
	Error     string `json:"error,omitempty"`
}

// readRequest selects a tag by exactly one of EPC or TID.
type readRequest struct {
	EPC      string `json:"epc"`
	TID      string `json:"tid"`
	Mem      byte   `json:"mem"`
	WordPtr  byte   `json:"word_ptr"`
	Num      byte   `json:"num"`
	Password string `json:"password"`
}

type readResponse struct {
	Data string `json:"data"`
}

type errorResponse struct {
	Error string `json:"error"`
	Code  byte   `json:"code"`
}

// ------------------------------------------------------------
// reader
// ------------------------------------------------------------

func (s *Server) getInfo(w http.ResponseWriter, _ *http.Request) {
	info, err := s.ctl.ReaderInfo()
	if err != nil {
		s.fail(w, "reader info", err)
		return
	}
	s.reply(w, http.StatusOK, infoResponse{Info: info, Firmware: info.VersionString()})
}

func (s *Server) getParameters(w http.ResponseWriter, _ *http.Request) {
	s.reply(w, http.StatusOK, s.ctl.Parameter())
}

func (s *Server) setParameters(w http.ResponseWriter, req *http.Request) {
	p := s.ctl.Parameter()
	if err := decode(req, &p); err != nil {
		s.fail(w, "decode parameters", err)
		return
	}
	if err := s.ctl.SetParameter(p); err != nil {
		s.fail(w, "set parameters", err)
		return
	}
	s.reply(w, http.StatusOK, s.ctl.Parameter())
}

func (s *Server) setPower(w http.ResponseWriter, req *http.Request) {
	var body powerRequest
	if err := decode(req, &body); err != nil {
		s.fail(w, "decode power", err)
		return
	}
	if body.Power == nil {
		s.fail(w, "set power", errors.Wrap(reader.ErrInvalidArgument, "power is required"))
		return
	}
	if err := s.ctl.SetRfPower(*body.Power); err != nil {
		s.fail(w, "set power", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) getTemperature(w http.ResponseWriter, _ *http.Request) {
	t, err := s.ctl.MeasureTemperature()
	if err != nil {
		s.fail(w, "measure temperature", err)
		return
	}
	s.reply(w, http.StatusOK, temperatureResponse{Celsius: t.Celsius()})
}

// ------------------------------------------------------------
// inventory
// ------------------------------------------------------------

func (s *Server) startInventory(w http.ResponseWriter, _ *http.Request) {
	if err := s.ctl.StartInventory(); err != nil {
		s.fail(w, "start inventory", err)
		return
	}
	s.reply(w, http.StatusAccepted, inventoryStateResponse{State: s.ctl.InventoryState().String()})
}

func (s *Server) stopInventory(w http.ResponseWriter, _ *http.Request) {
	s.ctl.StopInventory()
	s.reply(w, http.StatusOK, inventoryStateResponse{State: s.ctl.InventoryState().String()})
}

func (s *Server) getTags(w http.ResponseWriter, _ *http.Request) {
	tags := s.ctl.Tags()
	if tags == nil {
		tags = []inventory.TagRecord{}
	}
	s.reply(w, http.StatusOK, tags)
}

func (s *Server) getRounds(w http.ResponseWriter, _ *http.Request) {
	rounds := s.ctl.Rounds()
	out := make([]roundResponse, 0, len(rounds))
	for _, r := range rounds {
		rr := roundResponse{RoundResult: r, ElapsedMs: r.Elapsed.Milliseconds()}
		if r.Err != nil {
			rr.Error = r.Err.Error()
		}
		out = append(out, rr)
	}
	s.reply(w, http.StatusOK, out)
}

// ------------------------------------------------------------
// tags
// ------------------------------------------------------------

func (s *Server) readTag(w http.ResponseWriter, req *http.Request) {
	var body readRequest
	if err := decode(req, &body); err != nil {
		s.fail(w, "decode read", err)
		return
	}

	rq := reader.ReadRequest{
		Mem:      body.Mem,
		WordPtr:  body.WordPtr,
		Num:      body.Num,
		Password: body.Password,
	}

	var (
		data []byte
		err  error
	)
	switch {
	case body.EPC != "" && body.TID != "":
		err = errors.Wrap(reader.ErrInvalidArgument, "give either epc or tid, not both")
	case body.TID != "":
		data, err = s.ctl.ReadByTID(body.TID, rq)
	default:
		data, err = s.ctl.ReadByEPC(body.EPC, rq)
	}
	if err != nil {
		s.fail(w, "read tag", err)
		return
	}
	s.reply(w, http.StatusOK, readResponse{Data: reader.EncodeHex(data)})
}

// ------------------------------------------------------------
// status
// ------------------------------------------------------------

func (s *Server) getStatus(w http.ResponseWriter, _ *http.Request) {
	if s.status == nil {
		http.Error(w, "status export disabled", http.StatusNotFound)
		return
	}
	s.reply(w, http.StatusOK, s.status())
}

// ------------------------------------------------------------
// helpers
// ------------------------------------------------------------

func decode(req *http.Request, v interface{}) error {
	dec := json.NewDecoder(io.LimitReader(req.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return errors.Wrap(reader.ErrInvalidArgument, err.Error())
	}
	return nil
}

func (s *Server) reply(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.log.WithError(err).Warn("failed to write response")
	}
}

func (s *Server) fail(w http.ResponseWriter, op string, err error) {
	code := httpStatus(err)
	entry := s.log.WithError(err).WithField("op", op)
	if code >= http.StatusInternalServerError {
		entry.Error("request failed")
	} else {
		entry.Debug("request rejected")
	}
	s.reply(w, code, errorResponse{Error: err.Error(), Code: reader.StatusCode(err)})
}

// httpStatus maps the error taxonomy onto HTTP status codes.
func httpStatus(err error) int {
	var se *reader.StatusError
	switch {
	case errors.Is(err, reader.ErrInvalidArgument):
		return http.StatusBadRequest
	case errors.Is(err, device.ErrNotConnected):
		return http.StatusServiceUnavailable
	case errors.Is(err, inventory.ErrAlreadyRunning), errors.Is(err, device.ErrScanning):
		return http.StatusConflict
	case errors.Is(err, reader.ErrResponseTimeout):
		return http.StatusGatewayTimeout
	case errors.As(err, &se):
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

