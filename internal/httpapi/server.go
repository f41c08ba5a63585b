// internal/httpapi/server.go
package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/tamzrod/uhf-inventory/internal/inventory"
	"github.com/tamzrod/uhf-inventory/internal/reader"
	"github.com/tamzrod/uhf-inventory/internal/status"
)

const (
	apiBase      = "/api/v1"
	maxBodyBytes = 64 * 1024
)

// Controller is the slice of the reader facade the HTTP surface drives.
type Controller interface {
	Connected() bool
	ReaderInfo() (reader.Info, error)
	Parameter() reader.Parameter
	SetParameter(p reader.Parameter) error
	SetRfPower(power byte) error
	MeasureTemperature() (reader.Temperature, error)
	StartInventory() error
	StopInventory()
	InventoryState() inventory.State
	Tags() []inventory.TagRecord
	Rounds() []inventory.RoundResult
	ReadByEPC(epc string, rq reader.ReadRequest) ([]byte, error)
	ReadByTID(tid string, rq reader.ReadRequest) ([]byte, error)
}

// StatusSource returns the latest status snapshot. Optional.
type StatusSource func() status.Snapshot

// Server is the HTTP control surface.
type Server struct {
	ctl    Controller
	status StatusSource
	log    logrus.FieldLogger
	router *mux.Router
	srv    *http.Server
}

// New builds the router. src may be nil.
func New(ctl Controller, src StatusSource, log logrus.FieldLogger) *Server {
	if log == nil {
		log = logrus.StandardLogger()
	}
	s := &Server{
		ctl:    ctl,
		status: src,
		log:    log.WithField("component", "http"),
		router: mux.NewRouter(),
	}
	s.addRoutes()
	return s
}

func (s *Server) addRoutes() {
	r := s.router.PathPrefix(apiBase).Subrouter()

	r.HandleFunc("/reader/info", s.getInfo).Methods(http.MethodGet)
	r.HandleFunc("/reader/parameters", s.getParameters).Methods(http.MethodGet)
	r.HandleFunc("/reader/parameters", s.setParameters).Methods(http.MethodPut)
	r.HandleFunc("/reader/power", s.setPower).Methods(http.MethodPut)
	r.HandleFunc("/reader/temperature", s.getTemperature).Methods(http.MethodGet)

	r.HandleFunc("/inventory/start", s.startInventory).Methods(http.MethodPost)
	r.HandleFunc("/inventory/stop", s.stopInventory).Methods(http.MethodPost)
	r.HandleFunc("/inventory/tags", s.getTags).Methods(http.MethodGet)
	r.HandleFunc("/inventory/rounds", s.getRounds).Methods(http.MethodGet)

	r.HandleFunc("/tags/read", s.readTag).Methods(http.MethodPost)

	r.HandleFunc("/status", s.getStatus).Methods(http.MethodGet)
}

// Handler exposes the router, mostly for tests.
func (s *Server) Handler() http.Handler { return s.router }

// ListenAndServe blocks until Shutdown or a listener error.
func (s *Server) ListenAndServe(addr string) error {
	s.srv = &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
	}
	s.log.WithField("listen", addr).Info("http api listening")

	err := s.srv.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s.srv == nil {
		return nil
	}
	return s.srv.Shutdown(ctx)
}
