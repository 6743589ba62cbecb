/*
 Licensed under the Apache License, Version 2.0 (the "License");
 you may not use this file except in compliance with the License.
 You may obtain a copy of the License at

     https://www.apache.org/licenses/LICENSE-2.0

 Unless required by applicable law or agreed to in writing, software
 distributed under the License is distributed on an "AS IS" BASIS,
 WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 See the License for the specific language governing permissions and
 limitations under the License.
*/

// go-rcdriver API
//
// # RESTful APIs to interact with the go-rcdriver control server
//
// Schemes: http
// Host: localhost:8000
// Version: 1.0.0
//
//	Consumes:
//	- application/json
//
//	Produces:
//	- application/json
//
// swagger:meta
package control

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"

	"kymeta.com/kdk/go-rcdriver/pkg/config"
	"kymeta.com/kdk/go-rcdriver/pkg/device"
	"kymeta.com/kdk/go-rcdriver/pkg/driver"
	"kymeta.com/kdk/go-rcdriver/pkg/log"
	"kymeta.com/kdk/go-rcdriver/pkg/pattern"
)

// RegHex ...
type RegHex struct {
	Name  string `json:"name,omitempty"`
	Addr  string `json:"addr,omitempty"` // hexadecimal
	Value string `json:"value"`          // hexadecimal
}

func newRegHex(offset, value uint32) *RegHex {
	r := &RegHex{
		Addr:  fmt.Sprintf("0x%04x", offset),
		Value: fmt.Sprintf("0x%08x", value),
	}
	if reg, ok := device.RegMap.Lookup(offset); ok {
		r.Name = reg.Name
	}
	return r
}

// ParseValue parses a decimal or 0x prefixed register value.
func ParseValue(s string) (uint32, error) {
	v, err := strconv.ParseUint(s, 0, 32)
	if err != nil {
		return 0, err
	}
	return uint32(v), nil
}

type PatternSetup struct {
	Pattern string        `json:"pattern"`
	Bitmap  *pattern.Mask `json:"bitmap,omitempty"`
}

func (p *PatternSetup) Build() (pattern.Pattern, error) {
	kind, err := pattern.ParseKind(p.Pattern)
	if err != nil {
		return pattern.Pattern{}, err
	}
	return pattern.Pattern{Kind: kind, Bitmap: p.Bitmap}, nil
}

type StateResp struct {
	Status    driver.Status `json:"status"`
	Registers []*RegHex     `json:"registers"`
	Snapshot  *Snapshot     `json:"snapshot,omitempty"`
}

type ApiServer struct {
	context.Context
	*config.Config
	*mux.Router
	ctrl *ControlServer
}

func NewApiServer(ctx context.Context, cfg *config.Config, ctrl *ControlServer) *ApiServer {
	log.Info("Initializing API server with address: %s", cfg.Api.Endpoint())
	s := &ApiServer{
		Context: ctx,
		Config:  cfg,
		ctrl:    ctrl,
	}
	s.configureRouter()
	return s
}

// Handler is the router wrapped with access logging.
func (s *ApiServer) Handler() http.Handler {
	return handlers.LoggingHandler(log.Writer(), s.Router)
}

func (s *ApiServer) Run() error {
	log.Info("Starting API server: address: %s", s.Config.Api.Endpoint())
	httpServer := &http.Server{
		Handler: s.Handler(),
		Addr:    s.Config.Api.Endpoint(),
	}
	go func() {
		<-s.Context.Done()
		httpServer.Shutdown(context.Background())
	}()
	err := httpServer.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

func (s *ApiServer) configureRouter() {
	s.Router = mux.NewRouter()
	subRouter := s.Router.PathPrefix("/api").Subrouter()
	// swagger:operation GET /reg/r/{name} read register
	// ---
	// summary: read a register by name
	subRouter.HandleFunc("/reg/r/{name}", s.handleRegRead()).Methods("GET")
	// swagger:operation GET /reg/r read all registers
	// ---
	// summary: read every readable register
	subRouter.HandleFunc("/reg/r", s.handleRegReadAll()).Methods("GET")
	// swagger:operation POST /reg/w write register
	// ---
	// summary: write a register by name
	subRouter.HandleFunc("/reg/w", s.handleRegWrite()).Methods("POST")
	// swagger:operation POST /pattern commit pattern
	// ---
	// summary: write a pattern to the standby bank and swap banks
	subRouter.HandleFunc("/pattern", s.handlePattern()).Methods("POST")
	// swagger:operation GET /pattern/{bank} read back pattern
	// ---
	// summary: decode the mask stored in a bank
	subRouter.HandleFunc("/pattern/{bank:[ABab]}", s.handleReadback()).Methods("GET")
	// swagger:operation GET /drive/{action:on|off} continuous drive
	// ---
	// summary: enable or disable continuous drive
	subRouter.HandleFunc("/drive/{action:on|off}", s.handleDrive()).Methods("GET")
	// swagger:operation GET /state driver state
	// ---
	// summary: driver status and journaled registers
	subRouter.HandleFunc("/state", s.handleState()).Methods("GET")
}

func httpStatus(err error) int {
	var (
		unknown  ErrUnknownRegister
		access   device.ErrAccess
		invalid  pattern.ErrInvalidPattern
		notOpen  driver.ErrNotOpen
		busy     driver.ErrBusy
		parseErr *strconv.NumError
	)
	switch {
	case errors.As(err, &unknown):
		return http.StatusNotFound
	case errors.As(err, &access):
		return http.StatusForbidden
	case errors.As(err, &invalid), errors.As(err, &parseErr):
		return http.StatusBadRequest
	case IsFatal(err):
		return http.StatusGatewayTimeout
	case errors.As(err, &notOpen), errors.As(err, &busy):
		return http.StatusServiceUnavailable
	}
	return http.StatusBadGateway
}

func (s *ApiServer) handleRegRead() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		vars := mux.Vars(r)
		log.Debug("Handling reg read request: name: %s", vars["name"])

		regHex, err := s.ctrl.RegRead(vars["name"])
		if err != nil {
			http.Error(w, err.Error(), httpStatus(err))
			return
		}
		json.NewEncoder(w).Encode(regHex)
	}
}

func (s *ApiServer) handleRegReadAll() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log.Debug("Handling reg read all request")

		regsHex, err := s.ctrl.RegReadAll()
		if err != nil {
			http.Error(w, err.Error(), httpStatus(err))
			return
		}
		json.NewEncoder(w).Encode(regsHex)
	}
}

func (s *ApiServer) handleRegWrite() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		regHex := &RegHex{}
		err := json.NewDecoder(r.Body).Decode(regHex)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		log.Debug("Handling reg write request: name: %s value: %s", regHex.Name, regHex.Value)

		value, err := ParseValue(regHex.Value)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if err := s.ctrl.RegWrite(regHex.Name, value); err != nil {
			http.Error(w, err.Error(), httpStatus(err))
			return
		}
	}
}

func (s *ApiServer) handlePattern() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		setup := &PatternSetup{}
		err := json.NewDecoder(r.Body).Decode(setup)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		log.Debug("Handling pattern request: pattern: %s", setup.Pattern)

		p, err := setup.Build()
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if err := s.ctrl.ApplyPattern(p); err != nil {
			http.Error(w, err.Error(), httpStatus(err))
			return
		}
		json.NewEncoder(w).Encode(s.ctrl.Status())
	}
}

func (s *ApiServer) handleReadback() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		vars := mux.Vars(r)
		bank, err := driver.ParseBank(vars["bank"])
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		mask, err := s.ctrl.Readback(bank)
		if err != nil {
			http.Error(w, err.Error(), httpStatus(err))
			return
		}
		json.NewEncoder(w).Encode(mask)
	}
}

func (s *ApiServer) handleDrive() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		vars := mux.Vars(r)
		log.Debug("Handling drive request: action: %s", vars["action"])
		// the route only matches on and off
		err := s.ctrl.SetDrive(vars["action"] == "on")
		if err != nil {
			http.Error(w, err.Error(), httpStatus(err))
			return
		}
		json.NewEncoder(w).Encode(s.ctrl.Status())
	}
}

func (s *ApiServer) handleState() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		regs, snap, err := s.ctrl.Journal()
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		json.NewEncoder(w).Encode(&StateResp{
			Status:    s.ctrl.Status(),
			Registers: regs,
			Snapshot:  snap,
		})
	}
}
