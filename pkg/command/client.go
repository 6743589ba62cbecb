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

package command

import (
	"errors"
	"fmt"
	"strings"

	"github.com/imroc/req"

	"kymeta.com/kdk/go-rcdriver/pkg/config"
	"kymeta.com/kdk/go-rcdriver/pkg/driver"
	"kymeta.com/kdk/go-rcdriver/pkg/pattern"
	"kymeta.com/kdk/go-rcdriver/pkg/srv/control"
)

type ApiClient struct {
	*config.Config
	ApiPrefix string
}

func NewApiClient(cfg *config.Config) *ApiClient {
	return &ApiClient{
		Config:    cfg,
		ApiPrefix: fmt.Sprintf("http://%s/api", cfg.Api.Endpoint()),
	}
}

func checkStatus(r *req.Resp) error {
	if r.Response().StatusCode != 200 {
		msg := strings.TrimSpace(r.String())
		if msg == "" {
			return errors.New(r.Response().Status)
		}
		return errors.New(fmt.Sprintf("%s: %s", r.Response().Status, msg))
	}
	return nil
}

// RegRead sends request to get the value of a register
func (c *ApiClient) RegRead(name string) (*control.RegHex, error) {
	r, err := req.Get(fmt.Sprintf("%s/reg/r/%s", c.ApiPrefix, name))
	if err != nil {
		return nil, err
	}
	if err := checkStatus(r); err != nil {
		return nil, err
	}
	reg := &control.RegHex{}
	if err := r.ToJSON(reg); err != nil {
		return nil, err
	}
	return reg, nil
}

// RegReadAll sends request to get values of all readable registers
func (c *ApiClient) RegReadAll() ([]*control.RegHex, error) {
	r, err := req.Get(fmt.Sprintf("%s/reg/r", c.ApiPrefix))
	if err != nil {
		return nil, err
	}
	if err := checkStatus(r); err != nil {
		return nil, err
	}
	var regs []*control.RegHex
	if err := r.ToJSON(&regs); err != nil {
		return nil, err
	}
	return regs, nil
}

// RegWrite sends request to write the value to a register
func (c *ApiClient) RegWrite(name, value string) error {
	reg := &control.RegHex{
		Name:  name,
		Value: value,
	}
	r, err := req.Post(fmt.Sprintf("%s/reg/w", c.ApiPrefix), req.BodyJSON(reg))
	if err != nil {
		return err
	}
	return checkStatus(r)
}

// Pattern sends request to commit a pattern
func (c *ApiClient) Pattern(setup *control.PatternSetup) (*driver.Status, error) {
	r, err := req.Post(fmt.Sprintf("%s/pattern", c.ApiPrefix), req.BodyJSON(setup))
	if err != nil {
		return nil, err
	}
	if err := checkStatus(r); err != nil {
		return nil, err
	}
	status := &driver.Status{}
	if err := r.ToJSON(status); err != nil {
		return nil, err
	}
	return status, nil
}

// Readback sends request to decode the mask stored in a bank
func (c *ApiClient) Readback(bank string) (*pattern.Mask, error) {
	r, err := req.Get(fmt.Sprintf("%s/pattern/%s", c.ApiPrefix, bank))
	if err != nil {
		return nil, err
	}
	if err := checkStatus(r); err != nil {
		return nil, err
	}
	mask := &pattern.Mask{}
	if err := r.ToJSON(mask); err != nil {
		return nil, err
	}
	return mask, nil
}

// Drive sends request to enable or disable continuous drive
func (c *ApiClient) Drive(enabled bool) (*driver.Status, error) {
	action := "off"
	if enabled {
		action = "on"
	}
	r, err := req.Get(fmt.Sprintf("%s/drive/%s", c.ApiPrefix, action))
	if err != nil {
		return nil, err
	}
	if err := checkStatus(r); err != nil {
		return nil, err
	}
	status := &driver.Status{}
	if err := r.ToJSON(status); err != nil {
		return nil, err
	}
	return status, nil
}

// State sends request to get the driver status and journaled registers
func (c *ApiClient) State() (*control.StateResp, error) {
	r, err := req.Get(fmt.Sprintf("%s/state", c.ApiPrefix))
	if err != nil {
		return nil, err
	}
	if err := checkStatus(r); err != nil {
		return nil, err
	}
	state := &control.StateResp{}
	if err := r.ToJSON(state); err != nil {
		return nil, err
	}
	return state, nil
}
