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

package config

const (
	ConfigDir  = ".go-rcdriver"
	ConfigFile = "config"
	DBFile     = "state.db"

	DefaultDeviceName    = "kdk"
	DefaultDevicePath    = "/dev/aperture-control"
	DefaultDeviceBackend = "mmap"

	DefaultRows         = 105
	DefaultColumns      = 158
	DefaultRowGroupSize = 10

	DefaultStxClkMatch       = 8
	DefaultSupplySwitchDelay = 10
	DefaultGateDelay         = 119
	DefaultTotalShift        = 105
	DefaultStartCycleDelay   = 7200
	DefaultSckMatch          = 0
	DefaultWaitForDataValid  = 2399

	DefaultPollIntervalMillis = 10
	DefaultTimeoutMillis      = 3000
	DefaultWordDelayMicros    = 25

	DefaultApiAddress = "127.0.0.1"
	DefaultApiPort    = 8000

	DefaultLogLevel = "info"
)

var DefaultRowSelect = []uint32{0xFFFFFFFF, 0xFFFFFFFF, 0x0000FFFF, 0xFF000000, 0x0001FFFF}
