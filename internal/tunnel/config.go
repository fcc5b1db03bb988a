/*
 * NETCAP - Traffic Analysis Framework
 * Copyright (c) 2017-2020 Philipp Mieden <dreadl0ck [at] protonmail [dot] ch>
 *
 * THE SOFTWARE IS PROVIDED "AS IS" AND THE AUTHOR DISCLAIMS ALL WARRANTIES
 * WITH REGARD TO THIS SOFTWARE INCLUDING ALL IMPLIED WARRANTIES OF
 * MERCHANTABILITY AND FITNESS. IN NO EVENT SHALL THE AUTHOR BE LIABLE FOR
 * ANY SPECIAL, DIRECT, INDIRECT, OR CONSEQUENTIAL DAMAGES OR ANY DAMAGES
 * WHATSOEVER RESULTING FROM LOSS OF USE, DATA OR PROFITS, WHETHER IN AN
 * ACTION OF CONTRACT, NEGLIGENCE OR OTHER TORTIOUS ACTION, ARISING OUT OF
 * OR IN CONNECTION WITH THE USE OR PERFORMANCE OF THIS SOFTWARE.
 */

package tunnel

import (
	"encoding/json"
	"fmt"
)

type configEndpoint struct {
	IP  [4]byte `json:"ip"`
	MAC [6]byte `json:"mac"`
}

type configRole struct {
	Aware *struct {
		IP  [4]byte `json:"ip"`
		MAC [6]byte `json:"mac"`
	} `json:"Aware"`
	Unaware *struct {
		Gateway [6]byte `json:"gateway"`
	} `json:"Unaware"`
}

type configFile struct {
	OtherProxy configEndpoint `json:"other_proxy"`
	Clear      configEndpoint `json:"clear"`
	Meta       configEndpoint `json:"meta"`
	MyRole     configRole     `json:"my_role"`
}

// LoadConfig decodes the JSON tunnel configuration: four endpoint
// identities and a tagged my_role of either {"Aware":{"ip":...,"mac":...}}
// or {"Unaware":{"gateway":...}}.
func LoadConfig(raw []byte) (*Tunnel, error) {
	var cf configFile
	if err := json.Unmarshal(raw, &cf); err != nil {
		return nil, fmt.Errorf("tunnel: decode config: %w", err)
	}

	var role Role
	switch {
	case cf.MyRole.Aware != nil:
		role.Aware = &EndpointIdentity{IP: cf.MyRole.Aware.IP, MAC: cf.MyRole.Aware.MAC}
	case cf.MyRole.Unaware != nil:
		gw := cf.MyRole.Unaware.Gateway
		role.Gateway = &gw
	default:
		return nil, fmt.Errorf("tunnel: my_role must be either Aware or Unaware")
	}

	return &Tunnel{
		OtherProxy: EndpointIdentity{IP: cf.OtherProxy.IP, MAC: cf.OtherProxy.MAC},
		Clear:      EndpointIdentity{IP: cf.Clear.IP, MAC: cf.Clear.MAC},
		Meta:       EndpointIdentity{IP: cf.Meta.IP, MAC: cf.Meta.MAC},
		MyRole:     role,
	}, nil
}
