/*
Copyright (C) 2026  WanXCodec Contributors

	This program is free software: you can redistribute it and/or modify
	it under the terms of the GNU General Public License as published by
	the Free Software Foundation, either version 3 of the License, or
	(at your option) any later version.

	This program is distributed in the hope that it will be useful,
	but WITHOUT ANY WARRANTY; without even the implied warranty of
	MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
	GNU General Public License for more details.

	You should have received a copy of the GNU General Public License
	along with this program.  If not, see <https://www.gnu.org/licenses/>.
*/

// Package wanconfig parses the daemon's on-disk configuration: where its
// caches live, how big they may grow, and which addresses it listens on.
package wanconfig

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/docker/go-units"
)

// Config is the daemon's full configuration. An accelerator's interface
// side terminates plaintext application traffic and dials out to a
// peer accelerator across the WAN; its peer side accepts incoming WAN
// links and forwards the decoded plaintext on to the real backend. A
// single process may run either side, or both for a symmetric
// deployment.
type Config struct {
	// InterfaceListenAddr, if non-empty, accepts plaintext client
	// connections; each is encoded and proxied to PeerAddr.
	InterfaceListenAddr string `json:"interface_listen_addr"`
	// PeerAddr is the remote accelerator's peer-listen address,
	// dialed once per interface-side connection.
	PeerAddr string `json:"peer_addr"`

	// PeerListenAddr, if non-empty, accepts wire connections from a
	// peer accelerator; each is decoded and proxied to BackendAddr.
	PeerListenAddr string `json:"peer_listen_addr"`
	// BackendAddr is the real destination decoded plaintext is
	// forwarded to.
	BackendAddr string `json:"backend_addr"`

	// DebugAddr, if non-empty, serves the websocket debug event
	// stream on this address.
	DebugAddr string `json:"debug_addr"`

	// CacheDir is where COSS cache files live, one per peer UUID.
	CacheDir string `json:"cache_dir"`

	// CacheSize, LocalSize and RemoteSize accept human-readable sizes
	// ("10GB", "512MiB", a bare byte count) and set a cache's own
	// budget and what it hands a freshly learned local or remote peer.
	CacheSize  string `json:"cache_size"`
	LocalSize  string `json:"local_size"`
	RemoteSize string `json:"remote_size"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		CacheDir:   "./wanxcodec-cache",
		CacheSize:  "1GB",
		LocalSize:  "1GB",
		RemoteSize: "1GB",
	}
}

// Load reads and parses a JSON configuration file, filling in Default's
// values for any field left blank.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("wanconfig: reading %s: %w", path, err)
	}
	if err := json.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("wanconfig: parsing %s: %w", path, err)
	}
	return cfg, nil
}

// CacheSizeBytes, LocalSizeBytes and RemoteSizeBytes parse the
// respective human-readable size fields into byte counts.
func (c Config) CacheSizeBytes() (uint64, error)  { return parseSize(c.CacheSize) }
func (c Config) LocalSizeBytes() (uint64, error)  { return parseSize(c.LocalSize) }
func (c Config) RemoteSizeBytes() (uint64, error) { return parseSize(c.RemoteSize) }

func parseSize(s string) (uint64, error) {
	// FromHumanSize reads every unit as a power of 1000, "MiB" included;
	// binary-suffixed sizes go through RAMInBytes, which uses powers of 1024.
	parse := units.FromHumanSize
	if strings.HasSuffix(strings.ToLower(s), "ib") {
		parse = units.RAMInBytes
	}
	n, err := parse(s)
	if err != nil {
		return 0, fmt.Errorf("wanconfig: invalid size %q: %w", s, err)
	}
	if n < 0 {
		return 0, fmt.Errorf("wanconfig: invalid size %q: negative", s)
	}
	return uint64(n), nil
}
