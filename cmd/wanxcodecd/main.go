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

// wanxcodecd is the accelerator daemon: it terminates plaintext traffic
// on an interface listener, runs it through the codec and pipe-pair
// protocol, and carries it across the WAN to a peer instance of itself,
// which decodes it back to plaintext against the backend.
package main

import (
	"flag"
	"fmt"
	"net"
	"os"

	"github.com/dc0d/onexit"

	"github.com/launix-de/wanxcodec/cache"
	"github.com/launix-de/wanxcodec/coss"
	"github.com/launix-de/wanxcodec/pipe"
	"github.com/launix-de/wanxcodec/wanconfig"
	"github.com/launix-de/wanxcodec/wanlog"
)

var log = wanlog.Scoped("wanxcodecd")

func main() {
	configPath := flag.String("config", "", "path to a wanxcodec.json configuration file")
	flag.Parse()

	cfg := wanconfig.Default()
	if *configPath != "" {
		loaded, err := wanconfig.Load(*configPath)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		cfg = loaded
	}

	cacheSize, err := cfg.CacheSizeBytes()
	must(err)
	localSize, err := cfg.LocalSizeBytes()
	must(err)
	remoteSize, err := cfg.RemoteSizeBytes()
	must(err)

	uuid := cache.NewUUID()
	local, err := coss.Open(uuid, cfg.CacheDir, cacheSize, localSize, remoteSize)
	must(err)
	onexit.Register(func() {
		log.Infof("flushing cache %s", uuid)
		if err := local.Close(); err != nil {
			log.Infof("closing cache: %v", err)
		}
	})
	watchCacheFile(local)

	registry := cache.NewRegistry()

	if cfg.DebugAddr != "" {
		dbg := newDebugServer(registry, local)
		go dbg.Serve(cfg.DebugAddr)
	}

	if cfg.PeerListenAddr != "" {
		go servePeerSide(cfg, local, registry)
	}
	if cfg.InterfaceListenAddr != "" {
		go serveInterfaceSide(cfg, local, registry)
	}

	if cfg.PeerListenAddr == "" && cfg.InterfaceListenAddr == "" {
		fmt.Fprintln(os.Stderr, "wanxcodecd: neither peer_listen_addr nor interface_listen_addr is configured, nothing to do")
		os.Exit(1)
	}

	select {}
}

func must(err error) {
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// watchCacheFile logs a warning if the cache's backing file is renamed,
// removed, or truncated out from under this process (only possible for
// the default file-backed store; object-storage builds have nothing
// local to watch and are silently skipped).
func watchCacheFile(local *coss.Cache) {
	w, err := local.Watch()
	if err != nil {
		return
	}
	go func() {
		for {
			select {
			case ev, ok := <-w.Events:
				if !ok {
					return
				}
				log.Infof("cache file event: %s", ev)
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				log.Infof("cache file watch: %v", err)
			}
		}
	}()
}

// servePeerSide accepts wire connections from a peer accelerator,
// decodes them, and forwards the resulting plaintext to the backend.
func servePeerSide(cfg wanconfig.Config, local *coss.Cache, registry *cache.Registry) {
	ln, err := net.Listen("tcp", cfg.PeerListenAddr)
	if err != nil {
		log.Infof("peer listen: %v", err)
		return
	}
	log.Infof("peer side listening on %s, forwarding to %s", cfg.PeerListenAddr, cfg.BackendAddr)
	for {
		wireConn, err := ln.Accept()
		if err != nil {
			log.Infof("peer accept: %v", err)
			return
		}
		go func() {
			defer wireConn.Close()
			backendConn, err := net.Dial("tcp", cfg.BackendAddr)
			if err != nil {
				log.Infof("dialing backend: %v", err)
				return
			}
			defer backendConn.Close()
			ep := pipe.NewEndpoint(local.UUID(), local, registry, wireConn, backendConn)
			runEndpoint(ep, wireConn, backendConn)
		}()
	}
}

// serveInterfaceSide accepts plaintext client connections, proxies each
// through a freshly dialed peer connection, and encodes traffic onto it.
func serveInterfaceSide(cfg wanconfig.Config, local *coss.Cache, registry *cache.Registry) {
	ln, err := net.Listen("tcp", cfg.InterfaceListenAddr)
	if err != nil {
		log.Infof("interface listen: %v", err)
		return
	}
	log.Infof("interface side listening on %s, forwarding to peer %s", cfg.InterfaceListenAddr, cfg.PeerAddr)
	for {
		clientConn, err := ln.Accept()
		if err != nil {
			log.Infof("interface accept: %v", err)
			return
		}
		go func() {
			defer clientConn.Close()
			wireConn, err := net.Dial("tcp", cfg.PeerAddr)
			if err != nil {
				log.Infof("dialing peer: %v", err)
				return
			}
			defer wireConn.Close()
			ep := pipe.NewEndpoint(local.UUID(), local, registry, wireConn, clientConn)
			runEndpoint(ep, wireConn, clientConn)
		}()
	}
}

// runEndpoint pumps bytes in both directions until either side closes:
// localConn's bytes are encoded onto wireConn, and wireConn's bytes are
// decoded onto localConn.
func runEndpoint(ep *pipe.Endpoint, wireConn, localConn net.Conn) {
	done := make(chan struct{}, 2)
	go func() {
		readLoop(localConn, ep.EncoderConsume)
		done <- struct{}{}
	}()
	go func() {
		readLoop(wireConn, ep.DecoderConsume)
		done <- struct{}{}
	}()
	<-done
	<-done
}

func readLoop(conn net.Conn, consume func([]byte) error) {
	buf := make([]byte, 32*1024)
	for {
		n, err := conn.Read(buf)
		if n > 0 {
			if cerr := consume(buf[:n]); cerr != nil {
				log.Infof("consume: %v", cerr)
				return
			}
		}
		if err != nil {
			consume(nil)
			return
		}
	}
}
