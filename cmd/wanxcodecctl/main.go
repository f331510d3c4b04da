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

// wanxcodecctl is an offline inspector for a COSS cache directory: point
// it at the directory and a cache UUID while the daemon that owns them
// is stopped, and poke at lookups and stats from a REPL.
package main

import (
	"flag"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/chzyer/readline"

	"github.com/launix-de/wanxcodec/coss"
	"github.com/launix-de/wanxcodec/xcodec"
)

const prompt = "\033[32mwanxcodecctl>\033[0m "

func main() {
	dir := flag.String("cache-dir", "./wanxcodec-cache", "COSS cache directory")
	uuidHex := flag.String("uuid", "", "cache UUID to open (hex, as printed by the daemon's logs)")
	size := flag.Uint64("size", 1<<30, "cache/local/remote size budget, in bytes, to open with")
	flag.Parse()

	if *uuidHex == "" {
		fmt.Println("wanxcodecctl: -uuid is required")
		return
	}
	uuid, ok := decodeUUIDHex(*uuidHex)
	if !ok {
		fmt.Println("wanxcodecctl: malformed -uuid")
		return
	}

	c, err := coss.Open(uuid, *dir, *size, *size, *size)
	if err != nil {
		fmt.Println(err)
		return
	}
	defer c.Close()

	l, err := readline.NewEx(&readline.Config{
		Prompt:            prompt,
		HistoryFile:       ".wanxcodecctl-history.tmp",
		InterruptPrompt:   "^C",
		EOFPrompt:         "exit",
		HistorySearchFold: true,
	})
	if err != nil {
		panic(err)
	}
	defer l.Close()
	l.CaptureExitSignal()

	for {
		line, err := l.Readline()
		if err == readline.ErrInterrupt {
			continue
		}
		if err == io.EOF {
			return
		}
		if err != nil {
			panic(err)
		}
		dispatch(c, strings.TrimSpace(line))
	}
}

func dispatch(c *coss.Cache, line string) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return
	}
	switch fields[0] {
	case "stats":
		st := c.Stats()
		fmt.Printf("lookups=%d hits=%d misses=%d\n", st.Lookups, st.Hits, st.Misses)

	case "lookup":
		if len(fields) != 2 {
			fmt.Println("usage: lookup <fingerprint-hex>")
			return
		}
		n, err := strconv.ParseUint(fields[1], 16, 64)
		if err != nil {
			fmt.Println(err)
			return
		}
		seg, ok := c.Lookup(xcodec.Fingerprint(n))
		if !ok {
			fmt.Println("miss")
			return
		}
		fmt.Printf("hit: %x\n", seg.Bytes())

	case "quit", "exit":
		fmt.Println("use ^D or ^C to exit")

	default:
		fmt.Printf("unknown command %q (try: stats, lookup <fingerprint-hex>)\n", fields[0])
	}
}

func decodeUUIDHex(s string) (xcodec.UUID, bool) {
	s = strings.ReplaceAll(s, "-", "")
	if len(s) != xcodec.UUIDSize*2 {
		return xcodec.UUID{}, false
	}
	var b [xcodec.UUIDSize]byte
	for i := range b {
		n, err := strconv.ParseUint(s[i*2:i*2+2], 16, 8)
		if err != nil {
			return xcodec.UUID{}, false
		}
		b[i] = byte(n)
	}
	return xcodec.DecodeUUID(b[:])
}
