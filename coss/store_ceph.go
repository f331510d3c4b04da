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

//go:build ceph

package coss

import (
	"fmt"

	"github.com/ceph/go-ceph/rados"
)

// RADOSStripeStore backs a cache with one RADOS object per stripe in a
// pool, for deployments that already run Ceph for other storage and
// would rather not stand up a separate filesystem for cache state.
type RADOSStripeStore struct {
	conn  *rados.Conn
	ioctx *rados.IOContext
	pool  string
	prefix string
	stripeLen int64
}

// OpenRADOSStripeStore connects using the default Ceph configuration
// search path (/etc/ceph/ceph.conf and friends) and opens an I/O
// context on pool.
func OpenRADOSStripeStore(pool, prefix string, stripeLen int64) (*RADOSStripeStore, error) {
	conn, err := rados.NewConn()
	if err != nil {
		return nil, fmt.Errorf("coss: creating rados connection: %w", err)
	}
	if err := conn.ReadDefaultConfigFile(); err != nil {
		return nil, fmt.Errorf("coss: reading ceph config: %w", err)
	}
	if err := conn.Connect(); err != nil {
		return nil, fmt.Errorf("coss: connecting to ceph cluster: %w", err)
	}
	ioctx, err := conn.OpenIOContext(pool)
	if err != nil {
		conn.Shutdown()
		return nil, fmt.Errorf("coss: opening pool %s: %w", pool, err)
	}
	return &RADOSStripeStore{conn: conn, ioctx: ioctx, pool: pool, prefix: prefix, stripeLen: stripeLen}, nil
}

func (s *RADOSStripeStore) oid(number uint64) string {
	return fmt.Sprintf("%sstripe-%020d", s.prefix, number)
}

func (s *RADOSStripeStore) ReadStripe(number uint64) ([]byte, bool, error) {
	buf := make([]byte, s.stripeLen)
	n, err := s.ioctx.Read(s.oid(number), buf, 0)
	if err == rados.ErrNotFound {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	if int64(n) < s.stripeLen {
		// A stripe object shorter than a full stripe was reset but
		// never fully written; the remainder reads as zeros.
		return buf, true, nil
	}
	return buf, true, nil
}

func (s *RADOSStripeStore) WriteStripe(number uint64, data []byte) error {
	return s.ioctx.Write(s.oid(number), data, 0)
}

func (s *RADOSStripeStore) Close() error {
	s.ioctx.Destroy()
	s.conn.Shutdown()
	return nil
}
