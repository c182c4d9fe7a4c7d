//go:build unix

package unpack

import "golang.org/x/sys/unix"

// openNoFollow makes opening an extracted file fail when the name is a symlink.
const openNoFollow = unix.O_NOFOLLOW
