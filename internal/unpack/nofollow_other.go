//go:build !unix

package unpack

const openNoFollow = 0
