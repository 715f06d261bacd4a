//go:build !linux

package process

import "errors"

// SetSubreaper is not supported outside Linux.
func SetSubreaper() error {
	return errors.New("child subreaper not supported on this platform")
}
