//go:build !windows

package preflight

import "syscall"

// checkFileDescriptors warns when the soft file descriptor limit is low.
func checkFileDescriptors() Check {
	var limit syscall.Rlimit
	if err := syscall.Getrlimit(syscall.RLIMIT_NOFILE, &limit); err != nil {
		return Check{
			Name:    "file_descriptors",
			Passed:  true,
			Warning: true,
			Message: "unable to check: " + err.Error(),
		}
	}
	return fdCheck(limit.Cur)
}
