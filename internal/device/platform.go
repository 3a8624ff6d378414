package device

import (
	"bytes"
	"strconv"
	"strings"

	"golang.org/x/sys/unix"
)

// PlatformInfo holds the kernel identity read once at startup. Feature gates
// that depend on platform capabilities key off KernelMajor.
type PlatformInfo struct {
	Sysname     string
	Version     string
	KernelMajor int
}

func probePlatform() PlatformInfo {
	var uts unix.Utsname
	if err := unix.Uname(&uts); err != nil {
		return PlatformInfo{Sysname: "unknown", Version: "unknown"}
	}

	release := charsToString(uts.Release[:])
	return PlatformInfo{
		Sysname:     charsToString(uts.Sysname[:]),
		Version:     release,
		KernelMajor: kernelMajor(release),
	}
}

// kernelMajor extracts the leading major version from a release string such
// as "6.18.44-fc-v23". Unparseable releases yield 0, which fails feature
// gates closed.
func kernelMajor(release string) int {
	head, _, _ := strings.Cut(release, ".")
	major, err := strconv.Atoi(head)
	if err != nil {
		return 0
	}
	return major
}

func charsToString(data []byte) string {
	if idx := bytes.IndexByte(data, 0); idx >= 0 {
		data = data[:idx]
	}
	return string(data)
}
