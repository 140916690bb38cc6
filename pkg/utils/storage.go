package utils

import (
	"github.com/shirou/gopsutil/disk"
	"github.com/shirou/gopsutil/mem"
)

// CheckFreeSpace reports whether the filesystem holding path has at
// least requiredBytes free, along with the observed free byte count.
func CheckFreeSpace(path string, requiredBytes uint64) (bool, uint64, error) {
	usage, err := disk.Usage(path)
	if err != nil {
		return false, 0, err
	}
	return usage.Free >= requiredBytes, usage.Free, nil
}

// CheckAvailableMemory reports whether at least requiredBytes of memory
// is available, along with the observed available byte count.
func CheckAvailableMemory(requiredBytes uint64) (bool, uint64, error) {
	vm, err := mem.VirtualMemory()
	if err != nil {
		return false, 0, err
	}
	return vm.Available >= requiredBytes, vm.Available, nil
}
