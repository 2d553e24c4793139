package main

import "C"
import (
	"os"
	"unsafe"

	"github.com/sirupsen/logrus"
	"github.com/tutils/tcopy/cmd"
)

//export RunCmd
func RunCmd(cargs **C.char, size C.int) {
	args := os.Args[:1]
	for _, s := range unsafe.Slice(cargs, int(size)) {
		args = append(args, C.GoString(s))
	}
	os.Args = args
	cmd.Execute()
}

// CopyFile copies src over dst and returns the byte count, or -1 on error
//
//export CopyFile
func CopyFile(csrc, cdst *C.char, bufferSize C.int) C.longlong {
	src, dst := C.GoString(csrc), C.GoString(cdst)
	log := logrus.WithFields(logrus.Fields{"src": src, "dst": dst})

	n, err := cmd.CopyFile(src, dst, int(bufferSize))
	if err != nil {
		log.WithError(err).Error("Copy failed")
		return -1
	}
	return C.longlong(n)
}

func main() {}
