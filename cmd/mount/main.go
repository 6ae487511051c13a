// Command mount attaches a TFS image to the host filesystem via FUSE.
package main

import (
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/hanwen/go-fuse/v2/fs"
	"github.com/hanwen/go-fuse/v2/fuse"
	"github.com/sirupsen/logrus"

	"github.com/frlis21/dm510-asg3/backend/file"
	"github.com/frlis21/dm510-asg3/internal/fuseadapter"
	"github.com/frlis21/dm510-asg3/tfs"
)

func main() {
	var (
		readOnly bool
		debug    bool
		verbose  bool
	)
	flag.BoolVar(&readOnly, "ro", false, "mount read-only")
	flag.BoolVar(&debug, "debug", false, "enable go-fuse protocol debug logging")
	flag.BoolVar(&verbose, "v", false, "verbose logging")
	flag.Parse()

	log := logrus.New()
	if verbose {
		log.SetLevel(logrus.DebugLevel)
	}

	if flag.NArg() != 2 {
		log.Fatal("usage: mount [-ro] [-debug] [-v] <image-path> <mountpoint>")
	}
	imagePath, mountpoint := flag.Arg(0), flag.Arg(1)

	storage, err := file.OpenFromPath(imagePath, readOnly)
	if err != nil {
		log.WithError(err).Fatal("open image")
	}

	fsys, err := tfs.Load(storage)
	if err != nil {
		log.WithError(err).Fatal("load image")
	}

	mountOpts := fuse.MountOptions{
		Debug:  debug,
		FsName: "tfs",
		Name:   "tfs",
	}
	if readOnly {
		mountOpts.Options = append(mountOpts.Options, "ro")
	}

	root := fuseadapter.Root(fsys)
	server, err := fs.Mount(mountpoint, root, &fs.Options{
		MountOptions: mountOpts,
	})
	if err != nil {
		log.WithError(err).Fatal("mount")
	}
	log.WithFields(logrus.Fields{"image": imagePath, "mountpoint": mountpoint}).Info("mounted")

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sig
		log.Info("unmount signal received")
		_ = server.Unmount()
	}()

	server.Wait()

	if err := fsys.Destroy(); err != nil {
		log.WithError(err).Error("destroy image")
	}
	log.Info("unmounted")
}
