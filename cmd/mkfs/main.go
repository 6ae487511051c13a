// Command mkfs formats a new TFS image file, so a user need not hand-roll
// one with dd/truncate before mounting or importing into it.
package main

import (
	"flag"
	"os"

	"github.com/sirupsen/logrus"

	"github.com/frlis21/dm510-asg3/backend/file"
	"github.com/frlis21/dm510-asg3/tfs"
)

func main() {
	var (
		size    int64
		verbose bool
	)
	flag.Int64Var(&size, "size", 64*1024*1024, "image size in bytes")
	flag.BoolVar(&verbose, "v", false, "verbose logging")
	flag.Parse()

	log := logrus.New()
	if verbose {
		log.SetLevel(logrus.DebugLevel)
	}

	if flag.NArg() != 1 {
		log.Fatal("usage: mkfs [-size bytes] [-v] <image-path>")
	}
	path := flag.Arg(0)

	log.WithFields(logrus.Fields{"path": path, "size": size}).Info("creating image")
	storage, err := file.CreateFromPath(path, size)
	if err != nil {
		log.WithError(err).Fatal("create image")
	}

	log.Debug("writing superblock and threading free lists")
	if err := tfs.Format(storage); err != nil {
		log.WithError(err).Fatal("format image")
	}

	log.Info("image formatted")
	os.Exit(0)
}
