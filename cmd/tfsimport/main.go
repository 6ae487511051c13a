// Command tfsimport copies a host directory tree into a TFS image in one
// step, without needing a live FUSE mount first. If the image file does not
// exist yet, it is created and formatted; an existing image is used as is.
package main

import (
	"flag"
	"os"

	"github.com/sirupsen/logrus"

	"github.com/frlis21/dm510-asg3/backend/file"
	"github.com/frlis21/dm510-asg3/sync"
	"github.com/frlis21/dm510-asg3/tfs"
)

func main() {
	var (
		size    int64
		verbose bool
	)
	flag.Int64Var(&size, "size", 64*1024*1024, "image size in bytes, if the image doesn't already exist")
	flag.BoolVar(&verbose, "v", false, "verbose logging")
	flag.Parse()

	log := logrus.New()
	if verbose {
		log.SetLevel(logrus.DebugLevel)
	}

	if flag.NArg() != 2 {
		log.Fatal("usage: tfsimport [-size bytes] [-v] <source-dir> <image-path>")
	}
	srcDir, imagePath := flag.Arg(0), flag.Arg(1)

	if _, err := os.Stat(imagePath); os.IsNotExist(err) {
		log.WithFields(logrus.Fields{"path": imagePath, "size": size}).Info("creating image")
		storage, err := file.CreateFromPath(imagePath, size)
		if err != nil {
			log.WithError(err).Fatal("create image")
		}
		if err := tfs.Format(storage); err != nil {
			log.WithError(err).Fatal("format image")
		}
	}

	storage, err := file.OpenFromPath(imagePath, false)
	if err != nil {
		log.WithError(err).Fatal("open image")
	}
	fsys, err := tfs.Load(storage)
	if err != nil {
		log.WithError(err).Fatal("load image")
	}
	defer func() {
		if err := fsys.Destroy(); err != nil {
			log.WithError(err).Error("destroy image")
		}
	}()

	log.WithFields(logrus.Fields{"source": srcDir, "image": imagePath}).Info("copying tree")
	if err := sync.CopyFileSystem(os.DirFS(srcDir), fsys); err != nil {
		log.WithError(err).Fatal("copy tree")
	}
	log.Info("import complete")
}
