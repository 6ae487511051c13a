// Command tfsserve serves a TFS image's contents over HTTP, read-only,
// via http.FileServer(http.FS(...)) over converter.FS wrapping a
// *tfs.Filesystem.
package main

import (
	"flag"
	"net/http"

	"github.com/sirupsen/logrus"

	"github.com/frlis21/dm510-asg3/backend/file"
	"github.com/frlis21/dm510-asg3/converter"
	"github.com/frlis21/dm510-asg3/tfs"
)

func serve(filename, addr string, log *logrus.Logger) error {
	storage, err := file.OpenFromPath(filename, true)
	if err != nil {
		return err
	}
	fsys, err := tfs.Load(storage)
	if err != nil {
		return err
	}
	defer func() { _ = fsys.Destroy() }()

	http.Handle("/", http.FileServer(http.FS(converter.FS(fsys))))

	log.WithFields(logrus.Fields{"image": filename, "addr": addr}).Info("serving")
	return http.ListenAndServe(addr, nil)
}

func main() {
	filename := flag.String("filename", "", "image to serve")
	addr := flag.String("addr", ":8100", "address & port to serve on")
	verbose := flag.Bool("v", false, "verbose logging")
	flag.Parse()

	log := logrus.New()
	if *verbose {
		log.SetLevel(logrus.DebugLevel)
	}

	if *filename == "" {
		log.Fatal("usage: tfsserve -filename <image-path> [-addr :8100]")
	}
	if err := serve(*filename, *addr, log); err != nil {
		log.WithError(err).Fatal("serve")
	}
}
