package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"

	"waveplay/cmd"
	"waveplay/config"
	"waveplay/services"

	"github.com/schollz/progressbar/v3"
)

func main() {
	var (
		server bool
		port   int
		token  string
		path   string
		out    string
	)

	flag.BoolVar(&server, "server", false, "Start in web server mode")
	flag.IntVar(&port, "port", 8080, "Port for web server mode")
	flag.StringVar(&token, "token", "", "Share token to download from")
	flag.StringVar(&path, "path", "", "File path inside a folder share")
	flag.StringVar(&out, "out", "", "Output file (defaults to the shared file name)")
	flag.Parse()

	// Server mode takes precedence
	if server {
		cmd.StartWebServer(port)
		return
	}

	if token == "" {
		flag.Usage()
		return
	}

	if err := downloadShare(token, path, out); err != nil {
		log.Fatalf("Error: %s", err)
	}
}

// downloadShare fetches one shared file to disk with a progress bar
func downloadShare(token, relPath, out string) error {
	shares := services.NewShareService(config.GetShareRoot(), config.GetManifestPath())

	src, info, err := shares.OpenFile(token, relPath)
	if err != nil {
		return fmt.Errorf("cannot open share %s: %w", token, err)
	}
	defer src.Close()

	if out == "" {
		out = info.Name()
	}
	if err := os.MkdirAll(filepath.Dir(filepath.Join(".", out)), 0755); err != nil {
		return err
	}

	dst, err := os.Create(out)
	if err != nil {
		return fmt.Errorf("cannot create %s: %w", out, err)
	}
	defer dst.Close()

	bar := progressbar.DefaultBytes(info.Size(), "downloading "+info.Name())
	if _, err := io.Copy(io.MultiWriter(dst, bar), src); err != nil {
		return fmt.Errorf("download failed: %w", err)
	}

	fmt.Printf("Saved %s (%d bytes)\n", out, info.Size())
	return nil
}
