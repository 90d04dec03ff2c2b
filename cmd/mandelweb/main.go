// Command mandelweb serves the browser-based renderer.
package main

import (
	"flag"
	"log"
	"log/slog"
	"os"

	"github.com/gogpu/mandel"
	"github.com/gogpu/mandel/web"
)

func main() {
	var (
		addr     = flag.String("addr", ":8080", "listen address")
		interval = flag.Duration("progress", web.DefaultProgressInterval, "websocket progress interval")
		verbose  = flag.Bool("v", false, "log at debug level")
	)
	flag.Parse()

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	mandel.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})))

	srv := web.NewServer(web.WithProgressInterval(*interval))
	if err := srv.ListenAndServe(*addr); err != nil {
		log.Fatalf("serve: %v", err)
	}
}
