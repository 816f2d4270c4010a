// Package cli holds command-line options and utilities shared by the
// idevice-* binaries under cmd/.
package cli

import (
	"fmt"
	"html/template"
	"log"
	"net"
	"net/http"
	"os"

	"github.com/sirupsen/logrus"
	"gopkg.in/alecthomas/kingpin.v2"
)

var Log *logrus.Logger = logrus.StandardLogger()

func init() {
	kingpin.HelpFlag.Short('h')
}

// Initialize parses flags, wires up logging, and optionally starts the
// debug HTTP server. Must be called after all of a command's own flags are
// registered and before any work begins.
func Initialize(appName string, baseConfig *BaseConfig) {
	if appName == "" {
		panic("appName cannot be empty")
	}
	kingpin.Version(versionString(appName))
	kingpin.Parse()

	Log = baseConfig.createLogger()
	log.SetOutput(Log.Writer())
	log.SetFlags(0)
	Log.Println(versionString(appName))

	if baseConfig.ServeDebug {
		initializeDebugServer()
	}
}

// Fail prints "Failed to <verb>: <err>" to stderr and exits 1. err's
// String form is already "Kind(detail)" or "Kind{service:..., detail:...}"
// via ideviceerr.Error, so no further formatting is needed here.
func Fail(verb string, err error) {
	fmt.Fprintf(os.Stderr, "Failed to %s: %s\n", verb, err)
	os.Exit(1)
}

func initializeDebugServer() {
	Log.Debug("starting debug server...")

	listener, err := net.ListenTCP("tcp", &net.TCPAddr{IP: net.ParseIP("127.0.0.1"), Port: 0})
	if err != nil {
		Log.Errorln("error starting debug server:", err)
		return
	}

	toc, err := template.New("").Parse(`
		<html><body>
			{{range .}}
				<p><a href="{{.Path}}">{{.Text}}</a></p>
			{{end}}
		</body></html>`)
	if err != nil {
		panic(err)
	}
	entries := []struct{ Text, Path string }{
		{"Profiling", "/debug/pprof"},
		{"Download a 30-second CPU profile", "/debug/pprof/profile"},
		{"Download a trace file (add ?seconds=x to specify sample length)", "/debug/pprof/trace"},
		{"Requests", "/debug/requests"},
		{"Event log", "/debug/events"},
	}
	http.HandleFunc("/debug", func(w http.ResponseWriter, req *http.Request) {
		toc.Execute(w, entries)
	})

	go func() {
		defer listener.Close()
		if err := http.Serve(listener, nil); err != nil {
			Log.Errorln("debug server error:", err)
		}
	}()

	Log.Printf("debug server listening on http://%s/debug", listener.Addr())
}
