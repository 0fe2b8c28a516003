package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/bigtcze/znsd/backend"
	"github.com/bigtcze/znsd/collector"
	"github.com/bigtcze/znsd/config"
	"github.com/bigtcze/znsd/zns"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	showVersion := flag.Bool("version", false, "Print version and exit")

	// config.Load defines the -config flag and parses the command line.
	cfg, err := config.Load()

	if *showVersion {
		fmt.Printf("znsd version=%s commit=%s date=%s\n", version, commit, date)
		os.Exit(0)
	}

	log.Printf("Starting znsd version=%s commit=%s date=%s", version, commit, date)

	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	znsCfg := cfg.Namespace.ToZNSConfig()
	mmap, err := backend.NewMmapBackend(znsCfg.NamespaceSizeBytes)
	if err != nil {
		log.Fatalf("Failed to allocate namespace backing store: %v", err)
	}
	defer mmap.Close()

	ns, err := zns.NewNamespace(znsCfg, mmap)
	if err != nil {
		log.Fatalf("Failed to construct namespace: %v", err)
	}

	log.Printf("Namespace ready: %d zones, %d LBAs/zone, max_active=%d max_open=%d",
		ns.ZoneCount(), ns.Geometry().ZoneSizeLBAs, cfg.Namespace.MaxActiveZones, cfg.Namespace.MaxOpenZones)

	registry := prometheus.NewRegistry()
	registry.MustRegister(collector.NewZNSCollector(ns))

	mux := http.NewServeMux()

	mux.Handle(cfg.Server.MetricsPath, promhttp.HandlerFor(registry, promhttp.HandlerOpts{
		ErrorLog:      log.New(os.Stderr, "", log.LstdFlags),
		ErrorHandling: promhttp.ContinueOnError,
	}))

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		fmt.Fprintf(w, "OK\n")
	})

	mux.HandleFunc("/v1/namespaces/", commandHandler(ns))

	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		fmt.Fprintf(w, `<html>
<head><title>ZNS Emulator</title></head>
<body>
<h1>ZNS Emulator</h1>
<p>Version: %s</p>
<p>Commit: %s</p>
<p>Build Date: %s</p>
<p><a href="%s">Metrics</a></p>
<p><a href="/health">Health</a></p>
</body>
</html>`, version, commit, date, cfg.Server.MetricsPath)
	})

	server := &http.Server{
		Addr:    cfg.Server.ListenAddress,
		Handler: mux,
	}

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
		<-sigChan
		log.Println("Shutting down...")
		server.Close()
	}()

	log.Printf("Starting HTTP server on %s", cfg.Server.ListenAddress)
	log.Printf("Metrics available at %s", cfg.Server.MetricsPath)

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("HTTP server failed: %v", err)
	}

	if err := ns.Close(); err != nil {
		log.Printf("Error draining namespace: %v", err)
	}
	log.Println("znsd stopped")
}

// commandRequest is the wire-shaped JSON body for POST
// /v1/namespaces/{id}/command: opcode, nsid, and the raw command dwords,
// per spec.md §6. This daemon serves a single namespace, so nsid is
// accepted but not otherwise consulted.
type commandRequest struct {
	NSID   uint32 `json:"nsid"`
	Opcode uint8  `json:"opcode"`
	CDW10  uint32 `json:"cdw10"`
	CDW11  uint32 `json:"cdw11"`
	CDW12  uint32 `json:"cdw12"`
	CDW13  uint32 `json:"cdw13"`
	// Data is base64-encoded by encoding/json for write/append payloads.
	Data     []byte `json:"data,omitempty"`
	DataSize uint64 `json:"data_size,omitempty"`
}

// commandResponse carries back the decoded completion-queue-entry fields:
// the status, and whichever payload the opcode produced.
type commandResponse struct {
	Status      uint16 `json:"status"`
	StatusName  string `json:"status_name"`
	Retryable   bool   `json:"retryable"`
	WriteSLBA   uint64 `json:"write_slba,omitempty"`
	ZoneReport  []byte `json:"zone_report,omitempty"`
	NrZonesSeen uint64 `json:"nr_zones,omitempty"`
}

// commandHandler implements the host-command adapter's one concrete
// transport binding: a thin JSON envelope around zns.Command/zns.Execute,
// kept deliberately simple since transport framing below the opcode is out
// of scope (spec.md §1).
func commandHandler(ns *zns.Namespace) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		if !strings.HasSuffix(r.URL.Path, "/command") {
			http.NotFound(w, r)
			return
		}

		var req commandRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid command body: "+err.Error(), http.StatusBadRequest)
			return
		}

		data := req.Data
		if req.DataSize != 0 && uint64(len(data)) < req.DataSize {
			data = make([]byte, req.DataSize)
		}

		res, err := ns.Execute(zns.Command{
			Opcode:   zns.Opcode(req.Opcode),
			CDW10:    req.CDW10,
			CDW11:    req.CDW11,
			CDW12:    req.CDW12,
			CDW13:    req.CDW13,
			Data:     data,
			DataSize: req.DataSize,
		})
		if err != nil {
			log.Printf("command error: nsid=%d opcode=%d: %v", req.NSID, req.Opcode, err)
		}

		resp := commandResponse{
			Status:     uint16(res.Status),
			StatusName: res.Status.String(),
			Retryable:  res.Status.Retryable(),
			WriteSLBA:  res.WriteResult.SLBA,
		}
		if res.ZoneReport.NrZones != 0 {
			resp.NrZonesSeen = res.ZoneReport.NrZones
			resp.ZoneReport = encodeReport(res.ZoneReport)
		}

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(resp); err != nil {
			log.Printf("failed to encode command response: %v", err)
		}
	}
}

func encodeReport(report zns.ZoneReport) []byte {
	buf := make([]byte, zns.ReportHeaderSize+len(report.Entries)*zns.ReportDescriptorSize)
	zns.EncodeReportHeader(buf[:zns.ReportHeaderSize], report.NrZones)
	for i, e := range report.Entries {
		off := zns.ReportHeaderSize + i*zns.ReportDescriptorSize
		zns.EncodeReportDescriptor(buf[off:off+zns.ReportDescriptorSize], e)
	}
	return buf
}
