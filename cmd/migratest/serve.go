package main

import (
	"fmt"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/spf13/cobra"

	"github.com/doodlesbykumbi/migratest/pkg/config"
	"github.com/doodlesbykumbi/migratest/pkg/report"
)

var serveFlags suiteFlags

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the latest check results over HTTP",
	Long: `Run the checks and serve the results over HTTP.

Routes:
  GET  /             HTML report
  GET  /report       Markdown report
  GET  /results.json JSON results
  GET  /healthz      liveness probe
  POST /run          re-run the checks

Example:
  migratest serve --listen :8080 --ephemeral`,
	Run: func(cmd *cobra.Command, args []string) {
		listen, _ := cmd.Flags().GetString("listen")
		if err := serveResults(cmd, listen); err != nil {
			fmt.Fprintf(os.Stderr, "Server failed: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	registerSuiteFlags(serveCmd, &serveFlags)
	serveCmd.Flags().String("listen", "127.0.0.1:8080", "Address to listen on")
}

// resultServer holds the latest report behind a lock.
type resultServer struct {
	mu     sync.RWMutex
	latest *report.Report
	rerun  func() (*report.Report, error)
}

func (s *resultServer) report() *report.Report {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.latest
}

func (s *resultServer) handleHTML(w http.ResponseWriter, r *http.Request) {
	rep := s.report()
	if rep == nil {
		http.Error(w, "no results yet", http.StatusServiceUnavailable)
		return
	}
	html, err := rep.HTML()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(html)
}

func (s *resultServer) handleMarkdown(w http.ResponseWriter, r *http.Request) {
	rep := s.report()
	if rep == nil {
		http.Error(w, "no results yet", http.StatusServiceUnavailable)
		return
	}
	w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
	_, _ = w.Write(rep.Markdown())
}

func (s *resultServer) handleJSON(w http.ResponseWriter, r *http.Request) {
	rep := s.report()
	if rep == nil {
		http.Error(w, "no results yet", http.StatusServiceUnavailable)
		return
	}
	out, err := rep.JSON()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(out)
}

func (s *resultServer) handleRun(w http.ResponseWriter, r *http.Request) {
	rep, err := s.rerun()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	s.mu.Lock()
	s.latest = rep
	s.mu.Unlock()
	s.handleJSON(w, r)
}

func (s *resultServer) handleHealthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func serveResults(cmd *cobra.Command, listen string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	server := &resultServer{
		rerun: func() (*report.Report, error) {
			return executeSuite(cmd.Context(), cfg, serveFlags)
		},
	}

	fmt.Println("Running initial checks...")
	rep, err := server.rerun()
	if err != nil {
		return err
	}
	server.latest = rep

	router := mux.NewRouter()
	router.HandleFunc("/", server.handleHTML).Methods(http.MethodGet)
	router.HandleFunc("/report", server.handleMarkdown).Methods(http.MethodGet)
	router.HandleFunc("/results.json", server.handleJSON).Methods(http.MethodGet)
	router.HandleFunc("/healthz", server.handleHealthz).Methods(http.MethodGet)
	router.HandleFunc("/run", server.handleRun).Methods(http.MethodPost)

	srv := &http.Server{
		Handler:      handlers.LoggingHandler(os.Stdout, router),
		Addr:         listen,
		WriteTimeout: 15 * time.Minute,
		ReadTimeout:  15 * time.Second,
	}

	fmt.Printf("Serving results on http://%s\n", listen)
	return srv.ListenAndServe()
}
