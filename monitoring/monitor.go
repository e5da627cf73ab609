// Package monitoring turns a running sweep, or a results file, into an HTTP
// server that reports progress, process resources and run summaries.
package monitoring

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"runtime/pprof"
	"strconv"
	"sync"
	"time"

	"github.com/google/pprof/profile"
	"github.com/gorilla/mux"
	"github.com/pkg/browser"
	"github.com/sarchlab/simlab/datarecording"
	"github.com/sarchlab/simlab/sim"
	"github.com/shirou/gopsutil/process"
	"github.com/syifan/goseth"
)

// A RunSource lists finished runs. datarecording.ResultReader is one.
type RunSource interface {
	Runs(ctx context.Context) ([]datarecording.RunEntry, error)
	Run(ctx context.Context, runID string) (datarecording.RunSummary, bool, error)
}

// Monitor can turn a sweep into a server that allows external monitoring.
type Monitor struct {
	portNumber int
	ids        sim.IDGenerator

	progressBarsLock sync.Mutex
	progressBars     []*ProgressBar

	runs RunSource
	live *liveRuns
}

// NewMonitor creates a new Monitor.
func NewMonitor() *Monitor {
	live := &liveRuns{}

	return &Monitor{
		ids:  sim.NewSequentialIDGenerator(),
		runs: live,
		live: live,
	}
}

// WithPortNumber sets the port number of the monitor.
func (m *Monitor) WithPortNumber(portNumber int) *Monitor {
	if portNumber != 0 && portNumber < 1000 {
		fmt.Fprintf(os.Stderr,
			"Port number %d is assigned to the monitoring server, "+
				"which is not allowed. Using a random port instead.\n", portNumber)
		portNumber = 0
	}

	m.portNumber = portNumber

	return m
}

// WithRunSource serves runs from the source instead of the runs recorded
// with RecordRun.
func (m *Monitor) WithRunSource(source RunSource) *Monitor {
	m.runs = source
	return m
}

// CreateProgressBar creates a new progress bar.
func (m *Monitor) CreateProgressBar(name string, total uint64) *ProgressBar {
	m.progressBarsLock.Lock()
	defer m.progressBarsLock.Unlock()

	bar := &ProgressBar{
		ID:        m.ids.Generate(),
		Name:      name,
		StartTime: time.Now(),
		Total:     total,
	}

	m.progressBars = append(m.progressBars, bar)

	return bar
}

// CompleteProgressBar removes a bar from the list.
func (m *Monitor) CompleteProgressBar(pb *ProgressBar) {
	m.progressBarsLock.Lock()
	defer m.progressBarsLock.Unlock()

	newBars := make([]*ProgressBar, 0, len(m.progressBars))

	for _, b := range m.progressBars {
		if b != pb {
			newBars = append(newBars, b)
		}
	}

	m.progressBars = newBars
}

// RecordRun makes a finished run visible under /api/runs.
func (m *Monitor) RecordRun(summary datarecording.RunSummary) {
	m.live.add(summary)
}

// Router returns the HTTP routes of the monitor.
func (m *Monitor) Router() *mux.Router {
	r := mux.NewRouter()

	r.HandleFunc("/api/progress", m.listProgressBars).Methods(http.MethodGet)
	r.HandleFunc("/api/resource", m.listResources).Methods(http.MethodGet)
	r.HandleFunc("/api/profile", m.collectProfile).Methods(http.MethodGet)
	r.HandleFunc("/api/runs", m.listRuns).Methods(http.MethodGet)
	r.HandleFunc("/api/runs/{id}", m.runDetails).Methods(http.MethodGet)

	return r
}

// StartServer starts serving in the background and returns the URL of the
// server.
func (m *Monitor) StartServer() string {
	actualPort := ":0"
	if m.portNumber > 1000 {
		actualPort = ":" + strconv.Itoa(m.portNumber)
	}

	listener, err := net.Listen("tcp", actualPort)
	dieOnErr(err)

	url := fmt.Sprintf("http://localhost:%d",
		listener.Addr().(*net.TCPAddr).Port)
	fmt.Fprintf(os.Stderr, "Monitoring simulation with %s\n", url)

	router := m.Router()

	go func() {
		err := http.Serve(listener, router)
		dieOnErr(err)
	}()

	return url
}

// Serve serves on the address until the server fails.
func (m *Monitor) Serve(addr string) error {
	fmt.Fprintf(os.Stderr, "Serving results on %s\n", addr)

	server := &http.Server{
		Addr:              addr,
		Handler:           m.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	return server.ListenAndServe()
}

// OpenBrowser opens the URL in the default browser.
func OpenBrowser(url string) error {
	return browser.OpenURL(url)
}

func (m *Monitor) listProgressBars(w http.ResponseWriter, _ *http.Request) {
	m.progressBarsLock.Lock()
	bars := make([]Progress, 0, len(m.progressBars))
	for _, b := range m.progressBars {
		bars = append(bars, b.Snapshot())
	}
	m.progressBarsLock.Unlock()

	writeJSON(w, bars)
}

type resourceRsp struct {
	CPUPercent float64 `json:"cpu_percent"`
	MemorySize uint64  `json:"memory_size"`
}

func (m *Monitor) listResources(w http.ResponseWriter, _ *http.Request) {
	pid := os.Getpid()
	proc, err := process.NewProcess(int32(pid))
	dieOnErr(err)

	cpuPercent, err := proc.CPUPercent()
	dieOnErr(err)

	memorySize, err := proc.MemoryInfo()
	dieOnErr(err)

	writeJSON(w, resourceRsp{
		CPUPercent: cpuPercent,
		MemorySize: memorySize.RSS,
	})
}

func (m *Monitor) collectProfile(w http.ResponseWriter, _ *http.Request) {
	buf := bytes.NewBuffer(nil)

	err := pprof.StartCPUProfile(buf)
	if err != nil {
		http.Error(w, err.Error(), http.StatusConflict)
		return
	}

	time.Sleep(time.Second)

	pprof.StopCPUProfile()

	prof, err := profile.ParseData(buf.Bytes())
	dieOnErr(err)

	writeJSON(w, prof)
}

func (m *Monitor) listRuns(w http.ResponseWriter, r *http.Request) {
	runs, err := m.runs.Runs(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	writeJSON(w, runs)
}

func (m *Monitor) runDetails(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	summary, found, err := m.runs.Run(r.Context(), id)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	if !found {
		http.Error(w, "run "+id+" not found", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")

	serializer := goseth.NewSerializer()
	serializer.SetRoot(&summary)
	serializer.SetMaxDepth(3)
	err = serializer.Serialize(w)

	dieOnErr(err)
}

func writeJSON(w http.ResponseWriter, v any) {
	bytes, err := json.Marshal(v)
	dieOnErr(err)

	w.Header().Set("Content-Type", "application/json")

	_, err = w.Write(bytes)
	dieOnErr(err)
}

func dieOnErr(err error) {
	if err != nil {
		log.Panic(err)
	}
}

type liveRuns struct {
	sync.Mutex
	summaries []datarecording.RunSummary
}

func (l *liveRuns) add(s datarecording.RunSummary) {
	l.Lock()
	defer l.Unlock()

	l.summaries = append(l.summaries, s)
}

func (l *liveRuns) Runs(_ context.Context) ([]datarecording.RunEntry, error) {
	l.Lock()
	defer l.Unlock()

	runs := make([]datarecording.RunEntry, 0, len(l.summaries))
	for _, s := range l.summaries {
		runs = append(runs, s.Run)
	}

	return runs, nil
}

func (l *liveRuns) Run(
	_ context.Context,
	runID string,
) (datarecording.RunSummary, bool, error) {
	l.Lock()
	defer l.Unlock()

	for _, s := range l.summaries {
		if s.Run.RunID == runID {
			return s, true, nil
		}
	}

	return datarecording.RunSummary{}, false, nil
}
