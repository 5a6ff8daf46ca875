package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/pelletier/go-toml"
	"github.com/prometheus/common/expfmt"
	"github.com/rivo/tview"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"
	"github.com/shirou/gopsutil/v3/process"
)

// Terminal dashboard for a running mime-resolver instance. Scrapes the
// Prometheus endpoint, samples host state via gopsutil and tails the
// server log file.

const serverProcessName = "mime-resolver"

var (
	prometheusURL  string
	configFilePath string
	logFilePath    string
	metricsEnabled bool
	bindIP         string
)

func init() {
	configPaths := []string{
		"/etc/mime-resolver/config.toml",
		"../config.toml",
		"./config.toml",
	}

	var config *toml.Tree
	var err error

	for _, path := range configPaths {
		config, err = toml.LoadFile(path)
		if err == nil {
			configFilePath = path
			log.Printf("Using config file: %s", configFilePath)
			break
		}
	}

	if err != nil {
		log.Fatalf("Error loading config file: %v\nPlease create a config.toml in one of the following locations:\n%v", err, configPaths)
	}

	// metricsport is a string in generated configs but accept a bare
	// integer as well.
	portValue := config.Get("server.metricsport")
	if portValue == nil {
		log.Println("Warning: 'server.metricsport' is missing in the configuration, using default port 9090")
		portValue = int64(9090)
	}

	var port int64
	switch v := portValue.(type) {
	case int64:
		port = v
	case string:
		parsedPort, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			log.Fatalf("Error parsing 'server.metricsport' as int64: %v", err)
		}
		port = parsedPort
	default:
		log.Fatalf("Error: 'server.metricsport' is not of type int64 or string, got %T", v)
	}

	metricsEnabledValue := config.Get("server.metricsenabled")
	if metricsEnabledValue == nil {
		log.Println("Warning: 'server.metricsenabled' is not set, metrics views disabled")
		metricsEnabled = false
	} else {
		var ok bool
		metricsEnabled, ok = metricsEnabledValue.(bool)
		if !ok {
			log.Fatalf("Error: 'server.metricsenabled' should be a boolean, got %T", metricsEnabledValue)
		}
	}

	bindIPValue := config.Get("server.bind_ip")
	if bindIPValue == nil {
		log.Println("Warning: 'server.bind_ip' is not set, defaulting to 'localhost'")
		bindIP = "localhost"
	} else {
		var ok bool
		bindIP, ok = bindIPValue.(string)
		if !ok {
			log.Fatalf("Error: 'server.bind_ip' should be a string, got %T", bindIPValue)
		}
	}

	prometheusURL = fmt.Sprintf("http://%s:%d/metrics", bindIP, port)
	log.Printf("Metrics URL set to: %s", prometheusURL)

	logFileValue := config.Get("logging.file")
	if logFileValue == nil {
		log.Println("Warning: 'logging.file' is missing, using default '/var/log/mime-resolver.log'")
		logFilePath = "/var/log/mime-resolver.log"
	} else {
		lf, ok := logFileValue.(string)
		if !ok {
			log.Fatalf("Error: 'logging.file' is not of type string, got %T", logFileValue)
		}
		logFilePath = lf
	}
}

// Thresholds for color coding
const (
	HighUsage   = 80.0
	MediumUsage = 50.0
)

// Metric families worth displaying. Everything else on the endpoint
// (go_*, process_*) is skipped to keep the tables readable.
var relevantPrefixes = []string{
	"resolution",
	"sniff_",
	"dataurl_",
	"payload_",
	"cache_",
	"thumbnail",
	"scan",
	"history_",
	"rate_limited",
	"worker_",
	"memory_usage_bytes",
	"cpu_usage_percent",
	"active_connections",
	"requests_total",
	"goroutines",
}

// ProcessInfo holds information about the resolver process.
type ProcessInfo struct {
	PID               int32
	Name              string
	CPUPercent        float64
	MemPercent        float32
	CommandLine       string
	Uptime            string
	Status            string
	ErrorCount        int
	TotalRequests     int64
	ActiveConnections int
	Resolutions       int64
	CacheHitRate      float64
}

func fetchMetrics() (map[string]float64, error) {
	client := &http.Client{
		Timeout: 5 * time.Second,
		Transport: &http.Transport{
			MaxIdleConns:       10,
			IdleConnTimeout:    30 * time.Second,
			DisableCompression: true,
		},
	}

	resp, err := client.Get(prometheusURL)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch metrics: %w", err)
	}
	defer resp.Body.Close()

	limitedReader := io.LimitReader(resp.Body, 1024*1024)

	parser := &expfmt.TextParser{}
	metricFamilies, err := parser.TextToMetricFamilies(limitedReader)
	if err != nil {
		return nil, fmt.Errorf("failed to parse metrics: %w", err)
	}

	metrics := make(map[string]float64)

	for name, mf := range metricFamilies {
		relevant := false
		for _, prefix := range relevantPrefixes {
			if strings.HasPrefix(name, prefix) {
				relevant = true
				break
			}
		}
		if !relevant {
			continue
		}

		for _, m := range mf.GetMetric() {
			var value float64
			if m.GetGauge() != nil {
				value = m.GetGauge().GetValue()
			} else if m.GetCounter() != nil {
				value = m.GetCounter().GetValue()
			} else if m.GetUntyped() != nil {
				value = m.GetUntyped().GetValue()
			} else if m.GetHistogram() != nil {
				value = m.GetHistogram().GetSampleSum()
			} else {
				continue
			}

			// Labeled children keep their labels in the key so
			// per-strategy counters stay distinguishable.
			if len(m.GetLabel()) > 0 {
				labels := make([]string, 0, len(m.GetLabel()))
				for _, label := range m.GetLabel() {
					labels = append(labels, fmt.Sprintf("%s=\"%s\"", label.GetName(), label.GetValue()))
				}
				metricKey := fmt.Sprintf("%s{%s}", name, strings.Join(labels, ","))
				metrics[metricKey] = value
			} else {
				metrics[name] = value
			}
		}
	}

	return metrics, nil
}

// sumMetric totals every sample of a family, collapsing labeled children.
func sumMetric(metrics map[string]float64, family string) float64 {
	var total float64
	for key, value := range metrics {
		if key == family || strings.HasPrefix(key, family+"{") {
			total += value
		}
	}
	return total
}

func fetchSystemData() (float64, float64, int, error) {
	v, err := mem.VirtualMemory()
	if err != nil {
		return 0, 0, 0, fmt.Errorf("failed to fetch memory data: %w", err)
	}

	c, err := cpu.Percent(0, false)
	if err != nil {
		return 0, 0, 0, fmt.Errorf("failed to fetch CPU data: %w", err)
	}

	cores, err := cpu.Counts(true)
	if err != nil {
		return 0, 0, 0, fmt.Errorf("failed to fetch CPU cores: %w", err)
	}

	cpuUsage := 0.0
	if len(c) > 0 {
		cpuUsage = c[0]
	}

	return v.UsedPercent, cpuUsage, cores, nil
}

func fetchProcessList() ([]ProcessInfo, error) {
	processes, err := process.Processes()
	if err != nil {
		return nil, fmt.Errorf("failed to fetch processes: %w", err)
	}

	processList := make([]ProcessInfo, 0, len(processes))
	var mu sync.Mutex
	var wg sync.WaitGroup

	// Bounded concurrency so a large process table does not hammer procfs.
	sem := make(chan struct{}, 5)
	timeout := time.After(10 * time.Second)

	maxProcesses := 200
	if len(processes) > maxProcesses {
		processes = processes[:maxProcesses]
	}

	for _, p := range processes {
		select {
		case <-timeout:
			log.Printf("Process list fetch timeout, returning partial results")
			return processList, nil
		default:
		}

		wg.Add(1)
		sem <- struct{}{}

		go func(p *process.Process) {
			defer wg.Done()
			defer func() {
				<-sem
				if r := recover(); r != nil {
					log.Printf("Process info fetch panic: %v", r)
				}
			}()

			ctx, cancel := context.WithTimeout(context.Background(), 1*time.Second)
			defer cancel()

			cpuPercent, err := p.CPUPercentWithContext(ctx)
			if err != nil {
				return
			}

			memPercent, err := p.MemoryPercentWithContext(ctx)
			if err != nil {
				return
			}

			name, err := p.NameWithContext(ctx)
			if err != nil {
				return
			}

			// Skip idle processes to keep the table readable.
			if cpuPercent < 0.1 && memPercent < 0.1 {
				return
			}

			cmdline, err := p.CmdlineWithContext(ctx)
			if err != nil {
				cmdline = ""
			}
			if len(cmdline) > 100 {
				cmdline = cmdline[:100] + "..."
			}

			info := ProcessInfo{
				PID:         p.Pid,
				Name:        name,
				CPUPercent:  cpuPercent,
				MemPercent:  memPercent,
				CommandLine: cmdline,
			}

			mu.Lock()
			processList = append(processList, info)
			mu.Unlock()
		}(p)
	}

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(15 * time.Second):
		log.Printf("Process list fetch timeout after 15 seconds, returning partial results")
	}

	return processList, nil
}

// fetchResolverInfo locates the resolver process and combines process
// state with counters scraped from the metrics endpoint.
func fetchResolverInfo() (*ProcessInfo, error) {
	processes, err := process.Processes()
	if err != nil {
		return nil, fmt.Errorf("failed to fetch processes: %w", err)
	}

	for _, p := range processes {
		name, err := p.Name()
		if err != nil {
			continue
		}

		if name != serverProcessName {
			continue
		}

		cpuPercent, err := p.CPUPercent()
		if err != nil {
			cpuPercent = 0.0
		}

		memPercent, err := p.MemoryPercent()
		if err != nil {
			memPercent = 0.0
		}

		cmdline, err := p.Cmdline()
		if err != nil {
			cmdline = ""
		}

		createTime, err := p.CreateTime()
		if err != nil {
			return nil, fmt.Errorf("failed to get process start time: %w", err)
		}
		uptime := time.Since(time.Unix(0, createTime*int64(time.Millisecond)))

		status := "Running"
		isRunning, err := p.IsRunning()
		if err != nil || !isRunning {
			status = "Stopped"
		}

		errorCount, err := countLogErrors()
		if err != nil {
			errorCount = 0
		}

		metrics, err := fetchMetrics()
		if err != nil {
			return nil, fmt.Errorf("failed to fetch metrics: %w", err)
		}

		hits := sumMetric(metrics, "cache_hits_total")
		misses := sumMetric(metrics, "cache_misses_total")
		hitRate := 0.0
		if hits+misses > 0 {
			hitRate = hits / (hits + misses) * 100
		}

		return &ProcessInfo{
			PID:               p.Pid,
			Name:              name,
			CPUPercent:        cpuPercent,
			MemPercent:        memPercent,
			CommandLine:       cmdline,
			Uptime:            uptime.String(),
			Status:            status,
			ErrorCount:        errorCount,
			TotalRequests:     int64(sumMetric(metrics, "requests_total")),
			ActiveConnections: int(sumMetric(metrics, "active_connections")),
			Resolutions:       int64(sumMetric(metrics, "resolutions_total")),
			CacheHitRate:      hitRate,
		}, nil
	}

	return nil, fmt.Errorf("%s process not found", serverProcessName)
}

var (
	errorCountCache     int
	errorCountCacheTime time.Time
	errorCountMutex     sync.RWMutex
)

// countLogErrors scans the tail of the server log for error-level lines.
// Results are cached for 30 seconds so the dashboard does not reread the
// file on every refresh.
func countLogErrors() (int, error) {
	errorCountMutex.RLock()
	if time.Since(errorCountCacheTime) < 30*time.Second {
		count := errorCountCache
		errorCountMutex.RUnlock()
		return count, nil
	}
	errorCountMutex.RUnlock()

	file, err := os.Open(logFilePath)
	if err != nil {
		return 0, err
	}
	defer file.Close()

	stat, err := file.Stat()
	if err != nil {
		return 0, err
	}

	// Limit to the last 1MB of large log files.
	var startPos int64 = 0
	if stat.Size() > 1024*1024 {
		startPos = stat.Size() - 1024*1024
		file.Seek(startPos, io.SeekStart)
	}

	scanner := bufio.NewScanner(file)
	errorCount := 0
	lineCount := 0
	maxLines := 1000

	for scanner.Scan() && lineCount < maxLines {
		line := scanner.Text()
		if strings.Contains(line, "level=error") {
			errorCount++
		}
		lineCount++
	}

	if err := scanner.Err(); err != nil {
		return 0, err
	}

	errorCountMutex.Lock()
	errorCountCache = errorCount
	errorCountCacheTime = time.Now()
	errorCountMutex.Unlock()

	return errorCount, nil
}

type dashboardState struct {
	systemData   systemData
	metrics      map[string]float64
	processes    []ProcessInfo
	resolverInfo *ProcessInfo
	lastUpdate   time.Time
	mu           sync.RWMutex
}

type systemData struct {
	memUsage float64
	cpuUsage float64
	cores    int
}

var state = &dashboardState{}

func updateUI(ctx context.Context, app *tview.Application, pages *tview.Pages, sysPage, resolverPage tview.Primitive) {
	fastTicker := time.NewTicker(5 * time.Second)  // system data and metrics
	slowTicker := time.NewTicker(15 * time.Second) // process list
	defer fastTicker.Stop()
	defer slowTicker.Stop()

	workerPool := make(chan struct{}, 3)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				log.Printf("Data collection goroutine recovered from panic: %v", r)
			}
		}()

		for {
			select {
			case <-ctx.Done():
				return
			case <-fastTicker.C:
				select {
				case workerPool <- struct{}{}:
					go func() {
						defer func() { <-workerPool }()
						updateSystemAndMetrics()
					}()
				default:
					// Skip if the worker pool is full.
				}
			case <-slowTicker.C:
				select {
				case workerPool <- struct{}{}:
					go func() {
						defer func() { <-workerPool }()
						updateProcessData()
					}()
				default:
				}
			}
		}
	}()

	uiTicker := time.NewTicker(2 * time.Second)
	defer uiTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-uiTicker.C:
			app.QueueUpdateDraw(func() {
				updateUIComponents(pages, sysPage, resolverPage)
			})
		}
	}
}

func updateSystemAndMetrics() {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("updateSystemAndMetrics recovered from panic: %v", r)
		}
	}()

	memUsage, cpuUsage, cores, err := fetchSystemData()
	if err != nil {
		log.Printf("Error fetching system data: %v", err)
		return
	}

	var metrics map[string]float64
	if metricsEnabled {
		metrics, err = fetchMetrics()
		if err != nil {
			log.Printf("Error fetching metrics: %v", err)
			metrics = make(map[string]float64)
		}
	}

	state.mu.Lock()
	state.systemData = systemData{memUsage, cpuUsage, cores}
	state.metrics = metrics
	state.lastUpdate = time.Now()
	state.mu.Unlock()
}

func updateProcessData() {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("updateProcessData recovered from panic: %v", r)
		}
	}()

	processes, err := fetchProcessList()
	if err != nil {
		log.Printf("Error fetching process list: %v", err)
		return
	}

	resolverInfo, err := fetchResolverInfo()
	if err != nil {
		log.Printf("Error fetching resolver info: %v", err)
	}

	state.mu.Lock()
	state.processes = processes
	state.resolverInfo = resolverInfo
	state.mu.Unlock()
}

func updateUIComponents(pages *tview.Pages, sysPage, resolverPage tview.Primitive) {
	currentPage, _ := pages.GetFrontPage()

	state.mu.RLock()
	defer state.mu.RUnlock()

	switch currentPage {
	case "system":
		sysFlex := sysPage.(*tview.Flex)

		sysTable := sysFlex.GetItem(0).(*tview.Table)
		updateSystemTable(sysTable, state.systemData.memUsage, state.systemData.cpuUsage, state.systemData.cores)

		if metricsEnabled && len(state.metrics) > 0 {
			metricsTable := sysFlex.GetItem(1).(*tview.Table)
			updateMetricsTable(metricsTable, state.metrics)
		}

		if len(state.processes) > 0 {
			processTable := sysFlex.GetItem(2).(*tview.Table)
			updateProcessTable(processTable, state.processes)
		}

	case "resolver":
		if state.resolverInfo != nil {
			resolverFlex := resolverPage.(*tview.Flex)
			resolverTable := resolverFlex.GetItem(0).(*tview.Table)
			updateResolverTable(resolverTable, state.resolverInfo, state.metrics)
		}
	}
}

func updateSystemTable(sysTable *tview.Table, memUsage, cpuUsage float64, cores int) {
	sysTable.Clear()
	sysTable.SetCell(0, 0, tview.NewTableCell("Metric").SetAttributes(tcell.AttrBold))
	sysTable.SetCell(0, 1, tview.NewTableCell("Value").SetAttributes(tcell.AttrBold))

	cpuUsageCell := tview.NewTableCell(fmt.Sprintf("%.2f%%", cpuUsage))
	if cpuUsage > HighUsage {
		cpuUsageCell.SetTextColor(tcell.ColorRed)
	} else if cpuUsage > MediumUsage {
		cpuUsageCell.SetTextColor(tcell.ColorYellow)
	} else {
		cpuUsageCell.SetTextColor(tcell.ColorGreen)
	}
	sysTable.SetCell(1, 0, tview.NewTableCell("CPU Usage"))
	sysTable.SetCell(1, 1, cpuUsageCell)

	memUsageCell := tview.NewTableCell(fmt.Sprintf("%.2f%%", memUsage))
	if memUsage > HighUsage {
		memUsageCell.SetTextColor(tcell.ColorRed)
	} else if memUsage > MediumUsage {
		memUsageCell.SetTextColor(tcell.ColorYellow)
	} else {
		memUsageCell.SetTextColor(tcell.ColorGreen)
	}
	sysTable.SetCell(2, 0, tview.NewTableCell("Memory Usage"))
	sysTable.SetCell(2, 1, memUsageCell)

	sysTable.SetCell(3, 0, tview.NewTableCell("CPU Cores"))
	sysTable.SetCell(3, 1, tview.NewTableCell(fmt.Sprintf("%d", cores)))
}

func updateMetricsTable(metricsTable *tview.Table, metrics map[string]float64) {
	metricsTable.Clear()
	metricsTable.SetCell(0, 0, tview.NewTableCell("Metric").SetAttributes(tcell.AttrBold))
	metricsTable.SetCell(0, 1, tview.NewTableCell("Value").SetAttributes(tcell.AttrBold))

	keys := make([]string, 0, len(metrics))
	for key := range metrics {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	row := 1
	for _, key := range keys {
		metricsTable.SetCell(row, 0, tview.NewTableCell(key))
		metricsTable.SetCell(row, 1, tview.NewTableCell(fmt.Sprintf("%.2f", metrics[key])))
		row++
	}
}

func updateProcessTable(processTable *tview.Table, processes []ProcessInfo) {
	processTable.Clear()
	processTable.SetCell(0, 0, tview.NewTableCell("PID").SetAttributes(tcell.AttrBold))
	processTable.SetCell(0, 1, tview.NewTableCell("Name").SetAttributes(tcell.AttrBold))
	processTable.SetCell(0, 2, tview.NewTableCell("CPU%").SetAttributes(tcell.AttrBold))
	processTable.SetCell(0, 3, tview.NewTableCell("Mem%").SetAttributes(tcell.AttrBold))
	processTable.SetCell(0, 4, tview.NewTableCell("Command").SetAttributes(tcell.AttrBold))

	sort.Slice(processes, func(i, j int) bool {
		return processes[i].CPUPercent > processes[j].CPUPercent
	})

	maxRows := 20
	if len(processes) < maxRows {
		maxRows = len(processes)
	}

	for i := 0; i < maxRows; i++ {
		p := processes[i]
		processTable.SetCell(i+1, 0, tview.NewTableCell(fmt.Sprintf("%d", p.PID)))
		processTable.SetCell(i+1, 1, tview.NewTableCell(p.Name))
		processTable.SetCell(i+1, 2, tview.NewTableCell(fmt.Sprintf("%.2f", p.CPUPercent)))
		processTable.SetCell(i+1, 3, tview.NewTableCell(fmt.Sprintf("%.2f", p.MemPercent)))
		processTable.SetCell(i+1, 4, tview.NewTableCell(p.CommandLine))
	}
}

func updateResolverTable(resolverTable *tview.Table, info *ProcessInfo, metrics map[string]float64) {
	resolverTable.Clear()
	resolverTable.SetCell(0, 0, tview.NewTableCell("Property").SetAttributes(tcell.AttrBold))
	resolverTable.SetCell(0, 1, tview.NewTableCell("Value").SetAttributes(tcell.AttrBold))

	resolverTable.SetCell(1, 0, tview.NewTableCell("PID"))
	resolverTable.SetCell(1, 1, tview.NewTableCell(fmt.Sprintf("%d", info.PID)))

	resolverTable.SetCell(2, 0, tview.NewTableCell("CPU%"))
	resolverTable.SetCell(2, 1, tview.NewTableCell(fmt.Sprintf("%.2f", info.CPUPercent)))

	resolverTable.SetCell(3, 0, tview.NewTableCell("Mem%"))
	resolverTable.SetCell(3, 1, tview.NewTableCell(fmt.Sprintf("%.2f", info.MemPercent)))

	resolverTable.SetCell(4, 0, tview.NewTableCell("Command"))
	resolverTable.SetCell(4, 1, tview.NewTableCell(info.CommandLine))

	resolverTable.SetCell(5, 0, tview.NewTableCell("Uptime"))
	resolverTable.SetCell(5, 1, tview.NewTableCell(info.Uptime))

	resolverTable.SetCell(6, 0, tview.NewTableCell("Status"))
	resolverTable.SetCell(6, 1, tview.NewTableCell(info.Status))

	resolverTable.SetCell(7, 0, tview.NewTableCell("Error Count"))
	resolverTable.SetCell(7, 1, tview.NewTableCell(fmt.Sprintf("%d", info.ErrorCount)))

	resolverTable.SetCell(8, 0, tview.NewTableCell("Total Requests"))
	resolverTable.SetCell(8, 1, tview.NewTableCell(fmt.Sprintf("%d", info.TotalRequests)))

	resolverTable.SetCell(9, 0, tview.NewTableCell("Active Connections"))
	resolverTable.SetCell(9, 1, tview.NewTableCell(fmt.Sprintf("%d", info.ActiveConnections)))

	resolverTable.SetCell(10, 0, tview.NewTableCell("Resolutions"))
	resolverTable.SetCell(10, 1, tview.NewTableCell(fmt.Sprintf("%d", info.Resolutions)))

	resolverTable.SetCell(11, 0, tview.NewTableCell("Cache Hit Rate"))
	resolverTable.SetCell(11, 1, tview.NewTableCell(fmt.Sprintf("%.1f%%", info.CacheHitRate)))

	row := 13
	resolverTable.SetCell(row, 0, tview.NewTableCell("Metric").SetAttributes(tcell.AttrBold))
	resolverTable.SetCell(row, 1, tview.NewTableCell("Value").SetAttributes(tcell.AttrBold))
	row++

	keys := make([]string, 0, len(metrics))
	for key := range metrics {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		resolverTable.SetCell(row, 0, tview.NewTableCell(key))
		resolverTable.SetCell(row, 1, tview.NewTableCell(fmt.Sprintf("%.2f", metrics[key])))
		row++
	}
}

func createSystemPage() tview.Primitive {
	sysTable := tview.NewTable().SetBorders(false)
	sysTable.SetTitle(" [::b]System Data ").SetBorder(true)

	metricsTable := tview.NewTable().SetBorders(false)
	metricsTable.SetTitle(" [::b]Prometheus Metrics ").SetBorder(true)

	processTable := tview.NewTable().SetBorders(false)
	processTable.SetTitle(" [::b]Process List ").SetBorder(true)

	sysFlex := tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(sysTable, 7, 0, false).
		AddItem(metricsTable, 0, 1, false).
		AddItem(processTable, 0, 2, false)

	return sysFlex
}

func createResolverPage() tview.Primitive {
	resolverTable := tview.NewTable().SetBorders(false)
	resolverTable.SetTitle(" [::b]mime-resolver Details ").SetBorder(true)

	resolverFlex := tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(resolverTable, 0, 1, false)

	return resolverFlex
}

func createLogsPage(ctx context.Context, app *tview.Application, logFilePath string) tview.Primitive {
	logsTextView := tview.NewTextView().
		SetDynamicColors(true).
		SetRegions(true).
		SetWordWrap(true)
	logsTextView.SetTitle(" [::b]Logs ").SetBorder(true)

	const numLines = 50

	go func() {
		ticker := time.NewTicker(5 * time.Second)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				content, err := readLastNLines(logFilePath, numLines)
				if err != nil {
					app.QueueUpdateDraw(func() {
						logsTextView.SetText(fmt.Sprintf("[red]Error reading log file: %v[white]", err))
					})
					continue
				}

				lines := strings.Split(content, "\n")
				coloredLines := make([]string, 0, len(lines))

				for _, line := range lines {
					if strings.Contains(line, "level=info") {
						coloredLines = append(coloredLines, "[green]"+line+"[white]")
					} else if strings.Contains(line, "level=warn") {
						coloredLines = append(coloredLines, "[yellow]"+line+"[white]")
					} else if strings.Contains(line, "level=error") {
						coloredLines = append(coloredLines, "[red]"+line+"[white]")
					} else {
						coloredLines = append(coloredLines, line)
					}
				}

				logContent := strings.Join(coloredLines, "\n")

				app.QueueUpdateDraw(func() {
					logsTextView.SetText(logContent)
				})
			}
		}
	}()

	return logsTextView
}

// readLastNLines reads backwards from the end of the file so large logs
// are never loaded whole.
func readLastNLines(filePath string, n int) (string, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return "", err
	}
	defer file.Close()

	const bufferSize = 1024
	buffer := make([]byte, bufferSize)
	var content []byte
	var fileSize int64

	fileInfo, err := file.Stat()
	if err != nil {
		return "", err
	}
	fileSize = fileInfo.Size()

	var offset int64 = 0
	for {
		if fileSize-offset < bufferSize {
			offset = fileSize
		} else {
			offset += bufferSize
		}

		_, err := file.Seek(-offset, io.SeekEnd)
		if err != nil {
			return "", err
		}

		bytesRead, err := file.Read(buffer)
		if err != nil && err != io.EOF {
			return "", err
		}

		content = append(buffer[:bytesRead], content...)

		if bytesRead < bufferSize || len(strings.Split(string(content), "\n")) > n+1 {
			break
		}

		if offset >= fileSize {
			break
		}
	}

	lines := strings.Split(string(content), "\n")
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return strings.Join(lines, "\n"), nil
}

func main() {
	app := tview.NewApplication()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pages := tview.NewPages()

	sysPage := createSystemPage()
	pages.AddPage("system", sysPage, true, true)

	resolverPage := createResolverPage()
	pages.AddPage("resolver", resolverPage, true, false)

	logsPage := createLogsPage(ctx, app, logFilePath)
	pages.AddPage("logs", logsPage, true, false)

	app.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		if event.Key() == tcell.KeyRune {
			switch event.Rune() {
			case 'q', 'Q':
				cancel()
				app.Stop()
				return nil
			case 's', 'S':
				pages.SwitchToPage("system")
			case 'r', 'R':
				pages.SwitchToPage("resolver")
			case 'l', 'L':
				pages.SwitchToPage("logs")
			}
		}
		return event
	})

	go updateUI(ctx, app, pages, sysPage, resolverPage)

	if err := app.SetRoot(pages, true).EnableMouse(true).Run(); err != nil {
		log.Fatalf("Error running application: %v", err)
	}
}
