package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"metaQuery/internal/ingest"
	"metaQuery/internal/metaquery"
	"metaQuery/internal/server"
	"metaQuery/pkg/utils"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

// Define command line arguments
var (
	configPath string

	debug        bool
	silent       bool
	useGzip      bool
	mode         string
	filePaths    string
	dataDir      string
	searchString string
	selectRows   string
	outputPath   string
	addr         string
	provenance   string
	maxUploadMB  int
)

type config struct {
	DataDir        string `yaml:"dataDir"`
	FilePaths      string `yaml:"filePaths"`
	SearchString   string `yaml:"searchString"`
	SelectRows     string `yaml:"selectRows"`
	OutputPath     string `yaml:"outputPath"`
	Addr           string `yaml:"addr"`
	Provenance     string `yaml:"provenanceColumn"`
	UseGzip        bool   `yaml:"useGzip"`
	MaxUploadMB    int    `yaml:"maxUploadMB"`
	RequestTimeout int    `yaml:"requestTimeoutSeconds"`
}

var requestTimeout time.Duration

func init() {
	flag.StringVar(&configPath, "c", "", "Path to the configuration file")
	flag.BoolVar(&debug, "debug", false, "Enable debug mode")
	flag.BoolVar(&silent, "silent", false, "Enable silent mode")
	flag.BoolVar(&useGzip, "gzip", false, "Compress snapshot tables")
	flag.StringVar(&mode, "m", "", "Run mode: dedupe|show|export|serve")
	flag.StringVar(&filePaths, "f", "", "Metadata files. Comma separated glob patterns")
	flag.StringVar(&dataDir, "d", "", "Path to the snapshot directory")
	flag.StringVar(&searchString, "s", "", "Search string")
	flag.StringVar(&selectRows, "k", "", "Row indexes to export. Comma separated")
	flag.StringVar(&outputPath, "o", "", "Export file path")
	flag.StringVar(&addr, "addr", "", "Listen address in serve mode")

	logrus.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: time.RFC3339,
	})
}

func setLogLevel() {
	if debug {
		logrus.SetLevel(logrus.DebugLevel)
	} else if silent {
		logrus.SetLevel(logrus.ErrorLevel)
	} else {
		logrus.SetLevel(logrus.InfoLevel)
	}
}

func main() {
	defer func() {
		if r := recover(); r != nil {
			buf := make([]byte, 1024)
			n := runtime.Stack(buf, false)
			logrus.WithFields(logrus.Fields{
				"panic": r,
				"stack": string(buf[:n]),
			}).Error("A panic occurred")
		}
	}()

	flag.CommandLine.Parse(os.Args[1:])
	setLogLevel()

	if configPath != "" {
		if err := loadConfig(configPath); err != nil {
			logrus.WithError(err).WithField("configPath", configPath).Fatal("Failed to load configuration")
		}
	}
	setDefaults()

	if err := run(os.Stdout); err != nil {
		logrus.WithError(err).Fatal("Application encountered an error")
	}

	logrus.Info("Application finished successfully")
}

func setDefaults() {
	if mode == "" {
		mode = "show"
	}
	if outputPath == "" {
		outputPath = metaquery.CExportFileName
	}
	if addr == "" {
		addr = ":8080"
	}
	if provenance == "" {
		provenance = metaquery.CDefaultProvenanceColumn
	}
	if maxUploadMB == 0 {
		maxUploadMB = 32
	}
	if requestTimeout == 0 {
		requestTimeout = 60 * time.Second
	}
}

/*
*
---
dataDir: metadata
filePaths: /data/meta/*.csv,/data/meta/*.xlsx
searchString:
selectRows:
outputPath: new_meta_schema.xlsx
addr: ":{{ PORT }}"
provenanceColumn: Source_File
useGzip: false
maxUploadMB: 32
requestTimeoutSeconds: 60
*
*/
func loadConfig(path string) error {
	logrus.WithField("path", path).Info("Loading configuration")

	yamlFile, err := os.ReadFile(path)
	if err != nil {
		return errors.Wrap(err, "reading YAML file")
	}
	yamlContent := utils.ReplaceEnvVars(string(yamlFile))

	var c config
	if err := yaml.Unmarshal([]byte(yamlContent), &c); err != nil {
		return errors.Wrap(err, "unmarshalling YAML")
	}
	if dataDir == "" {
		dataDir = c.DataDir
	}
	if filePaths == "" {
		filePaths = c.FilePaths
	}
	if searchString == "" {
		searchString = c.SearchString
	}
	if selectRows == "" {
		selectRows = c.SelectRows
	}
	if outputPath == "" {
		outputPath = c.OutputPath
	}
	if addr == "" {
		addr = c.Addr
	}
	if provenance == "" {
		provenance = c.Provenance
	}
	if !useGzip {
		useGzip = c.UseGzip
	}
	if maxUploadMB == 0 {
		maxUploadMB = c.MaxUploadMB
	}
	if requestTimeout == 0 && c.RequestTimeout > 0 {
		requestTimeout = time.Duration(c.RequestTimeout) * time.Second
	}
	return nil
}

func run(out io.Writer) error {
	logrus.WithField("mode", mode).Info("Starting application")

	switch mode {
	case "dedupe":
		return runDedupe()
	case "show":
		return runShow(out)
	case "export":
		return runExport()
	case "serve":
		return runServe()
	default:
		return errors.New("-m: mode must be one of dedupe|show|export|serve")
	}
}

// loadTable reads -f when given, the snapshot in -d otherwise.
func loadTable() (*metaquery.Table, error) {
	if filePaths == "" {
		if dataDir == "" {
			return nil, ingest.ErrNoInput
		}
		return metaquery.LoadSnapshot(dataDir)
	}
	paths, err := utils.GetGlobFiles(utils.SplitList(filePaths))
	if err != nil {
		return nil, err
	}
	files, err := ingest.LoadPaths(paths)
	if err != nil {
		return nil, err
	}
	return ingest.Load(files, provenance)
}

func runPipeline() (*metaquery.Result, error) {
	t, err := loadTable()
	if err != nil {
		return nil, err
	}
	indexes, err := utils.ParseIntList(selectRows)
	if err != nil {
		return nil, err
	}
	return metaquery.Run(t, searchString, metaquery.NewSelection(indexes)), nil
}

func runDedupe() error {
	if filePaths == "" {
		return errors.New("-f: dedupe mode needs input files")
	}
	t, err := loadTable()
	if err != nil {
		return err
	}
	res := metaquery.Deduplicate(t)
	if res.Skipped {
		logrus.Warn(res.Warning)
	}
	logrus.WithFields(logrus.Fields{
		"before":  t.Len(),
		"after":   res.Kept.Len(),
		"removed": res.Removed.Len(),
	}).Info("Deduplicated")
	if dataDir == "" {
		return nil
	}
	if err := metaquery.SaveSnapshot(dataDir, res, useGzip); err != nil {
		return err
	}
	counts, err := metaquery.SnapshotCounts(dataDir)
	if err != nil {
		return err
	}
	fields := logrus.Fields{"dataDir": dataDir}
	for name, cnt := range counts {
		fields[name] = cnt
	}
	logrus.WithFields(fields).Info("Snapshot tables")
	return nil
}

func runShow(out io.Writer) error {
	res, err := runPipeline()
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Total rows before deduplication: %d\n", res.TotalBefore)
	fmt.Fprintf(out, "Total rows after deduplication: %d\n", res.TotalAfter)
	fmt.Fprintf(out, "Rows removed: %d\n", res.RemovedCount)
	if res.Warning != "" {
		fmt.Fprintf(out, "Warning: %s\n", res.Warning)
	}
	fmt.Fprintf(out, "Total Groups: %d\n", len(res.Groups))
	for _, g := range res.SelectionGroups() {
		fmt.Fprintf(out, "%s: %s (Count: %d)\n", res.ParentName(), g.Display, g.Count)
		for _, item := range g.Items {
			mark := " "
			if item.Checked {
				mark = "x"
			}
			fmt.Fprintf(out, "  [%s] %5d %s\n", mark, item.Index, item.Label)
		}
	}
	return nil
}

func runExport() error {
	res, err := runPipeline()
	if err != nil {
		return err
	}
	if err := writeExportFile(outputPath, res.Export); err != nil {
		return err
	}
	logrus.WithFields(logrus.Fields{
		"path":   outputPath,
		"column": res.TargetName(),
		"values": len(res.Export),
	}).Info("Exported")
	return nil
}

// writeExportFile reports a failed close, the workbook is only complete
// once the file is closed.
func writeExportFile(path string, values []metaquery.Cell) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.WithStack(err)
	}
	if err := metaquery.WriteExport(f, values); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return errors.Wrapf(err, "close %s", path)
	}
	return nil
}

func runServe() error {
	s, err := server.New(ingest.NewCache(provenance), server.Config{
		MaxUploadBytes: int64(maxUploadMB) << 20,
		RequestTimeout: requestTimeout,
	})
	if err != nil {
		return err
	}
	srv := &http.Server{
		Addr:         addr,
		Handler:      s.Router(),
		ReadTimeout:  requestTimeout,
		WriteTimeout: requestTimeout + 5*time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		logrus.WithField("addr", addr).Info("HTTP server listening")
		serverErrors <- srv.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		return errors.WithStack(err)
	case sig := <-shutdown:
		logrus.WithField("signal", sig.String()).Info("Shutdown signal received")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logrus.WithError(err).Error("Graceful shutdown failed")
		return srv.Close()
	}
	return nil
}
