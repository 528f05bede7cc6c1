// Command reportcard-render renders a report card from JSON input without a
// database, for reprints and template checks.
//
//	reportcard-render -data card.json [-template template.json] [-format pdf] [-out card.pdf]
package main

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-reportcard-api/internal/models"
	"github.com/noah-isme/sma-reportcard-api/internal/reportcard"
	"github.com/noah-isme/sma-reportcard-api/pkg/config"
	"github.com/noah-isme/sma-reportcard-api/pkg/export"
	"github.com/noah-isme/sma-reportcard-api/pkg/logger"
	"github.com/noah-isme/sma-reportcard-api/pkg/storage"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	cfg.Log.Format = "console"
	logr, err := logger.New(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer logr.Sync() //nolint:errcheck

	if err := run(os.Args[1:], os.Stdin, os.Stdout, cfg.Grading.ReportCardPassThreshold, logr); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		logr.Error("render failed", zap.Error(err))
		os.Exit(1)
	}
}

type options struct {
	dataPath     string
	templatePath string
	format       string
	outPath      string
	threshold    float64
}

func parseFlags(args []string, defaultThreshold float64) (options, error) {
	var opts options
	fs := flag.NewFlagSet("reportcard-render", flag.ContinueOnError)
	fs.StringVar(&opts.dataPath, "data", "-", "report card data JSON file, - for stdin")
	fs.StringVar(&opts.templatePath, "template", "", "optional template JSON file")
	fs.StringVar(&opts.format, "format", "html", "output format: html or pdf")
	fs.StringVar(&opts.outPath, "out", "-", "output file, - for stdout")
	fs.Float64Var(&opts.threshold, "threshold", defaultThreshold, "pass threshold in percent")
	if err := fs.Parse(args); err != nil {
		return opts, err
	}
	opts.format = strings.ToLower(strings.TrimSpace(opts.format))
	if opts.format != string(models.ReportFormatHTML) && opts.format != string(models.ReportFormatPDF) {
		return opts, fmt.Errorf("unsupported format %q", opts.format)
	}
	if opts.format == string(models.ReportFormatPDF) && opts.outPath == "-" {
		return opts, errors.New("pdf output needs -out")
	}
	return opts, nil
}

func run(args []string, stdin io.Reader, stdout io.Writer, defaultThreshold float64, logr *zap.Logger) error {
	opts, err := parseFlags(args, defaultThreshold)
	if err != nil {
		return err
	}

	var data models.ReportCardData
	if err := decodeJSON(opts.dataPath, stdin, &data); err != nil {
		return fmt.Errorf("read data: %w", err)
	}
	validate := validator.New()
	if err := validate.Struct(&data); err != nil {
		return fmt.Errorf("invalid data: %w", err)
	}

	var tpl *models.ReportCardTemplateConfig
	if opts.templatePath != "" {
		tpl = &models.ReportCardTemplateConfig{}
		if err := decodeJSON(opts.templatePath, nil, tpl); err != nil {
			return fmt.Errorf("read template: %w", err)
		}
		if err := validate.Struct(tpl); err != nil {
			return fmt.Errorf("invalid template: %w", err)
		}
	}

	composer := reportcard.New(opts.threshold)
	var out []byte
	if opts.format == string(models.ReportFormatPDF) {
		doc, err := composer.Document(&data, tpl)
		if err != nil {
			return err
		}
		if out, err = export.NewPDFExporter().Render(doc); err != nil {
			return err
		}
	} else {
		html, err := composer.Compose(&data, tpl)
		if err != nil {
			return err
		}
		out = []byte(html)
	}

	if opts.outPath == "-" {
		_, err = stdout.Write(out)
		return err
	}
	store, err := storage.NewFileStore(filepath.Dir(opts.outPath))
	if err != nil {
		return err
	}
	if err := store.Save(filepath.Base(opts.outPath), out); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	logr.Info("report card rendered", zap.String("out", opts.outPath), zap.String("format", opts.format), zap.Int("bytes", len(out)))
	return nil
}

func decodeJSON(path string, stdin io.Reader, dest interface{}) error {
	var r io.Reader
	if path == "-" {
		if stdin == nil {
			return errors.New("stdin not available")
		}
		r = stdin
	} else {
		f, err := os.Open(path)
		if err != nil {
			return err
		}
		defer f.Close()
		r = f
	}
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	return dec.Decode(dest)
}
