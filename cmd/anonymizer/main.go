package main

import (
	"fmt"
	"os"

	"github.com/DavidGamba/go-getoptions"

	"dicom-tag-anonymizer/internal/cli"
	"dicom-tag-anonymizer/internal/config"
)

func main() {
	var opts cli.Options

	opt := getoptions.New()
	opt.Bool("help", false, opt.Alias("h"),
		opt.Description("show help information"))
	opt.StringVar(&opts.InputDir, "input", "", opt.Alias("i"),
		opt.Description("directory containing DICOM files to anonymize"))
	opt.IntVar(&opts.Workers, "workers", 0, opt.Alias("p"),
		opt.Description("number of files processed in parallel (default from config)"))
	opt.StringSliceVar(&opts.Keep, "keep", 1, 1,
		opt.Description("catalog tag to keep unchanged, as GGGG,EEEE (repeatable)"))
	opt.BoolVar(&opts.ListTags, "list-tags", false,
		opt.Description("print the anonymization tag catalog and exit"))
	opt.BoolVar(&opts.DryRun, "dry-run", false, opt.Alias("n"),
		opt.Description("list the files that would be processed, write nothing"))
	opt.BoolVar(&opts.Debug, "debug", false,
		opt.Description("verbose logging"))

	if _, err := opt.Parse(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n%s", err, opt.Help())
		os.Exit(1)
	}

	if opt.Called("help") || len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, opt.Help())
		return
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if err := cli.Run(opts, cfg); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
