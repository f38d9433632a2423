package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/dangom/dicomsum/cmd/dicomsum/view"
	"github.com/dangom/dicomsum/internal/config"
	"github.com/dangom/dicomsum/internal/protocol"
	"github.com/dangom/dicomsum/internal/tool"
)

// version is set at build time via -ldflags
var version = "dev"

func main() {
	search := flag.String("search", "", "Print the value of a single tag (catalog name or gggg,eeee code)")
	convert := flag.Bool("convert", false, "Convert the target directory to NIfTI")
	volumes := flag.Bool("volumes", false, "Print the DICOM file count of the target directory")

	interactive := flag.Bool("interactive", false, "Launch interactive mode")
	flag.BoolVar(interactive, "i", false, "Launch interactive mode (shortcut)")

	configFile := flag.String("config", "", "Load configuration from YAML file")
	saveConfig := flag.String("save-config", "", "Save the effective configuration to YAML file")

	help := flag.Bool("help", false, "Show help message")
	showVersion := flag.Bool("version", false, "Show version")

	flag.Parse()

	if *showVersion {
		fmt.Printf("dicomsum %s\n", version)
		os.Exit(0)
	}

	if *help {
		printHelp()
		os.Exit(0)
	}

	// Resolve configuration: explicit file, else per-user default.
	cfgPath := *configFile
	if cfgPath == "" {
		if p, err := config.DefaultPath(); err == nil {
			cfgPath = p
		}
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}

	timeout, err := cfg.TimeoutDuration()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if *saveConfig != "" {
		if err := cfg.Save(*saveConfig); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: could not save config: %v\n", err)
		} else {
			fmt.Printf("Configuration saved to %s\n", *saveConfig)
		}
	}

	dumper := &tool.HeaderDumper{Bin: cfg.DCMDump, Timeout: timeout}
	converter := &tool.NiftiConverter{Bin: cfg.DCM2NIIX, Timeout: timeout}

	if *interactive {
		if err := view.Run(dumper, converter, cfg.Extensions); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		os.Exit(0)
	}

	target := flag.Arg(0)
	if target == "" {
		fmt.Fprintf(os.Stderr, "Error: a target file or directory is required\n")
		printUsage()
		os.Exit(1)
	}

	ctx := context.Background()

	switch {
	case *search != "":
		value, err := protocol.SearchTag(ctx, dumper, *search, target)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		fmt.Println(value)

	case *convert:
		out, err := converter.Convert(ctx, target)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error converting %s: %v\n", target, err)
			os.Exit(1)
		}
		fmt.Print(out)
		fmt.Println("\n✓ Conversion complete!")

	case *volumes:
		n, err := tool.CountVolumes(target, cfg.Extensions)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		fmt.Println(n)

	default:
		n, err := tool.CountVolumes(filepath.Dir(target), cfg.Extensions)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error counting volumes: %v\n", err)
			os.Exit(1)
		}
		summary, err := protocol.BuildSummary(ctx, dumper, target, n)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		fmt.Println(summary)
	}
}

func printUsage() {
	fmt.Fprintln(os.Stderr, "\nUsage:")
	fmt.Fprintln(os.Stderr, "  dicomsum [options] <file|dir>")
	fmt.Fprintln(os.Stderr, "\nOptions:")
	flag.PrintDefaults()
}

func printHelp() {
	fmt.Println("dicomsum")
	fmt.Println("========")
	fmt.Println()
	fmt.Println("Summarize the acquisition protocol of a DICOM file.")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  dicomsum <file>                 Print the protocol summary and raw header dump")
	fmt.Println("  dicomsum -search <tag> <file>   Print the value of one tag")
	fmt.Println("  dicomsum -convert <dir>         Convert a DICOM directory to NIfTI")
	fmt.Println("  dicomsum -volumes <dir>         Count the DICOM files in a directory")
	fmt.Println("  dicomsum -i                     Launch interactive mode")
	fmt.Println()
	fmt.Println("Options:")
	fmt.Println("  -search <NAME|CODE>   Tag name (e.g. RepetitionTime) or code (e.g. 0018,0080)")
	fmt.Println("  -config <PATH>        Load configuration from YAML file")
	fmt.Println("  -save-config <PATH>   Save the effective configuration to YAML file")
	fmt.Println("  -version              Show version")
	fmt.Println("  -help                 Show this help message")
	fmt.Println()
	fmt.Println("Examples:")
	fmt.Println("  # Summarize one functional run")
	fmt.Println("  dicomsum sub-01/func/001.dcm")
	fmt.Println()
	fmt.Println("  # Look up the repetition time")
	fmt.Println("  dicomsum -search RepetitionTime sub-01/func/001.dcm")
	fmt.Println()
	fmt.Println("  # Search a private tag by code")
	fmt.Println("  dicomsum -search 0051,1011 sub-01/func/001.dcm")
	fmt.Println()
	fmt.Println("  # Export a session to NIfTI")
	fmt.Println("  dicomsum -convert sub-01/func")
	fmt.Println()
	fmt.Println("External tools:")
	fmt.Println("  dicomsum shells out to dcmdump (DCMTK) for header extraction and to")
	fmt.Println("  dcm2niix for conversion. Both paths are configurable:")
	fmt.Println()
	fmt.Println("  dcmdump: dcmdump")
	fmt.Println("  dcm2niix: dcm2niix")
	fmt.Println("  extensions: [dcm, ima, IMA]")
	fmt.Println("  timeout: 2m")
}
