// Command pinmap prints a board variant's pin table and validation report.
//
//	go run ./cmd/pinmap            # every known variant
//	go run ./cmd/pinmap -v tbeam_1w -strict
package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"text/tabwriter"

	"meshnode-go/variant"
	"meshnode-go/variants"
)

var (
	variantName = flag.String("v", "", "Variant name. Empty prints every known variant")
	strict      = flag.Bool("strict", false, "Exit non-zero when a variant has validation errors")
)

func main() {
	flag.Parse()
	log.SetFlags(0)

	list := variants.All()
	if *variantName != "" {
		v, ok := variants.ByName(*variantName)
		if !ok {
			log.Fatalf("unknown variant %q", *variantName)
		}
		list = []variant.Variant{v}
	}

	failed := false
	for i, v := range list {
		if i > 0 {
			fmt.Println()
		}
		rep := variant.Validate(v)
		printVariant(os.Stdout, v, rep)
		failed = failed || !rep.OK()
	}
	if *strict && failed {
		os.Exit(1)
	}
}

func printVariant(w io.Writer, v variant.Variant, rep variant.Report) {
	fmt.Fprintf(w, "%s (%s)\n", v.Name, v.SoC)
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for _, a := range v.Pins() {
		opt := ""
		if a.Optional {
			opt = "optional"
		}
		fmt.Fprintf(tw, "  %s\t%s\t%s\n", a.Role, a.Pin, opt)
	}
	tw.Flush()
	fmt.Fprintf(w, "  display=%s pmu=%s gnss_baud=%d dio2_rf_switch=%v\n",
		v.Display, v.PMU, v.GNSS.Baud, v.LoRa.DIO2AsRFSwitch)

	if len(rep.Issues) == 0 {
		fmt.Fprintln(w, "  ok")
		return
	}
	for _, is := range rep.Issues {
		fmt.Fprintf(w, "  %s\n", is)
	}
	if u := rep.Unconfigured(); len(u) > 0 {
		fmt.Fprintf(w, "  %d of %d roles unconfigured\n", len(u), len(v.Pins()))
	}
}
