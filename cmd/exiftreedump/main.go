// Command exiftreedump reads a raw TIFF/Exif buffer and prints its
// component tree, in the spirit of garyhouston-tiff66's tiff66print but
// backed by this module's tagged-variant Reader/Printer traversals.
package main

import (
	"fmt"
	"os"

	"github.com/jessevdk/go-flags"

	"github.com/mallman/exiv2"
)

type options struct {
	Decode bool `short:"d" long:"decode" description:"also dump decoded Exif/IPTC/XMP records"`

	Args struct {
		File string `positional-arg-name:"file" description:"path to a raw TIFF/Exif buffer"`
	} `positional-args:"yes" required:"yes"`
}

func main() {
	var opts options
	parser := flags.NewParser(&opts, flags.Default)
	if _, err := parser.Parse(); err != nil {
		os.Exit(1)
	}

	data, err := os.ReadFile(opts.Args.File)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	bo, ifdOffset, ok := exiv2.ParseTiffHeader(data)
	if !ok {
		fmt.Fprintln(os.Stderr, "not a recognized TIFF/Exif header")
		os.Exit(1)
	}

	cfg := exiv2.LoadDefaultConfig()
	schema := exiv2.NewDefaultSchema(cfg)
	mnFactory := exiv2.NewDefaultMakernoteFactory(cfg)

	reader := exiv2.NewReader(data, bo, schema, mnFactory)
	tree, err := reader.Read(ifdOffset)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	printer := exiv2.NewPrinter()
	out, err := printer.Print(tree)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	fmt.Print(out)

	if !opts.Decode {
		return
	}

	decoder := exiv2.NewDecoder(
		tree,
		exiv2.NewDefaultDecoderRegistry(),
		exiv2.NewDefaultTagInfo(),
		exiv2.NewDefaultIptcParser(),
		exiv2.NewDefaultXmpParser(),
		exiv2.NewDefaultPhotoshop(),
	)
	if err := decoder.Decode(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	fmt.Println()
	fmt.Println("Decoded Exif records:")
	for _, d := range decoder.Exif.All() {
		fmt.Printf("%s = %d byte(s)\n", d.Key(), d.Value.Size())
	}
}
