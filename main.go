package main

import (
	"fmt"
	"io"
	"os"

	"github.com/Rafagd/ladybird/utils"
	"github.com/Rafagd/ladybird/wasm"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func main() {
	var rootCmd *cobra.Command
	rootCmd = &cobra.Command{
		Use: "wasm-dump <file>",
		Run: func(cmd *cobra.Command, args []string) {
			if len(args) < 1 {
				rootCmd.Usage()
				os.Exit(1)
			}
			filename := args[0]

			if utils.Must1(rootCmd.PersistentFlags().GetBool("verbose")) {
				logger, err := zap.NewDevelopment()
				if err != nil {
					exitWithError("could not set up logging: %v", err)
				}
				defer logger.Sync()
				wasm.SetLogger(logger)
			}

			var in io.Reader
			if filename == "-" {
				in = os.Stdin
			} else {
				var err error
				in, err = os.Open(filename)
				if err != nil {
					err := err.(*os.PathError)
					exitWithError("could not open file %s: %v", err.Path, err.Err)
				}
			}

			mod, err := wasm.DecodeModule(in)
			if err != nil {
				exitWithError("%v", err)
			}
			dump(mod, os.Stdout)
		},
	}
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Log sections as they decode.")
	utils.Must(rootCmd.Execute())
}

func dump(mod *wasm.Module, out io.Writer) {
	for _, section := range mod.Sections {
		switch s := section.(type) {
		case wasm.CustomSection:
			fmt.Fprintf(out, "custom section %q, %d bytes\n", s.Name, len(s.Contents))
		case wasm.TypeSection:
			fmt.Fprintf(out, "type section, %d types\n", len(s.Types))
			for i, t := range s.Types {
				fmt.Fprintf(out, "  %d: %v\n", i, t)
			}
		case wasm.ImportSection:
			fmt.Fprintf(out, "import section, %d imports\n", len(s.Imports))
			for _, imp := range s.Imports {
				fmt.Fprintf(out, "  %s.%s\n", imp.Module, imp.Name)
			}
		case wasm.FunctionSection:
			fmt.Fprintf(out, "function section, %d functions\n", len(s.Types))
		case wasm.TableSection:
			fmt.Fprintf(out, "table section, %d tables\n", len(s.Tables))
		case wasm.MemorySection:
			fmt.Fprintf(out, "memory section, %d memories\n", len(s.Memories))
		case wasm.GlobalSection:
			fmt.Fprintf(out, "global section, %d globals\n", len(s.Globals))
		case wasm.ExportSection:
			fmt.Fprintf(out, "export section, %d exports\n", len(s.Exports))
			for _, exp := range s.Exports {
				fmt.Fprintf(out, "  %s\n", exp.Name)
			}
		case wasm.StartSection:
			fmt.Fprintf(out, "start section, function %d\n", s.Function)
		case wasm.ElementSection:
			fmt.Fprintf(out, "element section, %d segments\n", len(s.Segments))
		case wasm.CodeSection:
			fmt.Fprintf(out, "code section, %d bodies\n", len(s.Entries))
		case wasm.DataSection:
			fmt.Fprintf(out, "data section, %d segments\n", len(s.Segments))
		case wasm.DataCountSection:
			if s.Count != nil {
				fmt.Fprintf(out, "data count section, %d segments\n", *s.Count)
			} else {
				fmt.Fprintf(out, "data count section, no count\n")
			}
		}
	}
}

func exitWithError(msg string, args ...any) {
	msg = fmt.Sprintf(msg, args...)
	fmt.Fprintf(os.Stderr, "ERROR: %s\n", msg)
	os.Exit(1)
}
