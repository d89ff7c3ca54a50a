package main

import (
	"encoding/json"
	"fmt"
	"io/ioutil"
	"os"

	log "github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"

	"github.com/tdex-network/pubport"
	"github.com/tdex-network/pubport/config"
	"github.com/tdex-network/pubport/pkg/descriptor"
)

var version = "dev"

func main() {
	app := cli.NewApp()
	app.Version = version
	app.Name = "pubport CLI"
	app.Usage = "translate wallet public key exports into output descriptors"
	app.ArgsUsage = "[file]"
	app.Flags = []cli.Flag{
		&cli.BoolFlag{
			Name:  "json",
			Usage: "render the descriptors as json instead of text",
		},
	}
	app.Action = parseAction

	err := app.Run(os.Args)
	if err != nil {
		log.Fatal(err)
	}
}

func parseAction(ctx *cli.Context) error {
	content, err := readInput(ctx)
	if err != nil {
		return err
	}

	format, err := pubport.Parse(string(content))
	if err != nil {
		return err
	}

	if ctx.Bool("json") || config.GetString(config.OutputKey) == "json" {
		return printJSON(format)
	}
	return printText(format)
}

// readInput reads the export from the file argument, or from stdin when no
// argument is given.
func readInput(ctx *cli.Context) ([]byte, error) {
	if ctx.NArg() > 0 {
		return ioutil.ReadFile(ctx.Args().First())
	}
	return ioutil.ReadAll(os.Stdin)
}

func printText(format pubport.Format) error {
	fmt.Println("format:", format.Name())

	switch f := format.(type) {
	case *pubport.JSONFormat:
		for _, entry := range []struct {
			name        string
			descriptors *descriptor.Descriptors
		}{
			{"bip44", f.BIP44},
			{"bip49", f.BIP49},
			{"bip84", f.BIP84},
		} {
			if entry.descriptors == nil {
				continue
			}
			fmt.Println(entry.name)
			printDescriptors(entry.descriptors)
		}
	case *pubport.DescriptorFormat:
		printDescriptors(f.Descriptors)
	case *pubport.WasabiFormat:
		printDescriptors(f.Descriptors)
	case *pubport.ElectrumFormat:
		printDescriptors(f.Descriptors)
	case *pubport.KeyExpressionFormat:
		printDescriptors(f.Descriptors)
	}
	return nil
}

func printDescriptors(descriptors *descriptor.Descriptors) {
	fmt.Println("  external:", descriptors.External.String())
	fmt.Println("  internal:", descriptors.Internal.String())
}

func printJSON(format pubport.Format) error {
	out := map[string]interface{}{"format": format.Name()}

	switch f := format.(type) {
	case *pubport.JSONFormat:
		if f.BIP44 != nil {
			out["bip44"] = f.BIP44
		}
		if f.BIP49 != nil {
			out["bip49"] = f.BIP49
		}
		if f.BIP84 != nil {
			out["bip84"] = f.BIP84
		}
	case *pubport.DescriptorFormat:
		out["descriptors"] = f.Descriptors
	case *pubport.WasabiFormat:
		out["descriptors"] = f.Descriptors
	case *pubport.ElectrumFormat:
		out["descriptors"] = f.Descriptors
	case *pubport.KeyExpressionFormat:
		out["descriptors"] = f.Descriptors
	}

	buf, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(buf))
	return nil
}
