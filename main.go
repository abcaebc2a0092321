package main

import (
	"context"
	"embed"
	"flag"
	"fmt"
	"os"

	"github.com/wailsapp/wails/v2"
	"github.com/wailsapp/wails/v2/pkg/options"
	"github.com/wailsapp/wails/v2/pkg/options/assetserver"
)

//go:embed all:frontend/dist
var assets embed.FS

// Command line flags
var (
	pdfFlag = flag.String("pdf", "", "PDF file path to ingest (single or contest PDF)")
	zipFlag = flag.String("zip", "", "Zip archive of PDFs to ingest")
	cliFlag = flag.Bool("cli", false, "Run in CLI mode without GUI")
)

func main() {
	flag.Parse()

	app := NewApp()

	if *cliFlag {
		if err := runCLI(app); err != nil {
			fmt.Fprintln(os.Stderr, "错误:", err)
			os.Exit(1)
		}
		return
	}

	app.SetWailsRuntime(true)
	err := wails.Run(&options.App{
		Title:  "Contest Translator",
		Width:  1280,
		Height: 860,
		AssetServer: &assetserver.Options{
			Assets: assets,
		},
		OnStartup:  app.startup,
		OnShutdown: app.shutdown,
		Bind: []interface{}{
			app,
		},
	})
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// runCLI ingests the given input, extracts every unit, and translates each
// one when an API key is configured. Results are printed to stdout.
func runCLI(app *App) error {
	app.startup(context.Background())
	defer app.shutdown(context.Background())

	switch {
	case *pdfFlag != "":
		result, err := app.UploadSingleFile(*pdfFlag)
		if err != nil {
			return err
		}
		// Contest-mode split is advisory; in CLI mode apply it when offered.
		if result.SplitAvailable {
			if _, err := app.ConfirmSplit(); err != nil {
				return err
			}
		}
	case *zipFlag != "":
		if _, err := app.UploadArchive(*zipFlag); err != nil {
			return err
		}
	default:
		return fmt.Errorf("请使用 --pdf 或 --zip 指定输入文件")
	}

	hasKey := app.config.Get().APIKey != ""
	for _, unit := range app.Problems() {
		if err := app.ExtractText(unit.ID); err != nil {
			fmt.Fprintf(os.Stderr, "[%s] 提取失败: %v\n", unit.DisplayName, err)
			continue
		}
		if hasKey {
			if err := app.Translate(unit.ID); err != nil {
				fmt.Fprintf(os.Stderr, "[%s] 翻译失败: %v\n", unit.DisplayName, err)
				continue
			}
		}
		final, _, ok := app.store.GetByID(unit.ID)
		if !ok {
			continue
		}
		fmt.Printf("===== %s =====\n", final.DisplayName)
		if final.TranslatedText != "" {
			fmt.Println(final.TranslatedText)
		} else {
			fmt.Println(final.ExtractedText)
		}
	}
	return nil
}
