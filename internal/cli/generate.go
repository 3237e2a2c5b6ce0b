package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/enowx/forger/pkg/generate"
	"github.com/enowx/forger/pkg/generate/local"
)

type generateOpts struct {
	templates string
	only      []string
	out       string
	open      bool
	noTUI     bool
}

func (c *CLI) generateCommand() *cobra.Command {
	opts := generateOpts{}

	cmd := &cobra.Command{
		Use:   "generate <image>",
		Short: "Generate icon sets for one or more templates from a source image",
		Long: `Generate resizes a source image into every icon listed by the selected
templates. Templates are read from a TOML file:

  [[template]]
  id = "android"
  name = "Android"

  [[template.icons]]
  name = "mipmap-hdpi/ic_launcher.png"
  width = 72
  height = 72
  format = "png"

Each template is written to <out>/<template id>.`,
		Example: `  forger generate logo.png --templates templates.toml
  forger generate logo.png -t templates.toml --only android,favicon --open`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runGenerate(cmd.Context(), args[0], opts)
		},
	}

	cmd.Flags().StringVarP(&opts.templates, "templates", "t", "", "template definitions (TOML)")
	cmd.Flags().StringSliceVar(&opts.only, "only", nil, "template ids to generate, in order (default: all)")
	cmd.Flags().StringVarP(&opts.out, "out", "o", "", "output directory (default from settings, then ~/Documents)")
	cmd.Flags().BoolVar(&opts.open, "open", false, "open the output folder when done")
	cmd.Flags().BoolVar(&opts.noTUI, "no-tui", false, "log progress instead of the live view")
	_ = cmd.MarkFlagRequired("templates")

	return cmd
}

func (c *CLI) runGenerate(ctx context.Context, imagePath string, opts generateOpts) error {
	templates, err := generate.LoadTemplates(opts.templates)
	if err != nil {
		return err
	}
	if len(opts.only) > 0 {
		if templates, err = generate.Select(templates, opts.only); err != nil {
			return err
		}
	}

	image, err := readImage(imagePath)
	if err != nil {
		return err
	}

	a, err := c.openApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	bus := generate.NewBus(c.Logger)
	runner := local.New(bus, c.Logger)
	orch := generate.New(runner, bus, c.Logger)
	defer orch.Close()

	out := opts.out
	if out == "" {
		out = a.settings.Get().GenerateOutputPath
	}
	if out == "" {
		if out, err = runner.DefaultOutputPath(ctx); err != nil {
			return err
		}
	}

	var res generate.Result
	if !opts.noTUI && isatty.IsTerminal(os.Stdout.Fd()) {
		res, err = runGenerateTUI(ctx, orch, image, out, templates)
	} else {
		res, err = runGenerateLogged(ctx, c.Logger, orch, image, out, templates)
	}
	if err != nil {
		if errors.Is(err, context.Canceled) {
			printWarning("Generation canceled")
		}
		if len(res.Generated) == 0 && len(res.Failed) == 0 {
			return classify(err, imagePath)
		}
	}

	printGenerateResult(res)

	if opts.open && len(res.Generated) > 0 {
		if err := runner.OpenFolder(ctx, res.OutputPath); err != nil {
			printWarning("Could not open %s: %v", res.OutputPath, err)
		}
	}
	if err != nil {
		return err
	}
	if !res.Success {
		return fmt.Errorf("%d icons failed", len(res.Failed))
	}
	return nil
}

// readImage loads path as a data URI, sniffing the MIME type from content.
func readImage(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read image: %w", err)
	}
	return generate.EncodeDataURI(http.DetectContentType(data), data), nil
}

func runGenerateTUI(ctx context.Context, orch *generate.Orchestrator, image, out string, templates []generate.Template) (generate.Result, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	updates, unsubscribe := orch.Subscribe()
	defer unsubscribe()

	done := make(chan doneMsg, 1)
	go func() {
		res, err := orch.GenerateAll(ctx, image, out, templates)
		done <- doneMsg{result: res, err: err}
	}()

	final, err := tea.NewProgram(newGenerateModel(updates, done, cancel, len(templates))).Run()
	if err != nil {
		cancel()
		msg := <-done
		return msg.result, msg.err
	}
	m := final.(generateModel)
	if m.result == nil {
		cancel()
		msg := <-done
		return msg.result, msg.err
	}
	return m.result.result, m.result.err
}

func runGenerateLogged(ctx context.Context, logger *log.Logger, orch *generate.Orchestrator, image, out string, templates []generate.Template) (generate.Result, error) {
	updates, unsubscribe := orch.Subscribe()
	stopped := make(chan struct{})
	go func() {
		defer close(stopped)
		logProgress(logger, updates)
	}()

	prog := newProgress(logger)
	res, err := orch.GenerateAll(ctx, image, out, templates)
	unsubscribe()
	<-stopped
	prog.done("generation complete", "templates", len(templates))
	return res, err
}

// logProgress logs each icon the orchestrator reports until updates closes.
func logProgress(logger *log.Logger, updates <-chan generate.Progress) {
	var last string
	for p := range updates {
		if !p.IsGenerating || p.CurrentIcon == "" {
			continue
		}
		key := fmt.Sprintf("%s/%d", p.CurrentTemplate, p.Current)
		if key == last {
			continue
		}
		last = key
		logger.Info("generating", "template", p.CurrentTemplate, "icon", p.CurrentIcon,
			"progress", fmt.Sprintf("%d/%d", p.Current, p.Total))
	}
}

func printGenerateResult(res generate.Result) {
	printNewline()
	if res.TemplateName != "" {
		printKeyValue("Templates", res.TemplateName)
	}
	printKeyValue("Output", res.OutputPath)
	fmt.Println(formatCounts(
		countPart{len(res.Generated), "generated"},
		countPart{len(res.Failed), "failed"},
	))
	for _, f := range res.Failed {
		printError("%s: %s", f.Name, f.Error)
	}
	if res.Success {
		printSuccess("All icons generated")
	}
}
