package commands

import (
	"context"
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/alecthomas/kingpin/v2"
	"gopkg.in/yaml.v3"

	"github.com/brickforge/brickforge/pkg/builder"
)

type GenerateCommand struct {
	Cmd     *kingpin.CmdClause
	rootCmd *RootCommand

	prompt        string
	imagePaths    []string
	size          string
	advanced      bool
	noCache       bool
	useInventory  bool
	inventoryPath string
}

// NewGenerateCommand returns the generate command.
func NewGenerateCommand(rootCmd *RootCommand, app *kingpin.Application) *GenerateCommand {
	c := &GenerateCommand{rootCmd: rootCmd}

	c.Cmd = app.Command("generate", "Generate a brick model from a text prompt or photos.")
	c.Cmd.Arg("prompt", "Text prompt describing the model.").Required().StringVar(&c.prompt)
	c.Cmd.Flag("image", "Photo to generate from, repeatable. Switches to image mode.").StringsVar(&c.imagePaths)
	c.Cmd.Flag("size", "Model size tier.").Default(string(builder.SizeMedium)).EnumVar(&c.size, string(builder.SizeSmall), string(builder.SizeMedium), string(builder.SizeLarge))
	c.Cmd.Flag("advanced", "Skip the first-build simplification.").BoolVar(&c.advanced)
	c.Cmd.Flag("no-cache", "Force a fresh generation even when a cached result exists.").BoolVar(&c.noCache)
	c.Cmd.Flag("use-inventory", "Constrain the design to the brick inventory.").BoolVar(&c.useInventory)
	c.Cmd.Flag("inventory", "YAML file with the brick inventory.").StringVar(&c.inventoryPath)

	return c
}

func (c GenerateCommand) Name() string { return c.Cmd.FullCommand() }

func (c GenerateCommand) Run(ctx context.Context) error {
	client, err := c.rootCmd.newClient(ctx)
	if err != nil {
		return err
	}
	defer client.Close()

	opts := builder.GenerateOptions{
		Mode:         builder.ModeText,
		Prompt:       c.prompt,
		Size:         builder.ModelSize(c.size),
		AdvancedMode: c.advanced,
		BypassCache:  c.noCache,
		UseInventory: c.useInventory,
	}

	if len(c.imagePaths) > 0 {
		images, err := loadImages(c.imagePaths)
		if err != nil {
			return err
		}
		opts.Mode = builder.ModeImage
		opts.Images = images
	}

	if c.inventoryPath != "" {
		inventory, err := loadInventory(c.inventoryPath)
		if err != nil {
			return err
		}
		opts.Inventory = inventory
	}

	stopProgress := c.showProgress(client)
	result, err := client.Generate(ctx, opts)
	stopProgress()
	if err != nil {
		return fmt.Errorf("could not generate model: %w", err)
	}

	printResult(c.rootCmd, *result)

	return nil
}

// showProgress prints the storytelling stage messages to stderr while a
// generation runs. It returns a stop function that blocks until the printer
// is done.
func (c GenerateCommand) showProgress(client *builder.Client) func() {
	done := make(chan struct{})
	finished := make(chan struct{})

	go func() {
		defer close(finished)

		var lastStage builder.GenerationStage
		ticker := time.NewTicker(250 * time.Millisecond)
		defer ticker.Stop()

		for {
			select {
			case <-done:
				return
			case <-ticker.C:
			}

			status := client.Status()
			if status.Stage == lastStage || status.Stage == builder.StageIdle {
				continue
			}
			lastStage = status.Stage

			message := builder.StageMessages(status.Mode)[status.Stage]
			if message == "" {
				continue
			}
			fmt.Fprintf(c.rootCmd.Stderr, "[%3d%%] %s\n", builder.StageProgress(status.Stage), message)
		}
	}()

	return func() {
		close(done)
		<-finished
	}
}

func printResult(rootCmd *RootCommand, result builder.GenerationResult) {
	fmt.Fprintf(rootCmd.Stdout, "Task: %s\n", result.TaskID)
	fmt.Fprintf(rootCmd.Stdout, "Model: %s\n", result.ModelURL)
	if result.BrickCount > 0 {
		fmt.Fprintf(rootCmd.Stdout, "Bricks: %d\n", result.BrickCount)
	}
	if sa := result.StructuralAnalysis; sa != nil {
		fmt.Fprintf(rootCmd.Stdout, "Buildability score: %.0f\n", sa.BuildabilityScore)
		for _, issue := range sa.Issues {
			fmt.Fprintf(rootCmd.Stdout, "Issue (%s): %s\n", issue.Severity, issue.Description)
		}
		for _, rec := range sa.Recommendations {
			fmt.Fprintf(rootCmd.Stdout, "Recommendation: %s\n", rec)
		}
	}
}

// loadImages reads photo files into memory for an image mode generation.
func loadImages(paths []string) ([]builder.ImageFile, error) {
	images := make([]builder.ImageFile, 0, len(paths))
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("could not read image %q: %w", path, err)
		}

		info, err := os.Stat(path)
		if err != nil {
			return nil, fmt.Errorf("could not stat image %q: %w", path, err)
		}

		mediaType := mime.TypeByExtension(strings.ToLower(filepath.Ext(path)))
		if mediaType == "" {
			mediaType = "application/octet-stream"
		}

		images = append(images, builder.ImageFile{
			Name:      filepath.Base(path),
			MediaType: mediaType,
			ModTime:   info.ModTime(),
			Data:      data,
		})
	}

	return images, nil
}

// loadInventory parses a YAML brick inventory file.
func loadInventory(path string) ([]builder.Brick, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("could not read inventory %q: %w", path, err)
	}

	var inventory []builder.Brick
	if err := yaml.Unmarshal(data, &inventory); err != nil {
		return nil, fmt.Errorf("could not parse inventory %q: %w", path, err)
	}

	return inventory, nil
}
